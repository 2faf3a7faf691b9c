// Package buildinfo exposes version information injected at build time:
//
//	go build -ldflags "-X github.com/yndnr/tokgate/internal/infra/buildinfo.Version=v1.2.0 \
//	  -X github.com/yndnr/tokgate/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// When ldflags are not set, Commit and GoVersion fall back to what the Go
// toolchain embedded in the binary.
package buildinfo
