package buildinfo

import (
	"runtime"
	"runtime/debug"
	"sync"
)

// Name is the program name.
const Name = "tokgate"

// Set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

// Info contains build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

var fillOnce sync.Once

// fill replaces unset values with what the toolchain embedded.
func fill() {
	if GoVersion == "unknown" {
		GoVersion = runtime.Version()
	}
	bi, ok := debug.ReadBuildInfo()
	if !ok || Commit != "unknown" {
		return
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			Commit = s.Value
			if len(Commit) > 12 {
				Commit = Commit[:12]
			}
		}
	}
}

// Get returns the build information.
func Get() Info {
	fillOnce.Do(fill)
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String returns a one-line version string.
func String() string {
	i := Get()
	return Name + " " + i.Version + " (" + i.Commit + ") built at " + i.BuildTime + " with " + i.GoVersion
}

// UserAgent returns the User-Agent sent on API requests.
func UserAgent() string {
	return Name + "/" + Version
}
