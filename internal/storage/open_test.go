package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/yndnr/tokgate/internal/core/domain"
	"github.com/yndnr/tokgate/internal/storage/memory"
	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

func TestOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	dir := t.TempDir()

	tests := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Kind: BackendMemory}},
		{"file default", Config{File: filepath.Join(dir, "s.yaml")}},
		{"file chacha", Config{Kind: "FILE", File: filepath.Join(dir, "c.yaml"), Cipher: "chacha20-poly1305"}},
		{"file passphrase", Config{Kind: BackendFile, File: filepath.Join(dir, "p.yaml"), Passphrase: "long enough pass"}},
		{"badger", Config{Kind: BackendBadger, BadgerDir: filepath.Join(dir, "badger")}},
		{"redis", Config{Kind: BackendRedis, RedisAddr: mr.Addr()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			b, err := Open(ctx, tt.cfg, logger.Nop())
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer b.Close()

			if err := b.Save(ctx, &domain.PersistedSession{Token: "tok"}); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			rec, err := b.Load(ctx)
			if err != nil || rec == nil || rec.Token != "tok" {
				t.Fatalf("Load() = (%+v, %v)", rec, err)
			}
			if err := b.Clear(ctx); err != nil {
				t.Fatalf("Clear() error = %v", err)
			}
		})
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"unknown kind", Config{Kind: "etcd"}},
		{"bad cipher", Config{Kind: BackendFile, File: "/tmp/x", Cipher: "des"}},
		{"file without path", Config{Kind: BackendFile}},
		{"badger without dir", Config{Kind: BackendBadger}},
		{"redis without addr", Config{Kind: BackendRedis}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.cfg, logger.Nop())
			if !errors.Is(err, domain.ErrInvalidConfig) {
				t.Errorf("Open() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestOpen_SharedMemorySpace(t *testing.T) {
	ctx := context.Background()
	sp := memory.NewSpace()

	a, _ := Open(ctx, Config{Kind: BackendMemory, Space: sp}, nil)
	b, _ := Open(ctx, Config{Kind: BackendMemory, Space: sp}, nil)

	a.Save(ctx, &domain.PersistedSession{Token: "shared"})
	rec, _ := b.Load(ctx)
	if rec == nil || rec.Token != "shared" {
		t.Errorf("Load() = %+v, want shared record", rec)
	}
}
