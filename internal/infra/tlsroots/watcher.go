package tlsroots

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

// Watcher holds a client certificate and reloads it when the certificate
// or key file changes.
type Watcher struct {
	certFile string
	keyFile  string

	mu   sync.RWMutex
	cert *tls.Certificate

	done     chan struct{}
	stopOnce sync.Once
	log      logger.Logger

	debounce   time.Duration
	reloadMu   sync.Mutex
	lastReload time.Time
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets the logger for the watcher.
func WithLogger(l logger.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithDebounce sets the minimum time between reloads.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher loads the key pair. Call Start or StartAsync to follow
// changes.
func NewWatcher(certFile, keyFile string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		certFile: certFile,
		keyFile:  keyFile,
		done:     make(chan struct{}),
		log:      logger.Nop(),
		debounce: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.reload(); err != nil {
		return nil, fmt.Errorf("tlsroots: initial load: %w", err)
	}
	return w, nil
}

// Start blocks, reloading the key pair on change, until Stop is called.
func (w *Watcher) Start() error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("tlsroots: create watcher: %w", err)
	}
	defer fw.Close()

	// Directories, not files, so that rename-on-save is seen.
	dirs := map[string]bool{filepath.Dir(w.certFile): true, filepath.Dir(w.keyFile): true}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("tlsroots: watch %s: %w", dir, err)
		}
	}

	certPath := filepath.Clean(w.certFile)
	keyPath := filepath.Clean(w.keyFile)
	w.log.Debug("client certificate watcher started", "cert_file", w.certFile)

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if name != certPath && name != keyPath {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := w.debouncedReload(); err != nil {
				w.log.Error("client certificate reload failed", "error", err, "cert_file", w.certFile)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("client certificate watcher error", "error", err)
		case <-w.done:
			return nil
		}
	}
}

// StartAsync runs Start in a goroutine.
func (w *Watcher) StartAsync() {
	go func() {
		if err := w.Start(); err != nil {
			w.log.Error("client certificate watcher stopped", "error", err)
		}
	}()
}

// Stop ends Start. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

// GetClientCertificate implements tls.Config.GetClientCertificate.
func (w *Watcher) GetClientCertificate(*tls.CertificateRequestInfo) (*tls.Certificate, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cert, nil
}

// Reload forces a reload of the key pair.
func (w *Watcher) Reload() error {
	return w.reload()
}

func (w *Watcher) debouncedReload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	now := time.Now()
	if now.Sub(w.lastReload) < w.debounce {
		return nil
	}
	w.lastReload = now

	// The writer may still be mid-write when the event arrives.
	time.Sleep(100 * time.Millisecond)
	return w.reload()
}

func (w *Watcher) reload() error {
	cert, err := tls.LoadX509KeyPair(w.certFile, w.keyFile)
	if err != nil {
		return fmt.Errorf("load key pair: %w", err)
	}

	w.mu.Lock()
	w.cert = &cert
	w.mu.Unlock()

	w.log.Debug("client certificate loaded", "cert_file", w.certFile)
	return nil
}
