package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a PEM bundle holds no certificates.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// Pool is a set of trusted root certificates.
type Pool struct {
	certPool *x509.CertPool
	added    int
}

// NewPool creates a pool seeded with the system roots. Systems without a
// readable system pool get an empty one.
func NewPool() *Pool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	return &Pool{certPool: pool}
}

// NewEmptyPool creates a pool without system roots.
func NewEmptyPool() *Pool {
	return &Pool{certPool: x509.NewCertPool()}
}

// AddCertFile adds every certificate in a PEM file.
func (p *Pool) AddCertFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tlsroots: read CA file %s: %w", path, err)
	}
	if err := p.AddCertPEM(data); err != nil {
		return fmt.Errorf("tlsroots: %s: %w", path, err)
	}
	return nil
}

// AddCertPEM adds every CERTIFICATE block in pemData. Other block types
// are skipped.
func (p *Pool) AddCertPEM(pemData []byte) error {
	n := 0
	for len(pemData) > 0 {
		var block *pem.Block
		block, pemData = pem.Decode(pemData)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("parse certificate: %w", err)
		}
		p.certPool.AddCert(cert)
		n++
	}

	if n == 0 {
		return ErrNoCertsFound
	}
	p.added += n
	return nil
}

// Added returns the number of certificates added beyond the seed roots.
func (p *Pool) Added() int {
	return p.added
}

// Pool returns the underlying x509.CertPool.
func (p *Pool) Pool() *x509.CertPool {
	return p.certPool
}

// TLSConfig returns a client TLS config trusting this pool.
func (p *Pool) TLSConfig() *tls.Config {
	return &tls.Config{
		RootCAs:    p.certPool,
		MinVersion: tls.VersionTLS12,
	}
}

// Options selects the files ClientConfig loads. Empty fields are skipped.
type Options struct {
	CAFile   string
	CertFile string
	KeyFile  string
}

// Enabled reports whether any TLS customization is requested.
func (o Options) Enabled() bool {
	return o.CAFile != "" || o.CertFile != "" || o.KeyFile != ""
}

// ClientConfig builds a client TLS config from opts. When a client
// certificate is configured the returned Watcher serves it and must be
// stopped by the caller; otherwise the Watcher is nil.
func ClientConfig(opts Options, wopts ...WatcherOption) (*tls.Config, *Watcher, error) {
	pool := NewPool()
	if opts.CAFile != "" {
		if err := pool.AddCertFile(opts.CAFile); err != nil {
			return nil, nil, err
		}
	}
	cfg := pool.TLSConfig()

	if (opts.CertFile == "") != (opts.KeyFile == "") {
		return nil, nil, errors.New("tlsroots: client certificate and key must be set together")
	}
	if opts.CertFile == "" {
		return cfg, nil, nil
	}

	w, err := NewWatcher(opts.CertFile, opts.KeyFile, wopts...)
	if err != nil {
		return nil, nil, err
	}
	cfg.GetClientCertificate = w.GetClientCertificate
	return cfg, w, nil
}
