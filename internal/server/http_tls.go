package server

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"resumind/internal/observability"
)

// configureTLS sets up TLS configuration based on the mode
func (s *Server) configureTLS(httpServer *http.Server, om *observability.ObservabilityManager) error {
	switch s.TLSConfig.Mode {
	case "server", "mutual":
		tlsConfig, err := s.buildTLSConfig(om)
		if err != nil {
			return fmt.Errorf("failed to set up TLS: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
		return nil
	case "disabled":
		return nil
	default:
		return fmt.Errorf("invalid TLS mode: %s (must be 'disabled', 'server', or 'mutual')", s.TLSConfig.Mode)
	}
}

// buildTLSConfig creates the TLS configuration
func (s *Server) buildTLSConfig(om *observability.ObservabilityManager) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		MinVersion: s.minTLSVersion(),
	}

	if err := s.configureCertificates(tlsConfig, om); err != nil {
		return nil, err
	}

	if err := s.configureClientAuthentication(tlsConfig); err != nil {
		return nil, err
	}

	return tlsConfig, nil
}

// configureCertificates wires certificate loading, hot reloaded when
// auto reload is enabled and file-based certificates are in use
func (s *Server) configureCertificates(tlsConfig *tls.Config, om *observability.ObservabilityManager) error {
	if s.TLSConfig.AutoReload.Enabled && s.TLSConfig.CertFile != "" && s.TLSConfig.KeyFile != "" {
		reloader, err := newCertReloader(s.TLSConfig.CertFile, s.TLSConfig.KeyFile, om)
		if err != nil {
			return err
		}
		s.certReloader = reloader
		tlsConfig.GetCertificate = reloader.GetCertificate

		watcher := newCertWatcher(
			[]string{s.TLSConfig.CertFile, s.TLSConfig.KeyFile, s.TLSConfig.CAFile},
			s.TLSConfig.AutoReload.Debounce,
			func() {
				if err := reloader.Reload(); err != nil {
					s.Logger.LogError(err, "Failed to reload TLS certificates")
				} else {
					s.Logger.Info("TLS certificates reloaded")
				}
			},
			s.Logger,
		)
		if err := watcher.Start(); err != nil {
			return err
		}
		s.certWatcher = watcher
		return nil
	}

	cert, err := s.loadServerCertificate()
	if err != nil {
		return err
	}
	tlsConfig.Certificates = []tls.Certificate{cert}
	return nil
}

// loadServerCertificate loads the server certificate from content or files
func (s *Server) loadServerCertificate() (tls.Certificate, error) {
	if s.TLSConfig.CertContent != "" && s.TLSConfig.KeyContent != "" {
		// Certificate content is what Vault-sourced deployments provide
		cert, err := tls.X509KeyPair([]byte(s.TLSConfig.CertContent), []byte(s.TLSConfig.KeyContent))
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from content: %w", err)
		}
		return cert, nil
	}

	if s.TLSConfig.CertFile != "" && s.TLSConfig.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(s.TLSConfig.CertFile, s.TLSConfig.KeyFile)
		if err != nil {
			return tls.Certificate{}, fmt.Errorf("failed to load server cert/key from files: %w", err)
		}
		return cert, nil
	}

	return tls.Certificate{}, fmt.Errorf("TLS certificate and key are required (provide either files or content)")
}

// minTLSVersion maps the configured minimum version string
func (s *Server) minTLSVersion() uint16 {
	switch s.TLSConfig.MinVersion {
	case "1.3":
		return tls.VersionTLS13
	default:
		return tls.VersionTLS12
	}
}

// configureClientAuthentication sets up client authentication for mutual TLS
func (s *Server) configureClientAuthentication(tlsConfig *tls.Config) error {
	if s.TLSConfig.Mode != "mutual" {
		tlsConfig.ClientAuth = tls.NoClientCert
		return nil
	}

	caCert, err := s.loadCACertificate()
	if err != nil {
		return err
	}

	caCertPool := x509.NewCertPool()
	if ok := caCertPool.AppendCertsFromPEM(caCert); !ok {
		return fmt.Errorf("failed to append CA cert")
	}

	tlsConfig.ClientCAs = caCertPool
	tlsConfig.ClientAuth = s.getClientAuthPolicy()

	return nil
}

// loadCACertificate loads the CA certificate from content or file
func (s *Server) loadCACertificate() ([]byte, error) {
	if s.TLSConfig.CAContent != "" {
		return []byte(s.TLSConfig.CAContent), nil
	}

	if s.TLSConfig.CAFile != "" {
		caCert, err := os.ReadFile(s.TLSConfig.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		return caCert, nil
	}

	return nil, fmt.Errorf("CA certificate is required for mutual TLS mode (provide either caFile or caContent)")
}

// getClientAuthPolicy returns the appropriate client authentication policy
func (s *Server) getClientAuthPolicy() tls.ClientAuthType {
	switch s.TLSConfig.ClientAuthPolicy {
	case "request":
		return tls.RequestClientCert
	case "verify":
		return tls.VerifyClientCertIfGiven
	default:
		return tls.RequireAndVerifyClientCert
	}
}

// certReloader serves the current certificate pair and swaps in new
// ones without restarting the listener
type certReloader struct {
	mu          sync.RWMutex
	certFile    string
	keyFile     string
	cert        *tls.Certificate
	reloadCount atomic.Int64
	om          *observability.ObservabilityManager
}

func newCertReloader(certFile, keyFile string, om *observability.ObservabilityManager) (*certReloader, error) {
	r := &certReloader{
		certFile: certFile,
		keyFile:  keyFile,
		om:       om,
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload loads the certificate pair from disk and swaps it in
func (r *certReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load server cert/key from files: %w", err)
	}
	if cert.Leaf == nil && len(cert.Certificate) > 0 {
		if leaf, err := x509.ParseCertificate(cert.Certificate[0]); err == nil {
			cert.Leaf = leaf
		}
	}

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()
	r.reloadCount.Add(1)

	if r.om != nil {
		r.om.GetMetrics().RecordCertReload(r.om)
	}

	return nil
}

// GetCertificate implements tls.Config.GetCertificate
func (r *certReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cert == nil {
		return nil, fmt.Errorf("no certificate loaded")
	}
	return r.cert, nil
}

// TimeToExpiry reports how long until the current certificate expires
func (r *certReloader) TimeToExpiry() (time.Duration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cert == nil || r.cert.Leaf == nil {
		return 0, fmt.Errorf("no certificate loaded")
	}
	return time.Until(r.cert.Leaf.NotAfter), nil
}

// ReloadCount reports how many times the certificate pair was loaded
func (r *certReloader) ReloadCount() int64 {
	return r.reloadCount.Load()
}
