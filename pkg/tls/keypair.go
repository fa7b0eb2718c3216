package tls

import (
	"crypto/tls"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Errors returned by LoadKeyPair.
var (
	ErrKeyUnreadable  = errors.New("failed to read TLS key")
	ErrCertUnreadable = errors.New("failed to read TLS certificate")
	ErrInvalidPair    = errors.New("invalid TLS key/certificate pair")
)

// LoadKeyPair reads PEM files and builds the server TLS configuration.
func LoadKeyPair(keyPath, certPath string) (*tls.Config, error) {
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyUnreadable, err)
	}
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCertUnreadable, err)
	}
	return ConfigFromPEM(keyPEM, certPEM)
}

// ConfigFromPEM builds the server TLS configuration from PEM blocks.
func ConfigFromPEM(keyPEM, certPEM []byte) (*tls.Config, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPair, err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// WriteFiles saves the material as PEM files. The key file is only readable
// by its owner.
func (m *Material) WriteFiles(keyPath, certPath string) error {
	if m == nil {
		return errors.New("material cannot be nil")
	}

	for _, p := range []string{keyPath, certPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}

	if err := os.WriteFile(certPath, m.CertPEM, 0644); err != nil {
		return fmt.Errorf("failed to write certificate file: %w", err)
	}
	if err := os.WriteFile(keyPath, m.KeyPEM, 0600); err != nil {
		_ = os.Remove(certPath)
		return fmt.Errorf("failed to write key file: %w", err)
	}
	return nil
}
