// Package tls loads and generates the key/certificate pair used by the
// TLS listener.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"
)

// CertificateConfig contains options for self-signed certificate generation.
type CertificateConfig struct {
	// Organization name for the certificate
	Organization string
	// Hosts are DNS names or IP literals the certificate is valid for.
	// The first one becomes the common name.
	Hosts []string
	// Validity duration
	ValidFor time.Duration
}

// DefaultCertificateConfig returns a configuration for a localhost test server.
func DefaultCertificateConfig() *CertificateConfig {
	return &CertificateConfig{
		Organization: "cannedmock",
		Hosts:        []string{"localhost", "127.0.0.1", "::1"},
		ValidFor:     365 * 24 * time.Hour,
	}
}

// Material is a PEM encoded private key and certificate.
type Material struct {
	Certificate *x509.Certificate
	CertPEM     []byte
	KeyPEM      []byte
}

// GenerateSelfSigned creates an ECDSA P-256 key and a self-signed server
// certificate for cfg.Hosts.
func GenerateSelfSigned(cfg *CertificateConfig) (*Material, error) {
	if cfg == nil {
		cfg = DefaultCertificateConfig()
	}
	if len(cfg.Hosts) == 0 {
		return nil, errors.New("at least one host is required")
	}
	if cfg.ValidFor <= 0 {
		return nil, fmt.Errorf("invalid validity duration %s", cfg.ValidFor)
	}

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now().Add(-time.Minute)
	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{cfg.Organization},
			CommonName:   cfg.Hosts[0],
		},
		NotBefore:             notBefore,
		NotAfter:              notBefore.Add(cfg.ValidFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	for _, h := range cfg.Hosts {
		if ip := net.ParseIP(h); ip != nil {
			template.IPAddresses = append(template.IPAddresses, ip)
		} else {
			template.DNSNames = append(template.DNSNames, h)
		}
	}

	// self-signed: template is its own parent
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	return &Material{
		Certificate: cert,
		CertPEM:     pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER}),
		KeyPEM:      pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}),
	}, nil
}

// CertPool returns a pool containing only this certificate, for clients
// that should trust the generated server.
func (m *Material) CertPool() *x509.CertPool {
	pool := x509.NewCertPool()
	pool.AddCert(m.Certificate)
	return pool
}
