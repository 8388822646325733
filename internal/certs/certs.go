// Package certs mints the self-signed TLS certificate backing the local
// HTTPS callback server used during account linking.
package certs

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

const (
	certFileName = "localhost.crt"
	keyFileName  = "localhost.key"
	validFor     = 365 * 24 * time.Hour
)

// Store keeps a localhost certificate pair on disk and regenerates it
// when the cached copy is missing, corrupt, or expired.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created on
// first mint.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) certPath() string { return filepath.Join(s.dir, certFileName) }
func (s *Store) keyPath() string  { return filepath.Join(s.dir, keyFileName) }

// Load returns a certificate valid for localhost, minting a fresh one
// when the cached pair cannot be used.
func (s *Store) Load() (tls.Certificate, error) {
	cached, err := s.cached()
	if err != nil {
		return tls.Certificate{}, err
	}
	if cached != nil {
		return *cached, nil
	}
	return s.mint()
}

// cached returns the on-disk pair when present and still usable, nil
// when a fresh certificate is needed. A half-written or expired pair is
// cleared so mint can replace it.
func (s *Store) cached() (*tls.Certificate, error) {
	for _, path := range []string{s.certPath(), s.keyPath()} {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to check certificate pair: %w", err)
		}
	}

	pair, err := tls.LoadX509KeyPair(s.certPath(), s.keyPath())
	if err == nil && s.stillValid(pair) == nil {
		return &pair, nil
	}

	if err := s.clear(); err != nil {
		return nil, err
	}
	return nil, nil
}

// stillValid reports nil when the leaf certificate covers localhost and
// its validity window includes the current time.
func (s *Store) stillValid(pair tls.Certificate) error {
	if len(pair.Certificate) == 0 {
		return errors.New("no certificates found")
	}

	leaf, err := x509.ParseCertificate(pair.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}

	now := time.Now()
	if now.Before(leaf.NotBefore) || now.After(leaf.NotAfter) {
		return errors.New("certificate outside its validity window")
	}
	return leaf.VerifyHostname("localhost")
}

func (s *Store) clear() error {
	for _, path := range []string{s.certPath(), s.keyPath()} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove stale certificate: %w", err)
		}
	}
	return nil
}

// mint generates a self-signed localhost certificate, writes the pair
// under the store directory, and loads it back.
func (s *Store) mint() (tls.Certificate, error) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate directory: %w", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to generate key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to pick serial number: %w", err)
	}

	now := time.Now()
	template := x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Tally"},
			CommonName:   "localhost",
		},
		NotBefore:             now,
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              []string{"localhost"},
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
	}

	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("failed to create certificate: %w", err)
	}

	if err := writePEM(s.certPath(), "CERTIFICATE", der); err != nil {
		return tls.Certificate{}, err
	}
	if err := writePEM(s.keyPath(), "RSA PRIVATE KEY", x509.MarshalPKCS1PrivateKey(key)); err != nil {
		return tls.Certificate{}, err
	}

	return tls.LoadX509KeyPair(s.certPath(), s.keyPath())
}

// writePEM writes a single PEM block with owner-only permissions.
func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
