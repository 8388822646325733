package certs

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreMintsCertificate(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "certs"))

	cert, err := store.Load()
	require.NoError(t, err)
	require.Len(t, cert.Certificate, 1)

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)

	assert.NoError(t, leaf.VerifyHostname("localhost"))
	assert.Contains(t, leaf.DNSNames, "localhost")
	assert.True(t, leaf.NotAfter.After(time.Now().Add(300*24*time.Hour)),
		"certificate should be valid for about a year")
	assert.Equal(t, []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}, leaf.ExtKeyUsage)

	hasV4, hasV6 := false, false
	for _, ip := range leaf.IPAddresses {
		if ip.Equal(net.IPv4(127, 0, 0, 1)) {
			hasV4 = true
		}
		if ip.Equal(net.IPv6loopback) {
			hasV6 = true
		}
	}
	assert.True(t, hasV4, "certificate should cover IPv4 loopback")
	assert.True(t, hasV6, "certificate should cover IPv6 loopback")
}

func TestStoreFilePermissions(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	store := NewStore(dir)

	_, err := store.Load()
	require.NoError(t, err)

	for _, name := range []string{certFileName, keyFileName} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "%s should be owner-only", name)
	}
}

func TestStoreReusesCachedPair(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "certs"))

	first, err := store.Load()
	require.NoError(t, err)
	second, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, first.Certificate[0], second.Certificate[0])
}

func TestStoreReplacesCorruptPair(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "certs")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, certFileName), []byte("garbage"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("garbage"), 0o600))

	store := NewStore(dir)
	cert, err := store.Load()
	require.NoError(t, err)

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	require.NoError(t, err)
	assert.True(t, leaf.NotBefore.After(time.Now().Add(-time.Minute)), "pair should be freshly minted")
}

func TestStoreReplacesIncompletePair(t *testing.T) {
	// Orphaned key without a certificate counts as missing.
	dir := filepath.Join(t.TempDir(), "certs")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("orphan"), 0o600))

	store := NewStore(dir)
	_, err := store.Load()
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, certFileName))
	assert.NoError(t, err)
}

func TestStoreSurfacesStatFailure(t *testing.T) {
	// A regular file where the store directory should be breaks the
	// existence check with something other than not-exist.
	parent := t.TempDir()
	blocker := filepath.Join(parent, "certs")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o600))

	store := NewStore(blocker)
	_, err := store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "certificate")
}

func TestStillValidRejectsEmptyPair(t *testing.T) {
	var s Store
	assert.Error(t, s.stillValid(tls.Certificate{}))
}
