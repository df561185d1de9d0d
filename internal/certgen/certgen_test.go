package certgen

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeCA stores a freshly generated authority under dir and returns the paths.
func writeCA(t *testing.T, dir string) (string, string) {
	t.Helper()
	ca, err := GenerateCA("Test CA", time.Hour)
	if err != nil {
		t.Fatalf("GenerateCA: %v", err)
	}
	keyPEM, err := ca.KeyPEM()
	if err != nil {
		t.Fatalf("KeyPEM: %v", err)
	}
	if err := WritePair(dir, "ca", ca.CertPEM(), keyPEM); err != nil {
		t.Fatalf("WritePair: %v", err)
	}
	return filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key")
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateCA(t *testing.T) {
	ca, err := GenerateCA("Dev CA", time.Hour)
	if err != nil {
		t.Fatalf("GenerateCA: %v", err)
	}
	if !ca.Cert.IsCA {
		t.Error("certificate is not marked as CA")
	}
	if ca.Cert.Subject.CommonName != "Dev CA" {
		t.Errorf("CommonName = %q; want %q", ca.Cert.Subject.CommonName, "Dev CA")
	}
	if ca.Cert.KeyUsage&x509.KeyUsageCertSign == 0 {
		t.Error("CA cannot sign certificates")
	}
}

func TestLoadCA_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeCA(t, dir)

	ca, err := LoadCA(certPath, keyPath)
	if err != nil {
		t.Fatalf("LoadCA: %v", err)
	}
	if ca.Cert.Subject.CommonName != "Test CA" {
		t.Errorf("CommonName = %q; want %q", ca.Cert.Subject.CommonName, "Test CA")
	}
	if _, ok := ca.Key.(*ecdsa.PrivateKey); !ok {
		t.Errorf("key type = %T; want *ecdsa.PrivateKey", ca.Key)
	}

	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key mode = %v; want 0600", info.Mode().Perm())
	}
}

func TestLoadCA_RSAKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	ca := &Authority{Key: key}
	template := &x509.Certificate{
		SerialNumber:          mustSerial(t),
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	ca.Cert, _ = x509.ParseCertificate(der)

	keyPEM, err := ca.KeyPEM()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	if err := WritePair(dir, "ca", ca.CertPEM(), keyPEM); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadCA(filepath.Join(dir, "ca.crt"), filepath.Join(dir, "ca.key"))
	if err != nil {
		t.Fatalf("LoadCA: %v", err)
	}
	if _, ok := loaded.Key.(*rsa.PrivateKey); !ok {
		t.Errorf("key type = %T; want *rsa.PrivateKey", loaded.Key)
	}
}

func TestLoadCA_Errors(t *testing.T) {
	dir := t.TempDir()
	certPath, keyPath := writeCA(t, dir)

	garbage := filepath.Join(dir, "garbage.pem")
	writeFile(t, garbage, "not a pem")

	leafKey, _ := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	leafTemplate := &x509.Certificate{SerialNumber: mustSerial(t), NotBefore: time.Now(), NotAfter: time.Now().Add(time.Hour)}
	leafDER, _ := x509.CreateCertificate(rand.Reader, leafTemplate, leafTemplate, &leafKey.PublicKey, leafKey)
	leaf := filepath.Join(dir, "leaf.crt")
	writeFile(t, leaf, string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: leafDER})))

	unknownKey := filepath.Join(dir, "unknown.key")
	writeFile(t, unknownKey, string(pem.EncodeToMemory(&pem.Block{Type: "OPENSSH PRIVATE KEY", Bytes: []byte("x")})))

	tests := []struct {
		name     string
		cert     string
		key      string
		contains string
	}{
		{"missing cert", filepath.Join(dir, "nope.crt"), keyPath, "read ca cert"},
		{"missing key", certPath, filepath.Join(dir, "nope.key"), "read ca key"},
		{"bad cert pem", garbage, keyPath, "invalid CA cert PEM"},
		{"bad key pem", certPath, garbage, "invalid CA key PEM"},
		{"not a ca", leaf, keyPath, "not a CA"},
		{"unknown key type", certPath, unknownKey, "unsupported key type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCA(tt.cert, tt.key)
			if err == nil || !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("got %v; want error containing %q", err, tt.contains)
			}
		})
	}
}

func TestIssueServerCertificate(t *testing.T) {
	ca, err := GenerateCA("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	certPEM, keyPEM, err := ca.IssueServerCertificate([]string{"localhost", "127.0.0.1"}, time.Hour)
	if err != nil {
		t.Fatalf("IssueServerCertificate: %v", err)
	}

	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		t.Fatal("cert PEM invalid")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		t.Fatalf("parse cert: %v", err)
	}
	if cert.Subject.CommonName != "localhost" {
		t.Errorf("CommonName = %q; want localhost", cert.Subject.CommonName)
	}
	if len(cert.DNSNames) != 1 || cert.DNSNames[0] != "localhost" {
		t.Errorf("DNSNames = %v", cert.DNSNames)
	}
	if len(cert.IPAddresses) != 1 || !cert.IPAddresses[0].Equal(net.ParseIP("127.0.0.1")) {
		t.Errorf("IPAddresses = %v", cert.IPAddresses)
	}

	// The certificate verifies against the CA for both names.
	roots := x509.NewCertPool()
	roots.AddCert(ca.Cert)
	for _, host := range []string{"localhost", "127.0.0.1"} {
		if _, err := cert.Verify(x509.VerifyOptions{DNSName: host, Roots: roots}); err != nil {
			t.Errorf("verify %s: %v", host, err)
		}
	}

	// Certificate and key load as a TLS pair.
	if _, err := tls.X509KeyPair(certPEM, keyPEM); err != nil {
		t.Errorf("X509KeyPair: %v", err)
	}
}

func TestIssueServerCertificate_NoHosts(t *testing.T) {
	ca, err := GenerateCA("Test CA", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := ca.IssueServerCertificate(nil, time.Hour); err == nil {
		t.Error("expected error for empty host list")
	}
}

func TestWritePair_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "certs")
	if err := WritePair(dir, "server", []byte("cert"), []byte("key")); err != nil {
		t.Fatalf("WritePair: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "server.crt"))
	if err != nil || string(data) != "cert" {
		t.Errorf("server.crt = %q, %v", data, err)
	}
}

func mustSerial(t *testing.T) *big.Int {
	t.Helper()
	s, err := newSerial()
	if err != nil {
		t.Fatal(err)
	}
	return s
}
