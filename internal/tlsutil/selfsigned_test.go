package tlsutil

import (
	"crypto/tls"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureSelfSigned(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "etc", "cert.pem")
	key := filepath.Join(dir, "etc", "key.pem")

	created, err := EnsureSelfSigned(cert, key)
	if err != nil {
		t.Fatalf("EnsureSelfSigned: %v", err)
	}
	if !created {
		t.Fatal("expected files to be created")
	}
	if _, err := tls.LoadX509KeyPair(cert, key); err != nil {
		t.Fatalf("generated pair does not load: %v", err)
	}

	before, _ := os.ReadFile(cert)
	created, err = EnsureSelfSigned(cert, key)
	if err != nil {
		t.Fatalf("second EnsureSelfSigned: %v", err)
	}
	after, _ := os.ReadFile(cert)
	if created || string(before) != string(after) {
		t.Error("existing certificate must be kept")
	}
}
