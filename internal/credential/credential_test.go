package credential_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sethvargo/go-envconfig"

	"github.com/Tiliavir/trivial-toggl-viewer/internal/credential"
)

func TestResolvePrefersEnvironment(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, credential.TokenFile), []byte("from-file\n"), 0o600)

	lookup := envconfig.MapLookuper(map[string]string{"TOGGL_API_TOKEN": " from-env "})
	c, err := credential.Resolve(context.Background(), lookup, dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Token != "from-env" || c.Source != "env" {
		t.Errorf("got %+v", c)
	}
}

func TestResolveFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, credential.TokenFile), []byte("from-file\n"), 0o600)

	c, err := credential.Resolve(context.Background(), envconfig.MapLookuper(nil), dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Token != "from-file" {
		t.Errorf("Token = %q", c.Token)
	}
}

func TestResolveMissing(t *testing.T) {
	_, err := credential.Resolve(context.Background(), envconfig.MapLookuper(nil), t.TempDir())
	if !errors.Is(err, credential.ErrMissing) {
		t.Errorf("err = %v, want ErrMissing", err)
	}
}

func TestIdentity(t *testing.T) {
	a := credential.Identity("token-a")
	if len(a) != 64 {
		t.Errorf("identity length = %d, want 64 hex chars", len(a))
	}
	if a != credential.Identity("token-a") {
		t.Error("identity is not stable")
	}
	if a == credential.Identity("token-b") {
		t.Error("different tokens share an identity")
	}
	if a == "token-a" {
		t.Error("identity leaks the token")
	}
}
