// Package credential supplies the Toggl API token and the identity hash that
// scopes cached data to it.
package credential

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// ErrMissing is returned when no token is configured.
var ErrMissing = errors.New("no Toggl API token configured (set TOGGL_API_TOKEN or write it to the token file)")

// TokenFile is the token file name inside the state directory.
const TokenFile = "token"

// Credential is a resolved API token.
type Credential struct {
	Token string
	// Source describes where the token came from ("env" or a file path).
	Source string
}

// Identity returns the stable, non-reversible identity of the token.
func (c Credential) Identity() string { return Identity(c.Token) }

// Identity hashes a token into the hex identity used in cache keys.
func Identity(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

type env struct {
	Token string `env:"TOGGL_API_TOKEN"`
}

// Resolve looks up the token in the environment first, then in
// <dir>/token. The lookuper is usually envconfig.OsLookuper().
func Resolve(ctx context.Context, lookuper envconfig.Lookuper, dir string) (Credential, error) {
	var e env
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &e, Lookuper: lookuper}); err != nil {
		return Credential{}, fmt.Errorf("reading credential environment: %w", err)
	}
	if tok := strings.TrimSpace(e.Token); tok != "" {
		return Credential{Token: tok, Source: "env"}, nil
	}

	path := filepath.Join(dir, TokenFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Credential{}, ErrMissing
	}
	if err != nil {
		return Credential{}, fmt.Errorf("reading token file %s: %w", path, err)
	}
	tok := strings.TrimSpace(string(data))
	if tok == "" {
		return Credential{}, ErrMissing
	}
	return Credential{Token: tok, Source: path}, nil
}
