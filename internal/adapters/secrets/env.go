// Package secrets provides the environment-backed secret store. The secret
// port keeps managed stores (Vault, cloud secret managers) pluggable without
// touching startup code.
package secrets

import (
	"fmt"
	"os"

	"github.com/bft-labs/rollcall/internal/ports"
)

// Env reads secrets from process environment variables.
type Env struct{}

var _ ports.SecretStore = Env{}

// NewEnv creates an environment-backed store.
func NewEnv() Env {
	return Env{}
}

// Get returns the named variable's value or an error when it is unset or
// empty.
func (Env) Get(name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("secret %s is not set", name)
	}
	return v, nil
}
