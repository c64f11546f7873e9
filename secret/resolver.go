package secret

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
)

const refPrefix = "secretref:"

// Resolver resolves secret references through registered providers.
type Resolver struct {
	providers map[string]Provider
	getenv    func(string) (string, bool)
}

// NewResolver registers providers by name; a later provider replaces an
// earlier one with the same name.
func NewResolver(providers ...Provider) *Resolver {
	r := &Resolver{providers: make(map[string]Provider), getenv: os.LookupEnv}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// ParseRef splits "secretref:<provider>:<ref>".
func ParseRef(value string) (provider, ref string, ok bool) {
	rest, found := strings.CutPrefix(value, refPrefix)
	if !found {
		return "", "", false
	}
	provider, ref, found = strings.Cut(rest, ":")
	if !found || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}

// IsRef reports whether value is a secret reference.
func IsRef(value string) bool {
	_, _, ok := ParseRef(value)
	return ok
}

// Resolve returns the secret value named by a reference, or value with
// ${VAR} expanded when it is not a reference. A reference that resolves
// to an empty string is an error.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	name, ref, ok := ParseRef(value)
	if !ok {
		return r.expand(value)
	}
	p, found := r.providers[name]
	if !found {
		return "", fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	v, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if v == "" {
		return "", fmt.Errorf("%w: %s", ErrEmpty, name)
	}
	return v, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expand replaces ${VAR}; every referenced variable must be set. $$ is a
// literal dollar.
func (r *Resolver) expand(s string) (string, error) {
	if !strings.Contains(s, "$") {
		return s, nil
	}
	var missing []string
	out := envRef.ReplaceAllStringFunc(s, func(m string) string {
		name := m[2 : len(m)-1]
		v, ok := r.getenv(name)
		if !ok {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		slices.Sort(missing)
		return "", fmt.Errorf("secret: missing environment variables: %s", strings.Join(slices.Compact(missing), ", "))
	}
	return strings.ReplaceAll(out, "$$", "$"), nil
}
