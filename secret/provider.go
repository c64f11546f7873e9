package secret

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrProviderNotFound = errors.New("secret: provider not registered")
	ErrNotFound         = errors.New("secret: not found")
	ErrEmpty            = errors.New("secret: resolved to empty value")
)

// Provider resolves a reference to a secret value. Implementations must
// never log the value.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider reads secrets from environment variables.
type EnvProvider struct {
	// Lookup replaces os.LookupEnv in tests.
	Lookup func(string) (string, bool)
}

func (EnvProvider) Name() string { return "env" }

// Resolve reads environment variable ref.
func (p EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrNotFound, ref)
	}
	return v, nil
}

// FileProvider reads secrets from files, such as mounted container
// secrets. Relative refs are taken from Dir.
type FileProvider struct {
	Dir string
}

func (FileProvider) Name() string { return "file" }

// Resolve reads file ref, relative to Dir when not absolute.
func (p FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	path := ref
	if !filepath.IsAbs(path) && p.Dir != "" {
		path = filepath.Join(p.Dir, path)
	}
	b, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: file %s", ErrNotFound, ref)
	}
	if err != nil {
		return "", fmt.Errorf("secret: read %s: %w", ref, err)
	}
	return strings.TrimRight(string(b), "\r\n"), nil
}
