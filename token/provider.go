package token

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"sync"
)

// hmacHandle is an HMAC-SHA256 handle over a single key version.
type hmacHandle struct {
	version string
	key     []byte
}

// NewHandle creates an HMAC-SHA256 handle for the given key version. Used by
// providers and by callers that manage key material themselves.
func NewHandle(version string, key []byte) Handle {
	k := make([]byte, len(key))
	copy(k, key)
	return &hmacHandle{version: version, key: k}
}

func (h *hmacHandle) Version() string { return h.version }

func (h *hmacHandle) Sign(data []byte) ([]byte, error) {
	if len(h.key) == 0 {
		return nil, ErrNoCurrentKey
	}
	mac := hmac.New(sha256.New, h.key)
	mac.Write(data)
	return mac.Sum(nil), nil
}

// MemoryProvider holds versioned HMAC keys in process. Rotate installs a new
// current version; older versions stay resolvable so pinned handles keep
// working across a rotation.
type MemoryProvider struct {
	mu      sync.RWMutex
	current string
	keys    map[string][]byte
}

// NewMemoryProvider creates an empty in-memory key provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{keys: make(map[string][]byte)}
}

// Rotate installs key under version and makes it the current version.
func (p *MemoryProvider) Rotate(version string, key []byte) {
	k := make([]byte, len(key))
	copy(k, key)

	p.mu.Lock()
	p.keys[version] = k
	p.current = version
	p.mu.Unlock()
}

// CurrentHandle returns a handle bound to the current key version.
func (p *MemoryProvider) CurrentHandle(_ context.Context) (Handle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == "" {
		return nil, ErrNoCurrentKey
	}
	return &hmacHandle{version: p.current, key: p.keys[p.current]}, nil
}

// Handle returns a handle for a specific key version.
func (p *MemoryProvider) Handle(version string) (Handle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	key, ok := p.keys[version]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return &hmacHandle{version: version, key: key}, nil
}

// DefaultEnvVar is the environment variable EnvProvider reads when none is
// configured. Expected format: "<version>:<base64url key>".
const DefaultEnvVar = "TOKENCACHE_HMAC_KEY"

// EnvProvider resolves key material from an environment variable. The value
// is read on every call so an in-place rotation of the variable takes effect
// without restarting; the material itself is never logged.
type EnvProvider struct {
	// Var is the environment variable holding the key. Default: DefaultEnvVar.
	Var string
}

// CurrentHandle parses the configured environment variable into a handle.
func (p *EnvProvider) CurrentHandle(_ context.Context) (Handle, error) {
	name := p.Var
	if name == "" {
		name = DefaultEnvVar
	}
	raw := os.Getenv(name)
	if raw == "" {
		return nil, fmt.Errorf("token: %s is not set: %w", name, ErrNoCurrentKey)
	}
	version, encoded, ok := strings.Cut(raw, ":")
	if !ok || version == "" {
		return nil, fmt.Errorf("token: %s is malformed: %w", name, ErrNoCurrentKey)
	}
	key, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(key) == 0 {
		return nil, fmt.Errorf("token: %s holds invalid key material: %w", name, ErrNoCurrentKey)
	}
	return &hmacHandle{version: version, key: key}, nil
}

// Ensure providers implement Provider
var (
	_ Provider = (*MemoryProvider)(nil)
	_ Provider = (*EnvProvider)(nil)
)
