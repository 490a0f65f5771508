package token

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// RemoteConfig configures the remote key provider.
type RemoteConfig struct {
	// URL is the key-set endpoint URL.
	URL string

	// CacheTTL is how long to cache the fetched key set before refreshing.
	// Default: 1 hour
	CacheTTL time.Duration

	// HTTPClient is the HTTP client to use for requests.
	// If nil, a default client with 30s timeout is used.
	HTTPClient *http.Client
}

// RemoteProvider fetches symmetric MAC keys from a JWK-set style endpoint.
// The endpoint returns {"current": "<kid>", "keys": [{"kty": "oct", "kid":
// ..., "k": <base64url>}]}; non-oct keys are ignored.
//
// The key set is cached for CacheTTL and refreshed through singleflight so
// concurrent callers trigger a single fetch. On refresh failure the last
// successfully fetched current handle is served (graceful degradation).
type RemoteProvider struct {
	config RemoteConfig

	mu        sync.RWMutex
	current   string
	handles   map[string]*hmacHandle
	cacheTime time.Time
	lastGood  *hmacHandle
	sfGroup   singleflight.Group
}

// NewRemoteProvider creates a remote key provider.
func NewRemoteProvider(config RemoteConfig) *RemoteProvider {
	if config.CacheTTL == 0 {
		config.CacheTTL = time.Hour
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	return &RemoteProvider{
		config:  config,
		handles: make(map[string]*hmacHandle),
	}
}

// CurrentHandle returns a handle for the endpoint's current key version,
// refreshing the cached key set when it is older than CacheTTL.
func (p *RemoteProvider) CurrentHandle(ctx context.Context) (Handle, error) {
	p.mu.RLock()
	if time.Since(p.cacheTime) < p.config.CacheTTL {
		if h := p.currentLocked(); h != nil {
			p.mu.RUnlock()
			return h, nil
		}
	}
	p.mu.RUnlock()

	// Refresh through singleflight to prevent a thundering herd.
	_, err, _ := p.sfGroup.Do("refresh", func() (any, error) {
		return nil, p.refresh(ctx)
	})
	if err != nil {
		p.mu.RLock()
		defer p.mu.RUnlock()
		if h := p.currentLocked(); h != nil {
			return h, nil
		}
		if p.lastGood != nil {
			return p.lastGood, nil
		}
		return nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if h := p.currentLocked(); h != nil {
		return h, nil
	}
	return nil, ErrNoCurrentKey
}

// Handle returns a handle for a specific key version from the cached set.
func (p *RemoteProvider) Handle(version string) (Handle, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.handles[version]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return h, nil
}

// currentLocked returns the current handle. Caller must hold at least RLock.
func (p *RemoteProvider) currentLocked() *hmacHandle {
	if p.current != "" {
		return p.handles[p.current]
	}
	// No declared current version: a single-key set is unambiguous.
	if len(p.handles) == 1 {
		for _, h := range p.handles {
			return h
		}
	}
	return nil
}

// refresh fetches the key set from the endpoint.
func (p *RemoteProvider) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.config.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch key set: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var set keySetResponse
	if err := json.NewDecoder(resp.Body).Decode(&set); err != nil {
		return fmt.Errorf("decode key set: %w", err)
	}

	handles := make(map[string]*hmacHandle)
	for _, k := range set.Keys {
		if k.Kty != "oct" {
			continue // only symmetric keys can back a MAC handle
		}
		raw, err := base64.RawURLEncoding.DecodeString(k.K)
		if err != nil || len(raw) == 0 {
			continue // skip invalid keys
		}
		handles[k.Kid] = &hmacHandle{version: k.Kid, key: raw}
	}
	if len(handles) == 0 {
		return ErrNoCurrentKey
	}

	p.mu.Lock()
	p.handles = handles
	p.current = set.Current
	p.cacheTime = time.Now()
	if h := p.currentLocked(); h != nil {
		p.lastGood = h
	}
	p.mu.Unlock()

	return nil
}

// keySetResponse is the key-set endpoint response format.
type keySetResponse struct {
	Current string   `json:"current"`
	Keys    []symKey `json:"keys"`
}

// symKey represents a single symmetric JWK.
type symKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	K   string `json:"k"`
}

// Ensure RemoteProvider implements Provider
var _ Provider = (*RemoteProvider)(nil)
