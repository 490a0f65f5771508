package token

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func keySetJSON(current string, keys map[string][]byte) []byte {
	set := keySetResponse{Current: current}
	for kid, k := range keys {
		set.Keys = append(set.Keys, symKey{
			Kty: "oct",
			Kid: kid,
			Alg: "HS256",
			K:   base64.RawURLEncoding.EncodeToString(k),
		})
	}
	out, _ := json.Marshal(set)
	return out
}

func TestRemoteProvider_FetchAndCache(t *testing.T) {
	var fetches atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches.Add(1)
		_, _ = w.Write(keySetJSON("kid-1", map[string][]byte{"kid-1": []byte("remote-key-material")}))
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{URL: srv.URL, CacheTTL: time.Hour})
	ctx := context.Background()

	h, err := p.CurrentHandle(ctx)
	if err != nil {
		t.Fatalf("CurrentHandle failed: %v", err)
	}
	if h.Version() != "kid-1" {
		t.Errorf("version = %q, want kid-1", h.Version())
	}

	// Second call must come from the cached key set.
	if _, err := p.CurrentHandle(ctx); err != nil {
		t.Fatalf("cached CurrentHandle failed: %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("endpoint fetched %d times, want 1", got)
	}
}

func TestRemoteProvider_Rotation(t *testing.T) {
	current := atomic.Value{}
	current.Store("kid-1")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(keySetJSON(current.Load().(string), map[string][]byte{
			"kid-1": []byte("first-key"),
			"kid-2": []byte("second-key"),
		}))
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{URL: srv.URL, CacheTTL: time.Nanosecond})
	ctx := context.Background()

	h, err := p.CurrentHandle(ctx)
	if err != nil {
		t.Fatalf("CurrentHandle failed: %v", err)
	}
	if h.Version() != "kid-1" {
		t.Errorf("version = %q, want kid-1", h.Version())
	}

	current.Store("kid-2")
	h, err = p.CurrentHandle(ctx)
	if err != nil {
		t.Fatalf("CurrentHandle after rotation failed: %v", err)
	}
	if h.Version() != "kid-2" {
		t.Errorf("version after rotation = %q, want kid-2", h.Version())
	}

	// The previous version is still resolvable for pinned reads.
	if _, err := p.Handle("kid-1"); err != nil {
		t.Errorf("Handle(kid-1) after rotation failed: %v", err)
	}
}

func TestRemoteProvider_GracefulDegradation(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(keySetJSON("kid-1", map[string][]byte{"kid-1": []byte("remote-key-material")}))
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{URL: srv.URL, CacheTTL: time.Nanosecond})
	ctx := context.Background()

	if _, err := p.CurrentHandle(ctx); err != nil {
		t.Fatalf("initial CurrentHandle failed: %v", err)
	}

	fail.Store(true)
	h, err := p.CurrentHandle(ctx)
	if err != nil {
		t.Fatalf("CurrentHandle during outage failed: %v", err)
	}
	if h.Version() != "kid-1" {
		t.Errorf("degraded version = %q, want kid-1", h.Version())
	}
}

func TestRemoteProvider_ErrorWithoutBackup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{URL: srv.URL})
	if _, err := p.CurrentHandle(context.Background()); err == nil {
		t.Error("CurrentHandle with no cached keys should propagate the fetch error")
	}
}

func TestRemoteProvider_SkipsNonSymmetricKeys(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := keySetResponse{
			Keys: []symKey{
				{Kty: "RSA", Kid: "rsa-1", K: "ignored"},
				{Kty: "oct", Kid: "kid-1", K: base64.RawURLEncoding.EncodeToString([]byte("good-key"))},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p := NewRemoteProvider(RemoteConfig{URL: srv.URL})
	h, err := p.CurrentHandle(context.Background())
	if err != nil {
		t.Fatalf("CurrentHandle failed: %v", err)
	}
	// The lone usable key becomes current even without a declared current kid.
	if h.Version() != "kid-1" {
		t.Errorf("version = %q, want kid-1", h.Version())
	}
}
