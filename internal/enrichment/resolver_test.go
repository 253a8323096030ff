package enrichment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nahidhasan98/orgsync/internal/config"
	"github.com/nahidhasan98/orgsync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T, handler http.HandlerFunc) (*Resolver, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	r, err := New(config.RegistryConfig{Host: srv.URL, CacheSize: 8, Timeout: 2 * time.Second}, logger.Nop())
	require.NoError(t, err)

	return r, &calls
}

func TestResolveNameSuccess(t *testing.T) {
	r, calls := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/companies/gb/01234567", req.URL.Path)
		w.Write([]byte(`{"results": {"company": {"name": "ACME LIMITED", "company_number": "01234567"}}}`))
	})

	ctx := context.Background()
	assert.Equal(t, "ACME LIMITED", r.ResolveName(ctx, "GB", "01234567", "Acme"))

	// second lookup is answered from the cache
	assert.Equal(t, "ACME LIMITED", r.ResolveName(ctx, "gb", "01234567", "Acme"))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestResolveNameIgnoresOtherCompanyFields(t *testing.T) {
	r, _ := newTestResolver(t, func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`{"results": {"company": {
			"name": "ACME LIMITED",
			"company_number": 123,
			"jurisdiction_code": null,
			"current_status": {"code": "active"},
			"incorporation_date": false
		}}}`))
	})

	assert.Equal(t, "ACME LIMITED", r.ResolveName(context.Background(), "GB", "123", "Acme"))
}

func TestResolveNameFallbacks(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		}},
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"unparseable body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<html>rate limited</html>"))
		}},
		{"missing name", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": {"company": {}}}`))
		}},
		{"unexpected shape", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"results": []}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, calls := newTestResolver(t, tt.handler)
			ctx := context.Background()

			assert.Equal(t, "Acme", r.ResolveName(ctx, "GB", "1", "Acme"))
			// failures are not cached
			assert.Equal(t, "Acme", r.ResolveName(ctx, "GB", "1", "Acme"))
			assert.Equal(t, int32(2), atomic.LoadInt32(calls))
		})
	}
}

func TestResolveNameTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	r, err := New(config.RegistryConfig{Host: srv.URL, CacheSize: 1, Timeout: time.Second}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "Acme", r.ResolveName(context.Background(), "GB", "1", "Acme"))
}

func TestCompanyURL(t *testing.T) {
	r, err := New(config.RegistryConfig{Host: "https://registry.example.com", CacheSize: 1}, logger.Nop())
	require.NoError(t, err)

	assert.Equal(t, "https://registry.example.com/companies/us_de/12%2F34", r.CompanyURL("US_DE", "12/34"))
}

func TestNewRejectsBadCacheSize(t *testing.T) {
	_, err := New(config.RegistryConfig{Host: "https://registry.example.com"}, logger.Nop())
	assert.Error(t, err)
}
