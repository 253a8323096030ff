package content

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nahidhasan98/orgsync/internal/config"
	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(host string) *Client {
	c := New(config.RepositoryConfig{
		Path:        "openorgs/data",
		Branch:      "master",
		UserAgent:   "orgsync-test",
		ContentHost: host,
		APIHost:     host,
		HTTPTimeout: 2 * time.Second,
	})
	c.now = func() time.Time { return time.Unix(1700000000, 0) }
	return c
}

func TestFileURL(t *testing.T) {
	c := newTestClient("https://raw.example.com")

	assert.Equal(t,
		"https://raw.example.com/openorgs/data/master/orgs/1.json?1700000000",
		c.FileURL("orgs/1.json"))
	assert.Equal(t,
		"https://raw.example.com/openorgs/data/master/my%20org.json?1700000000",
		c.FileURL("/my org.json"))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "orgsync-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "1700000000", r.URL.RawQuery)

		switch r.URL.Path {
		case "/openorgs/data/master/ok.json":
			w.Write([]byte(`{"a":1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		body, err := c.Fetch(ctx, "ok.json")
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":1}`, string(body))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Fetch(ctx, "missing.json")
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeProtocolStatus))
	})
}

func TestFetchSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"` + strings.Repeat("a", 20) + `"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	ctx := context.Background()

	c.maxSize = 31
	body, err := c.Fetch(ctx, "a.json")
	require.NoError(t, err)
	assert.Len(t, body, 31)

	c.maxSize = 30
	_, err = c.Fetch(ctx, "a.json")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFileTooLarge))
}

func TestFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background(), "a.json")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeTransport))
}

func TestListJSONFiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/openorgs/data/contents/", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"name": "acme.json", "type": "file"},
			{"name": "README.md", "type": "file"},
			{"name": "globex.json", "type": "file"},
			{"name": "schema.json.bak", "type": "file"}
		]`))
	}))
	defer srv.Close()

	files, err := newTestClient(srv.URL).ListJSONFiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"acme.json", "globex.json", "schema.json.bak"}, files)
}

func TestListJSONFilesBadBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message": "not a list"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).ListJSONFiles(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedPayload))
}
