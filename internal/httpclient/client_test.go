package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/internal/util"
)

func localClient(opts Options) *Client {
	opts.BlockPrivateIP = util.Ptr(false)
	return New(opts)
}

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "globi-test", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/ok":
			w.Write([]byte(`{"name":"` + r.URL.Query().Get("q") + `"}`))
		case "/missing":
			http.NotFound(w, r)
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := localClient(Options{UserAgent: "globi-test"})
	ctx := context.Background()

	t.Run("decodes body and appends query", func(t *testing.T) {
		var out struct{ Name string }
		require.NoError(t, c.GetJSON(ctx, srv.URL+"/ok", url.Values{"q": {"duck"}}, &out))
		assert.Equal(t, "duck", out.Name)
	})

	t.Run("404 is not found", func(t *testing.T) {
		var out map[string]any
		err := c.GetJSON(ctx, srv.URL+"/missing", nil, &out)
		assert.True(t, errors.IsNotFoundError(err))
	})

	t.Run("5xx carries status", func(t *testing.T) {
		var out map[string]any
		err := c.GetJSON(ctx, srv.URL+"/fail", nil, &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 500")
		assert.False(t, errors.IsNotFoundError(err))
	})
}

func TestGetJSON_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := localClient(Options{RequestsPerSecond: 10})
	var out map[string]any

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.GetJSON(context.Background(), srv.URL, nil, &out))
	}
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond, "burst of one at 10/s")
}

func TestGetJSON_ContextCanceled(t *testing.T) {
	c := localClient(Options{RequestsPerSecond: 0.001})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out map[string]any
	assert.Error(t, c.GetJSON(ctx, "http://example.org", nil, &out))
}

func TestValidateURL(t *testing.T) {
	c := New(Options{})
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"https://api.crossref.org/works", false},
		{"http://api.geonames.org/findNearbyJSON", false},
		{"ftp://example.org/file", true},
		{"http://localhost:8080/", true},
		{"http://127.0.0.1/", true},
		{"http://10.1.2.3/", true},
		{"http://[::1]/", true},
		{"http://user:pw@example.org/", true},
		{"http:///nohost", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			u, err := url.Parse(tt.raw)
			require.NoError(t, err)
			err = c.validateURL(u)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsPrivate(t *testing.T) {
	for addr, want := range map[string]bool{
		"192.168.1.1":      true,
		"172.16.0.1":       true,
		"169.254.1.1":      true,
		"::ffff:127.0.0.1": true,
		"fd00::1":          true,
		"8.8.8.8":          false,
		"2606:4700::1111":  false,
	} {
		assert.Equal(t, want, isPrivate(netip.MustParseAddr(addr)), addr)
	}
}
