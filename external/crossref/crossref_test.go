package crossref

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/teranos/globi/am"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/internal/httpclient"
	"github.com/teranos/globi/internal/util"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := am.DOIConfig{BaseURL: srv.URL, Mailto: "test@example.org", TimeoutSeconds: 5}
	return New(cfg, httpclient.Options{BlockPrivateIP: util.Ptr(false)}, zaptest.NewLogger(t).Sugar())
}

func TestFindDOIForReference(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works", r.URL.Path)
		assert.Equal(t, "Duck D. 1934. On mice.", r.URL.Query().Get("query.bibliographic"))
		assert.Equal(t, "test@example.org", r.URL.Query().Get("mailto"))
		assert.Contains(t, r.Header.Get("User-Agent"), "mailto:test@example.org")
		_, _ = w.Write([]byte(`{"message":{"items":[{"DOI":"10.1/Y","score":87.5}]}}`))
	})

	doi, err := c.FindDOIForReference(context.Background(), "Duck D. 1934. On mice.")
	require.NoError(t, err)
	assert.Equal(t, "10.1/Y", doi)
}

func TestFindDOIForReference_LowScore(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"items":[{"DOI":"10.1/Y","score":12}]}}`))
	})
	doi, err := c.FindDOIForReference(context.Background(), "something vague")
	require.NoError(t, err)
	assert.Empty(t, doi)
}

func TestFindDOIForReference_ServerError(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := c.FindDOIForReference(context.Background(), "X")
	require.Error(t, err)
	assert.True(t, errors.IsExternalServiceError(err))
}

func TestFindCitationForDOI(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works/10.1/Y", r.URL.Path)
		_, _ = w.Write([]byte(`{"message":{
			"DOI":"10.1/Y",
			"title":["On the diet of mice"],
			"container-title":["Journal of Ducks"],
			"volume":"3","page":"1-10",
			"author":[{"given":"Donald Fauntleroy","family":"Duck"},{"given":"Mickey","family":"Mouse"}],
			"issued":{"date-parts":[[1934,6]]}
		}}`))
	})

	citation, err := c.FindCitationForDOI(context.Background(), "10.1/Y")
	require.NoError(t, err)
	assert.Equal(t, "Duck DF, Mouse M. 1934. On the diet of mice. Journal of Ducks 3:1-10. doi:10.1/Y", citation)
}

func TestFindCitationForDOI_EscapesPath(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/works/10.1002/ab?c#d", r.URL.Path)
		assert.Equal(t, "test@example.org", r.URL.Query().Get("mailto"))
		_, _ = w.Write([]byte(`{"message":{"DOI":"10.1002/ab?c#d","title":["T"]}}`))
	})

	citation, err := c.FindCitationForDOI(context.Background(), "10.1002/ab?c#d")
	require.NoError(t, err)
	assert.Equal(t, "T. doi:10.1002/ab?c#d", citation)
}

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"Donald Fauntleroy": "DF",
		"Ángel":             "Á",
		"émile  zola":       "ÉZ",
		"Øystein":           "Ø",
	}
	for given, want := range tests {
		assert.Equal(t, want, initials(given), given)
	}
}

func TestFindCitationForDOI_NotFound(t *testing.T) {
	c := newClient(t, http.NotFound)
	_, err := c.FindCitationForDOI(context.Background(), "10.1/missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
	assert.True(t, errors.IsExternalServiceError(err))
}
