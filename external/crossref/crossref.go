// Package crossref resolves DOIs and citations against the Crossref REST API.
package crossref

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/teranos/globi/am"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/internal/httpclient"
	"github.com/teranos/globi/logger"
)

// MinScore is the relevance score below which a bibliographic match is
// not trusted.
const MinScore = 60.0

// Client implements study.DOIResolver.
type Client struct {
	baseURL string
	mailto  string
	http    *httpclient.Client
	logger  *zap.SugaredLogger
}

// New creates a Client from the doi config section.
func New(cfg am.DOIConfig, opts httpclient.Options, log *zap.SugaredLogger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = cfg.RequestsPerSecond
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "globi"
		if cfg.Mailto != "" {
			opts.UserAgent += " (mailto:" + cfg.Mailto + ")"
		}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		mailto:  cfg.Mailto,
		http:    httpclient.New(opts),
		logger:  logger.OrNop(log).Named("crossref"),
	}
}

type work struct {
	DOI            string   `json:"DOI"`
	Score          float64  `json:"score"`
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	Volume         string   `json:"volume"`
	Page           string   `json:"page"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
}

type searchResponse struct {
	Message struct {
		Items []work `json:"items"`
	} `json:"message"`
}

type workResponse struct {
	Message work `json:"message"`
}

func (c *Client) query() url.Values {
	q := url.Values{}
	if c.mailto != "" {
		q.Set("mailto", c.mailto)
	}
	return q
}

// FindDOIForReference returns the DOI of the best bibliographic match for
// citation, or "" when nothing scores at least MinScore.
func (c *Client) FindDOIForReference(ctx context.Context, citation string) (string, error) {
	q := c.query()
	q.Set("query.bibliographic", citation)
	q.Set("rows", "1")

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/works", q, &resp); err != nil {
		return "", errors.MarkExternal(err, "crossref search")
	}
	if len(resp.Message.Items) == 0 || resp.Message.Items[0].Score < MinScore {
		c.logger.Debugw("No DOI match", "citation", citation)
		return "", nil
	}
	return resp.Message.Items[0].DOI, nil
}

// FindCitationForDOI renders a citation from the Crossref work record.
func (c *Client) FindCitationForDOI(ctx context.Context, doi string) (string, error) {
	var resp workResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/works/"+url.PathEscape(doi), c.query(), &resp); err != nil {
		return "", errors.MarkExternal(err, "crossref work")
	}
	return formatCitation(resp.Message), nil
}

// formatCitation renders "Authors. Year. Title. Container Volume:Page. doi:DOI".
func formatCitation(w work) string {
	var parts []string

	authors := make([]string, 0, len(w.Author))
	for _, a := range w.Author {
		name := strings.TrimSpace(a.Family)
		if initial := initials(a.Given); initial != "" {
			name += " " + initial
		}
		if name != "" {
			authors = append(authors, name)
		}
	}
	if len(authors) > 0 {
		parts = append(parts, strings.Join(authors, ", "))
	}
	if len(w.Issued.DateParts) > 0 && len(w.Issued.DateParts[0]) > 0 {
		parts = append(parts, fmt.Sprintf("%d", w.Issued.DateParts[0][0]))
	}
	if len(w.Title) > 0 {
		parts = append(parts, strings.TrimSpace(w.Title[0]))
	}
	if len(w.ContainerTitle) > 0 {
		container := strings.TrimSpace(w.ContainerTitle[0])
		if w.Volume != "" {
			container += " " + w.Volume
		}
		if w.Page != "" {
			container += ":" + w.Page
		}
		parts = append(parts, container)
	}
	if w.DOI != "" {
		parts = append(parts, "doi:"+w.DOI)
	}
	return strings.Join(parts, ". ")
}

func initials(given string) string {
	var b strings.Builder
	for _, part := range strings.Fields(given) {
		first, _ := utf8.DecodeRuneInString(part)
		b.WriteRune(unicode.ToUpper(first))
	}
	return b.String()
}
