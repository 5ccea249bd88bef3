// Package geonames looks up locality centroids in the GeoNames web service.
package geonames

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/globi/am"
	"github.com/teranos/globi/errors"
	"github.com/teranos/globi/internal/httpclient"
	"github.com/teranos/globi/logger"
)

var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?i)geonames:(\d+)$`),
	regexp.MustCompile(`^(?i)https?://(?:www\.|sws\.)?geonames\.org/(\d+)(?:/.*)?$`),
}

// ParseID extracts the numeric geonameId from a locality id such as
// GEONAMES:123 or http://www.geonames.org/123.
func ParseID(localityID string) (string, bool) {
	s := strings.TrimSpace(localityID)
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// Client implements location.GeoNamesService.
type Client struct {
	baseURL  string
	username string
	http     *httpclient.Client
	logger   *zap.SugaredLogger
}

// New creates a Client from the geonames config section.
func New(cfg am.GeoNamesConfig, opts httpclient.Options, log *zap.SugaredLogger) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = cfg.RequestsPerSecond
	}
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		http:     httpclient.New(opts),
		logger:   logger.OrNop(log).Named("geonames"),
	}
}

type getResponse struct {
	Lat    string `json:"lat"`
	Lng    string `json:"lng"`
	Status *struct {
		Message string `json:"message"`
		Value   int    `json:"value"`
	} `json:"status"`
}

// FindLatLng returns the coordinates GeoNames records for localityID.
func (c *Client) FindLatLng(ctx context.Context, localityID string) (float64, float64, error) {
	id, ok := ParseID(localityID)
	if !ok {
		return 0, 0, errors.NewInvalidRequestError("unsupported locality id [%s]", localityID)
	}

	var resp getResponse
	q := map[string][]string{"geonameId": {id}, "username": {c.username}}
	if err := c.http.GetJSON(ctx, c.baseURL+"/getJSON", q, &resp); err != nil {
		return 0, 0, errors.MarkExternal(err, "geonames get")
	}
	if resp.Status != nil {
		return 0, 0, errors.MarkExternal(errors.Newf("%s (code %d)", resp.Status.Message, resp.Status.Value), "geonames get")
	}

	lat, err := strconv.ParseFloat(resp.Lat, 64)
	if err != nil {
		return 0, 0, errors.MarkExternal(errors.Wrapf(err, "latitude [%s]", resp.Lat), "geonames get")
	}
	lng, err := strconv.ParseFloat(resp.Lng, 64)
	if err != nil {
		return 0, 0, errors.MarkExternal(errors.Wrapf(err, "longitude [%s]", resp.Lng), "geonames get")
	}
	c.logger.Debugw("Resolved locality", logger.FieldLocalityID, localityID, "lat", lat, "lng", lng)
	return lat, lng, nil
}
