// Package httpclient is the outbound HTTP layer shared by the DOI and
// geocoding clients: rate limited, SSRF guarded, JSON decoding.
package httpclient

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/teranos/globi/errors"
)

// Options configures a Client. Zero values select defaults.
type Options struct {
	Timeout           time.Duration // Default: 10s
	RequestsPerSecond float64       // Default: unlimited
	UserAgent         string
	MaxRedirects      int   // Default: 10
	BlockPrivateIP    *bool // Default: true
}

// Client wraps http.Client with a request rate limit and private-address blocking.
type Client struct {
	http           *http.Client
	limiter        *rate.Limiter
	userAgent      string
	blockPrivateIP bool
	maxRedirects   int
}

// New creates a Client from opts.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = 10
	}
	block := true
	if opts.BlockPrivateIP != nil {
		block = *opts.BlockPrivateIP
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	c := &Client{
		http:           &http.Client{Timeout: opts.Timeout},
		limiter:        limiter,
		userAgent:      opts.UserAgent,
		blockPrivateIP: block,
		maxRedirects:   opts.MaxRedirects,
	}

	c.http.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= c.maxRedirects {
			return errors.Newf("stopped after %d redirects", c.maxRedirects)
		}
		return errors.Wrap(c.validateURL(req.URL), "redirect blocked")
	}

	if block {
		dialer := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
		c.http.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				host, _, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, errors.Wrap(err, "invalid address")
				}
				ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
				if err != nil {
					return nil, errors.Wrapf(err, "failed to resolve host %q", host)
				}
				for _, ip := range ips {
					if isPrivate(ip) {
						return nil, errors.Newf("private IP address blocked: %s", ip)
					}
				}
				return dialer.DialContext(ctx, network, addr)
			},
			MaxIdleConns:        16,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		}
	}

	return c
}

// GetJSON issues a GET to rawURL with query appended and decodes the JSON body into out.
// A 404 is returned as errors.ErrNotFound; other non-2xx statuses as plain errors.
func (c *Client) GetJSON(ctx context.Context, rawURL string, query url.Values, out any) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}
	if err := c.validateURL(u); err != nil {
		return err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "GET %s", u.Redacted())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.NewNotFoundError("GET %s", u.Redacted())
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Newf("GET %s: status %d: %s", u.Redacted(), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

func (c *Client) validateURL(u *url.URL) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return errors.Newf("scheme %q not allowed", u.Scheme)
	}
	if u.User != nil {
		return errors.New("URL contains credentials")
	}
	host := u.Hostname()
	if host == "" {
		return errors.New("URL missing hostname")
	}
	if !c.blockPrivateIP {
		return nil
	}
	if isLocalhost(host) {
		return errors.New("localhost access blocked")
	}
	if ip, err := netip.ParseAddr(host); err == nil && isPrivate(ip) {
		return errors.Newf("private IP address blocked: %s", host)
	}
	return nil
}

func isPrivate(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsMulticast() || ip.IsUnspecified()
}

func isLocalhost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	return hostname == "localhost" || strings.HasSuffix(hostname, ".localhost")
}
