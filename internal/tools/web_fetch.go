package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lbaylis/hearth/internal/registry"
)

// FetchConfig bounds the web_fetch tool.
type FetchConfig struct {
	// AllowedDomains is the host allowlist; empty denies everything.
	AllowedDomains []string
	// MaxBytes caps the fetched body. Zero means 512 KiB.
	MaxBytes int64
	// Timeout bounds the whole request. Zero means 20s.
	Timeout time.Duration
}

const (
	defaultFetchBytes   = 512 << 10
	defaultFetchTimeout = 20 * time.Second
)

// WebFetchRequest fetches one URL.
type WebFetchRequest struct {
	URL string `mapstructure:"url"`
}

func (r WebFetchRequest) Validate() error {
	if r.URL == "" {
		return fmt.Errorf("url must not be empty")
	}
	return nil
}

// NewWebFetch returns the web_fetch tool. Network-shell tier. Only http(s)
// URLs on allowlisted domains; only textual content types; the body is
// truncated at the byte cap.
func NewWebFetch(cfg FetchConfig) registry.Tool {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = defaultFetchBytes
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultFetchTimeout
	}
	client := &http.Client{Timeout: cfg.Timeout}
	params := &registry.Schema{
		Type: "object",
		Properties: map[string]*registry.Schema{
			"url": {Type: "string", Description: "http(s) URL on an allowlisted domain"},
		},
		Required: []string{"url"},
	}
	return NewAdapter("web_fetch", "Fetch a text or JSON document from an allowlisted domain",
		params, func(ctx context.Context, req WebFetchRequest) (string, error) {
			u, err := url.Parse(req.URL)
			if err != nil {
				return "", fmt.Errorf("invalid url: %w", err)
			}
			if u.Scheme != "http" && u.Scheme != "https" {
				return "", fmt.Errorf("scheme %q not allowed", u.Scheme)
			}
			if !domainAllowed(u.Hostname(), cfg.AllowedDomains) {
				return "", fmt.Errorf("domain %q is not on the allowlist", u.Hostname())
			}

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
			if err != nil {
				return "", err
			}
			resp, err := client.Do(httpReq)
			if err != nil {
				return "", fmt.Errorf("fetch %s: %w", req.URL, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("fetch %s: status %s", req.URL, resp.Status)
			}
			ctype := resp.Header.Get("Content-Type")
			if !textualContentType(ctype) {
				return "", fmt.Errorf("content type %q is not textual", ctype)
			}

			body, err := io.ReadAll(io.LimitReader(resp.Body, cfg.MaxBytes+1))
			if err != nil {
				return "", fmt.Errorf("read body: %w", err)
			}
			if int64(len(body)) > cfg.MaxBytes {
				return string(body[:cfg.MaxBytes]) + "\n[output truncated]", nil
			}
			return string(body), nil
		})
}

// domainAllowed matches host exactly or as a subdomain of an allowlist
// entry.
func domainAllowed(host string, allowlist []string) bool {
	host = strings.ToLower(host)
	for _, d := range allowlist {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func textualContentType(ctype string) bool {
	mediaType, _, _ := strings.Cut(ctype, ";")
	mediaType = strings.TrimSpace(strings.ToLower(mediaType))
	if strings.HasPrefix(mediaType, "text/") {
		return true
	}
	switch mediaType {
	case "application/json", "application/xml", "application/yaml":
		return true
	}
	return strings.HasSuffix(mediaType, "+json") || strings.HasSuffix(mediaType, "+xml")
}
