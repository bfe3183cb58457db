package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dealmungchi/xidmetlercrawler/logger"
	"github.com/dealmungchi/xidmetlercrawler/pkg/errors"

	"golang.org/x/net/html/charset"
	"golang.org/x/net/publicsuffix"
)

// Session holds the cookie jar and static headers shared by every request of a run.
// It is owned by a single crawl and is not safe for concurrent use
type Session struct {
	client    *http.Client
	userAgent string
	log       *logger.Logger
}

// NewSession creates a session with a fresh cookie jar and a fixed request timeout
func NewSession(timeout time.Duration, userAgent string) *Session {
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})

	return &Session{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		userAgent: userAgent,
		log:       logger.ForSession(),
	}
}

// Cookies returns the cookies the jar holds for rawURL
func (s *Session) Cookies(rawURL string) []*http.Cookie {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	return s.client.Jar.Cookies(u)
}

// Get sends a single GET with browser-like headers and returns the body as UTF-8
func (s *Session) Get(ctx context.Context, rawURL string) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewNetwork(rawURL, "failed to create request", err)
	}

	// Set browser-like headers
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "az-AZ,az;q=0.9,en-US;q=0.8,en;q=0.7")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(rawURL, "failed to fetch URL", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(rawURL, resp); err != nil {
		return nil, err
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(rawURL, "failed to read response body", err)
	}

	s.log.Debug().
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Int("bytes", len(bodyBytes)).
		Msg("Fetched page")

	return toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
}

// PostForm sends a form-encoded POST with extra headers and returns the raw body
func (s *Session) PostForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.NewNetwork(rawURL, "failed to create request", err)
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.NewNetwork(rawURL, "failed to post form", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(rawURL, resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetwork(rawURL, "failed to read response body", err)
	}
	return body, nil
}

func checkStatus(rawURL string, resp *http.Response) error {
	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, resp.StatusCode) {
		return errors.NewRateLimit(rawURL, resp.StatusCode, resp.Header.Get("Retry-After"))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.NewStatus(rawURL, resp.StatusCode)
	}
	return nil
}

// toUTF8 converts body to UTF-8 using the Content-Type header and <meta> sniffing
func toUTF8(body []byte, contentType string) (io.Reader, error) {
	encoding, name, certain := charset.DetermineEncoding(body, contentType)

	// Sniffing only sees the first 1024 bytes; a guess loses to a body that is valid UTF-8 throughout
	if strings.EqualFold(name, "utf-8") || (!certain && utf8.Valid(body)) {
		return bytes.NewReader(body), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return &buf, nil
}
