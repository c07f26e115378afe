package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"
)

var (
	rnd            = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndMu          sync.Mutex
	defaultTimeout = 10 * time.Second
)

// maxResponseBytes caps how much of an upstream body a tool will read.
const maxResponseBytes = 5 * 1024 * 1024

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:124.0) Gecko/20100101 Firefox/124.0",
}

func CreateHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
}

func GetRandomUserAgent() string {
	rndMu.Lock()
	defer rndMu.Unlock()
	return userAgents[rnd.Intn(len(userAgents))]
}

// FetchURL performs a GET and returns the response body when the status is 2xx.
// The returned header is the response header, useful for content-type sniffing.
// Errors name the URL without its query string, which may carry credentials.
func FetchURL(ctx context.Context, client *http.Client, rawURL string, accept string) ([]byte, http.Header, error) {
	target := redactURL(rawURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request for %s: %w", target, unwrapURLError(err))
	}

	req.Header.Set("User-Agent", GetRandomUserAgent())
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request to %s failed: %w", target, unwrapURLError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("%s returned status %s: %s", target, resp.Status, TruncateString(string(body), 200))
	}

	return body, resp.Header, nil
}

// FetchJSON performs a GET and decodes a 2xx JSON body into v.
func FetchJSON(ctx context.Context, client *http.Client, rawURL string, v any) error {
	body, _, err := FetchURL(ctx, client, rawURL, "application/json")
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", redactURL(rawURL), err)
	}

	return nil
}

// redactURL drops the query string and user info from rawURL.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	u.ForceQuery = false
	u.User = nil
	u.Fragment = ""
	return u.String()
}

// unwrapURLError strips the *url.Error layer, whose message repeats the full URL.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
