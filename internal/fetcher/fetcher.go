// Package fetcher performs the bounded HEAD and GET retrieval of a
// target URL and assembles a unified fetch result. Transport failures
// are recorded on the result, never raised: the pipeline continues with
// whatever partial data exists.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html/charset"

	"safelink-scanner/internal/config"
	"safelink-scanner/internal/models"
)

// Client issues the outbound requests for the scan pipeline. The
// transport is shared; redirect bookkeeping is per call.
type Client struct {
	transport    http.RoundTripper
	timeout      time.Duration
	maxBody      int64
	maxRedirects int
	userAgent    string
}

// New builds a Client from the given configuration.
func New(cfg config.Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		transport:    transport,
		timeout:      cfg.FetchTimeout,
		maxBody:      cfg.MaxBodyBytes,
		maxRedirects: cfg.MaxRedirects,
		userAgent:    cfg.UserAgent,
	}
}

// Fetch runs the HEAD and GET attempts concurrently and merges them.
// GET always runs, whatever HEAD returned: some servers reject HEAD but
// serve GET, so HEAD is advisory metadata only. No retries.
func (c *Client) Fetch(ctx context.Context, target string) models.FetchResult {
	start := time.Now()
	res := models.FetchResult{URL: target}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.Head = c.attempt(ctx, http.MethodHead, target)
	}()
	go func() {
		defer wg.Done()
		res.Get = c.attempt(ctx, http.MethodGet, target)
	}()
	wg.Wait()

	res.FinalURL = target
	switch {
	case res.Get.Error == "" && res.Get.FinalURL != "":
		res.FinalURL = res.Get.FinalURL
	case res.Head.Error == "" && res.Head.FinalURL != "":
		res.FinalURL = res.Head.FinalURL
	}
	res.DurationMs = time.Since(start).Milliseconds()
	return res
}

// attempt performs a single request with redirects followed, recording
// the ordered chain of intermediate URLs. For GET it also reads the
// body: the retained content is capped at maxBody bytes while Filesize
// still reflects the full response size.
func (c *Client) attempt(ctx context.Context, method, target string) models.AttemptResult {
	res := models.AttemptResult{FinalURL: target}
	label := strings.ToLower(method)

	var redirects []string
	client := &http.Client{
		Transport: c.transport,
		Timeout:   c.timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= c.maxRedirects {
				return fmt.Errorf("stopped after %d redirects", c.maxRedirects)
			}
			redirects = append(redirects, via[len(via)-1].URL.String())
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		res.Error = label + "_request_error: " + err.Error()
		return res
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	res.Redirects = redirects
	if err != nil {
		res.Error = label + "_request_error: " + err.Error()
		return res
	}
	defer resp.Body.Close()

	res.StatusCode = resp.StatusCode
	res.FinalURL = resp.Request.URL.String()
	res.Headers = flattenHeaders(resp.Header)

	if method != http.MethodGet {
		return res
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		res.Error = label + "_read_error: " + err.Error()
		return res
	}
	// Drain past the cap so Filesize reflects the original size without
	// retaining the excess bytes.
	rest, _ := io.Copy(io.Discard, resp.Body)
	res.Filesize = int64(len(body)) + rest
	res.Content = decodeBody(body, resp.Header.Get("Content-Type"))
	return res
}

// decodeBody converts the raw bytes to UTF-8 using the detected
// encoding. Decoding is permissive: invalid sequences are replaced, not
// fatal, so truncated bodies still yield usable text.
func decodeBody(data []byte, contentType string) string {
	enc, _, _ := charset.DetermineEncoding(data, contentType)
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return strings.ToValidUTF8(string(data), "�")
	}
	return string(decoded)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
