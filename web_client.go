package mendxml

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

const defaultUserAgent = "mendxml/1.0 (+https://github.com/muzzletov/mendxml)"

type WebClient struct {
	client    *http.Client
	userAgent string
	header    http.Header
}

func NewClient() *WebClient {
	jar, _ := cookiejar.New(nil)

	return &WebClient{
		client:    &http.Client{Jar: jar, Timeout: 30 * time.Second},
		userAgent: defaultUserAgent,
		header:    make(http.Header),
	}
}

func (c *WebClient) SetUserAgent(agent string) {
	c.userAgent = agent
}

func (c *WebClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// SetHeader adds a header sent with every request.
func (c *WebClient) SetHeader(key, value string) {
	c.header.Set(key, value)
}

// Fetch downloads url and returns the body. Non-2xx responses are errors.
func (c *WebClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)

	if err != nil {
		return nil, err
	}

	mergeHeaderFields(c.header, req.Header)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)

	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)

	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	return data, nil
}

func (c *WebClient) FetchParse(ctx context.Context, url string, opts ...Option) (*Node, error) {
	data, err := c.Fetch(ctx, url)

	if err != nil {
		return nil, err
	}

	return Parse(data, opts...)
}

func mergeHeaderFields(srcHeader http.Header, dstHeader http.Header) {
	for key, values := range srcHeader {
		for _, value := range values {
			dstHeader.Add(key, value)
		}
	}
}
