package portalsdk

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

// MaxRetryAttempts is how many times a request is re-issued after a
// successful refresh.
const MaxRetryAttempts = 1

// Client talks to the portal API. The refresh credential lives in the
// HTTP client's cookie jar; the access token lives in Tokens.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenStore

	refresh singleflight.Group

	mu        sync.Mutex
	onExpired []func()
}

type Option func(*Client)

// WithHTTPClient uses a copy of hc. A cookie jar is added when hc has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.HTTPClient = &cp
	}
}

// NewClient creates a client. A nil tokens uses a MemoryTokenStore.
func NewClient(baseURL string, tokens TokenStore, opts ...Option) (*Client, error) {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	c := &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		Tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.HTTPClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.HTTPClient.Jar = jar
	}
	return c, nil
}

// OnSessionExpired registers fn to run whenever the pipeline gives up on a
// session.
func (c *Client) OnSessionExpired(fn func()) {
	c.mu.Lock()
	c.onExpired = append(c.onExpired, fn)
	c.mu.Unlock()
}

func (c *Client) expired() {
	c.mu.Lock()
	fns := append([]func(){}, c.onExpired...)
	c.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (c *Client) url(path string) string {
	return c.BaseURL + path
}
