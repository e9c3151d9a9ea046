package httptransport

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/andrewBezerra/assured-go/logging"

	"github.com/alessio/shellescape"
)

// Client is the default Sender. The underlying http.Client is created
// lazily exactly once on first use and is safe for concurrent scenarios;
// one Client is normally shared across a whole test run.
type Client struct {
	baseURL    string
	logger     logging.Logger
	once       sync.Once
	httpClient *http.Client
}

// NewClient creates a Client that resolves relative resource paths against
// baseURL. A nil logger disables debug output.
func NewClient(baseURL string, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.NullLogger()
	}
	return &Client{baseURL: baseURL, logger: logger}
}

func (c *Client) client() *http.Client {
	c.once.Do(func() {
		// Per-step timeouts come from the request context, so the
		// http.Client itself has none.
		c.httpClient = &http.Client{}
	})
	return c.httpClient
}

// clientFor returns the shared client, or a one-off client carrying the
// request's TLS settings when the certificate strategy set any.
func (c *Client) clientFor(req *Request) (*http.Client, error) {
	if req.TLS == (TLSOptions{}) {
		return c.client(), nil
	}
	tlsConfig, err := req.TLS.config()
	if err != nil {
		return nil, err
	}
	return &http.Client{Transport: &http.Transport{TLSClientConfig: tlsConfig}}, nil
}

func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	return c.send(ctx, req)
}

// CurlString renders a request as a copy-pastable curl command for debug
// logs, so a failing step can be replayed by hand.
func CurlString(req *Request) string {
	args := []string{"curl", "-X", shellescape.Quote(req.Method)}

	names := make([]string, 0, len(req.Header))
	for name := range req.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range req.Header[name] {
			args = append(args, "-H", shellescape.Quote(name+": "+v))
		}
	}

	if req.Body != "" {
		args = append(args, "-d", shellescape.Quote(req.Body))
	}
	args = append(args, shellescape.Quote(req.FullURL()))
	return strings.Join(args, " ")
}
