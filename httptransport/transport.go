// Package httptransport defines the HTTP surface the DSL consumes: a
// Request/Response pair that authentication strategies mutate, a Sender
// interface the scenario engine delegates to, and a default Sender built
// on net/http.
package httptransport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strings"
)

// TLSOptions carries client-certificate settings for a request. The
// default Client builds a tls.Config from them at send time; file
// problems surface as send errors, not configuration errors.
type TLSOptions struct {
	CertFile   string
	KeyFile    string
	CAFile     string
	SkipVerify bool
}

func (o TLSOptions) config() (*tls.Config, error) {
	cfg := &tls.Config{InsecureSkipVerify: o.SkipVerify}
	if o.CertFile != "" || o.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(o.CertFile, o.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	if o.CAFile != "" {
		pem, err := ioutil.ReadFile(o.CAFile)
		if err != nil {
			return nil, fmt.Errorf("loading CA certificate: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", o.CAFile)
		}
		cfg.RootCAs = pool
	}
	return cfg, nil
}

// Request is the mutable description of one outgoing HTTP call. This is
// the target that HTTP authentication strategies write headers and TLS
// options into before the request is sent.
type Request struct {
	Method string
	URL    string
	Query  url.Values
	Header http.Header
	Body   string
	TLS    TLSOptions
}

func NewRequest(method, rawURL string) *Request {
	return &Request{
		Method: method,
		URL:    rawURL,
		Query:  url.Values{},
		Header: http.Header{},
	}
}

// SetHeader sets a header, replacing any existing values.
func (r *Request) SetHeader(name, value string) {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Set(name, value)
}

// FullURL returns the request URL with query parameters appended.
func (r *Request) FullURL() string {
	if len(r.Query) == 0 {
		return r.URL
	}
	sep := "?"
	if strings.Contains(r.URL, "?") {
		sep = "&"
	}
	return r.URL + sep + r.Query.Encode()
}

// Response is the outcome of one HTTP call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       string
}

// Sender performs one HTTP call. The scenario engine treats this as an
// external collaborator; the default implementation is Client.
type Sender interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// SenderFunc adapts a function to the Sender interface.
type SenderFunc func(ctx context.Context, req *Request) (*Response, error)

func (f SenderFunc) Send(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

func (c *Client) resolveURL(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	base := strings.TrimSuffix(c.baseURL, "/")
	if !strings.HasPrefix(raw, "/") {
		raw = "/" + raw
	}
	return base + raw
}

func (c *Client) send(ctx context.Context, req *Request) (*Response, error) {
	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequest(req.Method, c.resolveURL(req.FullURL()), bodyReader)
	if err != nil {
		return nil, err
	}
	httpReq = httpReq.WithContext(ctx)
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}

	httpClient, err := c.clientFor(req)
	if err != nil {
		return nil, err
	}

	c.logger.Printf("Sending request: %s", CurlString(req))

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	var body []byte
	if resp.Body != nil {
		body, err = ioutil.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
	}
	c.logger.Printf("Received response: status %d, %d bytes", resp.StatusCode, len(body))
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: string(body)}, nil
}
