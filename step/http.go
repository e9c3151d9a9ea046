package step

import (
	"time"

	"github.com/andrewBezerra/assured-go/auth"
)

// HTTPStep describes one HTTP call against an API resource.
type HTTPStep struct {
	Resource string
	Method   string
	Body     string
	Headers  map[string]string
	Query    map[string]string
	Timeout  time.Duration
	Auth     *auth.HTTPAuthConfig
}

func (HTTPStep) Kind() Kind { return KindHTTP }
func (HTTPStep) spec()      {}

// clone is the single copy path for HTTPStep; every With* goes through it
// so a field added to the struct cannot be missed.
func (s HTTPStep) clone() HTTPStep {
	out := s
	out.Headers = copyStringMap(s.Headers)
	out.Query = copyStringMap(s.Query)
	return out
}

func (s HTTPStep) WithHeader(name, value string) HTTPStep {
	out := s.clone()
	out.Headers = withEntry(out.Headers, name, value)
	return out
}

func (s HTTPStep) WithQueryParam(name, value string) HTTPStep {
	out := s.clone()
	out.Query = withEntry(out.Query, name, value)
	return out
}

func (s HTTPStep) WithBody(body string) HTTPStep {
	out := s.clone()
	out.Body = body
	return out
}

func (s HTTPStep) WithTimeout(d time.Duration) HTTPStep {
	out := s.clone()
	out.Timeout = d
	return out
}

func (s HTTPStep) WithAuth(cfg *auth.HTTPAuthConfig) HTTPStep {
	out := s.clone()
	out.Auth = cfg
	return out
}
