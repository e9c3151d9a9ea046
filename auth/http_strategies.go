package auth

import (
	"encoding/base64"

	"github.com/andrewBezerra/assured-go/httptransport"
)

// HTTPStrategy mutates an outgoing request to carry credentials. Applying
// the same strategy twice leaves the request in the same state as applying
// it once.
type HTTPStrategy interface {
	Apply(req *httptransport.Request) error
}

type noopHTTPStrategy struct{}

func (noopHTTPStrategy) Apply(*httptransport.Request) error { return nil }

type basicStrategy struct {
	username, password string
}

func (s basicStrategy) Apply(req *httptransport.Request) error {
	credentials := base64.StdEncoding.EncodeToString([]byte(s.username + ":" + s.password))
	req.SetHeader("Authorization", "Basic "+credentials)
	return nil
}

type bearerStrategy struct {
	token string
}

func (s bearerStrategy) Apply(req *httptransport.Request) error {
	req.SetHeader("Authorization", "Bearer "+s.token)
	return nil
}

const defaultAPIKeyHeader = "X-API-Key"

type apiKeyStrategy struct {
	header, value string
}

func (s apiKeyStrategy) Apply(req *httptransport.Request) error {
	header := s.header
	if header == "" {
		header = defaultAPIKeyHeader
	}
	req.SetHeader(header, s.value)
	return nil
}

type customHeaderStrategy struct {
	name, value string
}

func (s customHeaderStrategy) Apply(req *httptransport.Request) error {
	req.SetHeader(s.name, s.value)
	return nil
}

type oauth2Strategy struct {
	cfg *OAuth2Config
}

func (s oauth2Strategy) Apply(req *httptransport.Request) error {
	token := s.cfg.AccessToken
	if token == "" {
		t, err := s.cfg.TokenSource()
		if err != nil {
			return err
		}
		token = t
	}
	req.SetHeader("Authorization", "Bearer "+token)
	return nil
}

type certificateStrategy struct {
	cfg *CertificateConfig
}

func (s certificateStrategy) Apply(req *httptransport.Request) error {
	req.TLS.CertFile = s.cfg.CertFile
	req.TLS.KeyFile = s.cfg.KeyFile
	req.TLS.CAFile = s.cfg.CAFile
	return nil
}
