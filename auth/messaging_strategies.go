package auth

import "github.com/andrewBezerra/assured-go/broker"

// MessagingStrategy mutates a broker client configuration to carry
// credentials and transport-security settings. Strategies only write the
// fields they own, so a SASL strategy and an SSL overlay compose in either
// order with the same result.
type MessagingStrategy interface {
	Apply(cfg *broker.ClientConfig) error
}

type noopMessagingStrategy struct{}

func (noopMessagingStrategy) Apply(*broker.ClientConfig) error { return nil }

const (
	mechanismPlain    = "PLAIN"
	mechanismScram256 = "SCRAM-SHA-256"
	mechanismScram512 = "SCRAM-SHA-512"
)

type saslStrategy struct {
	mechanism string
	creds     *SASLCredentials
}

func (s saslStrategy) Apply(cfg *broker.ClientConfig) error {
	cfg.SASL.Mechanism = s.mechanism
	cfg.SASL.Username = s.creds.Username
	cfg.SASL.Password = s.creds.Password
	return nil
}

type sslStrategy struct {
	cfg *SSLConfig
}

func (s sslStrategy) Apply(cfg *broker.ClientConfig) error {
	cfg.TLS.Enabled = true
	cfg.TLS.CAFile = s.cfg.CAFile
	cfg.TLS.SkipVerify = s.cfg.SkipVerify
	return nil
}

type mutualTLSStrategy struct {
	cfg *MutualTLSConfig
}

func (s mutualTLSStrategy) Apply(cfg *broker.ClientConfig) error {
	cfg.TLS.Enabled = true
	cfg.TLS.CertFile = s.cfg.CertFile
	cfg.TLS.KeyFile = s.cfg.KeyFile
	cfg.TLS.CAFile = s.cfg.CAFile
	return nil
}

type compositeMessagingStrategy struct {
	parts []MessagingStrategy
}

func (s compositeMessagingStrategy) Apply(cfg *broker.ClientConfig) error {
	for _, part := range s.parts {
		if err := part.Apply(cfg); err != nil {
			return err
		}
	}
	return nil
}
