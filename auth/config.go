// Package auth maps authentication configuration onto outgoing requests
// and broker client configuration. Each configuration is a tagged union: a
// discriminant type field selects exactly one variant, and each variant
// carries only the fields relevant to it. Resolution turns a configuration
// into a strategy; strategies differ only in what they set, never in how
// they are invoked.
package auth

import "fmt"

// HTTPAuthType selects an HTTP authentication variant.
type HTTPAuthType int

const (
	HTTPAuthNone HTTPAuthType = iota
	HTTPAuthBasic
	HTTPAuthBearer
	HTTPAuthAPIKey
	HTTPAuthCustomHeader
	HTTPAuthOAuth2
	HTTPAuthCertificate
)

func (t HTTPAuthType) String() string {
	switch t {
	case HTTPAuthNone:
		return "None"
	case HTTPAuthBasic:
		return "Basic"
	case HTTPAuthBearer:
		return "Bearer"
	case HTTPAuthAPIKey:
		return "ApiKey"
	case HTTPAuthCustomHeader:
		return "CustomHeader"
	case HTTPAuthOAuth2:
		return "OAuth2"
	case HTTPAuthCertificate:
		return "Certificate"
	default:
		return fmt.Sprintf("HTTPAuthType(%d)", int(t))
	}
}

type BasicConfig struct {
	Username string
	Password string
}

type BearerConfig struct {
	Token string
}

// APIKeyConfig sends a key in a header. Header defaults to "X-API-Key"
// when empty.
type APIKeyConfig struct {
	Header string
	Value  string
}

type CustomHeaderConfig struct {
	Name  string
	Value string
}

// OAuth2Config holds client-credentials settings. The strategy needs a
// token to put in the Authorization header: either a pre-fetched
// AccessToken or a TokenSource callback that supplies one. Fetching tokens
// over the wire is the caller's concern.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	AccessToken  string
	TokenSource  func() (string, error)
}

// CertificateConfig points at client-certificate material on disk. The
// transport decides how to load it; no cryptography happens here.
type CertificateConfig struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

// HTTPAuthConfig selects and parameterizes one HTTP authentication
// mechanism. Exactly one variant block should be set, matching Type.
type HTTPAuthConfig struct {
	Type         HTTPAuthType
	Basic        *BasicConfig
	Bearer       *BearerConfig
	APIKey       *APIKeyConfig
	CustomHeader *CustomHeaderConfig
	OAuth2       *OAuth2Config
	Certificate  *CertificateConfig
}

// MessagingAuthType selects a broker authentication variant.
type MessagingAuthType int

const (
	MessagingAuthNone MessagingAuthType = iota
	MessagingAuthSASLPlain
	MessagingAuthSASLScram256
	MessagingAuthSASLScram512
	MessagingAuthSSL
	MessagingAuthMutualTLS
)

func (t MessagingAuthType) String() string {
	switch t {
	case MessagingAuthNone:
		return "None"
	case MessagingAuthSASLPlain:
		return "SaslPlain"
	case MessagingAuthSASLScram256:
		return "SaslScram256"
	case MessagingAuthSASLScram512:
		return "SaslScram512"
	case MessagingAuthSSL:
		return "Ssl"
	case MessagingAuthMutualTLS:
		return "MutualTls"
	default:
		return fmt.Sprintf("MessagingAuthType(%d)", int(t))
	}
}

type SASLCredentials struct {
	Username string
	Password string
}

type SSLConfig struct {
	CAFile     string
	SkipVerify bool
}

type MutualTLSConfig struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

// MessagingAuthConfig selects and parameterizes one broker authentication
// mechanism. For the SASL variants, SSL may additionally be set as an
// independent transport-security overlay; the resolved strategy applies
// both, and the result does not depend on application order.
type MessagingAuthConfig struct {
	Type      MessagingAuthType
	SASL      *SASLCredentials
	SSL       *SSLConfig
	MutualTLS *MutualTLSConfig
}

// ConfigurationError reports a variant whose required sub-configuration is
// absent, for example Type = Basic with no Basic block. It is raised at
// resolution time, before any I/O.
type ConfigurationError struct {
	Variant string
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("authentication type %s is selected but its %s configuration is missing", e.Variant, e.Missing)
}
