package auth

// ResolveHTTP maps an HTTP authentication configuration to a strategy. A
// nil configuration or the None variant resolves to a no-op strategy. A
// variant whose required sub-configuration is absent fails with a
// ConfigurationError rather than silently applying no authentication.
//
// Adding a new mechanism means adding one variant and one strategy here;
// call sites are unaffected.
func ResolveHTTP(cfg *HTTPAuthConfig) (HTTPStrategy, error) {
	if cfg == nil {
		return noopHTTPStrategy{}, nil
	}
	switch cfg.Type {
	case HTTPAuthNone:
		return noopHTTPStrategy{}, nil
	case HTTPAuthBasic:
		if cfg.Basic == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "Basic"}
		}
		return basicStrategy{username: cfg.Basic.Username, password: cfg.Basic.Password}, nil
	case HTTPAuthBearer:
		if cfg.Bearer == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "Bearer"}
		}
		return bearerStrategy{token: cfg.Bearer.Token}, nil
	case HTTPAuthAPIKey:
		if cfg.APIKey == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "ApiKey"}
		}
		return apiKeyStrategy{header: cfg.APIKey.Header, value: cfg.APIKey.Value}, nil
	case HTTPAuthCustomHeader:
		if cfg.CustomHeader == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "CustomHeader"}
		}
		return customHeaderStrategy{name: cfg.CustomHeader.Name, value: cfg.CustomHeader.Value}, nil
	case HTTPAuthOAuth2:
		if cfg.OAuth2 == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "OAuth2"}
		}
		if cfg.OAuth2.AccessToken == "" && cfg.OAuth2.TokenSource == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "OAuth2 access token or token source"}
		}
		return oauth2Strategy{cfg: cfg.OAuth2}, nil
	case HTTPAuthCertificate:
		if cfg.Certificate == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "Certificate"}
		}
		return certificateStrategy{cfg: cfg.Certificate}, nil
	default:
		return noopHTTPStrategy{}, nil
	}
}

// ResolveMessaging maps a broker authentication configuration to a
// strategy. For SASL variants with an SSL block also present, the returned
// strategy applies both the credentials and the transport-security
// overlay; the two touch disjoint fields, so the final configuration is
// the same whichever is applied first.
func ResolveMessaging(cfg *MessagingAuthConfig) (MessagingStrategy, error) {
	if cfg == nil {
		return noopMessagingStrategy{}, nil
	}
	switch cfg.Type {
	case MessagingAuthNone:
		return noopMessagingStrategy{}, nil
	case MessagingAuthSASLPlain:
		return resolveSASL(cfg, mechanismPlain)
	case MessagingAuthSASLScram256:
		return resolveSASL(cfg, mechanismScram256)
	case MessagingAuthSASLScram512:
		return resolveSASL(cfg, mechanismScram512)
	case MessagingAuthSSL:
		if cfg.SSL == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "Ssl"}
		}
		return sslStrategy{cfg: cfg.SSL}, nil
	case MessagingAuthMutualTLS:
		if cfg.MutualTLS == nil {
			return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "MutualTls"}
		}
		return mutualTLSStrategy{cfg: cfg.MutualTLS}, nil
	default:
		return noopMessagingStrategy{}, nil
	}
}

func resolveSASL(cfg *MessagingAuthConfig, mechanism string) (MessagingStrategy, error) {
	if cfg.SASL == nil {
		return nil, &ConfigurationError{Variant: cfg.Type.String(), Missing: "Sasl"}
	}
	primary := saslStrategy{mechanism: mechanism, creds: cfg.SASL}
	if cfg.SSL == nil {
		return primary, nil
	}
	return compositeMessagingStrategy{parts: []MessagingStrategy{primary, sslStrategy{cfg: cfg.SSL}}}, nil
}
