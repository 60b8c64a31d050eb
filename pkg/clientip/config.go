package clientip

// Config lists the forwarding headers set by proxies in front of the service.
type Config struct {
	TrustedHeaders []string `env:"CLIENTIP_TRUSTED_HEADERS" envSeparator:","` // e.g. CF-Connecting-IP,X-Forwarded-For
}

// Resolver builds a Resolver from the config.
func (c Config) Resolver() *Resolver {
	return New(c.TrustedHeaders...)
}
