package transport

import (
	"fmt"
	"strings"
	"time"

	"github.com/corvusHold/postal/internal/dispatch/domain"
	senderdomain "github.com/corvusHold/postal/internal/senderconfig/domain"
)

type preset struct {
	Host string
	Port int
	// SSL means implicit TLS from byte one (port 465); otherwise the
	// connection starts plain and upgrades via STARTTLS.
	SSL bool
}

// Provider-specific constants tuned for each provider's known TLS
// behavior. Not derived from input.
var providerDefaults = map[string]preset{
	senderdomain.ProviderGmail:   {Host: "smtp.gmail.com", Port: 587, SSL: false},
	senderdomain.ProviderOutlook: {Host: "smtp-mail.outlook.com", Port: 587, SSL: false},
	senderdomain.ProviderYahoo:   {Host: "smtp.mail.yahoo.com", Port: 465, SSL: true},
	senderdomain.ProviderZoho:    {Host: "smtp.zoho.com", Port: 465, SSL: true},
}

// Factory builds SMTP transports with bounded dial/socket timeouts so a
// hung handshake cannot stall a dispatch loop.
type Factory struct {
	timeout time.Duration
}

func NewFactory(timeout time.Duration) *Factory {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Factory{timeout: timeout}
}

func (f *Factory) Build(cfg senderdomain.ResolvedSenderConfig) (domain.Transport, error) {
	host, port, ssl := cfg.Host, cfg.Port, cfg.Secure
	if cfg.Provider != senderdomain.ProviderCustom {
		p, ok := providerDefaults[cfg.Provider]
		if !ok {
			return nil, fmt.Errorf("%w: unknown provider %q", domain.ErrTransportBuild, cfg.Provider)
		}
		host, port, ssl = p.Host, p.Port, p.SSL
	} else {
		if strings.TrimSpace(host) == "" {
			return nil, fmt.Errorf("%w: custom provider requires a host", domain.ErrTransportBuild)
		}
		if port <= 0 {
			port = 587
		}
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %d", domain.ErrTransportBuild, port)
	}
	return &SMTPTransport{
		host:     host,
		port:     port,
		ssl:      ssl,
		from:     cfg.Email,
		username: cfg.Email,
		password: cfg.Password,
		timeout:  f.timeout,
	}, nil
}
