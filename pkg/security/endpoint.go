package security

import (
	"net/netip"
	"net/url"
	"strings"

	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/pkg/errors"
)

// EndpointPolicy says which provider endpoints are acceptable.
type EndpointPolicy struct {
	// AllowHTTP permits plain HTTP endpoints. HTTPS is always allowed.
	AllowHTTP bool
	// AllowLocalNetworks permits loopback, private and link-local targets.
	AllowLocalNetworks bool
}

var (
	// StrictPolicy applies to built-in cloud models.
	StrictPolicy = EndpointPolicy{}
	// LocalPolicy applies to custom and local models, which commonly run on
	// the user's machine over plain HTTP.
	LocalPolicy = EndpointPolicy{AllowHTTP: true, AllowLocalNetworks: true}
)

// PolicyForModel returns LocalPolicy for custom models and local built-ins,
// StrictPolicy otherwise.
func PolicyForModel(m *models.Model) EndpointPolicy {
	if m == nil {
		return StrictPolicy
	}
	if m.IsCustom() || m.Provider == models.ProviderLocal {
		return LocalPolicy
	}
	return StrictPolicy
}

// ValidateModelEndpoint checks the endpoint a model resolves to.
func ValidateModelEndpoint(m *models.Model) error {
	if m == nil {
		return errors.New("no model")
	}
	if err := ValidateEndpoint(m.BaseURL(), PolicyForModel(m)); err != nil {
		return errors.Wrapf(err, "endpoint of model %q", m.ID)
	}
	return nil
}

// ValidateEndpoint rejects unsupported schemes and, unless allowed, local
// network targets. IP literals are checked without DNS lookups.
func ValidateEndpoint(rawURL string, policy EndpointPolicy) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "invalid URL")
	}

	switch parsed.Scheme {
	case "https":
	case "http":
		if !policy.AllowHTTP {
			return errors.New("http scheme is not allowed")
		}
	default:
		return errors.Errorf("unsupported URL scheme %q", parsed.Scheme)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return errors.New("URL host is required")
	}

	if !policy.AllowLocalNetworks {
		if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
			return errors.Errorf("local hostname %q is not allowed", host)
		}
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return nil
	}
	if addr.Zone() != "" && !policy.AllowLocalNetworks {
		return errors.Errorf("zoned IP address %q is not allowed", host)
	}
	addr = addr.Unmap()
	if addr.IsUnspecified() || addr.IsMulticast() {
		return errors.Errorf("disallowed IP address %q", host)
	}
	if !policy.AllowLocalNetworks && (addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast()) {
		return errors.Errorf("local network IP %q is not allowed", host)
	}
	return nil
}
