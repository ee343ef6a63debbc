package settings

import (
	"net/http"
	"time"

	"github.com/huandu/go-clone"
	"gopkg.in/yaml.v3"
)

// ClientSettings configures the HTTP client used for provider calls.
// A nil Timeout means no client-side bound: dispatch is bounded by the
// caller's context only.
type ClientSettings struct {
	Timeout        *time.Duration `yaml:"-" mapstructure:"timeout"`
	TimeoutSeconds *int           `yaml:"timeout,omitempty" mapstructure:"-"`
	UserAgent      *string        `yaml:"user_agent,omitempty" mapstructure:"user_agent"`
	HTTPClient     *http.Client   `yaml:"-" json:"-" mapstructure:"-"`
}

// UnmarshalYAML converts the timeout, given in seconds, to a time.Duration.
func (cs *ClientSettings) UnmarshalYAML(value *yaml.Node) error {
	type Alias ClientSettings
	aux := &struct {
		*Alias `yaml:",inline"`
	}{
		Alias: (*Alias)(cs),
	}
	if err := value.Decode(aux); err != nil {
		return err
	}
	if cs.TimeoutSeconds != nil {
		t := time.Duration(*cs.TimeoutSeconds) * time.Second
		cs.Timeout = &t
	}
	return nil
}

// Clone deep-copies the settings but shares the injected HTTP client.
func (cs *ClientSettings) Clone() *ClientSettings {
	if cs == nil {
		return nil
	}
	shallow := *cs
	shallow.HTTPClient = nil
	ret := clone.Clone(&shallow).(*ClientSettings)
	ret.HTTPClient = cs.HTTPClient
	return ret
}

// Client returns the configured HTTP client, building one from Timeout when
// none was injected.
func (cs *ClientSettings) Client() *http.Client {
	if cs == nil {
		return &http.Client{}
	}
	if cs.HTTPClient != nil {
		return cs.HTTPClient
	}
	c := &http.Client{}
	if cs.Timeout != nil && *cs.Timeout > 0 {
		c.Timeout = *cs.Timeout
	}
	return c
}

func NewClientSettings() *ClientSettings {
	return &ClientSettings{}
}
