package models

import (
	"strings"
)

// Kind discriminates built-in catalog entries from user-declared models.
type Kind string

const (
	KindBuiltin Kind = "builtin"
	KindCustom  Kind = "custom"
)

const (
	DefaultLocalEndpoint = "http://localhost:11434/v1"
	DefaultMaxTokens     = 8192
	// DefaultModelID is used for nodes that never selected a model.
	DefaultModelID = "chatgpt-4o-latest"
)

// Model is either a built-in model, whose endpoint derives from its
// provider and whose credential comes from the per-provider credentials, or
// a custom model carrying its own endpoint and key.
type Model struct {
	Kind         Kind     `json:"kind" yaml:"kind"`
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Provider     Provider `json:"provider" yaml:"provider"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	MaxTokens    int      `json:"maxTokens" yaml:"maxTokens"`
	RequiresAuth bool     `json:"requiresAuth" yaml:"requiresAuth"`

	// Custom models only.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	APIKey   string `json:"apiKey,omitempty" yaml:"apiKey,omitempty"`
}

func NewBuiltinModel(id, name string, provider Provider, maxTokens int) *Model {
	return &Model{
		Kind:         KindBuiltin,
		ID:           id,
		Name:         name,
		Provider:     provider,
		MaxTokens:    maxTokens,
		RequiresAuth: provider != ProviderLocal,
	}
}

type CustomModelOption func(*Model)

func WithAPIKey(key string) CustomModelOption {
	return func(m *Model) {
		m.APIKey = key
	}
}

func WithRequiresAuth(requiresAuth bool) CustomModelOption {
	return func(m *Model) {
		m.RequiresAuth = requiresAuth
	}
}

func WithMaxTokens(maxTokens int) CustomModelOption {
	return func(m *Model) {
		m.MaxTokens = maxTokens
	}
}

func WithDescription(description string) CustomModelOption {
	return func(m *Model) {
		m.Description = description
	}
}

func NewCustomModel(id, name string, provider Provider, endpoint string, options ...CustomModelOption) *Model {
	ret := &Model{
		Kind:      KindCustom,
		ID:        id,
		Name:      name,
		Provider:  provider,
		Endpoint:  NormalizeEndpoint(endpoint),
		MaxTokens: DefaultMaxTokens,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (m *Model) IsCustom() bool {
	return m.Kind == KindCustom
}

// BaseURL resolves the endpoint requests for this model are sent to.
func (m *Model) BaseURL() string {
	if m.IsCustom() {
		return m.Endpoint
	}
	return m.Provider.BaseURL()
}

// Credential returns the key to use for this model: custom models carry their
// own, built-in models use the per-provider credential.
func (m *Model) Credential(credentials map[Provider]string) string {
	if m.IsCustom() {
		return m.APIKey
	}
	return credentials[m.Provider]
}

func (m *Model) Family() Family {
	return m.Provider.Family()
}

func (m *Model) Clone() *Model {
	if m == nil {
		return nil
	}
	ret := *m
	return &ret
}

// NormalizeEndpoint trims whitespace and trailing slashes so that paths can be
// appended with a single "/".
func NormalizeEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}
