package models

import (
	"strings"

	"github.com/pkg/errors"
)

// Provider is the closed set of API vendors a model can belong to.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderXAI        Provider = "xai"
	ProviderGroq       Provider = "groq"
	ProviderOpenRouter Provider = "openrouter"
	ProviderAnthropic  Provider = "anthropic"
	ProviderGoogle     Provider = "google"
	ProviderPerplexity Provider = "perplexity"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderLocal      Provider = "local"
)

var providerBaseURLs = map[Provider]string{
	ProviderOpenAI:     "https://api.openai.com/v1",
	ProviderXAI:        "https://api.x.ai/v1",
	ProviderGroq:       "https://api.groq.com/openai/v1",
	ProviderOpenRouter: "https://openrouter.ai/api/v1",
	ProviderAnthropic:  "https://api.anthropic.com/v1",
	ProviderGoogle:     "https://generativelanguage.googleapis.com/v1beta/openai",
	ProviderPerplexity: "https://api.perplexity.ai",
	ProviderDeepSeek:   "https://api.deepseek.com/v1",
	ProviderLocal:      DefaultLocalEndpoint,
}

// AllProviders lists the providers in a stable order.
func AllProviders() []Provider {
	return []Provider{
		ProviderOpenAI,
		ProviderXAI,
		ProviderGroq,
		ProviderOpenRouter,
		ProviderAnthropic,
		ProviderGoogle,
		ProviderPerplexity,
		ProviderDeepSeek,
		ProviderLocal,
	}
}

func ParseProvider(s string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", errors.Errorf("unknown provider %q", s)
	}
	return p, nil
}

func (p Provider) Valid() bool {
	_, ok := providerBaseURLs[p]
	return ok
}

func (p Provider) String() string {
	return string(p)
}

// BaseURL is the fixed endpoint used by built-in models of this provider.
func (p Provider) BaseURL() string {
	return providerBaseURLs[p]
}

// Family tells which wire protocol the provider speaks.
func (p Provider) Family() Family {
	if p == ProviderAnthropic {
		return FamilyAnthropicShaped
	}
	return FamilyOpenAICompatible
}

// Family is the closed set of request/response shapes the dispatcher knows.
type Family int

const (
	FamilyOpenAICompatible Family = iota
	FamilyAnthropicShaped
)

func (f Family) String() string {
	switch f {
	case FamilyOpenAICompatible:
		return "openai-compatible"
	case FamilyAnthropicShaped:
		return "anthropic"
	default:
		return "unknown"
	}
}
