package models

import (
	"fmt"
	"strings"
)

// BuiltinModels returns a fresh copy of the models shipped with the application.
func BuiltinModels() []*Model {
	return []*Model{
		NewBuiltinModel("chatgpt-4o-latest", "ChatGPT-4o Latest", ProviderOpenAI, 128000),
		NewBuiltinModel("gpt-4o", "GPT-4o", ProviderOpenAI, 128000),
		NewBuiltinModel("gpt-4o-mini", "GPT-4o mini", ProviderOpenAI, 128000),
		NewBuiltinModel("o1", "o1", ProviderOpenAI, 200000),
		NewBuiltinModel("o1-mini", "o1-mini", ProviderOpenAI, 128000),
		NewBuiltinModel("o1-preview", "o1-preview", ProviderOpenAI, 128000),
		NewBuiltinModel("claude-3-5-sonnet-latest", "Claude 3.5 Sonnet", ProviderAnthropic, 200000),
		NewBuiltinModel("claude-3-5-haiku-latest", "Claude 3.5 Haiku", ProviderAnthropic, 200000),
		NewBuiltinModel("grok-beta", "Grok Beta", ProviderXAI, 131072),
		NewBuiltinModel("llama-3.3-70b-versatile", "Llama 3.3 70B (Groq)", ProviderGroq, 32768),
		NewBuiltinModel("mixtral-8x7b-32768", "Mixtral 8x7B (Groq)", ProviderGroq, 32768),
		NewBuiltinModel("gemini-1.5-pro", "Gemini 1.5 Pro", ProviderGoogle, 2097152),
		NewBuiltinModel("gemini-1.5-flash", "Gemini 1.5 Flash", ProviderGoogle, 1048576),
		NewBuiltinModel("openai/o1-mini", "o1-mini (OpenRouter)", ProviderOpenRouter, 128000),
		NewBuiltinModel("meta-llama/llama-3.1-405b-instruct", "Llama 3.1 405B (OpenRouter)", ProviderOpenRouter, 131072),
		NewBuiltinModel("llama-3.1-sonar-large-128k-online", "Sonar Large Online", ProviderPerplexity, 127072),
		NewBuiltinModel("deepseek-chat", "DeepSeek Chat", ProviderDeepSeek, 65536),
	}
}

// DefaultLocalModels is the model offered for a local Ollama-style server
// before any discovery has run.
func DefaultLocalModels() []*Model {
	return []*Model{
		NewCustomModel(
			"local-default",
			"Local Default Model",
			ProviderLocal,
			DefaultLocalEndpoint,
			WithDescription("Default local model"),
			WithMaxTokens(DefaultMaxTokens),
			WithRequiresAuth(false),
		),
	}
}

// Catalog is the combined, read-only list of built-in and custom models.
// Lookups resolve the first model with a given id.
type Catalog struct {
	models []*Model
	byID   map[string]*Model
}

func NewCatalog(builtins []*Model, custom []*Model) *Catalog {
	c := &Catalog{
		models: make([]*Model, 0, len(builtins)+len(custom)),
		byID:   make(map[string]*Model, len(builtins)+len(custom)),
	}
	for _, group := range [][]*Model{builtins, custom} {
		for _, m := range group {
			if m == nil {
				continue
			}
			c.models = append(c.models, m)
			if _, exists := c.byID[m.ID]; !exists {
				c.byID[m.ID] = m
			}
		}
	}
	return c
}

// DefaultCatalog is the built-in list followed by the given custom models.
func DefaultCatalog(custom ...*Model) *Catalog {
	return NewCatalog(BuiltinModels(), custom)
}

// Lookup returns a copy of the model with the given id.
func (c *Catalog) Lookup(id string) (*Model, error) {
	if c != nil {
		if m, ok := c.byID[strings.TrimSpace(id)]; ok {
			return m.Clone(), nil
		}
	}
	return nil, &ModelNotFoundError{ID: id}
}

// Models returns copies of all models, built-ins first.
func (c *Catalog) Models() []*Model {
	if c == nil {
		return nil
	}
	ret := make([]*Model, 0, len(c.models))
	for _, m := range c.models {
		ret = append(ret, m.Clone())
	}
	return ret
}

// Validate checks every entry and that model ids are unique across the
// catalog. Entry errors are reported before duplicates.
func (c *Catalog) Validate() error {
	if c == nil {
		return nil
	}
	seen := map[string]bool{}
	var dup error
	for _, m := range c.models {
		if m.ID == "" {
			return &ValidationError{Field: "id", Reason: fmt.Sprintf("model %q has an empty id", m.Name)}
		}
		if seen[m.ID] && dup == nil {
			dup = &DuplicateModelError{ID: m.ID}
		}
		seen[m.ID] = true
		if !m.Provider.Valid() {
			return &ValidationError{Field: "provider", Reason: fmt.Sprintf("model %q has unknown provider %q", m.ID, m.Provider)}
		}
		if m.IsCustom() && m.Endpoint == "" {
			return &ValidationError{Field: "endpoint", Reason: fmt.Sprintf("custom model %q has no endpoint", m.ID)}
		}
	}
	return dup
}
