package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCatalogIsValid(t *testing.T) {
	c := DefaultCatalog(DefaultLocalModels()...)
	require.NoError(t, c.Validate())

	m, err := c.Lookup(DefaultModelID)
	require.NoError(t, err)
	assert.Equal(t, KindBuiltin, m.Kind)
	assert.Equal(t, "https://api.openai.com/v1", m.BaseURL())
	assert.True(t, m.RequiresAuth)
}

func TestCatalogLookup(t *testing.T) {
	custom := NewCustomModel("my-model", "Mine", ProviderLocal, "http://localhost:8080/v1/", WithAPIKey("k"))
	c := DefaultCatalog(custom)

	t.Run("custom model", func(t *testing.T) {
		m, err := c.Lookup("my-model")
		require.NoError(t, err)
		assert.True(t, m.IsCustom())
		assert.Equal(t, "http://localhost:8080/v1", m.BaseURL())
		assert.Equal(t, "k", m.Credential(map[Provider]string{ProviderLocal: "ignored"}))
	})

	t.Run("builtin credential comes from provider", func(t *testing.T) {
		m, err := c.Lookup("claude-3-5-sonnet-latest")
		require.NoError(t, err)
		assert.Equal(t, FamilyAnthropicShaped, m.Family())
		assert.Equal(t, "sk-ant", m.Credential(map[Provider]string{ProviderAnthropic: "sk-ant"}))
	})

	t.Run("missing model", func(t *testing.T) {
		_, err := c.Lookup("nope")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrModelNotFound))
	})

	t.Run("lookup returns a copy", func(t *testing.T) {
		m, err := c.Lookup("my-model")
		require.NoError(t, err)
		m.APIKey = "changed"
		again, err := c.Lookup("my-model")
		require.NoError(t, err)
		assert.Equal(t, "k", again.APIKey)
	})
}

func TestCatalogValidateDuplicates(t *testing.T) {
	c := DefaultCatalog(NewCustomModel("gpt-4o", "Shadow", ProviderOpenAI, "https://example.com/v1"))
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateModel))

	// first entry wins for lookups
	m, err := c.Lookup("gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, KindBuiltin, m.Kind)
}

func TestCatalogValidateCustomEndpoint(t *testing.T) {
	c := NewCatalog(nil, []*Model{NewCustomModel("x", "X", ProviderLocal, "")})
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestParseProvider(t *testing.T) {
	p, err := ParseProvider(" Anthropic ")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, p)

	_, err = ParseProvider("acme")
	assert.Error(t, err)
}

func TestIsReasoningModel(t *testing.T) {
	tests := map[string]bool{
		"o1":             true,
		"o1-mini":        true,
		"o1-preview":     true,
		"o3-mini":        true,
		"openai/o1-mini": true,
		"gpt-4o":         false,
		"chatgpt-4o":     false,
		"claude-3-opus":  false,
		"llama-o1ish":    false,
	}
	for id, expected := range tests {
		t.Run(id, func(t *testing.T) {
			assert.Equal(t, expected, IsReasoningModel(id))
		})
	}
}
