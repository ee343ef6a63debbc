package settings

import (
	"github.com/go-go-golems/canvas-chat/pkg/helpers"
	"github.com/huandu/go-clone"
)

const DefaultSystemPrompt = "You are a helpful assistant."

// GenerationSettings are the user-tunable generation parameters. Only values
// that differ from DefaultGenerationSettings are ever sent to a provider.
type GenerationSettings struct {
	Temperature      float64 `yaml:"temperature" json:"temperature" mapstructure:"temperature"`
	TopP             float64 `yaml:"top_p" json:"top_p" mapstructure:"top_p"`
	MaxTokens        int     `yaml:"max_tokens" json:"max_tokens" mapstructure:"max_tokens"`
	FrequencyPenalty float64 `yaml:"frequency_penalty" json:"frequency_penalty" mapstructure:"frequency_penalty"`
	PresencePenalty  float64 `yaml:"presence_penalty" json:"presence_penalty" mapstructure:"presence_penalty"`
	Streaming        bool    `yaml:"streaming" json:"streaming" mapstructure:"streaming"`
	SystemPrompt     string  `yaml:"system_prompt" json:"system_prompt" mapstructure:"system_prompt"`
}

func DefaultGenerationSettings() *GenerationSettings {
	return &GenerationSettings{
		Temperature:      0.7,
		TopP:             1,
		MaxTokens:        4096,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
		Streaming:        false,
		SystemPrompt:     DefaultSystemPrompt,
	}
}

func (s *GenerationSettings) Clone() *GenerationSettings {
	return clone.Clone(s).(*GenerationSettings)
}

// FilteredSettings is the subset of generation parameters that made it past
// default filtering. It is embedded into request bodies, nil fields are omitted.
type FilteredSettings struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	MaxTokens        *int     `json:"max_tokens,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
}

func (f FilteredSettings) IsEmpty() bool {
	return f.Temperature == nil &&
		f.TopP == nil &&
		f.MaxTokens == nil &&
		f.FrequencyPenalty == nil &&
		f.PresencePenalty == nil
}

// NonDefault returns the request parameters that differ from the defaults.
// Streaming and the system prompt are not request parameters: the system
// prompt travels as a message and replies are never streamed.
func (s *GenerationSettings) NonDefault() FilteredSettings {
	ret := FilteredSettings{}
	if s == nil {
		return ret
	}
	d := DefaultGenerationSettings()
	if s.Temperature != d.Temperature {
		ret.Temperature = helpers.Float64Pointer(s.Temperature)
	}
	if s.TopP != d.TopP {
		ret.TopP = helpers.Float64Pointer(s.TopP)
	}
	if s.MaxTokens != d.MaxTokens {
		ret.MaxTokens = helpers.IntPointer(s.MaxTokens)
	}
	if s.FrequencyPenalty != d.FrequencyPenalty {
		ret.FrequencyPenalty = helpers.Float64Pointer(s.FrequencyPenalty)
	}
	if s.PresencePenalty != d.PresencePenalty {
		ret.PresencePenalty = helpers.Float64Pointer(s.PresencePenalty)
	}
	return ret
}

// AnthropicNonDefault restricts NonDefault to the parameters the Messages API
// is sent: temperature and top_p.
func (s *GenerationSettings) AnthropicNonDefault() FilteredSettings {
	all := s.NonDefault()
	return FilteredSettings{
		Temperature: all.Temperature,
		TopP:        all.TopP,
	}
}
