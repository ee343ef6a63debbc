package settings

import (
	"os"
	"path/filepath"

	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/huandu/go-clone"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// CustomModelSettings is the persisted form of a user-declared model.
type CustomModelSettings struct {
	ID           string `yaml:"id" mapstructure:"id"`
	Name         string `yaml:"name" mapstructure:"name"`
	Provider     string `yaml:"provider" mapstructure:"provider"`
	Description  string `yaml:"description,omitempty" mapstructure:"description"`
	Endpoint     string `yaml:"endpoint" mapstructure:"endpoint"`
	RequiresAuth bool   `yaml:"requires_auth" mapstructure:"requires_auth"`
	APIKey       string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	MaxTokens    int    `yaml:"max_tokens,omitempty" mapstructure:"max_tokens"`
}

func (c CustomModelSettings) Model() (*models.Model, error) {
	provider, err := models.ParseProvider(c.Provider)
	if err != nil {
		return nil, errors.Wrapf(err, "custom model %q", c.ID)
	}
	name := c.Name
	if name == "" {
		name = c.ID
	}
	opts := []models.CustomModelOption{
		models.WithRequiresAuth(c.RequiresAuth),
		models.WithAPIKey(c.APIKey),
		models.WithDescription(c.Description),
	}
	if c.MaxTokens > 0 {
		opts = append(opts, models.WithMaxTokens(c.MaxTokens))
	}
	return models.NewCustomModel(c.ID, name, provider, c.Endpoint, opts...), nil
}

// RetrievalSettings toggles retrieval augmentation. ChunksFile points at a
// YAML file of pre-ranked chunks served by the file retriever.
type RetrievalSettings struct {
	Enabled    bool   `yaml:"enabled" mapstructure:"enabled"`
	ChunksFile string `yaml:"chunks_file,omitempty" mapstructure:"chunks_file"`
	MaxChunks  int    `yaml:"max_chunks,omitempty" mapstructure:"max_chunks"`
}

// AppSettings is the read side of the settings store: generation defaults,
// credentials per provider, custom models and retrieval configuration.
type AppSettings struct {
	Generation        GenerationSettings         `yaml:"generation" mapstructure:"generation"`
	Credentials       map[models.Provider]string `yaml:"credentials,omitempty" mapstructure:"credentials"`
	CustomModels      []CustomModelSettings      `yaml:"custom_models,omitempty" mapstructure:"custom_models"`
	Retrieval         RetrievalSettings          `yaml:"retrieval" mapstructure:"retrieval"`
	LastSelectedModel string                     `yaml:"last_selected_model,omitempty" mapstructure:"last_selected_model"`
	Client            *ClientSettings            `yaml:"client,omitempty" mapstructure:"client"`
}

func NewAppSettings() *AppSettings {
	return &AppSettings{
		Generation:  *DefaultGenerationSettings(),
		Credentials: map[models.Provider]string{},
		Client:      NewClientSettings(),
	}
}

// LoadAppSettingsFromYAML decodes settings on top of the defaults.
func LoadAppSettingsFromYAML(b []byte) (*AppSettings, error) {
	s := NewAppSettings()
	if err := yaml.Unmarshal(b, s); err != nil {
		return nil, errors.Wrap(err, "could not parse settings")
	}
	if s.Credentials == nil {
		s.Credentials = map[models.Provider]string{}
	}
	if s.Client == nil {
		s.Client = NewClientSettings()
	}
	return s, nil
}

func LoadAppSettingsFromFile(path string) (*AppSettings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read settings file %s", path)
	}
	return LoadAppSettingsFromYAML(b)
}

// SaveToFile writes the settings as YAML, replacing path atomically.
func (s *AppSettings) SaveToFile(path string) error {
	b, err := yaml.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "could not encode settings")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// APIKey returns the credential configured for a provider.
func (s *AppSettings) APIKey(p models.Provider) string {
	if s == nil || s.Credentials == nil {
		return ""
	}
	return s.Credentials[p]
}

func (s *AppSettings) SetAPIKey(p models.Provider, key string) {
	if s.Credentials == nil {
		s.Credentials = map[models.Provider]string{}
	}
	s.Credentials[p] = key
}

// Catalog builds the model catalog: built-ins, then the default local model,
// then the configured custom models.
func (s *AppSettings) Catalog() (*models.Catalog, error) {
	custom := models.DefaultLocalModels()
	for _, c := range s.CustomModels {
		m, err := c.Model()
		if err != nil {
			return nil, err
		}
		custom = append(custom, m)
	}
	catalog := models.DefaultCatalog(custom...)
	if err := catalog.Validate(); err != nil {
		if !errors.Is(err, models.ErrDuplicateModel) {
			return nil, err
		}
		// lookups resolve to the first entry with the id
		log.Warn().Err(err).Msg("Custom model shadowed by an earlier model with the same id")
	}
	return catalog, nil
}

// DefaultModelID is the model new nodes start with.
func (s *AppSettings) DefaultModelID() string {
	if s != nil && s.LastSelectedModel != "" {
		return s.LastSelectedModel
	}
	return models.DefaultModelID
}

func (s *AppSettings) Clone() *AppSettings {
	if s == nil {
		return nil
	}
	client := s.Client
	shallow := *s
	shallow.Client = nil
	ret := clone.Clone(&shallow).(*AppSettings)
	ret.Client = client.Clone()
	return ret
}
