package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/go-go-golems/canvas-chat/pkg/steps"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const DefaultTimeout = 5 * time.Second

// Service probes OpenAI-compatible endpoints for the models they serve.
// Successful probes are cached per endpoint, failures are not.
type Service struct {
	cache   Cache
	client  *http.Client
	timeout time.Duration
	group   singleflight.Group
}

type ServiceOption func(*Service)

func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		s.timeout = d
	}
}

func WithHTTPClient(c *http.Client) ServiceOption {
	return func(s *Service) {
		s.client = c
	}
}

// NewService creates a discovery service backed by cache. A nil cache gets
// a fresh MemoryCache.
func NewService(cache Cache, options ...ServiceOption) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	ret := &Service{
		cache:   cache,
		client:  &http.Client{},
		timeout: DefaultTimeout,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *Service) Cache() Cache {
	return s.cache
}

// Invalidate drops the cached models of endpoint, so the next ListModels
// probes it again.
func (s *Service) Invalidate(endpoint string) {
	s.cache.Invalidate(models.NormalizeEndpoint(endpoint))
}

// ListModels returns the models served at endpoint. Any failure yields an
// empty list: discovery is best effort and the reason is logged at debug.
func (s *Service) ListModels(ctx context.Context, endpoint string) []*models.Model {
	endpoint = models.NormalizeEndpoint(endpoint)
	if ms, ok := s.cache.Get(endpoint); ok {
		return ms
	}

	v, err, shared := s.group.Do(endpoint, func() (interface{}, error) {
		ms, err := s.probe(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		s.cache.Put(endpoint, ms)
		return ms, nil
	})
	if err != nil {
		log.Debug().Err(err).Str("endpoint", endpoint).Msg("model discovery failed")
		return []*models.Model{}
	}
	ms := v.([]*models.Model)
	if shared {
		return cloneModels(ms)
	}
	return ms
}

// IsAvailable reports whether endpoint serves at least one model.
func (s *Service) IsAvailable(ctx context.Context, endpoint string) bool {
	return len(s.ListModels(ctx, endpoint)) > 0
}

type modelEntry struct {
	ID          interface{} `json:"id"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Parameters  *struct {
		MaxTokens int `json:"max_tokens,omitempty"`
	} `json:"parameters,omitempty"`
}

type listResponse struct {
	Object string       `json:"object"`
	Data   []modelEntry `json:"data"`
}

func (s *Service) probe(ctx context.Context, endpoint string) ([]*models.Model, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"/models", nil)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create request for %s", endpoint)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &steps.TransportError{Op: "model discovery", Err: err}
	}
	defer func(Body io.ReadCloser) {
		_ = Body.Close()
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &steps.TransportError{Op: "model discovery", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &steps.ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType == "" || !steps.IsJSONContentType(contentType) {
		return nil, &steps.MalformedResponseError{ContentType: contentType}
	}

	entries, err := decodeEntries(body)
	if err != nil {
		return nil, &steps.MalformedResponseError{ContentType: contentType, Err: err}
	}

	ret := make([]*models.Model, 0, len(entries))
	for _, e := range entries {
		id := entryID(e.ID)
		if id == "" {
			continue
		}
		ret = append(ret, toModel(endpoint, id, e))
	}
	log.Debug().Str("endpoint", endpoint).Int("models", len(ret)).Msg("discovered models")
	return ret, nil
}

// decodeEntries accepts {"object":"list","data":[...]} or a bare array.
func decodeEntries(body []byte) ([]modelEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var entries []modelEntry
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return nil, err
		}
		return entries, nil
	}
	var list listResponse
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return nil, err
	}
	if list.Object != "list" {
		return nil, errors.Errorf("unexpected object %q", list.Object)
	}
	return list.Data, nil
}

func entryID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case float64:
		return fmt.Sprintf("%v", id)
	default:
		return ""
	}
}

func toModel(endpoint string, id string, e modelEntry) *models.Model {
	name := e.Name
	if name == "" {
		name = id
	}
	description := e.Description
	if description == "" {
		description = "Local model"
	}
	maxTokens := models.DefaultMaxTokens
	if e.Parameters != nil && e.Parameters.MaxTokens > 0 {
		maxTokens = e.Parameters.MaxTokens
	}
	return models.NewCustomModel(
		endpoint+"-"+id,
		name,
		models.ProviderLocal,
		endpoint,
		models.WithRequiresAuth(false),
		models.WithDescription(description),
		models.WithMaxTokens(maxTokens),
	)
}
