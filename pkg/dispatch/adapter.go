package dispatch

import (
	"context"
	"net/http"
	"time"

	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/go-go-golems/canvas-chat/pkg/retrieval"
	"github.com/go-go-golems/canvas-chat/pkg/security"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Request is one "send this conversation to this model" call.
type Request struct {
	Model  *models.Model
	APIKey string
	// Conversation is the resolved upstream context.
	Conversation []*conversation.Message
	// History is the node's own prior messages, sent after Conversation.
	History []*conversation.Message
	// NewMessage is the user message being sent. Its ImageURL, if any, is
	// attached for OpenAI-compatible providers.
	NewMessage *conversation.Message
	Settings   *settings.GenerationSettings
	// Retrieval enables retrieval augmentation restricted to the given
	// selection. Nil disables it.
	Retrieval *retrieval.Scope
	// StartedAt is when the user hit send. Zero means the start of Dispatch.
	StartedAt time.Time
}

// Reply is the normalized assistant message plus the raw usage counters.
type Reply struct {
	Message *conversation.Message
	Usage   *conversation.APIResponseMetrics
}

// Adapter sends a conversation to any supported provider and returns a
// normalized reply. It issues exactly one provider request per call.
type Adapter struct {
	client    *http.Client
	retriever retrieval.Retriever
	now       func() time.Time
}

type AdapterOption func(*Adapter)

func WithHTTPClient(c *http.Client) AdapterOption {
	return func(a *Adapter) {
		a.client = c
	}
}

func WithRetriever(r retrieval.Retriever) AdapterOption {
	return func(a *Adapter) {
		a.retriever = r
	}
}

func WithClock(now func() time.Time) AdapterOption {
	return func(a *Adapter) {
		a.now = now
	}
}

func NewAdapter(options ...AdapterOption) *Adapter {
	ret := &Adapter{
		client: &http.Client{},
		now:    time.Now,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Dispatch checks credentials, optionally augments the system prompt with
// retrieved context, sends the request in the model family's shape and
// derives the reply metrics.
func (a *Adapter) Dispatch(ctx context.Context, req Request) (*Reply, error) {
	startedAt := req.StartedAt
	if startedAt.IsZero() {
		startedAt = a.now()
	}

	m := req.Model
	if m == nil {
		return nil, errors.New("dispatch request has no model")
	}
	if req.NewMessage == nil {
		return nil, errors.New("dispatch request has no message")
	}

	if m.RequiresAuth && req.APIKey == "" {
		return nil, &MissingCredentialError{Provider: string(m.Provider), Model: m.ID}
	}

	baseURL := m.BaseURL()
	if err := security.ValidateEndpoint(baseURL, security.PolicyForModel(m)); err != nil {
		return nil, &InvalidEndpointError{Model: m.ID, Endpoint: baseURL, Err: err}
	}

	s := req.Settings
	if s == nil {
		s = settings.DefaultGenerationSettings()
	}

	systemPrompt, err := a.systemPrompt(ctx, s.SystemPrompt, req)
	if err != nil {
		return nil, err
	}

	history := make([]*conversation.Message, 0, len(req.Conversation)+len(req.History))
	history = append(history, req.Conversation...)
	history = append(history, req.History...)

	family := m.Family()
	log.Debug().
		Str("model", m.ID).
		Str("provider", string(m.Provider)).
		Str("family", family.String()).
		Int("history", len(history)).
		Bool("image", req.NewMessage.ImageURL != "").
		Msg("dispatching")

	r, err := strategyFor(family).send(ctx, a.client, payload{
		modelID:      m.ID,
		baseURL:      baseURL,
		apiKey:       req.APIKey,
		systemPrompt: systemPrompt,
		history:      history,
		newMessage:   req.NewMessage,
		settings:     s,
	})
	if err != nil {
		log.Debug().Err(err).Str("model", m.ID).Msg("dispatch failed")
		return nil, err
	}

	elapsed := a.now().Sub(startedAt).Seconds()
	metrics := r.usage.MessageMetrics(elapsed)

	return &Reply{
		Message: conversation.NewChatMessage(conversation.RoleAssistant, r.content, conversation.WithMetrics(metrics)),
		Usage:   r.usage,
	}, nil
}

func (a *Adapter) systemPrompt(ctx context.Context, base string, req Request) (string, error) {
	if a.retriever == nil || req.Retrieval == nil {
		return base, nil
	}
	chunks, err := a.retriever.Search(ctx, req.NewMessage.Content, req.Retrieval.DocumentIDs, req.Retrieval.WebsiteIDs)
	if err != nil {
		return "", &TransportError{Op: "retrieval search", Err: err}
	}
	log.Debug().Int("chunks", len(chunks)).Msg("retrieved context")
	return retrieval.AugmentSystemPrompt(base, retrieval.BuildContextBlock(chunks)), nil
}
