package chat

import (
	"context"
	"strings"
	"time"

	"github.com/go-go-golems/canvas-chat/pkg/board"
	"github.com/go-go-golems/canvas-chat/pkg/conversation"
	"github.com/go-go-golems/canvas-chat/pkg/dispatch"
	"github.com/go-go-golems/canvas-chat/pkg/events"
	"github.com/go-go-golems/canvas-chat/pkg/models"
	"github.com/go-go-golems/canvas-chat/pkg/models/discovery"
	"github.com/go-go-golems/canvas-chat/pkg/retrieval"
	"github.com/go-go-golems/canvas-chat/pkg/steps/ai/settings"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var ErrEmptyInput = errors.New("message is empty")

// Service runs the send loop of a chat node: snapshot the board, resolve the
// upstream context, dispatch, and append the exchange to the node if nobody
// else wrote to it in the meantime.
type Service struct {
	store     board.Store
	adapter   *dispatch.Adapter
	settings  *settings.AppSettings
	discovery *discovery.Service
	endpoints []string
	sinks     []events.EventSink
	now       func() time.Time
}

type ServiceOption func(*Service)

// WithDiscovery makes models served at the given endpoints resolvable by id.
func WithDiscovery(d *discovery.Service, endpoints ...string) ServiceOption {
	return func(s *Service) {
		s.discovery = d
		s.endpoints = append(s.endpoints, endpoints...)
	}
}

func WithEventSinks(sinks ...events.EventSink) ServiceOption {
	return func(s *Service) {
		s.sinks = append(s.sinks, sinks...)
	}
}

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(store board.Store, adapter *dispatch.Adapter, appSettings *settings.AppSettings, options ...ServiceOption) *Service {
	if appSettings == nil {
		appSettings = settings.NewAppSettings()
	}
	if adapter == nil {
		adapter = dispatch.NewAdapter(dispatch.WithHTTPClient(appSettings.Client.Client()))
	}
	ret := &Service{
		store:    store,
		adapter:  adapter,
		settings: appSettings,
		now:      time.Now,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// SendResult is what a successful Send appended to the node.
type SendResult struct {
	Board   string
	Node    conversation.NodeID
	Model   *models.Model
	User    *conversation.Message
	Reply   *conversation.Message
	Usage   *conversation.APIResponseMetrics
	Version uint64
	Stats   conversation.ResolveStats
}

// Send sends text, and optionally an image, from a node to the node's model.
// On any failure the node history is left untouched.
func (s *Service) Send(ctx context.Context, boardID string, nodeID conversation.NodeID, text string, imageURL string) (*SendResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	startedAt := s.now()

	snap, err := s.store.Snapshot(ctx, boardID)
	if err != nil {
		return nil, err
	}
	node, ok := snap.Node(nodeID)
	if !ok {
		return nil, &board.NodeNotFoundError{BoardID: boardID, NodeID: nodeID.String()}
	}

	model, err := s.LookupModel(ctx, s.modelIDFor(node))
	if err != nil {
		return nil, err
	}
	apiKey := model.Credential(s.settings.Credentials)

	stats := conversation.ResolveStats{}
	upstream := conversation.ResolveContext(nodeID, snap.Graph(), conversation.WithObserver(&stats))

	var opts []conversation.MessageOption
	if imageURL != "" {
		opts = append(opts, conversation.WithImageURL(imageURL))
	}
	user := conversation.NewChatMessage(conversation.RoleUser, text, opts...)

	meta := events.EventMetadata{
		RequestID: uuid.New(),
		BoardID:   boardID,
		NodeID:    nodeID.String(),
		Model:     model.ID,
		Provider:  model.Provider.String(),
	}
	s.publish(ctx, events.NewDispatchStartedEvent(meta, len(upstream)+len(node.Data.Messages)))

	gen := s.settings.Generation.Clone()
	reply, err := s.adapter.Dispatch(ctx, dispatch.Request{
		Model:        model,
		APIKey:       apiKey,
		Conversation: upstream,
		History:      node.Data.Messages,
		NewMessage:   user,
		Settings:     gen,
		Retrieval:    s.retrievalScope(node),
		StartedAt:    startedAt,
	})
	if err != nil {
		s.publish(ctx, events.NewDispatchFailedEvent(meta, err))
		return nil, err
	}

	version, err := s.store.AppendMessages(ctx, boardID, nodeID, node.Version, user, reply.Message)
	if err != nil {
		log.Warn().Err(err).Object("dispatch", meta).Msg("discarding reply")
		s.publish(ctx, events.NewDispatchFailedEvent(meta, err))
		return nil, err
	}

	m := reply.Message.Metrics
	if m == nil {
		m = &conversation.MessageMetrics{}
	}
	s.publish(ctx, events.NewDispatchCompletedEvent(meta, reply.Message.Content, m.TotalTime, m.TotalTokens, m.TokensPerSecond))

	return &SendResult{
		Board:   boardID,
		Node:    nodeID,
		Model:   model,
		User:    user,
		Reply:   reply.Message,
		Usage:   reply.Usage,
		Version: version,
		Stats:   stats,
	}, nil
}

// NodeContext is the full prompt context of a node: the resolved upstream
// messages followed by the node's own history.
type NodeContext struct {
	Node     *conversation.Node
	Model    *models.Model
	Upstream []*conversation.Message
	Stats    conversation.ResolveStats
}

// Messages returns upstream ++ own history.
func (c *NodeContext) Messages() conversation.Conversation {
	if c == nil || c.Node == nil {
		return nil
	}
	return conversation.Concat(c.Upstream, c.Node.Data.Messages)
}

func (s *Service) ResolveNodeContext(ctx context.Context, boardID string, nodeID conversation.NodeID) (*NodeContext, error) {
	snap, err := s.store.Snapshot(ctx, boardID)
	if err != nil {
		return nil, err
	}
	node, ok := snap.Node(nodeID)
	if !ok {
		return nil, &board.NodeNotFoundError{BoardID: boardID, NodeID: nodeID.String()}
	}
	ret := &NodeContext{Node: node}
	ret.Upstream = conversation.ResolveContext(nodeID, snap.Graph(), conversation.WithObserver(&ret.Stats))

	model, err := s.LookupModel(ctx, s.modelIDFor(node))
	if err != nil {
		return nil, err
	}
	ret.Model = model
	return ret, nil
}

// SelectModel sets a node's model and remembers it as the default for new nodes.
func (s *Service) SelectModel(ctx context.Context, boardID string, nodeID conversation.NodeID, modelID string) (*models.Model, error) {
	model, err := s.LookupModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetNodeModel(ctx, boardID, nodeID, model.ID); err != nil {
		return nil, err
	}
	s.settings.LastSelectedModel = model.ID
	return model, nil
}

// LookupModel resolves id against the catalog, then against the models
// discovered at the configured endpoints.
func (s *Service) LookupModel(ctx context.Context, id string) (*models.Model, error) {
	catalog, err := s.settings.Catalog()
	if err != nil {
		return nil, err
	}
	m, err := catalog.Lookup(id)
	if err == nil {
		return m, nil
	}
	if s.discovery == nil || !errors.Is(err, models.ErrModelNotFound) {
		return nil, err
	}
	for _, endpoint := range s.endpoints {
		for _, dm := range s.discovery.ListModels(ctx, endpoint) {
			if dm.ID == id {
				return dm, nil
			}
		}
	}
	return nil, err
}

func (s *Service) modelIDFor(node *conversation.Node) string {
	if node.Data.Model != "" {
		return node.Data.Model
	}
	return s.settings.DefaultModelID()
}

func (s *Service) retrievalScope(node *conversation.Node) *retrieval.Scope {
	if !s.settings.Retrieval.Enabled {
		return nil
	}
	return &retrieval.Scope{
		DocumentIDs: node.Data.SelectedDocuments,
		WebsiteIDs:  node.Data.SelectedWebsites,
	}
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	for _, sink := range s.sinks {
		if err := sink.PublishEvent(ev); err != nil {
			log.Debug().Err(err).Str("event_type", string(ev.Type())).Msg("sink failed to publish event")
		}
	}
	events.PublishEventToContext(ctx, ev)
}
