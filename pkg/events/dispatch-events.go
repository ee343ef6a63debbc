package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventTypeDispatchStarted   EventType = "dispatch-started"
	EventTypeDispatchCompleted EventType = "dispatch-completed"
	EventTypeDispatchFailed    EventType = "dispatch-failed"
)

// EventMetadata identifies the dispatch an event belongs to.
type EventMetadata struct {
	ID        uuid.UUID `json:"id"`
	RequestID uuid.UUID `json:"request_id"`
	BoardID   string    `json:"board_id,omitempty"`
	NodeID    string    `json:"node_id"`
	Model     string    `json:"model"`
	Provider  string    `json:"provider,omitempty"`
	Time      time.Time `json:"time"`
}

func (m EventMetadata) MarshalZerologObject(e *zerolog.Event) {
	e.Str("request_id", m.RequestID.String()).
		Str("board_id", m.BoardID).
		Str("node_id", m.NodeID).
		Str("model", m.Model)
}

type Event interface {
	Type() EventType
	Metadata() EventMetadata
}

type EventImpl struct {
	Type_     EventType     `json:"type"`
	Metadata_ EventMetadata `json:"meta"`
}

func (e *EventImpl) Type() EventType {
	return e.Type_
}

func (e *EventImpl) Metadata() EventMetadata {
	return e.Metadata_
}

func newEventImpl(t EventType, metadata EventMetadata) EventImpl {
	metadata.ID = uuid.New()
	if metadata.Time.IsZero() {
		metadata.Time = time.Now()
	}
	return EventImpl{Type_: t, Metadata_: metadata}
}

type EventDispatchStarted struct {
	EventImpl
	ContextMessages int `json:"context_messages"`
}

func NewDispatchStartedEvent(metadata EventMetadata, contextMessages int) *EventDispatchStarted {
	return &EventDispatchStarted{
		EventImpl:       newEventImpl(EventTypeDispatchStarted, metadata),
		ContextMessages: contextMessages,
	}
}

type EventDispatchCompleted struct {
	EventImpl
	Content         string   `json:"content"`
	TotalTime       float64  `json:"total_time"`
	TotalTokens     *int     `json:"total_tokens,omitempty"`
	TokensPerSecond *float64 `json:"tokens_per_second,omitempty"`
}

func NewDispatchCompletedEvent(metadata EventMetadata, content string, totalTime float64, totalTokens *int, tokensPerSecond *float64) *EventDispatchCompleted {
	return &EventDispatchCompleted{
		EventImpl:       newEventImpl(EventTypeDispatchCompleted, metadata),
		Content:         content,
		TotalTime:       totalTime,
		TotalTokens:     totalTokens,
		TokensPerSecond: tokensPerSecond,
	}
}

type EventDispatchFailed struct {
	EventImpl
	ErrorString string `json:"error"`
}

func NewDispatchFailedEvent(metadata EventMetadata, err error) *EventDispatchFailed {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &EventDispatchFailed{
		EventImpl:   newEventImpl(EventTypeDispatchFailed, metadata),
		ErrorString: msg,
	}
}

var _ Event = (*EventDispatchStarted)(nil)
var _ Event = (*EventDispatchCompleted)(nil)
var _ Event = (*EventDispatchFailed)(nil)

// NewEventFromJson decodes an event published by a WatermillSink.
func NewEventFromJson(b []byte) (Event, error) {
	var hdr struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(b, &hdr); err != nil {
		return nil, errors.Wrap(err, "could not decode event header")
	}

	var ret Event
	switch hdr.Type {
	case EventTypeDispatchStarted:
		ret = &EventDispatchStarted{}
	case EventTypeDispatchCompleted:
		ret = &EventDispatchCompleted{}
	case EventTypeDispatchFailed:
		ret = &EventDispatchFailed{}
	default:
		return nil, errors.Errorf("unknown event type %q", hdr.Type)
	}
	if err := json.Unmarshal(b, ret); err != nil {
		return nil, errors.Wrapf(err, "could not decode %s event", hdr.Type)
	}
	return ret, nil
}
