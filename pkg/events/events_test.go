package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMetadata() EventMetadata {
	return EventMetadata{RequestID: uuid.New(), BoardID: "b1", NodeID: "n1", Model: "gpt-4o", Provider: "openai"}
}

func TestWatermillSinkPublishesDecodableEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer func() { _ = pubSub.Close() }()

	msgs, err := pubSub.Subscribe(context.Background(), DispatchTopic)
	require.NoError(t, err)

	sink := NewWatermillSink(pubSub, DispatchTopic)
	tokens := 12
	require.NoError(t, sink.PublishEvent(NewDispatchCompletedEvent(testMetadata(), "hello", 1.5, &tokens, nil)))

	select {
	case msg := <-msgs:
		msg.Ack()
		assert.Equal(t, string(EventTypeDispatchCompleted), msg.Metadata.Get("event_type"))
		assert.Equal(t, "n1", msg.Metadata.Get("node_id"))

		ev, err := NewEventFromJson(msg.Payload)
		require.NoError(t, err)
		completed, ok := ev.(*EventDispatchCompleted)
		require.True(t, ok)
		assert.Equal(t, "hello", completed.Content)
		assert.Equal(t, 12, *completed.TotalTokens)
		assert.Nil(t, completed.TokensPerSecond)
		assert.Equal(t, "gpt-4o", completed.Metadata().Model)
		assert.NotEqual(t, uuid.Nil, completed.Metadata().ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

func TestNewEventFromJsonUnknownType(t *testing.T) {
	_, err := NewEventFromJson([]byte(`{"type":"nope"}`))
	assert.Error(t, err)
	_, err = NewEventFromJson([]byte(`not json`))
	assert.Error(t, err)
}

type recordingSink struct {
	events []Event
	err    error
}

func (r *recordingSink) PublishEvent(event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestPublishEventToContext(t *testing.T) {
	failing := &recordingSink{err: errors.New("down")}
	ok := &recordingSink{}
	ctx := WithEventSinks(context.Background(), failing)
	ctx = WithEventSinks(ctx, ok, NewNullSink())

	PublishEventToContext(ctx, NewDispatchFailedEvent(testMetadata(), errors.New("API error: 429")))

	require.Len(t, ok.events, 1)
	require.Len(t, failing.events, 1)
	failed := ok.events[0].(*EventDispatchFailed)
	assert.Equal(t, "API error: 429", failed.ErrorString)

	// no sinks is a no-op
	PublishEventToContext(context.Background(), NewDispatchStartedEvent(testMetadata(), 3))
}

func TestEventRouter(t *testing.T) {
	router, err := NewEventRouter(WithVerbose(true))
	require.NoError(t, err)

	received := make(chan Event, 1)
	router.AddEventHandler("test", DispatchTopic, func(e Event) error {
		received <- e
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = router.Run(ctx) }()
	<-router.Running()

	require.NoError(t, router.Sink(DispatchTopic).PublishEvent(NewDispatchStartedEvent(testMetadata(), 4)))

	select {
	case e := <-received:
		started, ok := e.(*EventDispatchStarted)
		require.True(t, ok)
		assert.Equal(t, 4, started.ContextMessages)
	case <-time.After(2 * time.Second):
		t.Fatal("handler not called")
	}

	assert.NoError(t, router.Close())
}
