package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"socialchat/internal/app/message"
	"socialchat/internal/app/message/mocks"
	"socialchat/internal/pkg/metrics"
)

func newTestPipeline(store message.Store) (*Pipeline, *Registry) {
	registry := NewRegistry()
	return NewPipeline(store, registry, metrics.Nop{}, zerolog.Nop()), registry
}

func TestPipeline_Submit_EchoesAndDelivers(t *testing.T) {
	req := require.New(t)
	store := &memStore{}
	pipeline, registry := newTestPipeline(store)
	alice := newFakeConn()
	bob := newFakeConn()
	registry.Bind("alice", alice)
	registry.Bind("bob", bob)

	// When alice sends bob a message
	msg, err := pipeline.Submit(context.Background(), "alice", "bob", message.Body{Text: "hi"}, WithTempID("t-1"))

	// Then it is persisted unseen
	req.NoError(err)
	req.NotEmpty(msg.ID)
	req.False(msg.Seen)
	req.Nil(msg.SeenAt)
	req.Equal([]message.Message{msg}, store.Messages())

	// And alice gets the echo carrying her temp id
	echo := alice.FramesOf(EventChatMessage)
	req.Len(echo, 1)
	req.Equal("t-1", echo[0].TempID)
	req.Equal(msg, echo[0].Payload)

	// And bob gets the same message without the temp id
	delivered := bob.FramesOf(EventChatMessage)
	req.Len(delivered, 1)
	req.Empty(delivered[0].TempID)
	req.Equal(msg, delivered[0].Payload)
}

func TestPipeline_Submit_OfflineRecipient(t *testing.T) {
	req := require.New(t)
	store := &memStore{}
	pipeline, registry := newTestPipeline(store)
	alice := newFakeConn()
	registry.Bind("alice", alice)

	// When alice writes to an offline user
	_, err := pipeline.Submit(context.Background(), "alice", "bob", message.Body{Text: "are you there?"})

	// Then the message is stored for later and echoed back
	req.NoError(err)
	req.Len(store.Messages(), 1)
	req.Len(alice.FramesOf(EventChatMessage), 1)
}

func TestPipeline_Submit_SelfMessageDeliveredOnce(t *testing.T) {
	req := require.New(t)
	store := &memStore{}
	pipeline, registry := newTestPipeline(store)
	alice := newFakeConn()
	registry.Bind("alice", alice)

	_, err := pipeline.Submit(context.Background(), "alice", "alice", message.Body{Text: "note to self"})

	req.NoError(err)
	req.Len(alice.FramesOf(EventChatMessage), 1)
}

func TestPipeline_Submit_PersistFailureSuppressesFanOut(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	pipeline, registry := newTestPipeline(store)
	alice := newFakeConn()
	bob := newFakeConn()
	registry.Bind("alice", alice)
	registry.Bind("bob", bob)

	// Given the store is down
	store.EXPECT().
		PersistMessage(gomock.Any(), gomock.Any()).
		Return(message.Message{}, errors.New("connection refused"))

	// When alice sends a message
	_, err := pipeline.Submit(context.Background(), "alice", "bob", message.Body{Text: "hi"})

	// Then the failure is reported and nobody receives anything
	req.ErrorIs(err, ErrPersistFailed)
	req.Empty(alice.Frames())
	req.Empty(bob.Frames())
}

func TestPipeline_Submit_InvalidBodyNeverReachesStore(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	pipeline, _ := newTestPipeline(store)

	_, err := pipeline.Submit(context.Background(), "alice", "bob", message.Body{})
	req.ErrorIs(err, message.ErrEmptyBody)

	_, err = pipeline.Submit(context.Background(), "alice", "bob", message.Body{Text: "  ", Image: "chat/alice/a.png"})
	req.ErrorIs(err, message.ErrAmbiguousBody)
}

func TestPipeline_Submit_TimestampsTruncatedToMicroseconds(t *testing.T) {
	req := require.New(t)
	store := &memStore{}
	pipeline, _ := newTestPipeline(store)
	pipeline.now = func() time.Time {
		return time.Date(2024, 5, 1, 12, 0, 0, 123456789, time.UTC)
	}

	msg, err := pipeline.Submit(context.Background(), "alice", "bob", message.Body{Text: "hi"})

	req.NoError(err)
	req.Equal(123456000, msg.CreatedAt.Nanosecond())
}

func TestPipeline_Submit_PreservesOrderPerPair(t *testing.T) {
	req := require.New(t)
	store := &memStore{}
	pipeline, registry := newTestPipeline(store)
	bob := newFakeConn()
	registry.Bind("bob", bob)

	texts := []string{"one", "two", "three", "four", "five"}
	for _, text := range texts {
		_, err := pipeline.Submit(context.Background(), "alice", "bob", message.Body{Text: text})
		req.NoError(err)
	}

	delivered := bob.FramesOf(EventChatMessage)
	req.Len(delivered, len(texts))
	for i, frame := range delivered {
		req.Equal(texts[i], frame.Payload.(message.Message).Text)
	}

	stored := store.Messages()
	for i, m := range stored {
		req.Equal(texts[i], m.Text)
	}
}

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	req := require.New(t)
	var km keyedMutex

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			unlock := km.Lock("alice\x00bob")
			mu.Lock()
			inside++
			maxSeen = max(maxSeen, inside)
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	req.Equal(1, maxSeen)
	req.Empty(km.locks)
}
