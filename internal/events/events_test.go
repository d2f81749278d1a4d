package events_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/dukerupert/larder/internal/events"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	var p events.Publisher = events.Noop{}

	assert.NoError(t, p.Publish(context.Background(), events.SubjectCartUpdated, events.CartUpdated{}))
	assert.NoError(t, p.Close())
}

func TestRecorder(t *testing.T) {
	r := events.NewRecorder()
	ctx := context.Background()

	require.NoError(t, r.Publish(ctx, events.SubjectCartUpdated, events.CartUpdated{ItemCount: 2}))
	require.NoError(t, r.Publish(ctx, events.SubjectOrderCreated, events.OrderCreated{TotalCents: 2155}))

	assert.Equal(t, []string{events.SubjectCartUpdated, events.SubjectOrderCreated}, r.Subjects())

	msgs := r.Messages()
	require.Len(t, msgs, 2)
	created, ok := msgs[1].Payload.(events.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, int64(2155), created.TotalCents)
}

func TestOrderCreated_JSON(t *testing.T) {
	id := uuid.New()
	data, err := json.Marshal(events.OrderCreated{OrderID: id, GuestEmail: "guest@example.com", TotalCents: 2155})
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, id.String(), got["order_id"])
	assert.Equal(t, "guest@example.com", got["guest_email"])
	assert.NotContains(t, got, "user_id")
}

func TestNATSPublisher(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}

	pub, err := events.NewNATSPublisher(events.NATSConfig{URL: url, SubjectPrefix: "test."}, zerolog.Nop())
	require.NoError(t, err)
	defer pub.Close()

	sub, err := nats.Connect(url)
	require.NoError(t, err)
	defer sub.Close()

	ch := make(chan *nats.Msg, 1)
	s, err := sub.ChanSubscribe("test."+events.SubjectCartUpdated, ch)
	require.NoError(t, err)
	defer s.Unsubscribe()
	require.NoError(t, sub.Flush())

	cartID := uuid.New()
	require.NoError(t, pub.Publish(context.Background(), events.SubjectCartUpdated, events.CartUpdated{CartID: cartID, ItemCount: 5}))

	select {
	case msg := <-ch:
		var got events.CartUpdated
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, cartID, got.CartID)
		assert.Equal(t, 5, got.ItemCount)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}
