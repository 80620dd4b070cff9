package arena

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	events []Event
	err    error
}

func (s *recordingSink) Publish(_ context.Context, ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func TestMultiSink(t *testing.T) {
	ok := &recordingSink{}
	bad := &recordingSink{err: errors.New("boom")}

	err := MultiSink{ok, nil, bad, NopSink{}}.Publish(context.Background(), Event{Type: EventWin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	assert.Len(t, ok.events, 1)
	assert.Len(t, bad.events, 1)

	require.NoError(t, MultiSink{ok}.Publish(context.Background(), Event{Type: EventLoss}))
	require.NoError(t, MultiSink(nil).Publish(context.Background(), Event{}))
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

func TestRedisEventSink_Publish(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, _ := newTestRedis(t)
	sink := NewRedisEventSink(rdb, "")
	require.Equal(t, DefaultEventChannel, sink.Channel())

	sub := rdb.Subscribe(ctx, sink.Channel())
	defer sub.Close()
	_, err := sub.Receive(ctx) // subscription confirmation
	require.NoError(t, err)

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, sink.Publish(ctx, Event{
		Type:      EventMatch,
		FighterID: "f1",
		Opponents: []string{"f2", "f3"},
		At:        at,
	}))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultEventChannel, msg.Channel)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, EventMatch, got.Type)
	assert.Equal(t, "f1", got.FighterID)
	assert.Equal(t, []string{"f2", "f3"}, got.Opponents)
	assert.True(t, at.Equal(got.At))
}

func TestRedisEventSink_PublishFailsWhenRedisDown(t *testing.T) {
	rdb, mr := newTestRedis(t)
	sink := NewRedisEventSink(rdb, "custom")
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := sink.Publish(ctx, Event{Type: EventWin})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis publish custom")
}
