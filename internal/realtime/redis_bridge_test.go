package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func unreachableRedis(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisBridgeRelaysRemoteMessages(t *testing.T) {
	hub := NewHub()
	conn := startHubServer(t, hub, StreamNotifications)
	require.Eventually(t, func() bool { return hub.SubscriberCount(StreamNotifications) == 1 }, time.Second, 10*time.Millisecond)

	remote := NewRedisBridge(unreachableRedis(t), NewHub(), "")
	body, err := remote.encode(StreamNotifications, Message{Event: EventEntryCreated, Data: map[string]any{"logId": 9}})
	require.NoError(t, err)

	local := NewRedisBridge(unreachableRedis(t), hub, "")
	local.handlePayload(body)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, EventEntryCreated, got.Event)
	require.EqualValues(t, 9, got.Data.(map[string]any)["logId"])
}

func TestRedisBridgeSkipsOwnMessages(t *testing.T) {
	hub := NewHub()
	bridge := NewRedisBridge(unreachableRedis(t), hub, "")

	body, err := bridge.encode(StreamNotifications, Message{Event: EventExitUpdate})
	require.NoError(t, err)

	conn := startHubServer(t, hub, StreamNotifications)
	require.Eventually(t, func() bool { return hub.SubscriberCount(StreamNotifications) == 1 }, time.Second, 10*time.Millisecond)

	bridge.handlePayload(body)
	bridge.handlePayload([]byte("not json"))

	_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var got Message
	require.Error(t, conn.ReadJSON(&got))
}

func TestRedisBridgePublishDeliversLocallyWhenRedisFails(t *testing.T) {
	hub := NewHub()
	conn := startHubServer(t, hub, StreamStatistics)
	require.Eventually(t, func() bool { return hub.SubscriberCount(StreamStatistics) == 1 }, time.Second, 10*time.Millisecond)

	bridge := NewRedisBridge(unreachableRedis(t), hub, "test:channel")
	err := bridge.Publish(context.Background(), StreamStatistics, Message{Event: EventStatsUpdated})
	require.Error(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Message
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, EventStatsUpdated, got.Event)
}

func TestRedisBridgeStartFailsWithoutServer(t *testing.T) {
	bridge := NewRedisBridge(unreachableRedis(t), NewHub(), "")
	require.Error(t, bridge.Start(context.Background()))
	require.NoError(t, bridge.Close())
}
