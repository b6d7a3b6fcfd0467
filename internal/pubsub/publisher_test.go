package pubsub

import (
	"context"
	"os"
	"testing"
	"time"

	"stepable/internal/config"

	ps "cloud.google.com/go/pubsub"
	"github.com/stretchr/testify/require"
)

func TestNewPublisherWithoutProject(t *testing.T) {
	cfg := &config.Config{Environment: "production"}
	_, err := NewPublisher(context.Background(), cfg)
	require.Error(t, err)
}

func TestPublishProgressEventWithEmulator(t *testing.T) {
	emulator := os.Getenv("PUBSUB_EMULATOR_HOST")
	if emulator == "" {
		t.Skip("PUBSUB_EMULATOR_HOST is not set, skip emulator integration test")
	}

	ctx := context.Background()
	cfg := &config.Config{GCPProjectID: "test-project", PubSubEmulatorHost: emulator}
	pub, err := NewPublisher(ctx, cfg)
	require.NoError(t, err)
	defer pub.Close()

	topicName := "progress-events-test"
	topic, err := pub.client.CreateTopic(ctx, topicName)
	require.NoError(t, err)
	sub, err := pub.client.CreateSubscription(ctx, "progress-events-test-sub", ps.SubscriptionConfig{Topic: topic})
	require.NoError(t, err)

	msgID, err := pub.Publish(ctx, topicName, []byte(`{"type":"lesson.completed"}`), map[string]string{"type": "lesson.completed"})
	require.NoError(t, err)
	require.NotEmpty(t, msgID)

	recvCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	c := make(chan *ps.Message, 1)
	go func() {
		_ = sub.Receive(recvCtx, func(ctx context.Context, m *ps.Message) {
			m.Ack()
			c <- m
			cancel()
		})
	}()

	select {
	case m := <-c:
		require.Equal(t, `{"type":"lesson.completed"}`, string(m.Data))
		require.Equal(t, "lesson.completed", m.Attributes["type"])
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message from emulator subscription")
	}
}
