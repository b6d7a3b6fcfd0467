package pubsub

import (
	"context"
	"errors"
	"fmt"

	"stepable/internal/config"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Publisher defines an interface for publishing messages.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error)
}

// PubSubPublisher is an implementation of Publisher using Google Pub/Sub.
type PubSubPublisher struct {
	client *pubsub.Client
}

// NewPublisher creates a PubSubPublisher for the project of the current
// environment. When an emulator host is configured the client skips auth.
func NewPublisher(ctx context.Context, cfg *config.Config) (*PubSubPublisher, error) {
	projectID := cfg.GetGCPProjectID()
	if projectID == "" {
		return nil, errors.New("GCP project ID is not set")
	}

	var opts []option.ClientOption
	if cfg.PubSubEmulatorHost != "" {
		opts = append(opts, option.WithEndpoint(cfg.PubSubEmulatorHost), option.WithoutAuthentication())
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Pub/Sub client: %w", err)
	}
	return &PubSubPublisher{client: client}, nil
}

// Publish sends the payload to the given Pub/Sub topic and returns the message ID.
func (p *PubSubPublisher) Publish(ctx context.Context, topic string, payload []byte, attrs map[string]string) (string, error) {
	t := p.client.Topic(topic)
	result := t.Publish(ctx, &pubsub.Message{Data: payload, Attributes: attrs})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to publish message to topic %s: %w", topic, err)
	}
	return id, nil
}

func (p *PubSubPublisher) Close() error {
	return p.client.Close()
}
