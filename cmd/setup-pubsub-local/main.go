// Command setup-pubsub-local creates the topics and subscriptions the API
// expects on the local Pub/Sub emulator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"stepable/internal/config"
	"stepable/internal/logger"

	"cloud.google.com/go/pubsub"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// For local development, 'host.docker.internal' lets the emulator reach the host machine.
const dlqEndpointLocal = "http://host.docker.internal:8080/v1/dlq"

const (
	retention          = 7 * 24 * time.Hour
	ackDeadline        = 60 * time.Second
	expiration         = 31 * 24 * time.Hour
	maxDeliveryAttempt = 5
)

var retryPolicy = &pubsub.RetryPolicy{
	MinimumBackoff: 10 * time.Second,
	MaximumBackoff: 600 * time.Second,
}

func main() {
	reset := flag.Bool("reset", false, "Delete every topic and subscription on the emulator first")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on system environment variables.")
	}

	logger := logger.New()
	logger.Info().Msg("Starting Pub/Sub setup for the local environment.")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Failed to load config: %v", err)
	}
	projectID := cfg.GCPProjectIDLocal
	if projectID == "" {
		logger.Fatal().Msg("GCP_PROJECT_ID_LOCAL is not set in the environment.")
	}
	if cfg.PubSubEmulatorHost == "" {
		logger.Fatal().Msg("PUBSUB_EMULATOR_HOST must be set for local environment.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := pubsub.NewClient(ctx, projectID,
		option.WithEndpoint(cfg.PubSubEmulatorHost),
		option.WithoutAuthentication(),
	)
	if err != nil {
		logger.Fatal().Msgf("Failed to create Pub/Sub client: %v", err)
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Error().Msgf("Failed to close pubsub client: %v", err)
		}
	}()

	if *reset {
		if err := resetEmulator(ctx, client, logger); err != nil {
			logger.Fatal().Err(err).Msg("Reset failed")
		}
	}
	if err := ensureTopic(ctx, client, logger, cfg.PubSubProgressTopic); err != nil {
		logger.Fatal().Err(err).Msg("Setup failed")
	}
	logger.Info().Msg("Pub/Sub setup for local environment complete.")
}

// resetEmulator deletes all subscriptions and topics. Only meant for the emulator.
func resetEmulator(ctx context.Context, client *pubsub.Client, logger zerolog.Logger) error {
	logger.Info().Msg("Deleting all existing resources for a clean local setup")

	subs := client.Subscriptions(ctx)
	for {
		sub, err := subs.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("list subscriptions: %w", err)
		}
		logger.Info().Str("subscription", sub.ID()).Msg("Deleting subscription")
		if err := sub.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("subscription", sub.ID()).Msg("Failed to delete subscription")
		}
	}

	topics := client.Topics(ctx)
	for {
		topic, err := topics.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}
		logger.Info().Str("topic", topic.ID()).Msg("Deleting topic")
		if err := topic.Delete(ctx); err != nil {
			logger.Warn().Err(err).Str("topic", topic.ID()).Msg("Failed to delete topic")
		}
	}
	return nil
}

// ensureTopic creates topicID with a pull subscription for consumers, plus
// a dead-letter topic whose subscription pushes to the API's /v1/dlq.
func ensureTopic(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, topicID string) error {
	dlqTopic, err := createTopicIfNotExists(ctx, client, logger, topicID+"-dlq")
	if err != nil {
		return err
	}
	mainTopic, err := createTopicIfNotExists(ctx, client, logger, topicID)
	if err != nil {
		return err
	}

	err = createOrUpdateSubscription(ctx, client, logger, topicID+"-sub", pubsub.SubscriptionConfig{
		Topic:            mainTopic,
		AckDeadline:      ackDeadline,
		ExpirationPolicy: expiration,
		RetryPolicy:      retryPolicy,
		DeadLetterPolicy: &pubsub.DeadLetterPolicy{
			DeadLetterTopic:     dlqTopic.String(),
			MaxDeliveryAttempts: maxDeliveryAttempt,
		},
	})
	if err != nil {
		return err
	}

	return createOrUpdateSubscription(ctx, client, logger, topicID+"-dlq-sub", pubsub.SubscriptionConfig{
		Topic:            dlqTopic,
		PushConfig:       pubsub.PushConfig{Endpoint: dlqEndpointLocal},
		AckDeadline:      ackDeadline,
		ExpirationPolicy: expiration,
		RetryPolicy:      retryPolicy,
	})
}

func createTopicIfNotExists(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, topicID string) (*pubsub.Topic, error) {
	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", topicID, err)
	}
	if exists {
		logger.Info().Str("topic", topicID).Msg("Topic already exists")
		return topic, nil
	}

	logger.Info().Str("topic", topicID).Dur("retention", retention).Msg("Creating topic")
	created, err := client.CreateTopicWithConfig(ctx, topicID, &pubsub.TopicConfig{RetentionDuration: retention})
	if err != nil {
		return nil, fmt.Errorf("create topic %s: %w", topicID, err)
	}
	return created, nil
}

func createOrUpdateSubscription(ctx context.Context, client *pubsub.Client, logger zerolog.Logger, subID string, want pubsub.SubscriptionConfig) error {
	sub := client.Subscription(subID)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return fmt.Errorf("check subscription %s: %w", subID, err)
	}

	if !exists {
		logger.Info().Str("subscription", subID).Str("endpoint", want.PushConfig.Endpoint).Msg("Creating subscription")
		if _, err := client.CreateSubscription(ctx, subID, want); err != nil {
			return fmt.Errorf("create subscription %s: %w", subID, err)
		}
		return nil
	}

	have, err := sub.Config(ctx)
	if err != nil {
		return fmt.Errorf("get subscription %s: %w", subID, err)
	}
	if have.PushConfig.Endpoint == want.PushConfig.Endpoint && have.AckDeadline == want.AckDeadline {
		logger.Info().Str("subscription", subID).Msg("Subscription is up to date")
		return nil
	}

	logger.Info().Str("subscription", subID).Msg("Updating subscription")
	_, err = sub.Update(ctx, pubsub.SubscriptionConfigToUpdate{
		PushConfig:  &want.PushConfig,
		AckDeadline: want.AckDeadline,
		RetryPolicy: want.RetryPolicy,
	})
	if err != nil {
		return fmt.Errorf("update subscription %s: %w", subID, err)
	}
	return nil
}
