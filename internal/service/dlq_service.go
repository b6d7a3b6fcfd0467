package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"

	"stepable/internal/api/v1/dto"
	"stepable/internal/model"
	"stepable/internal/repository"

	"github.com/rs/zerolog"
)

type DLQService interface {
	ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error
	List(ctx context.Context, status string, limit int) ([]model.DeadLetterMessage, error)
}

type dlqService struct {
	repo   repository.DLQRepository
	logger zerolog.Logger
}

func NewDLQService(repo repository.DLQRepository, logger zerolog.Logger) DLQService {
	return &dlqService{repo: repo, logger: logger.With().Str("service", "DLQService").Logger()}
}

func (s *dlqService) ProcessAndSave(ctx context.Context, req *dto.PubSubPushRequest) error {
	// Undecodable data is kept raw.
	payload, err := base64.StdEncoding.DecodeString(req.Message.Data)
	if err != nil {
		payload = []byte(req.Message.Data)
	}

	var attributes *string
	if len(req.Message.Attributes) > 0 {
		if b, err := json.Marshal(req.Message.Attributes); err == nil {
			str := string(b)
			attributes = &str
		}
	}

	// projects/<p>/subscriptions/<name> -> <name>
	subscription := req.Subscription
	if i := strings.LastIndex(subscription, "/"); i >= 0 {
		subscription = subscription[i+1:]
	}

	msg := &model.DeadLetterMessage{
		SubscriptionName: subscription,
		MessageID:        req.Message.MessageID,
		Payload:          string(payload),
		Attributes:       attributes,
		Status:           model.DeadLetterUnprocessed,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		return err
	}
	s.logger.Warn().Str("subscription", subscription).Str("message_id", msg.MessageID).Msg("Dead-letter message stored")
	return nil
}

func (s *dlqService) List(ctx context.Context, status string, limit int) ([]model.DeadLetterMessage, error) {
	if status == "" {
		status = model.DeadLetterUnprocessed
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByStatus(ctx, status, limit)
}
