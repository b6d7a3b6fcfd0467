package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stepable/internal/model"
	"stepable/internal/pgmq"
	"stepable/internal/pubsub"
	"stepable/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const EventLessonCompleted = "lesson.completed"

// ProgressEvent is published on the progress topic.
type ProgressEvent struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	UserID     string    `json:"user_id"`
	LessonID   string    `json:"lesson_id"`
	Score      *int      `json:"score,omitempty"`
	XP         int       `json:"xp"`
	OccurredAt time.Time `json:"occurred_at"`
}

// AchievementJob asks the achievement orchestrator to re-evaluate a user.
type AchievementJob struct {
	UserID   string `json:"user_id"`
	LessonID string `json:"lesson_id"`
}

type ProgressService interface {
	StartLesson(ctx context.Context, userID, lessonID string) (*model.UserProgress, error)
	CompleteLesson(ctx context.Context, userID, lessonID string, score *int) (*model.UserProgress, error)
	List(ctx context.Context, userID string) ([]model.UserProgress, error)
}

type progressService struct {
	projects  ProjectService
	modules   repository.ModuleRepository
	repo      repository.ProgressRepository
	publisher pubsub.Publisher
	topic     string
	queue     pgmq.Queue
	queueName string
	now       func() time.Time
	logger    zerolog.Logger
}

func NewProgressService(
	projects ProjectService,
	modules repository.ModuleRepository,
	repo repository.ProgressRepository,
	publisher pubsub.Publisher,
	topic string,
	queue pgmq.Queue,
	queueName string,
	logger zerolog.Logger,
) ProgressService {
	return &progressService{
		projects:  projects,
		modules:   modules,
		repo:      repo,
		publisher: publisher,
		topic:     topic,
		queue:     queue,
		queueName: queueName,
		now:       time.Now,
		logger:    logger.With().Str("service", "ProgressService").Logger(),
	}
}

func (s *progressService) StartLesson(ctx context.Context, userID, lessonID string) (*model.UserProgress, error) {
	if _, err := authorizeLesson(ctx, s.projects, s.modules, userID, lessonID); err != nil {
		return nil, err
	}
	existing, err := s.repo.Get(ctx, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	if existing != nil && existing.Status != model.ProgressNotStarted {
		return existing, nil
	}

	p := &model.UserProgress{UserID: userID, LessonID: lessonID, Status: model.ProgressInProgress}
	if _, err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("start lesson: %w", err)
	}
	return p, nil
}

func (s *progressService) CompleteLesson(ctx context.Context, userID, lessonID string, score *int) (*model.UserProgress, error) {
	lesson, err := authorizeLesson(ctx, s.projects, s.modules, userID, lessonID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &model.UserProgress{
		UserID:      userID,
		LessonID:    lessonID,
		Status:      model.ProgressCompleted,
		Score:       score,
		CompletedAt: &now,
		LessonTitle: lesson.Title,
		XP:          lesson.XP,
	}
	prev, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("complete lesson: %w", err)
	}
	if prev == model.ProgressCompleted {
		return p, nil
	}

	s.publishCompletion(ctx, p)
	s.enqueueAchievementJob(ctx, p)
	return p, nil
}

func (s *progressService) publishCompletion(ctx context.Context, p *model.UserProgress) {
	event := ProgressEvent{
		EventID:    uuid.NewString(),
		Type:       EventLessonCompleted,
		UserID:     p.UserID,
		LessonID:   p.LessonID,
		Score:      p.Score,
		XP:         p.XP,
		OccurredAt: *p.CompletedAt,
	}
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal progress event")
		return
	}
	msgID, err := s.publisher.Publish(ctx, s.topic, data, map[string]string{"type": EventLessonCompleted})
	if err != nil {
		s.logger.Error().Err(err).Str("lesson_id", p.LessonID).Msg("Failed to publish progress event")
		return
	}
	s.logger.Debug().Str("message_id", msgID).Str("lesson_id", p.LessonID).Msg("Published progress event")
}

func (s *progressService) enqueueAchievementJob(ctx context.Context, p *model.UserProgress) {
	data, err := json.Marshal(AchievementJob{UserID: p.UserID, LessonID: p.LessonID})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to marshal achievement job")
		return
	}
	if err := s.queue.Send(ctx, s.queueName, data); err != nil {
		s.logger.Error().Err(err).Str("user_id", p.UserID).Msg("Failed to enqueue achievement job")
	}
}

func (s *progressService) List(ctx context.Context, userID string) ([]model.UserProgress, error) {
	return s.repo.ListByUser(ctx, userID)
}
