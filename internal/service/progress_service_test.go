package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"stepable/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lessonFixture struct {
	projects  ProjectService
	modules   *fakeModuleRepo
	progress  *fakeProgressRepo
	publisher *fakePublisher
	queue     *fakeQueue
}

func newLessonFixture() *lessonFixture {
	projectRepo := newFakeProjectRepo()
	projectRepo.seed(model.Project{ID: "alpha"}, map[string]string{"dev": model.MemberRoleMember})
	steps, _ := json.Marshal(threeSteps())
	return &lessonFixture{
		projects: NewProjectService(projectRepo, zerolog.Nop()),
		modules: &fakeModuleRepo{
			modules: []model.Module{{ID: "m1", ProjectID: "alpha"}},
			lessons: []model.Lesson{{ID: "l1", ModuleID: "m1", Title: "Git basics", XP: 50, QuizData: steps}},
		},
		progress:  newFakeProgressRepo(),
		publisher: &fakePublisher{},
		queue:     &fakeQueue{},
	}
}

func (f *lessonFixture) progressService() *progressService {
	svc := NewProgressService(f.projects, f.modules, f.progress, f.publisher, "progress-events", f.queue, "achievement_queue", zerolog.Nop()).(*progressService)
	svc.now = func() time.Time { return day("2026-03-10 12:00") }
	return svc
}

func TestCompleteLessonPublishesOnce(t *testing.T) {
	f := newLessonFixture()
	svc := f.progressService()
	ctx := context.Background()
	score := 90

	p, err := svc.CompleteLesson(ctx, "dev", "l1", &score)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, p.Status)
	require.NotNil(t, p.CompletedAt)

	require.Len(t, f.publisher.messages, 1)
	var event ProgressEvent
	require.NoError(t, json.Unmarshal(f.publisher.messages[0], &event))
	assert.Equal(t, EventLessonCompleted, event.Type)
	assert.Equal(t, "dev", event.UserID)
	assert.Equal(t, "l1", event.LessonID)
	assert.Equal(t, 50, event.XP)
	assert.Equal(t, 90, *event.Score)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, EventLessonCompleted, f.publisher.attrs[0]["type"])

	require.Len(t, f.queue.sent, 1)
	var job AchievementJob
	require.NoError(t, json.Unmarshal(f.queue.sent[0], &job))
	assert.Equal(t, AchievementJob{UserID: "dev", LessonID: "l1"}, job)

	_, err = svc.CompleteLesson(ctx, "dev", "l1", nil)
	require.NoError(t, err)
	assert.Len(t, f.publisher.messages, 1, "repeat completion is not republished")
	assert.Len(t, f.queue.sent, 1)
}

func TestCompleteLessonSideEffectFailuresAreNotReturned(t *testing.T) {
	f := newLessonFixture()
	f.publisher.err = errors.New("pubsub down")
	f.queue.err = errors.New("queue down")

	p, err := f.progressService().CompleteLesson(context.Background(), "dev", "l1", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, p.Status)
}

func TestCompleteLessonChecksAccess(t *testing.T) {
	f := newLessonFixture()
	svc := f.progressService()

	_, err := svc.CompleteLesson(context.Background(), "stranger", "l1", nil)
	assert.ErrorIs(t, err, ErrNotProjectMember)
	_, err = svc.CompleteLesson(context.Background(), "dev", "missing", nil)
	assert.ErrorIs(t, err, ErrLessonNotFound)
	assert.Empty(t, f.publisher.messages)
}

func TestStartLessonKeepsCompletion(t *testing.T) {
	f := newLessonFixture()
	svc := f.progressService()
	ctx := context.Background()

	p, err := svc.StartLesson(ctx, "dev", "l1")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressInProgress, p.Status)

	_, err = svc.CompleteLesson(ctx, "dev", "l1", nil)
	require.NoError(t, err)

	p, err = svc.StartLesson(ctx, "dev", "l1")
	require.NoError(t, err)
	assert.Equal(t, model.ProgressCompleted, p.Status)
}

func TestLessonServiceAnswer(t *testing.T) {
	f := newLessonFixture()
	svc := NewLessonService(f.projects, f.modules, f.progress)
	ctx := context.Background()

	view, err := svc.Get(ctx, "dev", "l1")
	require.NoError(t, err)
	assert.Len(t, view.Steps, 3)
	assert.Nil(t, view.Progress)

	fb, err := svc.Answer(ctx, "dev", "l1", 1, "2")
	require.NoError(t, err)
	assert.True(t, fb.Correct)

	_, err = svc.Answer(ctx, "dev", "l1", 5, "2")
	assert.ErrorIs(t, err, ErrStepOutOfRange)
	_, err = svc.Answer(ctx, "dev", "l1", 0, "2")
	assert.ErrorIs(t, err, ErrStepNotAnswerable)
	_, err = svc.Answer(ctx, "stranger", "l1", 1, "2")
	assert.ErrorIs(t, err, ErrNotProjectMember)

	lessons, err := svc.ListByModule(ctx, "dev", "m1")
	require.NoError(t, err)
	assert.Len(t, lessons, 1)
	_, err = svc.ListByModule(ctx, "dev", "nope")
	assert.ErrorIs(t, err, ErrModuleNotFound)
}
