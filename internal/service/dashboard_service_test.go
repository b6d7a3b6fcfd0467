package service

import (
	"context"
	"testing"

	"stepable/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardSummary(t *testing.T) {
	svc, progress, _ := newJourneyFixture(t)
	ctx := context.Background()

	users := &fakeUserRepo{}
	require.NoError(t, users.UpsertUser(ctx, &model.User{UserID: "dev", Name: "Ana Dev"}))

	projectRepo := newFakeProjectRepo()
	projectRepo.seed(model.Project{ID: "alpha"}, map[string]string{"dev": model.MemberRoleMember})
	modules := &fakeModuleRepo{
		modules: []model.Module{{ID: "m1", ProjectID: "alpha"}},
		lessons: []model.Lesson{{ID: "l1", ModuleID: "m1"}, {ID: "l2", ModuleID: "m1"}, {ID: "l3", ModuleID: "m1"}},
	}
	complete(progress, "dev", "l1", 120, day("2026-03-10 09:00"))

	dash := NewDashboardService(users, projectRepo, modules, progress, svc)
	d, err := dash.Summary(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, "Ana Dev", d.Name)
	assert.Equal(t, 1, d.Projects)
	assert.Equal(t, 3, d.LessonsTotal)
	assert.Equal(t, 1, d.LessonsCompleted)
	assert.Equal(t, 120, d.Stats.XP)
	assert.Equal(t, 1, d.Stats.Streak)
	assert.Len(t, d.Achievements, 5)
	require.Len(t, d.RecentActivity, 1)
	assert.Equal(t, "l1", d.RecentActivity[0].LessonID)
}

func TestUserServiceDefaultsLanguage(t *testing.T) {
	repo := &fakeUserRepo{}
	svc := NewUserService(repo, "es")
	ctx := context.Background()

	u, err := svc.Upsert(ctx, &model.User{UserID: "dev", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "es", u.Language)

	u, err = svc.Upsert(ctx, &model.User{UserID: "dev", Name: "Ana", Language: "en"})
	require.NoError(t, err)
	assert.Equal(t, "en", u.Language)

	_, err = svc.Get(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

}
