package service

import (
	"context"
	"testing"
	"time"

	"stepable/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStreak(t *testing.T) {
	now := day("2026-03-10 18:00")

	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"none", nil, 0},
		{"today only", []time.Time{day("2026-03-10 08:00")}, 1},
		{"ends yesterday", []time.Time{day("2026-03-09 08:00"), day("2026-03-08 23:59")}, 2},
		{"gap breaks it", []time.Time{day("2026-03-10 08:00"), day("2026-03-08 08:00")}, 1},
		{"stale", []time.Time{day("2026-03-07 08:00")}, 0},
		{"same day counted once", []time.Time{day("2026-03-10 08:00"), day("2026-03-10 09:00"), day("2026-03-09 09:00")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Streak(tt.days, now))
		})
	}
}

func TestLevelForXP(t *testing.T) {
	assert.Equal(t, 1, LevelForXP(0))
	assert.Equal(t, 1, LevelForXP(499))
	assert.Equal(t, 2, LevelForXP(500))
	assert.Equal(t, 5, LevelForXP(2100))
	assert.Equal(t, 1, LevelForXP(-10))
}

func TestBuildModuleStates(t *testing.T) {
	modules := []model.Module{{ID: "m1"}, {ID: "m2"}, {ID: "m3"}, {ID: "m4"}}
	lessons := []model.Lesson{
		{ID: "l1", ModuleID: "m1"}, {ID: "l2", ModuleID: "m1"},
		{ID: "l3", ModuleID: "m2"}, {ID: "l4", ModuleID: "m2"},
		{ID: "l5", ModuleID: "m3"},
		{ID: "l6", ModuleID: "m4"},
	}
	progress := map[string]string{
		"l1": model.ProgressCompleted, "l2": model.ProgressCompleted,
		"l3": model.ProgressCompleted, "l4": model.ProgressInProgress,
	}

	states := BuildModuleStates(modules, lessons, progress)
	require.Len(t, states, 4)
	assert.Equal(t, ModuleCompleted, states[0].State)
	assert.Equal(t, ModuleInProgress, states[1].State)
	assert.Equal(t, 1, states[1].Completed)
	assert.Equal(t, 2, states[1].Total)
	assert.Equal(t, ModuleLocked, states[2].State)
	assert.Equal(t, ModuleLocked, states[3].State)
	assert.Equal(t, model.ProgressNotStarted, states[2].Lessons[0].Progress)

	states = BuildModuleStates(modules, lessons, nil)
	assert.Equal(t, ModuleAvailable, states[0].State)
	assert.Equal(t, ModuleLocked, states[1].State)
}

func TestBuildModuleStatesEmptyModuleNeverCompletes(t *testing.T) {
	states := BuildModuleStates([]model.Module{{ID: "empty"}, {ID: "next"}}, []model.Lesson{{ID: "l", ModuleID: "next"}}, nil)
	assert.Equal(t, ModuleAvailable, states[0].State)
	assert.Equal(t, ModuleLocked, states[1].State)
}

func TestEarnedAchievements(t *testing.T) {
	assert.Empty(t, EarnedAchievements(Stats{}))
	assert.Equal(t, []string{"first-steps"}, EarnedAchievements(Stats{LessonsCompleted: 1}))
	assert.Equal(t,
		[]string{"first-steps", "module-finisher", "dedicated-learner", "week-warrior", "rising-star"},
		EarnedAchievements(Stats{LessonsCompleted: 10, ModulesCompleted: 1, Streak: 7, XP: 1000}))
}

func newJourneyFixture(t *testing.T) (*journeyService, *fakeProgressRepo, *fakeAchievementRepo) {
	t.Helper()
	projects := newFakeProjectRepo()
	projects.seed(model.Project{ID: "alpha"}, map[string]string{"dev": model.MemberRoleMember})
	modules := &fakeModuleRepo{
		modules: []model.Module{{ID: "m1", ProjectID: "alpha"}, {ID: "m2", ProjectID: "alpha"}},
		lessons: []model.Lesson{
			{ID: "l1", ModuleID: "m1", XP: 300}, {ID: "l2", ModuleID: "m1", XP: 300},
			{ID: "l3", ModuleID: "m2", XP: 100},
		},
	}
	progress := newFakeProgressRepo()
	achievements := &fakeAchievementRepo{}
	svc := NewJourneyService(NewProjectService(projects, zerolog.Nop()), modules, progress, achievements, zerolog.Nop()).(*journeyService)
	svc.now = func() time.Time { return day("2026-03-10 12:00") }
	return svc, progress, achievements
}

func complete(p *fakeProgressRepo, user, lesson string, xp int, at time.Time) {
	_, _ = p.Upsert(context.Background(), &model.UserProgress{
		UserID: user, LessonID: lesson, Status: model.ProgressCompleted, XP: xp, CompletedAt: &at,
	})
}

func TestGetJourney(t *testing.T) {
	svc, progress, _ := newJourneyFixture(t)
	ctx := context.Background()

	complete(progress, "dev", "l1", 300, day("2026-03-09 10:00"))
	complete(progress, "dev", "l2", 300, day("2026-03-10 10:00"))
	progress.modules = 1

	j, err := svc.GetJourney(ctx, "dev", "alpha")
	require.NoError(t, err)
	assert.Equal(t, ModuleCompleted, j.Modules[0].State)
	assert.Equal(t, ModuleAvailable, j.Modules[1].State)
	assert.Equal(t, 66, j.CompletionPercent)
	assert.Equal(t, Stats{LessonsCompleted: 2, ModulesCompleted: 1, XP: 600, Level: 2, Streak: 2}, j.Stats)
	assert.Len(t, j.Achievements, 5)
	assert.False(t, j.Achievements[0].Earned)

	_, err = svc.GetJourney(ctx, "stranger", "alpha")
	assert.ErrorIs(t, err, ErrNotProjectMember)
}

func TestAwardAchievementsOnlyReturnsNew(t *testing.T) {
	svc, progress, achievements := newJourneyFixture(t)
	ctx := context.Background()

	complete(progress, "dev", "l1", 300, day("2026-03-10 10:00"))
	awarded, err := svc.AwardAchievements(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"first-steps"}, awarded)

	progress.modules = 1
	awarded, err = svc.AwardAchievements(ctx, "dev")
	require.NoError(t, err)
	assert.Equal(t, []string{"module-finisher"}, awarded)
	assert.Len(t, achievements.earned, 2)

	list, err := svc.ListAchievements(ctx, "dev")
	require.NoError(t, err)
	assert.True(t, list[0].Earned)
	assert.NotNil(t, list[0].EarnedAt)
	assert.True(t, list[1].Earned)
	assert.False(t, list[2].Earned)
}
