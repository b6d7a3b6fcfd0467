package service

import (
	"context"
	"fmt"

	"stepable/internal/model"
	"stepable/internal/repository"
)

const recentActivityLimit = 5

type Dashboard struct {
	Name             string               `json:"name"`
	Projects         int                  `json:"projects"`
	LessonsCompleted int                  `json:"lessons_completed"`
	LessonsTotal     int                  `json:"lessons_total"`
	Stats            Stats                `json:"stats"`
	Achievements     []AchievementStatus  `json:"achievements"`
	RecentActivity   []model.UserProgress `json:"recent_activity"`
}

type DashboardService interface {
	Summary(ctx context.Context, userID string) (*Dashboard, error)
}

type dashboardService struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
	modules  repository.ModuleRepository
	progress repository.ProgressRepository
	journey  JourneyService
}

func NewDashboardService(
	users repository.UserRepository,
	projects repository.ProjectRepository,
	modules repository.ModuleRepository,
	progress repository.ProgressRepository,
	journey JourneyService,
) DashboardService {
	return &dashboardService{users: users, projects: projects, modules: modules, progress: progress, journey: journey}
}

func (s *dashboardService) Summary(ctx context.Context, userID string) (*Dashboard, error) {
	d := &Dashboard{}

	u, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u != nil {
		d.Name = u.Name
	}

	projects, err := s.projects.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	d.Projects = len(projects)
	for _, p := range projects {
		lessons, err := s.modules.ListLessonsByProject(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list lessons: %w", err)
		}
		d.LessonsTotal += len(lessons)
	}

	stats, err := s.journey.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	d.Stats = *stats
	d.LessonsCompleted = stats.LessonsCompleted

	if d.Achievements, err = s.journey.ListAchievements(ctx, userID); err != nil {
		return nil, err
	}
	if d.RecentActivity, err = s.progress.RecentCompletions(ctx, userID, recentActivityLimit); err != nil {
		return nil, fmt.Errorf("recent completions: %w", err)
	}
	return d, nil
}
