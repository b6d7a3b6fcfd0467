package service

import (
	"context"
	"fmt"
	"time"

	"stepable/internal/model"
	"stepable/internal/repository"

	"github.com/rs/zerolog"
)

const (
	ModuleCompleted  = "completed"
	ModuleInProgress = "in-progress"
	ModuleAvailable  = "available"
	ModuleLocked     = "locked"

	XPPerLevel = 500
)

type LessonState struct {
	model.Lesson
	Progress string `json:"progress"`
}

type ModuleState struct {
	model.Module
	State     string        `json:"state"`
	Lessons   []LessonState `json:"lessons"`
	Completed int           `json:"completed_lessons"`
	Total     int           `json:"total_lessons"`
}

type Stats struct {
	LessonsCompleted int `json:"lessons_completed"`
	ModulesCompleted int `json:"modules_completed"`
	XP               int `json:"xp"`
	Level            int `json:"level"`
	Streak           int `json:"streak"`
}

type AchievementStatus struct {
	Code        string     `json:"code"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Earned      bool       `json:"earned"`
	EarnedAt    *time.Time `json:"earned_at,omitempty"`
}

type Journey struct {
	ProjectID         string              `json:"project_id"`
	Modules           []ModuleState       `json:"modules"`
	CompletionPercent int                 `json:"completion_percent"`
	Stats             Stats               `json:"stats"`
	Achievements      []AchievementStatus `json:"achievements"`
}

type achievementRule struct {
	Code        string
	Title       string
	Description string
	Earned      func(Stats) bool
}

var achievementRules = []achievementRule{
	{"first-steps", "Primeros pasos", "Completa tu primera lección", func(s Stats) bool { return s.LessonsCompleted >= 1 }},
	{"module-finisher", "Módulo completado", "Completa un módulo entero", func(s Stats) bool { return s.ModulesCompleted >= 1 }},
	{"dedicated-learner", "Aprendiz dedicado", "Completa 10 lecciones", func(s Stats) bool { return s.LessonsCompleted >= 10 }},
	{"week-warrior", "Guerrero semanal", "Mantén una racha de 7 días", func(s Stats) bool { return s.Streak >= 7 }},
	{"rising-star", "Estrella en ascenso", "Consigue 1000 XP", func(s Stats) bool { return s.XP >= 1000 }},
}

func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return 1 + xp/XPPerLevel
}

// Streak counts consecutive UTC days with a completion, ending today or
// yesterday. A gap of more than one day since the last completion resets it.
func Streak(completions []time.Time, now time.Time) int {
	days := map[time.Time]bool{}
	for _, c := range completions {
		days[truncateDay(c)] = true
	}
	day := truncateDay(now)
	if !days[day] {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for days[day] {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildModuleStates derives each module's state from the lessons the user
// completed. Modules must be in journey order; module i unlocks once module
// i-1 is completed.
func BuildModuleStates(modules []model.Module, lessons []model.Lesson, progress map[string]string) []ModuleState {
	byModule := map[string][]model.Lesson{}
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}

	out := make([]ModuleState, 0, len(modules))
	prevCompleted := true
	for _, m := range modules {
		ms := ModuleState{Module: m, Lessons: []LessonState{}}
		for _, l := range byModule[m.ID] {
			status := progress[l.ID]
			if status == "" {
				status = model.ProgressNotStarted
			}
			if status == model.ProgressCompleted {
				ms.Completed++
			}
			ms.Lessons = append(ms.Lessons, LessonState{Lesson: l, Progress: status})
		}
		ms.Total = len(ms.Lessons)

		switch {
		case ms.Total > 0 && ms.Completed == ms.Total:
			ms.State = ModuleCompleted
		case !prevCompleted:
			ms.State = ModuleLocked
		case ms.Completed > 0:
			ms.State = ModuleInProgress
		default:
			ms.State = ModuleAvailable
		}
		prevCompleted = ms.State == ModuleCompleted
		out = append(out, ms)
	}
	return out
}

// ComputeStats folds a user's progress rows into journey stats.
func ComputeStats(progress []model.UserProgress, modulesCompleted int, now time.Time) Stats {
	var s Stats
	var days []time.Time
	for _, p := range progress {
		if p.Status != model.ProgressCompleted {
			continue
		}
		s.LessonsCompleted++
		s.XP += p.XP
		if p.CompletedAt != nil {
			days = append(days, *p.CompletedAt)
		}
	}
	s.ModulesCompleted = modulesCompleted
	s.Level = LevelForXP(s.XP)
	s.Streak = Streak(days, now)
	return s
}

// EarnedAchievements lists the codes of every achievement s qualifies for.
func EarnedAchievements(s Stats) []string {
	var out []string
	for _, r := range achievementRules {
		if r.Earned(s) {
			out = append(out, r.Code)
		}
	}
	return out
}

type JourneyService interface {
	GetJourney(ctx context.Context, userID, projectID string) (*Journey, error)
	GetStats(ctx context.Context, userID string) (*Stats, error)
	ListAchievements(ctx context.Context, userID string) ([]AchievementStatus, error)
	// AwardAchievements stores newly earned achievements and returns their codes.
	AwardAchievements(ctx context.Context, userID string) ([]string, error)
}

type journeyService struct {
	projects     ProjectService
	modules      repository.ModuleRepository
	progress     repository.ProgressRepository
	achievements repository.AchievementRepository
	now          func() time.Time
	logger       zerolog.Logger
}

func NewJourneyService(
	projects ProjectService,
	modules repository.ModuleRepository,
	progress repository.ProgressRepository,
	achievements repository.AchievementRepository,
	logger zerolog.Logger,
) JourneyService {
	return &journeyService{
		projects:     projects,
		modules:      modules,
		progress:     progress,
		achievements: achievements,
		now:          time.Now,
		logger:       logger.With().Str("service", "JourneyService").Logger(),
	}
}

func (s *journeyService) GetJourney(ctx context.Context, userID, projectID string) (*Journey, error) {
	if _, err := s.projects.RequireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}

	modules, err := s.modules.ListModulesByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	lessons, err := s.modules.ListLessonsByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}

	status := make(map[string]string, len(rows))
	for _, p := range rows {
		status[p.LessonID] = p.Status
	}
	states := BuildModuleStates(modules, lessons, status)

	j := &Journey{ProjectID: projectID, Modules: states}
	var done, total int
	for _, m := range states {
		done += m.Completed
		total += m.Total
	}
	if total > 0 {
		j.CompletionPercent = done * 100 / total
	}

	stats, err := s.statsFrom(ctx, userID, rows)
	if err != nil {
		return nil, err
	}
	j.Stats = *stats

	if j.Achievements, err = s.ListAchievements(ctx, userID); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *journeyService) GetStats(ctx context.Context, userID string) (*Stats, error) {
	rows, err := s.progress.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	return s.statsFrom(ctx, userID, rows)
}

func (s *journeyService) statsFrom(ctx context.Context, userID string, rows []model.UserProgress) (*Stats, error) {
	modulesDone, err := s.progress.CountCompletedModules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count completed modules: %w", err)
	}
	stats := ComputeStats(rows, modulesDone, s.now())
	return &stats, nil
}

func (s *journeyService) ListAchievements(ctx context.Context, userID string) ([]AchievementStatus, error) {
	earned, err := s.achievements.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	at := make(map[string]time.Time, len(earned))
	for _, a := range earned {
		at[a.Code] = a.EarnedAt
	}

	out := make([]AchievementStatus, 0, len(achievementRules))
	for _, r := range achievementRules {
		st := AchievementStatus{Code: r.Code, Title: r.Title, Description: r.Description}
		if t, ok := at[r.Code]; ok {
			st.Earned = true
			st.EarnedAt = &t
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *journeyService) AwardAchievements(ctx context.Context, userID string) ([]string, error) {
	stats, err := s.GetStats(ctx, userID)
	if err != nil {
		return nil, err
	}

	var awarded []string
	for _, code := range EarnedAchievements(*stats) {
		isNew, err := s.achievements.Award(ctx, userID, code)
		if err != nil {
			return awarded, fmt.Errorf("award %s: %w", code, err)
		}
		if isNew {
			awarded = append(awarded, code)
		}
	}
	if len(awarded) > 0 {
		s.logger.Info().Str("user_id", userID).Strs("codes", awarded).Msg("Achievements awarded")
	}
	return awarded, nil
}
