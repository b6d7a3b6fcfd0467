package service

import (
	"context"
	"errors"
	"fmt"

	"stepable/internal/model"
	"stepable/internal/repository"
)

var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrModuleNotFound = errors.New("module not found")
)

type LessonView struct {
	Lesson   *model.Lesson       `json:"lesson"`
	Steps    []model.LessonStep  `json:"steps"`
	Progress *model.UserProgress `json:"progress,omitempty"`
}

type LessonService interface {
	Get(ctx context.Context, userID, lessonID string) (*LessonView, error)
	// Answer evaluates an answer for one step without storing it.
	Answer(ctx context.Context, userID, lessonID string, stepIndex int, answer string) (*Feedback, error)
	ListByModule(ctx context.Context, userID, moduleID string) ([]model.Lesson, error)
}

type lessonService struct {
	projects ProjectService
	modules  repository.ModuleRepository
	progress repository.ProgressRepository
}

func NewLessonService(projects ProjectService, modules repository.ModuleRepository, progress repository.ProgressRepository) LessonService {
	return &lessonService{projects: projects, modules: modules, progress: progress}
}

// authorizeLesson loads the lesson and checks the user belongs to its project.
func authorizeLesson(ctx context.Context, projects ProjectService, modules repository.ModuleRepository, userID, lessonID string) (*model.Lesson, error) {
	lesson, err := modules.GetLessonByID(ctx, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	if lesson == nil {
		return nil, ErrLessonNotFound
	}
	if _, err := authorizeModule(ctx, projects, modules, userID, lesson.ModuleID); err != nil {
		return nil, err
	}
	return lesson, nil
}

func authorizeModule(ctx context.Context, projects ProjectService, modules repository.ModuleRepository, userID, moduleID string) (*model.Module, error) {
	module, err := modules.GetModuleByID(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("get module: %w", err)
	}
	if module == nil {
		return nil, ErrModuleNotFound
	}
	if _, err := projects.RequireMember(ctx, userID, module.ProjectID); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *lessonService) Get(ctx context.Context, userID, lessonID string) (*LessonView, error) {
	lesson, err := authorizeLesson(ctx, s.projects, s.modules, userID, lessonID)
	if err != nil {
		return nil, err
	}
	steps, err := ParseSteps(lesson)
	if err != nil {
		return nil, err
	}
	progress, err := s.progress.Get(ctx, userID, lessonID)
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return &LessonView{Lesson: lesson, Steps: steps, Progress: progress}, nil
}

func (s *lessonService) Answer(ctx context.Context, userID, lessonID string, stepIndex int, answer string) (*Feedback, error) {
	lesson, err := authorizeLesson(ctx, s.projects, s.modules, userID, lessonID)
	if err != nil {
		return nil, err
	}
	steps, err := ParseSteps(lesson)
	if err != nil {
		return nil, err
	}
	if stepIndex < 0 || stepIndex >= len(steps) {
		return nil, ErrStepOutOfRange
	}
	p := NewPlayer(steps)
	p.Index = stepIndex
	return p.Submit(answer)
}

func (s *lessonService) ListByModule(ctx context.Context, userID, moduleID string) ([]model.Lesson, error) {
	if _, err := authorizeModule(ctx, s.projects, s.modules, userID, moduleID); err != nil {
		return nil, err
	}
	return s.modules.ListLessonsByModule(ctx, moduleID)
}
