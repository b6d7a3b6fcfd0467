package service

import (
	"context"
	"errors"
	"fmt"

	"stepable/internal/model"
	"stepable/internal/repository"

	"github.com/rs/zerolog"
)

var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrNotProjectMember = errors.New("not a member of this project")
	ErrForbidden        = errors.New("insufficient project role")
	ErrAlreadyMember    = errors.New("already a member of this project")
	ErrMemberNotFound   = errors.New("member not found")
	ErrOwnerImmutable   = errors.New("the project owner cannot be removed or demoted")
	ErrInvalidRole      = errors.New("invalid member role")
	ErrInvalidStatus    = errors.New("invalid project status")
)

type ProjectService interface {
	ListMine(ctx context.Context, userID, query string) ([]model.Project, error)
	ListAvailable(ctx context.Context, userID, query string) ([]model.Project, error)
	Create(ctx context.Context, userID string, p *model.Project) (*model.Project, error)
	Get(ctx context.Context, userID, projectID string) (*model.Project, error)
	Join(ctx context.Context, userID, projectID string) (*model.ProjectMember, error)
	ListMembers(ctx context.Context, userID, projectID string) ([]model.ProjectMember, error)
	ChangeMemberRole(ctx context.Context, userID, projectID, memberID, role string) error
	RemoveMember(ctx context.Context, userID, projectID, memberID string) error
	// SetStatus moves a project between active, completed and archived.
	// Owners and admins only.
	SetStatus(ctx context.Context, userID, projectID, status string) (*model.Project, error)
	// RequireMember returns the caller's membership or ErrNotProjectMember.
	RequireMember(ctx context.Context, userID, projectID string) (*model.ProjectMember, error)
}

type projectService struct {
	repo   repository.ProjectRepository
	logger zerolog.Logger
}

func NewProjectService(repo repository.ProjectRepository, logger zerolog.Logger) ProjectService {
	return &projectService{
		repo:   repo,
		logger: logger.With().Str("service", "ProjectService").Logger(),
	}
}

func (s *projectService) ListMine(ctx context.Context, userID, query string) ([]model.Project, error) {
	projects, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list member projects: %w", err)
	}
	return FilterProjects(projects, query), nil
}

func (s *projectService) ListAvailable(ctx context.Context, userID, query string) ([]model.Project, error) {
	projects, err := s.repo.ListNotMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list available projects: %w", err)
	}
	return FilterProjects(projects, query), nil
}

func (s *projectService) Create(ctx context.Context, userID string, p *model.Project) (*model.Project, error) {
	p.CreatedBy = userID
	if p.Status == "" {
		p.Status = model.ProjectStatusActive
	}
	if err := s.repo.CreateWithOwner(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.logger.Info().Str("project_id", p.ID).Str("user_id", userID).Msg("Project created")
	return p, nil
}

func (s *projectService) Get(ctx context.Context, userID, projectID string) (*model.Project, error) {
	member, err := s.RequireMember(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	p.MyRole = member.Role
	return p, nil
}

func (s *projectService) RequireMember(ctx context.Context, userID, projectID string) (*model.ProjectMember, error) {
	m, err := s.repo.GetMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotProjectMember
	}
	return m, nil
}

func (s *projectService) Join(ctx context.Context, userID, projectID string) (*model.ProjectMember, error) {
	p, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrProjectNotFound
	}
	existing, err := s.repo.GetMember(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	m := &model.ProjectMember{ProjectID: projectID, UserID: userID, Role: model.MemberRoleMember}
	if err := s.repo.AddMember(ctx, m); err != nil {
		return nil, fmt.Errorf("join project: %w", err)
	}
	return m, nil
}

func (s *projectService) ListMembers(ctx context.Context, userID, projectID string) ([]model.ProjectMember, error) {
	if _, err := s.RequireMember(ctx, userID, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, projectID)
}

// target resolves the member being managed after checking the caller may manage it.
func (s *projectService) target(ctx context.Context, userID, projectID, memberID string) (*model.ProjectMember, error) {
	caller, err := s.RequireMember(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if !caller.CanManage() {
		return nil, ErrForbidden
	}
	target, err := s.repo.GetMember(ctx, projectID, memberID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrMemberNotFound
	}
	if target.Role == model.MemberRoleOwner {
		return nil, ErrOwnerImmutable
	}
	return target, nil
}

func (s *projectService) ChangeMemberRole(ctx context.Context, userID, projectID, memberID, role string) error {
	if role != model.MemberRoleAdmin && role != model.MemberRoleMember {
		return ErrInvalidRole
	}
	if _, err := s.target(ctx, userID, projectID, memberID); err != nil {
		return err
	}
	return s.repo.UpdateMemberRole(ctx, projectID, memberID, role)
}

func (s *projectService) RemoveMember(ctx context.Context, userID, projectID, memberID string) error {
	if _, err := s.target(ctx, userID, projectID, memberID); err != nil {
		return err
	}
	if err := s.repo.RemoveMember(ctx, projectID, memberID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.logger.Info().Str("project_id", projectID).Str("member_id", memberID).Msg("Member removed")
	return nil
}

func (s *projectService) SetStatus(ctx context.Context, userID, projectID, status string) (*model.Project, error) {
	switch status {
	case model.ProjectStatusActive, model.ProjectStatusCompleted, model.ProjectStatusArchived:
	default:
		return nil, ErrInvalidStatus
	}
	p, err := s.Get(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if p.MyRole != model.MemberRoleOwner && p.MyRole != model.MemberRoleAdmin {
		return nil, ErrForbidden
	}
	if p.Status == status {
		return p, nil
	}
	if err := s.repo.UpdateStatus(ctx, projectID, status); err != nil {
		return nil, fmt.Errorf("update project status: %w", err)
	}
	s.logger.Info().Str("project_id", projectID).Str("from", p.Status).Str("to", status).Msg("Project status changed")
	p.Status = status
	return p, nil
}
