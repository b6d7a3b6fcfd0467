package dto

type ProjectCreateDTO struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	GithubRepo  string `json:"github_repo" validate:"omitempty,url"`
	ProjectType string `json:"project_type" validate:"max=60"`
	Difficulty  string `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
}

type MemberRoleUpdateDTO struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}

type ProjectStatusUpdateDTO struct {
	Status string `json:"status" validate:"required,oneof=active completed archived"`
}
