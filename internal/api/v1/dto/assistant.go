package dto

type AssistantMessageDTO struct {
	Content string `json:"content" validate:"required,max=4000"`
}
