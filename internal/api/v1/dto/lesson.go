package dto

type AnswerRequestDTO struct {
	StepIndex *int   `json:"step_index" validate:"required,min=0"`
	Answer    string `json:"answer" validate:"required"`
}

type CompleteLessonDTO struct {
	Score *int `json:"score" validate:"omitempty,min=0,max=100"`
}
