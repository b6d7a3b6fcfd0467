package model

import (
	"encoding/json"
	"time"
)

const (
	ContentStatusDraft     = "draft"
	ContentStatusPublished = "published"
)

// Module is one stop on a project's learning journey.
type Module struct {
	ID            string    `db:"id" json:"id"`
	ProjectID     string    `db:"project_id" json:"project_id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description,omitempty"`
	OrderIndex    int       `db:"order_index" json:"order_index"`
	Status        string    `db:"status" json:"status"`
	EstimatedTime string    `db:"estimated_time" json:"estimated_time,omitempty"`
	Difficulty    string    `db:"difficulty" json:"difficulty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

const (
	LessonTypeReading  = "reading"
	LessonTypePractice = "practice"
	LessonTypeQuiz     = "quiz"
)

type Lesson struct {
	ID          string          `db:"id" json:"id"`
	ModuleID    string          `db:"module_id" json:"module_id"`
	Title       string          `db:"title" json:"title"`
	Description string          `db:"description" json:"description,omitempty"`
	Content     string          `db:"content" json:"content,omitempty"`
	Type        string          `db:"type" json:"type"`
	OrderIndex  int             `db:"order_index" json:"order_index"`
	Duration    string          `db:"duration" json:"duration,omitempty"`
	Status      string          `db:"status" json:"status"`
	XP          int             `db:"xp" json:"xp"`
	QuizData    json.RawMessage `db:"quiz_data" json:"quiz_data,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

const (
	StepTheory     = "theory"
	StepQuiz       = "quiz"
	StepCodeReview = "code-review"
	StepFeedback   = "feedback"
)

// LessonStep is one screen of a lesson. Lessons keep their steps as a JSON
// array in quiz_data.
type LessonStep struct {
	Type  string `json:"type"`
	Title string `json:"title"`

	Text   string   `json:"text,omitempty"`
	Points []string `json:"points,omitempty"`

	Question      string   `json:"question,omitempty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer int      `json:"correct_answer,omitempty"`
	Explanation   string   `json:"explanation,omitempty"`

	Code           string   `json:"code,omitempty"`
	ExpectedIssues []string `json:"expected_issues,omitempty"`

	Scenario    string `json:"scenario,omitempty"`
	GoodExample string `json:"good_example,omitempty"`
	BadExample  string `json:"bad_example,omitempty"`
}

const (
	ProgressNotStarted = "not_started"
	ProgressInProgress = "in_progress"
	ProgressCompleted  = "completed"
)

type UserProgress struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	LessonID    string     `db:"lesson_id" json:"lesson_id"`
	Status      string     `db:"status" json:"status"`
	Score       *int       `db:"score" json:"score,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`

	// Joined for activity feeds
	LessonTitle string `db:"lesson_title" json:"lesson_title,omitempty"`
	XP          int    `db:"xp" json:"xp,omitempty"`
}

// Achievement is a badge a user earned.
type Achievement struct {
	UserID   string    `db:"user_id" json:"user_id"`
	Code     string    `db:"code" json:"code"`
	EarnedAt time.Time `db:"earned_at" json:"earned_at"`
}
