package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"stepable/internal/model"
)

var (
	ErrStepNotAnswerable = errors.New("step does not take an answer")
	ErrInvalidAnswer     = errors.New("invalid answer")
	ErrStepOutOfRange    = errors.New("step index out of range")
)

type Feedback struct {
	Correct        bool     `json:"correct"`
	Explanation    string   `json:"explanation,omitempty"`
	ExpectedIssues []string `json:"expected_issues,omitempty"`
}

// Player walks the steps of a single lesson. The index never leaves
// [0, Total-1].
type Player struct {
	Steps    []model.LessonStep
	Index    int
	Answer   string
	Feedback *Feedback
}

func NewPlayer(steps []model.LessonStep) *Player {
	return &Player{Steps: steps}
}

func (p *Player) Total() int { return len(p.Steps) }

func (p *Player) Current() (model.LessonStep, bool) {
	if p.Index < 0 || p.Index >= len(p.Steps) {
		return model.LessonStep{}, false
	}
	return p.Steps[p.Index], true
}

// Next advances one step and clears the answer state. It reports false on
// the last step.
func (p *Player) Next() bool {
	if p.Index >= p.Total()-1 {
		return false
	}
	p.Index++
	p.Answer = ""
	p.Feedback = nil
	return true
}

func (p *Player) Previous() bool {
	if p.Index <= 0 {
		return false
	}
	p.Index--
	p.Feedback = nil
	return true
}

// Progress is the percentage of steps reached, counting the current one.
func (p *Player) Progress() float64 {
	if p.Total() == 0 {
		return 0
	}
	return float64(p.Index+1) / float64(p.Total()) * 100
}

func (p *Player) IsLast() bool { return p.Index == p.Total()-1 }

// Submit evaluates answer against the current step.
func (p *Player) Submit(answer string) (*Feedback, error) {
	step, ok := p.Current()
	if !ok {
		return nil, ErrStepOutOfRange
	}

	var fb *Feedback
	switch step.Type {
	case model.StepQuiz:
		choice, err := strconv.Atoi(strings.TrimSpace(answer))
		if err != nil || choice < 0 || choice >= len(step.Options) {
			return nil, ErrInvalidAnswer
		}
		fb = &Feedback{Correct: choice == step.CorrectAnswer, Explanation: step.Explanation}
	case model.StepCodeReview:
		if strings.TrimSpace(answer) == "" {
			return nil, ErrInvalidAnswer
		}
		fb = &Feedback{Correct: true, Explanation: step.Explanation, ExpectedIssues: step.ExpectedIssues}
	default:
		return nil, ErrStepNotAnswerable
	}

	p.Answer = answer
	p.Feedback = fb
	return fb, nil
}

// ParseSteps reads the lesson's step list. A lesson without steps plays as a
// single theory step built from its content.
func ParseSteps(l *model.Lesson) ([]model.LessonStep, error) {
	raw := strings.TrimSpace(string(l.QuizData))
	if raw == "" || raw == "null" {
		return []model.LessonStep{{Type: model.StepTheory, Title: l.Title, Text: l.Content}}, nil
	}

	var steps []model.LessonStep
	if strings.HasPrefix(raw, "{") {
		var wrapped struct {
			Steps []model.LessonStep `json:"steps"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
			return nil, fmt.Errorf("decode lesson steps: %w", err)
		}
		steps = wrapped.Steps
	} else if err := json.Unmarshal([]byte(raw), &steps); err != nil {
		return nil, fmt.Errorf("decode lesson steps: %w", err)
	}

	if len(steps) == 0 {
		return []model.LessonStep{{Type: model.StepTheory, Title: l.Title, Text: l.Content}}, nil
	}
	return steps, nil
}
