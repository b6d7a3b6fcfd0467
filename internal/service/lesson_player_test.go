package service

import (
	"encoding/json"
	"testing"

	"stepable/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeSteps() []model.LessonStep {
	return []model.LessonStep{
		{Type: model.StepTheory, Title: "Intro"},
		{Type: model.StepQuiz, Title: "Check", Options: []string{"a", "b", "c"}, CorrectAnswer: 2, Explanation: "c is right"},
		{Type: model.StepCodeReview, Title: "Review", Code: "x := 1", ExpectedIssues: []string{"unused variable"}},
	}
}

func TestPlayerBounds(t *testing.T) {
	p := NewPlayer(threeSteps())

	assert.False(t, p.Previous(), "cannot go before the first step")
	assert.Equal(t, 0, p.Index)

	require.True(t, p.Next())
	require.True(t, p.Next())
	assert.True(t, p.IsLast())
	assert.False(t, p.Next(), "cannot go past the last step")
	assert.Equal(t, 2, p.Index)

	require.True(t, p.Previous())
	assert.Equal(t, 1, p.Index)
}

func TestPlayerProgress(t *testing.T) {
	p := NewPlayer(threeSteps())
	assert.InDelta(t, 33.33, p.Progress(), 0.01)
	p.Next()
	assert.InDelta(t, 66.67, p.Progress(), 0.01)
	p.Next()
	assert.Equal(t, 100.0, p.Progress())

	assert.Equal(t, 0.0, NewPlayer(nil).Progress())
}

func TestPlayerNextClearsAnswer(t *testing.T) {
	p := NewPlayer(threeSteps())
	p.Next()

	fb, err := p.Submit("2")
	require.NoError(t, err)
	assert.True(t, fb.Correct)
	assert.Equal(t, "c is right", fb.Explanation)
	assert.Equal(t, "2", p.Answer)

	p.Previous()
	assert.Nil(t, p.Feedback)
	assert.Equal(t, "2", p.Answer, "going back keeps the answer")

	p.Next()
	p.Next()
	assert.Empty(t, p.Answer)
	assert.Nil(t, p.Feedback)
}

func TestPlayerSubmit(t *testing.T) {
	p := NewPlayer(threeSteps())

	_, err := p.Submit("anything")
	assert.ErrorIs(t, err, ErrStepNotAnswerable)

	p.Next()
	fb, err := p.Submit("0")
	require.NoError(t, err)
	assert.False(t, fb.Correct)

	_, err = p.Submit("7")
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	_, err = p.Submit("b")
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	p.Next()
	fb, err = p.Submit("the variable is never used")
	require.NoError(t, err)
	assert.Equal(t, []string{"unused variable"}, fb.ExpectedIssues)

	_, err = p.Submit("  ")
	assert.ErrorIs(t, err, ErrInvalidAnswer)
}

func TestParseSteps(t *testing.T) {
	raw, err := json.Marshal(threeSteps())
	require.NoError(t, err)

	steps, err := ParseSteps(&model.Lesson{QuizData: raw})
	require.NoError(t, err)
	assert.Len(t, steps, 3)
	assert.Equal(t, 2, steps[1].CorrectAnswer)

	steps, err = ParseSteps(&model.Lesson{QuizData: json.RawMessage(`{"steps":[{"type":"quiz","title":"Q","options":["x","y"],"correct_answer":1}]}`)})
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, model.StepQuiz, steps[0].Type)

	steps, err = ParseSteps(&model.Lesson{Title: "Reading", Content: "Body"})
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, model.StepTheory, steps[0].Type)
	assert.Equal(t, "Body", steps[0].Text)

	_, err = ParseSteps(&model.Lesson{QuizData: json.RawMessage(`[{`)})
	assert.Error(t, err)
}
