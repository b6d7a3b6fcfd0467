package service

import (
	"context"
	"encoding/base64"
	"testing"

	"stepable/internal/api/v1/dto"
	"stepable/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDLQRepo struct {
	saved []model.DeadLetterMessage
}

func (f *fakeDLQRepo) Create(_ context.Context, m *model.DeadLetterMessage) error {
	f.saved = append(f.saved, *m)
	return nil
}

func (f *fakeDLQRepo) ListByStatus(_ context.Context, status string, limit int) ([]model.DeadLetterMessage, error) {
	out := []model.DeadLetterMessage{}
	for _, m := range f.saved {
		if m.Status == status && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}

func TestDLQProcessAndSave(t *testing.T) {
	repo := &fakeDLQRepo{}
	svc := NewDLQService(repo, zerolog.Nop())
	ctx := context.Background()

	req := &dto.PubSubPushRequest{
		Subscription: "projects/stepable/subscriptions/progress-events-dlq-sub",
		Message: dto.PubSubMessage{
			Data:       base64.StdEncoding.EncodeToString([]byte(`{"type":"lesson.completed"}`)),
			MessageID:  "42",
			Attributes: map[string]string{"type": "lesson.completed"},
		},
	}
	require.NoError(t, svc.ProcessAndSave(ctx, req))

	req.Message = dto.PubSubMessage{Data: "not base64!", MessageID: "43"}
	require.NoError(t, svc.ProcessAndSave(ctx, req))

	require.Len(t, repo.saved, 2)
	assert.Equal(t, "progress-events-dlq-sub", repo.saved[0].SubscriptionName)
	assert.Equal(t, `{"type":"lesson.completed"}`, repo.saved[0].Payload)
	require.NotNil(t, repo.saved[0].Attributes)
	assert.JSONEq(t, `{"type":"lesson.completed"}`, *repo.saved[0].Attributes)
	assert.Equal(t, model.DeadLetterUnprocessed, repo.saved[0].Status)

	assert.Equal(t, "not base64!", repo.saved[1].Payload)
	assert.Nil(t, repo.saved[1].Attributes)

	list, err := svc.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
