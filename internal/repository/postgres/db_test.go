package postgres

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/repository"
)

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))

	err := translate(&pq.Error{Code: uniqueViolation, Constraint: "records_kind_seq_key"})
	assert.True(t, errors.Is(err, repository.ErrConflict))
	assert.Contains(t, err.Error(), "records_kind_seq_key")

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}

func TestStampRecordEvent(t *testing.T) {
	event, err := model.NewOutboxEvent(model.EventRecordCreate, model.RecordEventPayload{Actor: "reception"})
	require.NoError(t, err)

	record := &model.Record{Kind: model.RecordKindLab, SeqID: 42}
	record.ID = uuid.New()
	require.NoError(t, stampRecordEvent(event, record))

	var payload model.RecordEventPayload
	require.NoError(t, json.Unmarshal(event.Payload, &payload))
	assert.Equal(t, record.ID, payload.RecordID)
	assert.Equal(t, int64(42), payload.SeqID)
	assert.Equal(t, model.RecordKindLab, payload.Kind)
	assert.Equal(t, "reception", payload.Actor)
}

func TestPrepareOutbox(t *testing.T) {
	event := &model.OutboxEvent{EventType: model.EventReceiptShared, Payload: json.RawMessage(`{}`)}
	prepareOutbox(event)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, string(model.OutboxStatusPending), event.Status)
	assert.False(t, event.CreatedAt.IsZero())

	args := outboxArgs(event)
	assert.Equal(t, "{}", args[2])
}
