package record

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/fieldmap"
	"github.com/jwalitptl/frontdesk-api/internal/repository"
	"github.com/jwalitptl/frontdesk-api/internal/session"
	"github.com/jwalitptl/frontdesk-api/pkg/errors"
	"github.com/jwalitptl/frontdesk-api/pkg/event"
	"github.com/jwalitptl/frontdesk-api/pkg/logger"
)

const dateLayout = "2006-01-02"

type Service struct {
	repo   repository.RecordRepository
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo repository.RecordRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Create validates the form fields for the kind, stamps the actor and
// stores the record together with its RECORD_CREATE event.
func (s *Service) Create(ctx context.Context, actor session.User, req model.CreateRecordRequest) (*model.Record, error) {
	if !req.Kind.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("unknown record kind %q", req.Kind), nil)
	}
	if err := ValidateFields(req.Kind, req.Fields); err != nil {
		return nil, err
	}
	visit, err := s.visitDate(req.VisitDate)
	if err != nil {
		return nil, err
	}

	record := &model.Record{
		Kind:      req.Kind,
		SeqID:     req.SeqID,
		VisitDate: visit,
		Fields:    model.JSONMap(req.Fields),
		CreatedBy: actor.Actor(),
	}
	evt, err := model.NewOutboxEvent(model.EventRecordCreate, model.RecordEventPayload{Actor: actor.Actor()})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := s.repo.Create(ctx, record, evt); err != nil {
		if stderrors.Is(err, repository.ErrConflict) {
			return nil, errors.BadRequest(fmt.Sprintf("%s #%d already exists", req.Kind, req.SeqID), err)
		}
		return nil, errors.Remote("failed to save record", err)
	}

	s.logger.Info("Record created",
		"record_id", record.ID.String(), "kind", string(record.Kind), "seq_id", record.SeqID, "actor", record.CreatedBy)
	return record, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	record, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return record, nil
}

func (s *Service) GetBySeq(ctx context.Context, kind model.RecordKind, seq int64) (*model.Record, error) {
	if !kind.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("unknown record kind %q", kind), nil)
	}
	if seq <= 0 {
		return nil, errors.BadRequest("sequence id must be positive", nil)
	}
	record, err := s.repo.GetBySeq(ctx, kind, seq)
	if err != nil {
		return nil, lookupError(err)
	}
	return record, nil
}

// Resolve fetches a record by id, or by (kind, seq) when no id is given.
func (s *Service) Resolve(ctx context.Context, ref model.RecordRef) (*model.Record, error) {
	if ref.IsZero() {
		return nil, errors.MissingSelection("select a record first")
	}
	if ref.ID != uuid.Nil {
		return s.Get(ctx, ref.ID)
	}
	return s.GetBySeq(ctx, ref.Kind, ref.SeqID)
}

// List returns records of one visit date, optionally of one kind.
func (s *Service) List(ctx context.Context, date string, kind model.RecordKind, limit int) ([]*model.Record, error) {
	filter := model.RecordFilter{Kind: kind, Limit: limit}
	if kind != "" && !kind.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("unknown record kind %q", kind), nil)
	}
	if date != "" {
		d, err := time.Parse(dateLayout, date)
		if err != nil {
			return nil, errors.BadRequest("date must be YYYY-MM-DD", err)
		}
		filter.VisitDate = &d
	}

	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, errors.Remote("failed to list records", err)
	}
	if records == nil {
		records = []*model.Record{}
	}
	return records, nil
}

// Update merges fields into the stored record; a nil value removes a key.
// The merged form must still satisfy the kind's required fields.
func (s *Service) Update(ctx context.Context, actor session.User, id uuid.UUID, req model.UpdateRecordRequest) (*model.Record, error) {
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := make(model.JSONMap, len(record.Fields)+len(req.Fields))
	for k, v := range record.Fields {
		merged[k] = v
	}
	for k, v := range req.Fields {
		if v == nil {
			delete(merged, k)
			continue
		}
		merged[k] = v
	}
	if err := ValidateFields(record.Kind, merged); err != nil {
		return nil, err
	}
	if req.VisitDate != "" {
		visit, err := s.visitDate(req.VisitDate)
		if err != nil {
			return nil, err
		}
		record.VisitDate = visit
	}
	changed := event.ChangedKeys(record.Fields, merged)
	record.Fields = merged

	evt, err := model.NewOutboxEvent(model.EventRecordUpdate, model.RecordEventPayload{
		RecordID: record.ID,
		Kind:     record.Kind,
		SeqID:    record.SeqID,
		Actor:    actor.Actor(),
		Changed:  changed,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	if err := s.repo.Update(ctx, record, evt); err != nil {
		return nil, lookupError(err)
	}
	return record, nil
}

// Delete removes a record. Only administrators may delete.
func (s *Service) Delete(ctx context.Context, actor session.User, id uuid.UUID) error {
	if !actor.Admin {
		return errors.Forbidden("only administrators can delete records")
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	evt, err := model.NewOutboxEvent(model.EventRecordDelete, model.RecordEventPayload{
		RecordID: record.ID,
		Kind:     record.Kind,
		SeqID:    record.SeqID,
		Actor:    actor.Actor(),
	})
	if err != nil {
		return errors.Internal(err)
	}
	if err := s.repo.Delete(ctx, id, evt); err != nil {
		return lookupError(err)
	}

	s.logger.Info("Record deleted", "record_id", id.String(), "actor", actor.Actor())
	return nil
}

func (s *Service) visitDate(raw string) (time.Time, error) {
	if raw == "" {
		now := s.now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, errors.BadRequest("visit_date must be YYYY-MM-DD", err)
	}
	return d, nil
}

func lookupError(err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NotFound("record", err)
	}
	return errors.Remote("failed to load record", err)
}

// ValidateFields checks the form fields each kind cannot be saved without.
func ValidateFields(kind model.RecordKind, fields map[string]interface{}) error {
	var missing []string
	if fieldmap.Text(fields, fieldmap.PatientName) == "" {
		missing = append(missing, "patient name")
	}

	switch kind {
	case model.RecordKindPatient:
		if fieldmap.Text(fields, fieldmap.Phone) == "" {
			missing = append(missing, "phone number")
		}
	case model.RecordKindLab:
		hasTest := false
		for n := 1; n <= fieldmap.MaxSlots; n++ {
			if fieldmap.SlotText(fields, fieldmap.LabTestSlot, n) != "" {
				hasTest = true
				break
			}
		}
		if !hasTest {
			missing = append(missing, "at least one lab test")
		}
	case model.RecordKindOperation:
		if fieldmap.Text(fields, fieldmap.Procedure) == "" {
			missing = append(missing, "procedure")
		}
	}

	if len(missing) > 0 {
		return errors.Validation("missing required fields: "+strings.Join(missing, ", "), nil)
	}
	return nil
}
