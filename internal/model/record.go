package model

import (
	"time"

	"github.com/google/uuid"
)

// RecordKind separates the independent sequential id spaces.
type RecordKind string

const (
	RecordKindPatient      RecordKind = "patient"
	RecordKindPrescription RecordKind = "prescription"
	RecordKindLab          RecordKind = "lab"
	RecordKindOperation    RecordKind = "operation"
)

// RecordKinds lists every kind in display order.
var RecordKinds = []RecordKind{
	RecordKindPatient,
	RecordKindPrescription,
	RecordKindLab,
	RecordKindOperation,
}

// Valid reports whether k is a known kind.
func (k RecordKind) Valid() bool {
	for _, known := range RecordKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Record is one loosely keyed visit, prescription, lab order or operation.
// Fields carries whatever keys the entry form produced; the same logical
// field may appear under several spellings.
type Record struct {
	Base
	Kind      RecordKind `json:"kind" db:"kind"`
	SeqID     int64      `json:"seq_id" db:"seq_id"`
	VisitDate time.Time  `json:"visit_date" db:"visit_date"`
	Fields    JSONMap    `json:"fields" db:"fields"`
	CreatedBy string     `json:"created_by" db:"created_by"`
}

// RecordFilter narrows List queries. Zero values are ignored.
type RecordFilter struct {
	Kind      RecordKind
	VisitDate *time.Time
	Limit     int
}

// CreateRecordRequest is the payload accepted by POST /records.
type CreateRecordRequest struct {
	Kind      RecordKind             `json:"kind" binding:"required,recordkind"`
	SeqID     int64                  `json:"seq_id" binding:"omitempty,min=1"`
	VisitDate string                 `json:"visit_date" binding:"omitempty,datetime=2006-01-02"`
	Fields    map[string]interface{} `json:"fields" binding:"required"`
}

// UpdateRecordRequest merges Fields into the stored record. A nil value
// removes the key.
type UpdateRecordRequest struct {
	VisitDate string                 `json:"visit_date" binding:"omitempty,datetime=2006-01-02"`
	Fields    map[string]interface{} `json:"fields" binding:"required"`
}

// RecordRef addresses a record either by id or by (kind, seq).
type RecordRef struct {
	ID    uuid.UUID
	Kind  RecordKind
	SeqID int64
}

// IsZero reports whether the reference selects nothing.
func (r RecordRef) IsZero() bool {
	return r.ID == uuid.Nil && r.SeqID == 0
}
