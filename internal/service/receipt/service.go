// Package receipt runs the receipt pipeline: map, render, snapshot,
// assemble and deliver.
package receipt

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/jwalitptl/frontdesk-api/internal/delivery"
	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/assemble"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/fieldmap"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/render"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/snapshot"
	"github.com/jwalitptl/frontdesk-api/internal/session"
	"github.com/jwalitptl/frontdesk-api/pkg/errors"
	"github.com/jwalitptl/frontdesk-api/pkg/logger"
	"github.com/jwalitptl/frontdesk-api/pkg/metrics"
)

var ErrNoReceiptTypes = stderrors.New("no receipt types selected")

// RecordResolver finds the record a receipt is printed for.
type RecordResolver interface {
	Resolve(ctx context.Context, ref model.RecordRef) (*model.Record, error)
}

// Rasterizer captures one region of a rendered page.
type Rasterizer interface {
	Snapshot(ctx context.Context, page *snapshot.Page, regionID string) (image.Image, error)
}

// Dispatcher delivers finished documents.
type Dispatcher interface {
	Print(ctx context.Context, filename string, data []byte) (*delivery.Preview, error)
	Share(ctx context.Context, req delivery.ShareRequest) (*delivery.ShareResult, error)
}

// Built is an assembled document ready for delivery.
type Built struct {
	Record   *model.Record
	Types    []model.ReceiptType
	Subject  string
	Filename string
	Document *assemble.Document
}

// ShareOptions override the contact details stored on the record.
type ShareOptions struct {
	Phone string
	Email string
}

type Service struct {
	records    RecordResolver
	renderer   render.Renderer
	rasterizer Rasterizer
	dispatcher Dispatcher
	logger     *logger.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

func NewService(
	records RecordResolver,
	renderer render.Renderer,
	rasterizer Rasterizer,
	dispatcher Dispatcher,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Service {
	return &Service{
		records:    records,
		renderer:   renderer,
		rasterizer: rasterizer,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		now:        time.Now,
	}
}

// PreviewHTML renders the selected receipts for on-screen display.
func (s *Service) PreviewHTML(ctx context.Context, ref model.RecordRef, types []model.ReceiptType) ([]byte, error) {
	types, err := checkTypes(types)
	if err != nil {
		return nil, err
	}
	record, err := s.records.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	doc, err := s.render(record, types)
	if err != nil {
		return nil, err
	}
	return doc.HTML, nil
}

// Build produces one page per selected type, in selection order. Pages are
// captured one at a time; the first failure abandons the document.
func (s *Service) Build(ctx context.Context, ref model.RecordRef, types []model.ReceiptType) (built *Built, err error) {
	types, err = checkTypes(types)
	if err != nil {
		return nil, err
	}
	record, err := s.records.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	mode := "single"
	if len(types) > 1 {
		mode = "report"
	}
	defer func(start time.Time) {
		if s.metrics != nil && err == nil {
			s.metrics.PipelineLatency.WithLabelValues(mode).Observe(time.Since(start).Seconds())
		}
	}(time.Now())

	doc, err := s.render(record, types)
	if err != nil {
		return nil, err
	}
	page, err := snapshot.Parse(doc.HTML)
	if err != nil {
		s.failed("snapshot")
		return nil, errors.Internal(err)
	}

	now := s.now()
	subject := fieldmap.Text(record.Fields, fieldmap.PatientName)
	builder := assemble.NewBuilder(documentTitle(subject, types), now)
	for _, t := range types {
		img, err := s.rasterizer.Snapshot(ctx, page, t.RegionID())
		if err != nil {
			s.failed("snapshot")
			s.logger.Error(err, "Failed to capture receipt", "record_id", record.ID.String(), "receipt_type", string(t))
			return nil, captureError(t, err)
		}
		if err := builder.AddPage(img); err != nil {
			s.failed("assemble")
			return nil, errors.Internal(fmt.Errorf("failed to add %s page: %w", t, err))
		}
		if s.metrics != nil {
			s.metrics.ReceiptPagesRendered.WithLabelValues(string(t)).Inc()
		}
	}
	assembled, err := builder.Finish()
	if err != nil {
		s.failed("assemble")
		return nil, errors.Internal(err)
	}

	return &Built{
		Record:   record,
		Types:    types,
		Subject:  subject,
		Filename: delivery.Filename(subject, types, now),
		Document: assembled,
	}, nil
}

// Print builds the document and opens it in the previewer.
func (s *Service) Print(ctx context.Context, ref model.RecordRef, types []model.ReceiptType) (*delivery.Preview, error) {
	built, err := s.Build(ctx, ref, types)
	if err != nil {
		return nil, err
	}
	preview, err := s.dispatcher.Print(ctx, built.Filename, built.Document.Bytes)
	if err != nil {
		s.failed("deliver")
		return nil, errors.Remote("failed to open preview", err)
	}
	return preview, nil
}

// Share builds the document and runs the share path for the record's
// patient.
func (s *Service) Share(ctx context.Context, actor session.User, ref model.RecordRef, types []model.ReceiptType, opts ShareOptions) (*delivery.ShareResult, error) {
	built, err := s.Build(ctx, ref, types)
	if err != nil {
		return nil, err
	}

	phone := strings.TrimSpace(opts.Phone)
	if phone == "" {
		phone = fieldmap.Text(built.Record.Fields, fieldmap.Phone)
	}
	res, err := s.dispatcher.Share(ctx, delivery.ShareRequest{
		RecordID: built.Record.ID,
		Subject:  built.Subject,
		Phone:    phone,
		Email:    strings.TrimSpace(opts.Email),
		Types:    built.Types,
		Document: built.Document.Bytes,
		Actor:    actor.Actor(),
	})
	if err != nil {
		s.failed("deliver")
		if stderrors.Is(err, delivery.ErrInvalidPhone) {
			return nil, errors.Validation("invalid phone number", err)
		}
		if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.Internal(err)
		}
		return nil, errors.Remote("failed to share receipt", err)
	}

	s.logger.Info("Receipt shared",
		"record_id", built.Record.ID.String(), "filename", res.Filename, "pages", built.Document.Pages, "actor", actor.Actor())
	return res, nil
}

func (s *Service) render(record *model.Record, types []model.ReceiptType) (*render.Document, error) {
	vms := make([]fieldmap.ViewModel, 0, len(types))
	for _, t := range types {
		vm, err := fieldmap.MapRecord(record, t)
		if err != nil {
			return nil, errors.BadRequest(err.Error(), err)
		}
		vms = append(vms, vm)
	}
	doc, err := s.renderer.Render(vms...)
	if err != nil {
		s.failed("render")
		return nil, errors.Internal(err)
	}
	return doc, nil
}

func (s *Service) failed(stage string) {
	if s.metrics != nil {
		s.metrics.PipelineFailures.WithLabelValues(stage).Inc()
	}
}

// checkTypes rejects an empty or unknown selection and drops repeats.
func checkTypes(types []model.ReceiptType) ([]model.ReceiptType, error) {
	if len(types) == 0 {
		e := errors.MissingSelection("select at least one receipt type")
		e.Err = ErrNoReceiptTypes
		return nil, e
	}
	seen := make(map[model.ReceiptType]bool, len(types))
	out := make([]model.ReceiptType, 0, len(types))
	for _, t := range types {
		if !t.Valid() {
			return nil, errors.BadRequest(fmt.Sprintf("unknown receipt type %q", t), nil)
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out, nil
}

func captureError(t model.ReceiptType, err error) error {
	msg := fmt.Sprintf("failed to capture %s", strings.ToLower(t.Title()))
	if stderrors.Is(err, snapshot.ErrRegionNotFound) {
		msg = fmt.Sprintf("%s is not on the page", t.Title())
	}
	return &errors.AppError{Code: errors.ErrInternal, Message: msg, Err: err}
}

func documentTitle(subject string, types []model.ReceiptType) string {
	titles := make([]string, len(types))
	for i, t := range types {
		titles[i] = t.Title()
	}
	title := strings.Join(titles, ", ")
	if subject != "" {
		title = subject + " - " + title
	}
	return title
}
