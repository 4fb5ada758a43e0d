// Package delivery hands finished receipt documents to the viewer, the
// disk and the patient's messaging app.
package delivery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/pkg/logger"
	"github.com/jwalitptl/frontdesk-api/pkg/metrics"
)

// EventRecorder stores outbox events.
type EventRecorder interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
}

// ShareRequest describes one share attempt.
type ShareRequest struct {
	RecordID uuid.UUID
	Subject  string
	Phone    string
	Email    string
	Types    []model.ReceiptType
	Document []byte
	Actor    string
}

// ShareResult is returned to the client, which opens Link itself.
type ShareResult struct {
	Filename    string `json:"filename"`
	SavedPath   string `json:"saved_path,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	Phone       string `json:"phone"`
	Message     string `json:"message"`
	Link        string `json:"link"`
	Emailed     bool   `json:"emailed"`
	// EmailError is set when the optional e-mail copy could not be sent.
	EmailError string `json:"email_error,omitempty"`
}

type Config struct {
	CountryCode     string
	NationalLength  int
	SettleDelay     time.Duration
	WhatsAppBaseURL string
}

type Dispatcher struct {
	saver     *SilentSaver
	store     *DocumentStore
	previewer Previewer
	composer  *Composer
	phones    PhoneNormalizer
	mailer    Mailer
	events    EventRecorder
	config    Config
	logger    *logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
	wait      func(ctx context.Context, d time.Duration) error
}

// NewDispatcher wires the delivery paths. mailer and events may be nil.
func NewDispatcher(
	saver *SilentSaver,
	store *DocumentStore,
	previewer Previewer,
	composer *Composer,
	mailer Mailer,
	events EventRecorder,
	config Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		saver:     saver,
		store:     store,
		previewer: previewer,
		composer:  composer,
		phones:    NewPhoneNormalizer(config.CountryCode, config.NationalLength),
		mailer:    mailer,
		events:    events,
		config:    config,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
		wait:      settle,
	}
}

// Print hands the document to the previewer.
func (d *Dispatcher) Print(ctx context.Context, filename string, data []byte) (*Preview, error) {
	p, err := d.previewer.Preview(ctx, filename, data)
	d.observe("print", err)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Share saves the document, then builds the messaging link. The first
// failing step ends the attempt; a file already saved stays on disk.
func (d *Dispatcher) Share(ctx context.Context, req ShareRequest) (res *ShareResult, err error) {
	defer func() { d.observe("share", err) }()

	if len(req.Types) == 0 {
		return nil, fmt.Errorf("no receipt types to share")
	}
	if len(req.Document) == 0 {
		return nil, fmt.Errorf("empty document")
	}

	res = &ShareResult{Filename: Filename(req.Subject, req.Types, d.now())}

	if d.saver != nil && d.saver.Enabled() {
		path, saveErr := d.saver.Save(ctx, res.Filename, req.Document)
		if saveErr == nil {
			res.SavedPath = path
		} else {
			d.logger.Warn("Silent save failed, falling back to download",
				"filename", res.Filename, "error", saveErr.Error())
		}
	}
	if res.SavedPath == "" {
		doc := d.store.Put(res.Filename, req.Document)
		res.DownloadURL = d.store.URL(doc.ID, true)
	}

	if err := d.wait(ctx, d.config.SettleDelay); err != nil {
		return nil, err
	}

	res.Phone, err = d.phones.Normalize(req.Phone)
	if err != nil {
		return nil, err
	}

	res.Message, err = d.composer.Compose(req.Subject, req.Types)
	if err != nil {
		return nil, err
	}

	res.Link, err = WhatsAppLink(d.config.WhatsAppBaseURL, res.Phone, res.Message)
	if err != nil {
		return nil, err
	}

	if email := strings.TrimSpace(req.Email); email != "" && d.mailer != nil {
		subject := describe(req.Types)
		subject = strings.ToUpper(subject[:1]) + subject[1:]
		mailErr := d.mailer.Send(ctx, email, subject, res.Message, Attachment{
			Filename:    res.Filename,
			ContentType: "application/pdf",
			Data:        req.Document,
		})
		if mailErr != nil {
			// The link is already built; a lost e-mail copy does not undo it.
			d.logger.Warn("E-mail copy failed", "filename", res.Filename, "error", mailErr.Error())
			res.EmailError = "failed to send e-mail copy"
		} else {
			res.Emailed = true
		}
	}

	d.recordShared(ctx, req, res)
	return res, nil
}

// recordShared is best effort; a lost event never fails the share.
func (d *Dispatcher) recordShared(ctx context.Context, req ShareRequest, res *ShareResult) {
	if d.events == nil {
		return
	}
	event, err := model.NewOutboxEvent(model.EventReceiptShared, model.ReceiptSharedPayload{
		RecordID:  req.RecordID,
		Types:     req.Types,
		Filename:  res.Filename,
		SavedPath: res.SavedPath,
		Emailed:   res.Emailed,
		Actor:     req.Actor,
	})
	if err == nil {
		err = d.events.Create(ctx, event)
	}
	if err != nil {
		d.logger.Error(err, "Failed to record share event", "record_id", req.RecordID.String())
	}
}

func (d *Dispatcher) observe(path string, err error) {
	if d.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	d.metrics.Deliveries.WithLabelValues(path, status).Inc()
}

// settle pauses for d unless ctx ends first.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
