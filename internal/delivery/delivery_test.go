package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/pkg/logger"
)

type fakeRecorder struct {
	events []*model.OutboxEvent
	err    error
}

func (f *fakeRecorder) Create(_ context.Context, event *model.OutboxEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeMailer struct {
	to         string
	subject    string
	body       string
	attachment Attachment
	err        error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string, attachment Attachment) error {
	f.to, f.subject, f.body, f.attachment = to, subject, body, attachment
	return f.err
}

var (
	_ EventRecorder = (*fakeRecorder)(nil)
	_ Mailer        = (*fakeMailer)(nil)
)

var fixedNow = time.Date(2024, 5, 9, 14, 5, 30, 0, time.UTC)

func newTestDispatcher(t *testing.T, saver *SilentSaver, mailer Mailer, events EventRecorder) (*Dispatcher, *DocumentStore) {
	t.Helper()
	composer, err := NewComposer("Netra Eye Hospital")
	require.NoError(t, err)
	store := NewDocumentStore(time.Minute, "http://localhost:8080")
	d := NewDispatcher(saver, store, NewStorePreviewer(store), composer, mailer, events, Config{
		CountryCode:    "91",
		NationalLength: 10,
		SettleDelay:    500 * time.Millisecond,
	}, logger.Nop(), nil)
	d.now = func() time.Time { return fixedNow }
	d.wait = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return d, store
}

func TestShare_CashScenario(t *testing.T) {
	dir := t.TempDir()
	saver, err := NewSilentSaver(true, dir)
	require.NoError(t, err)
	events := &fakeRecorder{}
	d, store := newTestDispatcher(t, saver, nil, events)

	recordID := uuid.New()
	res, err := d.Share(context.Background(), ShareRequest{
		RecordID: recordID,
		Subject:  "Asha Rao",
		Phone:    "09876543210",
		Types:    []model.ReceiptType{model.ReceiptCash},
		Document: []byte("%PDF-1.3 test"),
		Actor:    "reception",
	})
	require.NoError(t, err)

	assert.Equal(t, "919876543210", res.Phone)
	assert.True(t, strings.HasPrefix(res.Message, "Dear Asha Rao, thank you for your payment"))
	assert.Equal(t, "Asha_Rao_cash_20240509-140530.pdf", res.Filename)
	assert.Equal(t, filepath.Join(dir, res.Filename), res.SavedPath)
	assert.Empty(t, res.DownloadURL)
	assert.Equal(t, 0, store.Len())

	saved, err := os.ReadFile(res.SavedPath)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 test", string(saved))

	u, err := url.Parse(res.Link)
	require.NoError(t, err)
	assert.Equal(t, "api.whatsapp.com", u.Host)
	assert.Equal(t, "919876543210", u.Query().Get("phone"))
	assert.Equal(t, res.Message, u.Query().Get("text"))
	assert.NotContains(t, res.Link, "+")

	require.Len(t, events.events, 1)
	assert.Equal(t, model.EventReceiptShared, events.events[0].EventType)
	var payload model.ReceiptSharedPayload
	require.NoError(t, json.Unmarshal(events.events[0].Payload, &payload))
	assert.Equal(t, recordID, payload.RecordID)
	assert.NotContains(t, string(events.events[0].Payload), "9876543210")
}

func TestShare_FallsBackToDownload(t *testing.T) {
	saver, err := NewSilentSaver(false, "")
	require.NoError(t, err)
	d, store := newTestDispatcher(t, saver, nil, nil)

	res, err := d.Share(context.Background(), ShareRequest{
		Subject:  "Asha Rao",
		Phone:    "9876543210",
		Types:    []model.ReceiptType{model.ReceiptLab, model.ReceiptExternalLab},
		Document: []byte("pdf"),
	})
	require.NoError(t, err)

	assert.Empty(t, res.SavedPath)
	assert.Contains(t, res.DownloadURL, "/api/v1/documents/")
	assert.True(t, strings.HasSuffix(res.DownloadURL, "?download=1"))
	assert.Equal(t, 1, store.Len())
	assert.Equal(t, "Asha_Rao_report-lab-vlab_20240509-140530.pdf", res.Filename)
	assert.Contains(t, res.Message, "lab report and external lab report")
}

func TestShare_InvalidPhoneKeepsSavedFile(t *testing.T) {
	dir := t.TempDir()
	saver, err := NewSilentSaver(true, dir)
	require.NoError(t, err)
	events := &fakeRecorder{}
	d, _ := newTestDispatcher(t, saver, nil, events)

	res, err := d.Share(context.Background(), ShareRequest{
		Subject:  "Asha Rao",
		Phone:    "12345",
		Types:    []model.ReceiptType{model.ReceiptCash},
		Document: []byte("pdf"),
	})
	assert.ErrorIs(t, err, ErrInvalidPhone)
	assert.Nil(t, res)
	assert.Empty(t, events.events)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Asha_Rao_cash_20240509-140530.pdf", entries[0].Name())
}

func TestShare_CancelledDuringSettle(t *testing.T) {
	saver, _ := NewSilentSaver(false, "")
	d, _ := newTestDispatcher(t, saver, nil, nil)
	d.wait = settle

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Share(ctx, ShareRequest{
		Subject:  "Asha Rao",
		Phone:    "9876543210",
		Types:    []model.ReceiptType{model.ReceiptCash},
		Document: []byte("pdf"),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestShare_Email(t *testing.T) {
	saver, _ := NewSilentSaver(false, "")
	mailer := &fakeMailer{}
	d, _ := newTestDispatcher(t, saver, mailer, nil)

	res, err := d.Share(context.Background(), ShareRequest{
		Subject:  "Asha Rao",
		Phone:    "9876543210",
		Email:    "asha@example.com",
		Types:    []model.ReceiptType{model.ReceiptLab},
		Document: []byte("pdf"),
	})
	require.NoError(t, err)
	assert.True(t, res.Emailed)
	assert.Equal(t, "asha@example.com", mailer.to)
	assert.Equal(t, "Lab report", mailer.subject)
	assert.Equal(t, res.Filename, mailer.attachment.Filename)

	mailer.err = errors.New("smtp down")
	res, err = d.Share(context.Background(), ShareRequest{
		Subject:  "Asha Rao",
		Phone:    "9876543210",
		Email:    "asha@example.com",
		Types:    []model.ReceiptType{model.ReceiptLab},
		Document: []byte("pdf"),
	})
	require.NoError(t, err)
	assert.False(t, res.Emailed)
	assert.NotEmpty(t, res.EmailError)
	assert.Contains(t, res.Link, "phone=919876543210")
}

func TestShare_EventFailureIsIgnored(t *testing.T) {
	saver, _ := NewSilentSaver(false, "")
	d, _ := newTestDispatcher(t, saver, nil, &fakeRecorder{err: errors.New("db down")})

	_, err := d.Share(context.Background(), ShareRequest{
		Subject:  "Asha Rao",
		Phone:    "9876543210",
		Types:    []model.ReceiptType{model.ReceiptCash},
		Document: []byte("pdf"),
	})
	assert.NoError(t, err)
}

func TestPrint_StorePreviewer(t *testing.T) {
	saver, _ := NewSilentSaver(false, "")
	d, store := newTestDispatcher(t, saver, nil, nil)

	p, err := d.Print(context.Background(), "Asha_Rao_cash.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.False(t, p.Shell)

	id := p.URL[strings.LastIndex(p.URL, "/")+1:]
	doc, ok := store.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Asha_Rao_cash.pdf", doc.Filename)
	assert.Equal(t, []byte("pdf"), doc.Bytes)
}

func TestShellPreviewer(t *testing.T) {
	var gotName, gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotName = r.Header.Get("X-Filename")
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		if string(gotBody) == "bad" {
			_, _ = w.Write([]byte(`{"success": false, "error": "viewer closed"}`))
			return
		}
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	p := NewShellPreviewer(srv.URL, time.Second, nil)
	preview, err := p.Preview(context.Background(), "a.pdf", []byte("pdf"))
	require.NoError(t, err)
	assert.True(t, preview.Shell)
	assert.Equal(t, "a.pdf", gotName)
	assert.Equal(t, "application/pdf", gotType)
	assert.Equal(t, "pdf", string(gotBody))

	_, err = p.Preview(context.Background(), "a.pdf", []byte("bad"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viewer closed")
}

func TestWhatsAppLink(t *testing.T) {
	link, err := WhatsAppLink("", "919876543210", "Dear Asha Rao, 50% & more?")
	require.NoError(t, err)
	assert.Equal(t,
		"https://api.whatsapp.com/send?phone=919876543210&text=Dear%20Asha%20Rao%2C%2050%25%20%26%20more%3F",
		link)

	_, err = WhatsAppLink("", "+91 98765", "x")
	assert.ErrorIs(t, err, ErrInvalidPhone)
	_, err = WhatsAppLink("not a url", "919876543210", "x")
	assert.Error(t, err)
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "Asha_Rao_cash_20240102-030405.pdf",
		Filename("  Asha   Rao ", []model.ReceiptType{model.ReceiptCash}, ts))
	assert.Equal(t, "Patient_lab_20240102-030405.pdf",
		Filename("../..", []model.ReceiptType{model.ReceiptLab}, ts))
	assert.Equal(t, "Dr_S_K_Iyer_receipt_20240102-030405.pdf",
		Filename("Dr. S.K. Iyer", nil, ts))
}

func TestComposer(t *testing.T) {
	c, err := NewComposer("Netra Eye Hospital")
	require.NoError(t, err)

	for _, rt := range model.ReceiptTypes {
		msg, err := c.Compose("Asha Rao", []model.ReceiptType{rt})
		require.NoError(t, err, rt)
		assert.True(t, strings.HasPrefix(msg, "Dear Asha Rao, "), rt)
		assert.Contains(t, msg, "Netra Eye Hospital", rt)
	}

	msg, err := c.Compose("", []model.ReceiptType{model.ReceiptCash, model.ReceiptPrescription, model.ReceiptLab})
	require.NoError(t, err)
	assert.Equal(t, "Dear Patient, please find your cash receipt, prescription and lab report from Netra Eye Hospital attached.", msg)

	_, err = c.Compose("Asha Rao", nil)
	assert.Error(t, err)
}

func TestSilentSaver_RejectsPaths(t *testing.T) {
	saver, err := NewSilentSaver(true, t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../escape.pdf", "a/b.pdf", "..", ""} {
		_, err := saver.Save(context.Background(), name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidFilename, name)
	}

	disabled, _ := NewSilentSaver(false, "")
	_, err = disabled.Save(context.Background(), "a.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrSaveDisabled)
}
