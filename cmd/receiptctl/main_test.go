package main

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk-api/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", t.TempDir()}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadRecord_Envelope(t *testing.T) {
	path := writeFile(t, "rec.json", `{"kind":"lab","seq_id":7,"visit_date":"2024-05-09","fields":{"PATIENT NAME":"Asha Rao"}}`)

	rec, err := readRecord(path)
	require.NoError(t, err)
	assert.Equal(t, model.RecordKindLab, rec.Kind)
	assert.Equal(t, int64(7), rec.SeqID)
	assert.Equal(t, "2024-05-09", rec.VisitDate.Format("2006-01-02"))
	assert.Equal(t, "Asha Rao", rec.Fields["PATIENT NAME"])
	assert.NotEqual(t, uuid.Nil, rec.ID)
}

func TestReadRecord_BareFields(t *testing.T) {
	path := writeFile(t, "rec.json", `{"PATIENT NAME":"Asha Rao","CONSULTATION FEE":300}`)

	rec, err := readRecord(path)
	require.NoError(t, err)
	assert.Equal(t, model.RecordKindPatient, rec.Kind)
	assert.Equal(t, "Asha Rao", rec.Fields["PATIENT NAME"])
}

func TestReadRecord_Errors(t *testing.T) {
	_, err := readRecord(writeFile(t, "bad.json", `{"kind":"ward","fields":{}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind is not a known record kind")

	_, err = readRecord(writeFile(t, "bad.json", `{"fields":{},"visit_date":"09/05/2024"}`))
	assert.Error(t, err)

	_, err = readRecord(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestParseVisitDate(t *testing.T) {
	today := time.Date(2024, 5, 9, 14, 5, 0, 0, time.UTC)

	got, err := parseVisitDate("", today)
	require.NoError(t, err)
	assert.Equal(t, today, got)

	got, err = parseVisitDate("2024-01-31", today)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", got.Format("2006-01-02"))

	_, err = parseVisitDate("31/01/2024", today)
	assert.ErrorContains(t, err, "invalid visit_date")
}

func TestPageRecorder_Save(t *testing.T) {
	rec := &pageRecorder{pages: []capturedPage{
		{region: "receipt-cash", img: imaging.New(800, 400, color.White)},
		{region: "receipt-lab", img: imaging.New(200, 100, color.White)},
	}}
	dir := filepath.Join(t.TempDir(), "pages")

	paths, err := rec.save(dir, 400)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, filepath.Join(dir, "01-receipt-cash.png"), paths[0])

	first, err := imaging.Open(paths[0])
	require.NoError(t, err)
	assert.Equal(t, 400, first.Bounds().Dx())
	assert.Equal(t, 200, first.Bounds().Dy())

	second, err := imaging.Open(paths[1])
	require.NoError(t, err)
	assert.Equal(t, 200, second.Bounds().Dx())
}

func TestRenderCommand(t *testing.T) {
	record := writeFile(t, "rec.json", `{"fields":{"PATIENT NAME":"Asha Rao","CONSULTATION FEE":300}}`)
	dir := t.TempDir()
	pdf := filepath.Join(dir, "out.pdf")

	out, err := run(t, "render", record, "--types", "cash", "--out", pdf, "--png", filepath.Join(dir, "png"), "--png-width", "600")
	require.NoError(t, err)
	assert.Contains(t, out, "out.pdf (1 pages)")

	data, err := os.ReadFile(pdf)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	img, err := imaging.Open(filepath.Join(dir, "png", "01-receipt-cash.png"))
	require.NoError(t, err)
	assert.Equal(t, 600, img.Bounds().Dx())
}

func TestRenderCommand_UnknownType(t *testing.T) {
	record := writeFile(t, "rec.json", `{"PATIENT NAME":"Asha Rao"}`)

	_, err := run(t, "render", record, "--types", "cash,ward")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ward")
}

func TestPhoneCommand(t *testing.T) {
	out, err := run(t, "phone", "098765 43210", "+91 98765 43210")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "098765 43210\t919876543210", lines[0])
	assert.Equal(t, "+91 98765 43210\t919876543210", lines[1])
}

func TestPhoneCommand_Invalid(t *testing.T) {
	out, err := run(t, "phone", "12345")
	require.Error(t, err)
	assert.Contains(t, out, "invalid")
}

func TestPhoneCommand_ShareLink(t *testing.T) {
	out, err := run(t, "phone", "9876543210", "--name", "Asha Rao", "--types", "cash")
	require.NoError(t, err)
	assert.Contains(t, out, "https://api.whatsapp.com/send?phone=919876543210&text=")
	assert.NotContains(t, out, "+")
}
