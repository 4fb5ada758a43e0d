package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/fieldmap"
)

func newTestRenderer(t *testing.T) *TemplateRenderer {
	t.Helper()
	r, err := New(Options{
		Letterhead: Letterhead{
			Name:    "Netra Eye Hospital",
			Address: "12 MG Road, Pune",
			Phone:   "020 2612 3456",
		},
		PrimaryColor: "oklch(0.45 0.12 260)",
		Now:          func() time.Time { return time.Date(2024, 5, 9, 10, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return r
}

func mapped(t *testing.T, fields map[string]interface{}, rt model.ReceiptType) fieldmap.ViewModel {
	t.Helper()
	vm, err := fieldmap.Map(fields, rt)
	require.NoError(t, err)
	return vm
}

func TestRender_EveryTypeHasItsRegion(t *testing.T) {
	r := newTestRenderer(t)
	for _, rt := range model.ReceiptTypes {
		doc, err := r.Render(mapped(t, nil, rt))
		require.NoError(t, err, rt)
		assert.Contains(t, string(doc.HTML), `id="receipt-`+string(rt)+`"`)
		assert.Contains(t, string(doc.HTML), rt.Title())
		assert.Equal(t, []model.ReceiptType{rt}, doc.Regions)
	}
}

func TestRender_FullReportKeepsOrder(t *testing.T) {
	r := newTestRenderer(t)
	fields := map[string]interface{}{"PATIENT NAME": "Asha Rao", "LAB TEST 1": "CBC", "AMOUNT 1": 150}

	doc, err := r.Render(mapped(t, fields, model.ReceiptLab), mapped(t, fields, model.ReceiptExternalLab))
	require.NoError(t, err)

	html := string(doc.HTML)
	lab := strings.Index(html, `id="receipt-lab"`)
	vlab := strings.Index(html, `id="receipt-vlab"`)
	require.NotEqual(t, -1, lab)
	require.NotEqual(t, -1, vlab)
	assert.Less(t, lab, vlab)
	assert.Equal(t, []model.ReceiptType{model.ReceiptLab, model.ReceiptExternalLab}, doc.Regions)
}

func TestRender_RejectsDuplicateType(t *testing.T) {
	r := newTestRenderer(t)
	vm := mapped(t, nil, model.ReceiptCash)
	_, err := r.Render(vm, vm)
	assert.Error(t, err)

	_, err = r.Render()
	assert.Error(t, err)
}

func TestRender_CashContent(t *testing.T) {
	r := newTestRenderer(t)
	fields := map[string]interface{}{
		"PATIENT NAME":     "Asha Rao",
		"DATE":             "2024-05-09",
		"PARTICULARS 1":    "Consultation",
		"AMOUNT 1":         150,
		"PARTICULARS 3":    "Dilation",
		"AMOUNT 3":         50,
		"DISCOUNT PERCENT": 10,
	}
	doc, err := r.Render(mapped(t, fields, model.ReceiptCash))
	require.NoError(t, err)

	html := string(doc.HTML)
	assert.Contains(t, html, "Asha Rao")
	assert.Contains(t, html, "09 May 2024")
	assert.Contains(t, html, "Rs. 150.00")
	assert.Contains(t, html, "Rs. 180.00")
	assert.Contains(t, html, "(10%)")
	assert.Contains(t, html, "<td>3</td><td>Dilation</td>")
	assert.NotContains(t, html, "<td>2</td>")
	assert.Contains(t, html, "oklch(0.45 0.12 260)")
}

func TestRender_EscapesFieldValues(t *testing.T) {
	r := newTestRenderer(t)
	doc, err := r.Render(mapped(t, map[string]interface{}{"PATIENT NAME": "<script>x</script>"}, model.ReceiptCash))
	require.NoError(t, err)
	assert.NotContains(t, string(doc.HTML), "<script>")
}

func TestRender_OptionalSections(t *testing.T) {
	r := newTestRenderer(t)

	doc, err := r.Render(mapped(t, nil, model.ReceiptReadings))
	require.NoError(t, err)
	assert.NotContains(t, string(doc.HTML), "Near Vision")

	doc, err = r.Render(mapped(t, map[string]interface{}{"RE ADD": "+2.00"}, model.ReceiptReadings))
	require.NoError(t, err)
	assert.Contains(t, string(doc.HTML), "Near Vision")
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "Rs. 150.00", FormatCurrency("Rs.", 150))
	assert.Equal(t, "Rs. 0.00", FormatCurrency("Rs.", 0))
	assert.Equal(t, "10%", FormatPercent(10))
	assert.Equal(t, "12.5%", FormatPercent(12.5))
	assert.Equal(t, "09 May 2024", FormatDate("2024-05-09"))
	assert.Equal(t, "01 May 2024", FormatDate("01/05/2024"))
	assert.Equal(t, "next week", FormatDate("next week"))
	assert.Equal(t, "", FormatDate(""))
}
