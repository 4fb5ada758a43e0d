// Package render paints receipt view-models into a printable HTML document.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/frontdesk-api/internal/model"
	"github.com/jwalitptl/frontdesk-api/internal/receipt/fieldmap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Letterhead is printed at the top of every receipt.
type Letterhead struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// Theme colours are trusted configuration and are written into inline
// styles verbatim.
type Theme struct {
	Primary template.CSS
	Accent  template.CSS
}

type Options struct {
	Letterhead     Letterhead
	PrimaryColor   string
	AccentColor    string
	CurrencySymbol string
	Now            func() time.Time
}

// Renderer turns view-models into one HTML document.
type Renderer interface {
	Render(receipts ...fieldmap.ViewModel) (*Document, error)
}

// Document is a rendered HTML page holding one region per receipt.
type Document struct {
	HTML    []byte
	Regions []model.ReceiptType
}

// RegionID returns the element id a receipt type renders into.
func RegionID(t model.ReceiptType) string {
	return t.RegionID()
}

type TemplateRenderer struct {
	tmpl *template.Template
	opts Options
}

var _ Renderer = (*TemplateRenderer)(nil)

func New(opts Options) (*TemplateRenderer, error) {
	if opts.CurrencySymbol == "" {
		opts.CurrencySymbol = "Rs."
	}
	if opts.PrimaryColor == "" {
		opts.PrimaryColor = "#1f3b73"
	}
	if opts.AccentColor == "" {
		opts.AccentColor = "#e8eef9"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	funcs := template.FuncMap{
		"currency": func(v float64) string { return FormatCurrency(opts.CurrencySymbol, v) },
		"percent":  FormatPercent,
		"date":     FormatDate,
		"upper":    strings.ToUpper,
		"nonzero":  func(v float64) bool { return v != 0 },
	}

	tmpl, err := template.New("receipts").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse receipt templates: %w", err)
	}

	for _, t := range model.ReceiptTypes {
		if tmpl.Lookup(string(t)) == nil {
			return nil, fmt.Errorf("missing template for receipt type %q", t)
		}
	}

	return &TemplateRenderer{tmpl: tmpl, opts: opts}, nil
}

type receiptData struct {
	Letterhead Letterhead
	Theme      Theme
	Title      string
	Printed    string
	R          fieldmap.ViewModel
}

type region struct {
	ID    string
	Type  model.ReceiptType
	Theme Theme
	Body  template.HTML
}

type documentData struct {
	Title   string
	Regions []region
}

// Render paints every view-model into its own region of one document.
func (r *TemplateRenderer) Render(receipts ...fieldmap.ViewModel) (*Document, error) {
	if len(receipts) == 0 {
		return nil, fmt.Errorf("no receipts to render")
	}

	theme := Theme{
		Primary: template.CSS(r.opts.PrimaryColor),
		Accent:  template.CSS(r.opts.AccentColor),
	}
	printed := r.opts.Now().Format("02 Jan 2006 15:04")

	doc := &Document{}
	data := documentData{}
	seen := make(map[model.ReceiptType]bool, len(receipts))

	for _, vm := range receipts {
		t := vm.ReceiptType()
		if seen[t] {
			return nil, fmt.Errorf("receipt type %q rendered twice", t)
		}
		seen[t] = true

		var buf bytes.Buffer
		err := r.tmpl.ExecuteTemplate(&buf, string(t), receiptData{
			Letterhead: r.opts.Letterhead,
			Theme:      theme,
			Title:      t.Title(),
			Printed:    printed,
			R:          vm,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render %s receipt: %w", t, err)
		}

		data.Regions = append(data.Regions, region{
			ID:    RegionID(t),
			Type:  t,
			Theme: theme,
			Body:  template.HTML(buf.String()),
		})
		doc.Regions = append(doc.Regions, t)
	}

	data.Title = receipts[0].Header().Name
	if data.Title == "" {
		data.Title = r.opts.Letterhead.Name
	}

	var out bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&out, "document", data); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	doc.HTML = out.Bytes()
	return doc, nil
}

// FormatCurrency prefixes the symbol and fixes two decimals: "Rs. 150.00".
func FormatCurrency(symbol string, v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return fmt.Sprintf("%s %.2f", symbol, v)
}

// FormatPercent drops a trailing ".0": 10 -> "10%", 12.5 -> "12.5%".
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"02-01-2006",
	"2/1/2006",
	"02 Jan 2006",
	"2 Jan 2006",
}

// FormatDate renders recognised dates as "02 Jan 2006" and returns
// anything else unchanged.
func FormatDate(s string) string {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("02 Jan 2006")
		}
	}
	return s
}
