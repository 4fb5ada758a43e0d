package delivery

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/jwalitptl/frontdesk-api/internal/model"
)

var messageTemplates = map[model.ReceiptType]string{
	model.ReceiptCash:         `Dear {{.Name}}, thank you for your payment at {{.Hospital}}. Please find your receipt attached.`,
	model.ReceiptPrescription: `Dear {{.Name}}, please find your prescription from {{.Hospital}} attached. Take your medicines as advised.`,
	model.ReceiptReadings:     `Dear {{.Name}}, please find your eye examination readings from {{.Hospital}} attached.`,
	model.ReceiptOperation:    `Dear {{.Name}}, please find the details of your procedure at {{.Hospital}} attached.`,
	model.ReceiptClinical:     `Dear {{.Name}}, please find your clinical findings from {{.Hospital}} attached.`,
	model.ReceiptDischarge:    `Dear {{.Name}}, please find your discharge summary from {{.Hospital}} attached. Wishing you a speedy recovery.`,
	model.ReceiptLab:          `Dear {{.Name}}, your lab report from {{.Hospital}} is ready. Please find it attached.`,
	model.ReceiptExternalLab:  `Dear {{.Name}}, your external lab report from {{.Hospital}} is ready. Please find it attached.`,
}

const fullReportTemplate = `Dear {{.Name}}, please find your {{.Documents}} from {{.Hospital}} attached.`

type messageData struct {
	Name      string
	Hospital  string
	Documents string
}

// Composer writes the canned message sent with a shared document.
type Composer struct {
	hospital string
	single   map[model.ReceiptType]*template.Template
	full     *template.Template
}

func NewComposer(hospital string) (*Composer, error) {
	if hospital == "" {
		hospital = "our hospital"
	}
	c := &Composer{hospital: hospital, single: make(map[model.ReceiptType]*template.Template)}
	for t, text := range messageTemplates {
		tmpl, err := template.New(string(t)).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s message: %w", t, err)
		}
		c.single[t] = tmpl
	}
	full, err := template.New("full").Parse(fullReportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse full report message: %w", err)
	}
	c.full = full
	return c, nil
}

// Compose returns the message for name and the shared types. A single type
// uses its own text; several types produce one combined message.
func (c *Composer) Compose(name string, types []model.ReceiptType) (string, error) {
	if len(types) == 0 {
		return "", fmt.Errorf("no receipt types to describe")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Patient"
	}
	data := messageData{Name: name, Hospital: c.hospital}

	tmpl := c.full
	if len(types) == 1 {
		t, ok := c.single[types[0]]
		if !ok {
			return "", fmt.Errorf("no message for receipt type %q", types[0])
		}
		tmpl = t
	} else {
		data.Documents = describe(types)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to compose message: %w", err)
	}
	return buf.String(), nil
}

// describe joins receipt titles as "A, B and C".
func describe(types []model.ReceiptType) string {
	titles := make([]string, len(types))
	for i, t := range types {
		titles[i] = strings.ToLower(t.Title())
	}
	if len(titles) == 1 {
		return titles[0]
	}
	return strings.Join(titles[:len(titles)-1], ", ") + " and " + titles[len(titles)-1]
}
