package model

import "strings"

// ReceiptType names one printable receipt layout.
type ReceiptType string

const (
	ReceiptCash         ReceiptType = "cash"
	ReceiptPrescription ReceiptType = "prescription"
	ReceiptReadings     ReceiptType = "readings"
	ReceiptOperation    ReceiptType = "operation"
	ReceiptClinical     ReceiptType = "clinical"
	ReceiptDischarge    ReceiptType = "discharge"
	ReceiptLab          ReceiptType = "lab"
	ReceiptExternalLab  ReceiptType = "vlab"
)

// ReceiptTypes lists every receipt type in the order a full report uses.
var ReceiptTypes = []ReceiptType{
	ReceiptCash,
	ReceiptPrescription,
	ReceiptReadings,
	ReceiptOperation,
	ReceiptClinical,
	ReceiptDischarge,
	ReceiptLab,
	ReceiptExternalLab,
}

var receiptTitles = map[ReceiptType]string{
	ReceiptCash:         "Cash Receipt",
	ReceiptPrescription: "Prescription",
	ReceiptReadings:     "Eye Readings",
	ReceiptOperation:    "Operation Receipt",
	ReceiptClinical:     "Clinical Findings",
	ReceiptDischarge:    "Discharge Summary",
	ReceiptLab:          "Lab Report",
	ReceiptExternalLab:  "External Lab Report",
}

// Valid reports whether t is a known receipt type.
func (t ReceiptType) Valid() bool {
	_, ok := receiptTitles[t]
	return ok
}

// Title is the heading printed on the receipt.
func (t ReceiptType) Title() string {
	if title, ok := receiptTitles[t]; ok {
		return title
	}
	return string(t)
}

// RegionID is the document id of the section a receipt renders into.
func (t ReceiptType) RegionID() string {
	return "receipt-" + string(t)
}

// ParseReceiptTypes splits a comma separated list, keeping order and
// dropping blanks and duplicates. Unknown names are returned in bad.
func ParseReceiptTypes(raw string) (types []ReceiptType, bad []string) {
	seen := make(map[ReceiptType]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		t := ReceiptType(part)
		if !t.Valid() {
			bad = append(bad, part)
			continue
		}
		if seen[t] {
			continue
		}
		seen[t] = true
		types = append(types, t)
	}
	return types, bad
}
