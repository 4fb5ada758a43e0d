// Package fieldmap resolves loosely keyed records into typed receipt
// view-models.
//
// Entry forms have stored the same logical field under several spellings
// over time (patientName, PATIENT NAME, PATIENT_NAME). Every logical field
// is named by its canonical upper-case phrase; the spellings tried for it
// are derived from that phrase in a fixed priority order, followed by any
// registered synonyms.
package fieldmap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Field is a logical field named by its canonical phrase.
type Field string

// Patient block
const (
	PatientName Field = "PATIENT NAME"
	RegNo       Field = "REG NO"
	Age         Field = "AGE"
	Gender      Field = "GENDER"
	Phone       Field = "PHONE NUMBER"
	Email       Field = "EMAIL"
	Address     Field = "ADDRESS"
	Doctor      Field = "DOCTOR NAME"
	ReferredBy  Field = "REFERRED BY"
	VisitDate   Field = "DATE"
	ReceiptNo   Field = "RECEIPT NO"
)

// Money
const (
	ConsultationFee Field = "CONSULTATION FEE"
	Discount        Field = "DISCOUNT"
	DiscountPercent Field = "DISCOUNT PERCENT"
	TotalAmount     Field = "TOTAL AMOUNT"
	Advance         Field = "ADVANCE"
	Balance         Field = "BALANCE"
	PaymentMode     Field = "PAYMENT MODE"
)

// Clinical narrative
const (
	Diagnosis      Field = "DIAGNOSIS"
	Advice         Field = "ADVICE"
	NextVisit      Field = "NEXT VISIT"
	ChiefComplaint Field = "CHIEF COMPLAINT"
	History        Field = "HISTORY"
	Plan           Field = "PLAN"
	Remarks        Field = "REMARKS"
	PD             Field = "PD"
)

// Operation and discharge
const (
	Procedure     Field = "PROCEDURE"
	OperatedEye   Field = "EYE"
	Surgeon       Field = "SURGEON"
	OperationDate Field = "OPERATION DATE"
	Anaesthesia   Field = "ANAESTHESIA"
	Lens          Field = "IOL"
	AdmissionDate Field = "ADMISSION DATE"
	DischargeDate Field = "DISCHARGE DATE"
	Condition     Field = "CONDITION AT DISCHARGE"
	FollowUp      Field = "FOLLOW UP"
	Instructions  Field = "INSTRUCTIONS"
	ExternalLab   Field = "EXTERNAL LAB"
)

// synonyms are tried after the spellings derived from the phrase itself.
var synonyms = map[Field][]string{
	PatientName:     {"name", "Name", "NAME", "patient"},
	RegNo:           {"regNumber", "REGISTRATION NO", "registrationNo", "MR NO", "mrNo", "uhid", "UHID"},
	Age:             {"age"},
	Gender:          {"sex", "SEX"},
	Phone:           {"phone", "PHONE", "mobile", "MOBILE", "mobileNumber", "MOBILE NUMBER", "contact", "CONTACT NUMBER"},
	Email:           {"email"},
	Address:         {"address"},
	Doctor:          {"doctor", "DOCTOR", "consultant", "CONSULTANT"},
	VisitDate:       {"visitDate", "VISIT DATE", "date"},
	ReceiptNo:       {"receiptNumber", "BILL NO", "billNo"},
	ConsultationFee: {"fees", "FEES", "fee", "FEE", "amount", "AMOUNT"},
	Discount:        {"discountAmount", "DISCOUNT AMOUNT"},
	DiscountPercent: {"discountPct", "DISCOUNT %"},
	TotalAmount:     {"total", "TOTAL", "netAmount", "NET AMOUNT"},
	Advance:         {"advancePaid", "ADVANCE PAID"},
	PaymentMode:     {"paymentMethod", "PAYMENT METHOD", "mode", "MODE"},
	Diagnosis:       {"diagnosis"},
	Advice:          {"advice"},
	NextVisit:       {"followUpDate", "REVIEW DATE", "reviewDate"},
	ChiefComplaint:  {"complaint", "COMPLAINT", "complaints", "COMPLAINTS"},
	Procedure:       {"operation", "OPERATION", "operationName", "OPERATION NAME", "surgery", "SURGERY"},
	OperatedEye:     {"operatedEye", "OPERATED EYE", "side", "SIDE"},
	Surgeon:         {"surgeonName", "SURGEON NAME"},
	Lens:            {"lens", "LENS", "iolPower", "IOL POWER"},
	Anaesthesia:     {"anesthesia", "ANESTHESIA"},
	Condition:       {"condition", "CONDITION"},
	ExternalLab:     {"labName", "LAB NAME", "vendor", "VENDOR"},
}

// Candidates returns the ordered key spellings tried for f.
func Candidates(f Field) []string {
	keys := variants(string(f))
	for _, s := range synonyms[f] {
		keys = appendUnique(keys, s)
	}
	return keys
}

// variants derives camelCase, spaced, upper snake and lower snake
// spellings of an upper-case phrase, in that priority.
func variants(phrase string) []string {
	words := strings.Fields(strings.ReplaceAll(phrase, "_", " "))
	if len(words) == 0 {
		return nil
	}

	var camel strings.Builder
	for i, w := range words {
		lw := strings.ToLower(w)
		if i == 0 {
			camel.WriteString(lw)
			continue
		}
		camel.WriteString(strings.ToUpper(lw[:1]) + lw[1:])
	}

	upper := strings.ToUpper(strings.Join(words, " "))
	keys := []string{camel.String()}
	keys = appendUnique(keys, upper)
	keys = appendUnique(keys, strings.ReplaceAll(upper, " ", "_"))
	keys = appendUnique(keys, strings.ToLower(strings.ReplaceAll(upper, " ", "_")))
	return keys
}

func appendUnique(keys []string, k string) []string {
	for _, existing := range keys {
		if existing == k {
			return keys
		}
	}
	return append(keys, k)
}

// Lookup returns the value under the first candidate spelling of f that
// holds a non-empty value.
func Lookup(fields map[string]interface{}, f Field) (interface{}, bool) {
	return lookupKeys(fields, Candidates(f))
}

func lookupKeys(fields map[string]interface{}, keys []string) (interface{}, bool) {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok || isEmpty(v) {
			continue
		}
		return v, true
	}
	return nil, false
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

// Text resolves f as display text. Absent fields yield "".
func Text(fields map[string]interface{}, f Field) string {
	v, ok := Lookup(fields, f)
	if !ok {
		return ""
	}
	return toText(v)
}

// Amount resolves f as a number. Absent or non-numeric values yield 0.
func Amount(fields map[string]interface{}, f Field) float64 {
	v, ok := Lookup(fields, f)
	if !ok {
		return 0
	}
	return toAmount(v)
}

func toText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "Yes"
		}
		return "No"
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func toAmount(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return parseAmount(t)
	default:
		return 0
	}
}

// parseAmount accepts "1,250", "Rs. 150" and "₹150.50".
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"Rs.", "Rs", "INR", "₹"} {
		s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
	}
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
