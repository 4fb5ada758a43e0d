package delivery

import (
	"strings"
	"time"
	"unicode"

	"github.com/jwalitptl/frontdesk-api/internal/model"
)

const maxSubjectLen = 40

// Filename derives "<Subject>_<type>[-<type>...]_<yyyymmdd-hhmmss>.pdf".
// The subject is reduced to letters, digits and underscores.
func Filename(subject string, types []model.ReceiptType, ts time.Time) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.TrimSpace(subject) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			underscore = false
		case !underscore && b.Len() > 0:
			b.WriteByte('_')
			underscore = true
		}
	}
	name := strings.TrimRight(b.String(), "_")
	if runes := []rune(name); len(runes) > maxSubjectLen {
		name = strings.TrimRight(string(runes[:maxSubjectLen]), "_")
	}
	if name == "" {
		name = "Patient"
	}

	kinds := make([]string, 0, len(types))
	for _, t := range types {
		kinds = append(kinds, string(t))
	}
	kind := strings.Join(kinds, "-")
	if len(types) > 1 {
		kind = "report-" + kind
	}
	if kind == "" {
		kind = "receipt"
	}
	return name + "_" + kind + "_" + ts.Format("20060102-150405") + ".pdf"
}
