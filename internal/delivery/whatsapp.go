package delivery

import (
	"fmt"
	"net/url"
	"strings"
)

const DefaultWhatsAppBaseURL = "https://api.whatsapp.com/send"

// WhatsAppLink builds base?phone=<digits>&text=<message>. Spaces are
// percent-encoded so the text survives every client.
func WhatsAppLink(base, phone, text string) (string, error) {
	if base == "" {
		base = DefaultWhatsAppBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid messaging base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid messaging base url %q", base)
	}
	if phone == "" || strings.Trim(phone, "0123456789") != "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}

	encoded := strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
	u.RawQuery = "phone=" + phone + "&text=" + encoded
	return u.String(), nil
}
