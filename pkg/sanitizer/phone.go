package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

var reValidPhone = regexp.MustCompile(`^\+[1-9]\d{7,14}$`)

// SanitizePhone normalizes an E.164-shaped phone number to canonical form.
// Input that does not look like E.164 is returned unchanged; the validator
// decides whether to reject it.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" || !reValidPhone.MatchString(phone) {
		return phone
	}

	parsed, err := phonenumbers.Parse(phone, "ZZ")
	if err != nil {
		return phone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
