// Package sanitizer normalizes user-supplied member data before it is
// validated or persisted: display names, phone numbers, and the local part
// of synthesized placeholder emails.
package sanitizer
