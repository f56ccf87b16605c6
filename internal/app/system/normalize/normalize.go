// Package normalize canonicalizes user-supplied identity fields before they
// are stored or used as lookup keys.
package normalize

import "strings"

// Email lower-cases and trims an email address. Emails are compared and
// stored in this canonical form.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Login canonicalizes a GitHub login. GitHub logins are case-insensitive,
// so they are stored and matched lower-case.
func Login(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
