// Package normalize trims and case-folds user input before it is stored or
// compared.
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Email lowercases and trims an email address.
func Email(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Username lowercases and trims a username.
func Username(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Name trims a display name and collapses internal whitespace. Case is kept.
func Name(s string) string { return strings.Join(strings.Fields(s), " ") }

// NameCI returns the folded key stored in *_ci fields for uniqueness and
// case-insensitive lookup.
func NameCI(s string) string { return text.Fold(Name(s)) }

// Role lowercases and trims a role.
func Role(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// Status lowercases and trims a status value.
func Status(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// QueryParam trims a query-string value; case is kept.
func QueryParam(s string) string { return strings.TrimSpace(s) }

// Identifier classifies a login identifier. Values containing "@" are
// treated as emails, everything else as usernames. Both are lowercased.
func Identifier(s string) (value string, isEmail bool) {
	v := strings.ToLower(strings.TrimSpace(s))
	return v, strings.Contains(v, "@")
}
