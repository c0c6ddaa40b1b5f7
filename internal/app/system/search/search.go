// internal/app/system/search/search.go
package search

import (
	"regexp"
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prefix returns a filter value matching folded keys that start with q.
// Callers match it against *_ci fields, which are stored folded, so the
// anchored regex can use the index.
func Prefix(q string) (primitive.Regex, bool) {
	q = text.Fold(strings.TrimSpace(q))
	if q == "" {
		return primitive.Regex{}, false
	}
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(q)}, true
}

// Contains returns a case-insensitive substring filter for free text.
func Contains(q string) (bson.M, bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, false
	}
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}, true
}

// Exact returns an anchored case-insensitive filter for a whole value.
func Exact(q string) (bson.M, bool) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, false
	}
	return bson.M{"$regex": "^" + regexp.QuoteMeta(q) + "$", "$options": "i"}, true
}
