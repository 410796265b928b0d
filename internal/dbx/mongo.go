package dbx

import (
	"errors"
	"regexp"

	"go.mongodb.org/mongo-driver/mongo"
)

var mongoDupIndexRe = regexp.MustCompile(`index: (?:\S+\.\$)?([A-Za-z0-9_.]+?)_-?1\b`)

// MongoDuplicateKey reports whether err is a Mongo duplicate key error
// (codes 11000 and 11001) and the field of the violated index when the
// server message names it.
func MongoDuplicateKey(err error) (field string, ok bool) {
	if err == nil || !mongo.IsDuplicateKeyError(err) {
		return "", false
	}
	if m := mongoDupIndexRe.FindStringSubmatch(err.Error()); m != nil {
		return m[1], true
	}
	return "", true
}

// IsMongoNoDocuments maps the driver's empty result to a bool.
func IsMongoNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
