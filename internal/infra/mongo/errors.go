package mongo

import (
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// IsTransient reports whether the server labeled the error as safe to retry
// by re-running the whole transaction body. The demo does not retry; callers
// use this only to classify what they report.
func IsTransient(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorLabel("TransientTransactionError") ||
		se.HasErrorLabel("UnknownTransactionCommitResult")
}
