package databases

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no document matches an id addressed lookup
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when an insert violates a unique index
	ErrDuplicateKey = errors.New("duplicate key")
)

// translateError folds driver errors into the package sentinels so callers can use
// errors.Is without importing the driver.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	}
	return err
}

// IDFilter builds an _id filter from a hex string. A malformed id cannot address an
// existing document, so it is reported as ErrNotFound.
func IDFilter(id string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return bson.M{"_id": oid}, nil
}
