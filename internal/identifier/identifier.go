// Package identifier translates between the external string form of a
// record's identity and the document store's native key type.
package identifier

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ID is the internal storage key: a 12-byte value the store generates,
// rendered externally as 24 hexadecimal characters. Internal keys never
// leak across the API boundary; Format produces the external form.
type ID = primitive.ObjectID

// ErrInvalid indicates an external identifier not in the required
// fixed-length hex format.
var ErrInvalid = errors.New("invalid identifier")

// Parse converts an external identifier into a storage key. It fails with
// ErrInvalid when the input is not 24 hex characters.
func Parse(external string) (ID, error) {
	id, err := primitive.ObjectIDFromHex(external)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", ErrInvalid, external)
	}
	return id, nil
}

// Format renders a storage key in its external string form.
func Format(id ID) string {
	return id.Hex()
}

// New generates a fresh storage key.
func New() ID {
	return primitive.NewObjectID()
}
