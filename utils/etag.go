package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GenerateETag derives a weak validator from a document id, its last
// update time and any extra version parts.
func GenerateETag(id primitive.ObjectID, updatedAt time.Time, parts ...interface{}) string {
	key := fmt.Sprintf("%s:%d", id.Hex(), updatedAt.UnixNano())
	for _, p := range parts {
		key += fmt.Sprintf(":%v", p)
	}
	sum := sha1.Sum([]byte(key))
	return `W/"` + hex.EncodeToString(sum[:]) + `"`
}
