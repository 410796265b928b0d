package models

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh identifier. Mongo-style hex ids are used so the
// same value is valid for every storage backend.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID accepts Mongo object ids and UUIDs.
func IsValidID(id string) bool {
	if primitive.IsValidObjectID(id) {
		return true
	}
	_, err := uuid.Parse(id)
	return err == nil
}
