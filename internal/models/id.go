package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh document id in 24-char hex ObjectID form. Both store engines use it.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsValidID reports whether id is a well-formed document id.
func IsValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
