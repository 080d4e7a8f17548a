package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Principal is the resolved identity of the caller of an operation.
// A nil *Principal means the caller is anonymous.
type Principal struct {
	UserID   primitive.ObjectID
	Username string
	IsAdmin  bool
}
