package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusReported   IssueStatus = "Reported"
	StatusInProgress IssueStatus = "In Progress"
	StatusResolved   IssueStatus = "Resolved"
	StatusFlagged    IssueStatus = "Flagged"
)

// AdminSettableStatuses are the statuses an admin may set directly.
// Flagged is reachable only through the community auto-hide path.
var AdminSettableStatuses = []IssueStatus{StatusReported, StatusInProgress, StatusResolved}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Category    string             `bson:"category" json:"category"`
	Latitude    float64            `bson:"latitude" json:"latitude"`
	Longitude   float64            `bson:"longitude" json:"longitude"`
	Status      IssueStatus        `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	IsAnonymous bool               `bson:"is_anonymous" json:"is_anonymous"`
	Upvotes     int                `bson:"upvotes" json:"upvotes"`
	Flags       int                `bson:"flags" json:"flags"`
}

// IssueImage is an uploaded photo attached to an issue
type IssueImage struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Filename string             `bson:"filename" json:"filename"`
	IssueID  primitive.ObjectID `bson:"issue_id" json:"issue_id"`
}

// StatusLog is an append-only audit entry for a status-affecting event.
// AdminID is nil for the initial Reported entry and for auto-flag entries.
type StatusLog struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	IssueID   primitive.ObjectID  `bson:"issue_id" json:"issue_id"`
	Status    IssueStatus         `bson:"status" json:"status"`
	Timestamp time.Time           `bson:"timestamp" json:"timestamp"`
	AdminID   *primitive.ObjectID `bson:"admin_id,omitempty" json:"admin_id,omitempty"`
}
