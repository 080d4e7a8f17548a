// Package store is the persistence abstraction for users, issues and
// their attached images and status logs. It holds no authorization
// logic; callers get plain value objects and explicit foreign keys,
// never a live object graph.
package store

import (
	"context"

	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Filter narrows issue listings. Zero values mean no filter; matches
// are exact.
type Filter struct {
	Category string
	Status   models.IssueStatus
}

// Tx is the unit of work handed to Update callbacks. Everything done
// through a Tx commits or rolls back as a single atomic group.
type Tx interface {
	Issue(id primitive.ObjectID) (*models.Issue, error)
	SaveIssue(issue *models.Issue) error
	AppendLog(entry models.StatusLog) error
}

// Store is implemented by the Mongo backend used by the server and the
// in-memory backend used by tests and local development.
type Store interface {
	// CreateUser persists a new user, enforcing unique username and email.
	CreateUser(ctx context.Context, user *models.User) error
	User(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)

	// CreateIssue persists the issue, its images and its initial status
	// log entry as one atomic unit.
	CreateIssue(ctx context.Context, issue *models.Issue, images []models.IssueImage, entry models.StatusLog) error
	Issue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	// Issues returns matching issues in ascending id order.
	Issues(ctx context.Context, f Filter) ([]models.Issue, error)
	Images(ctx context.Context, issueID primitive.ObjectID) ([]models.IssueImage, error)
	Logs(ctx context.Context, issueID primitive.ObjectID) ([]models.StatusLog, error)

	// Update runs fn inside a unit of work scoped to one issue.
	// Concurrent Updates on the same issue are serialized; updates on
	// distinct issues proceed independently. If fn returns an error the
	// unit of work is rolled back and the error is returned unchanged.
	Update(ctx context.Context, issueID primitive.ObjectID, fn func(tx Tx) error) error

	// DeleteIssue removes the issue together with its images and logs,
	// atomically.
	DeleteIssue(ctx context.Context, issueID primitive.ObjectID) error
}
