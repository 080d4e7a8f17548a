package store

import (
	"context"
	"errors"
	"time"

	"civicreport-be/apperrors"
	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore is the production Store backend. Multi-record mutations
// run inside session transactions so a failure never leaves partial
// state behind.
type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (s *MongoStore) users() *mongo.Collection   { return s.db.Collection("users") }
func (s *MongoStore) issues() *mongo.Collection  { return s.db.Collection("issues") }
func (s *MongoStore) imagesC() *mongo.Collection { return s.db.Collection("issue_images") }
func (s *MongoStore) logsC() *mongo.Collection   { return s.db.Collection("status_logs") }

// EnsureIndexes creates the unique user indexes. Call once at startup.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// withTxn runs fn inside a session transaction. AppErrors returned by
// fn abort the transaction and surface unchanged; driver failures are
// wrapped as storage errors.
func (s *MongoStore) withTxn(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := s.db.Client().StartSession()
	if err != nil {
		return apperrors.NewStorage("Failed to start transaction")
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return appErr
		}
		return apperrors.NewStorage("Storage operation failed")
	}
	return nil
}

func (s *MongoStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	count, err := s.users().CountDocuments(ctx, bson.M{"username": user.Username})
	if err != nil {
		return apperrors.NewStorage("Failed to check existing user")
	}
	if count > 0 {
		return apperrors.NewValidation("Username already exists")
	}
	count, err = s.users().CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return apperrors.NewStorage("Failed to check existing user")
	}
	if count > 0 {
		return apperrors.NewValidation("Email already exists")
	}

	if _, err := s.users().InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.NewValidation("Username or email already exists")
		}
		return apperrors.NewStorage("Failed to create user")
	}
	return nil
}

func (s *MongoStore) User(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users().FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, apperrors.NewStorage("Failed to retrieve user")
	}
	return &user, nil
}

func (s *MongoStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.users().FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("User not found")
		}
		return nil, apperrors.NewStorage("Failed to retrieve user")
	}
	return &user, nil
}

func (s *MongoStore) CreateIssue(ctx context.Context, issue *models.Issue, images []models.IssueImage, entry models.StatusLog) error {
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		if _, err := s.issues().InsertOne(sc, issue); err != nil {
			return err
		}
		for i := range images {
			images[i].ID = primitive.NewObjectID()
			images[i].IssueID = issue.ID
			if _, err := s.imagesC().InsertOne(sc, images[i]); err != nil {
				return err
			}
		}
		entry.ID = primitive.NewObjectID()
		entry.IssueID = issue.ID
		_, err := s.logsC().InsertOne(sc, entry)
		return err
	})
}

func (s *MongoStore) Issue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := s.issues().FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("Issue not found")
		}
		return nil, apperrors.NewStorage("Failed to retrieve issue")
	}
	return &issue, nil
}

func (s *MongoStore) Issues(ctx context.Context, f Filter) ([]models.Issue, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.issues().Find(ctx, filter, findOptions)
	if err != nil {
		return nil, apperrors.NewStorage("Failed to retrieve issues")
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, apperrors.NewStorage("Failed to decode issues")
	}
	return issues, nil
}

func (s *MongoStore) Images(ctx context.Context, issueID primitive.ObjectID) ([]models.IssueImage, error) {
	cursor, err := s.imagesC().Find(ctx, bson.M{"issue_id": issueID})
	if err != nil {
		return nil, apperrors.NewStorage("Failed to retrieve images")
	}
	defer cursor.Close(ctx)

	images := []models.IssueImage{}
	if err := cursor.All(ctx, &images); err != nil {
		return nil, apperrors.NewStorage("Failed to decode images")
	}
	return images, nil
}

func (s *MongoStore) Logs(ctx context.Context, issueID primitive.ObjectID) ([]models.StatusLog, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.logsC().Find(ctx, bson.M{"issue_id": issueID}, findOptions)
	if err != nil {
		return nil, apperrors.NewStorage("Failed to retrieve status logs")
	}
	defer cursor.Close(ctx)

	logs := []models.StatusLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, apperrors.NewStorage("Failed to decode status logs")
	}
	return logs, nil
}

func (s *MongoStore) Update(ctx context.Context, issueID primitive.ObjectID, fn func(tx Tx) error) error {
	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		return fn(&mongoTx{store: s, sc: sc})
	})
}

func (s *MongoStore) DeleteIssue(ctx context.Context, issueID primitive.ObjectID) error {
	return s.withTxn(ctx, func(sc mongo.SessionContext) error {
		result, err := s.issues().DeleteOne(sc, bson.M{"_id": issueID})
		if err != nil {
			return err
		}
		if result.DeletedCount == 0 {
			return apperrors.NewNotFound("Issue not found")
		}
		if _, err := s.imagesC().DeleteMany(sc, bson.M{"issue_id": issueID}); err != nil {
			return err
		}
		_, err = s.logsC().DeleteMany(sc, bson.M{"issue_id": issueID})
		return err
	})
}

// mongoTx runs Tx operations against the session context so they join
// the surrounding transaction.
type mongoTx struct {
	store *MongoStore
	sc    mongo.SessionContext
}

func (t *mongoTx) Issue(id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := t.store.issues().FindOne(t.sc, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NewNotFound("Issue not found")
		}
		return nil, err
	}
	return &issue, nil
}

func (t *mongoTx) SaveIssue(issue *models.Issue) error {
	_, err := t.store.issues().ReplaceOne(t.sc, bson.M{"_id": issue.ID}, issue)
	return err
}

func (t *mongoTx) AppendLog(entry models.StatusLog) error {
	entry.ID = primitive.NewObjectID()
	_, err := t.store.logsC().InsertOne(t.sc, entry)
	return err
}
