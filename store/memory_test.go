package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civicreport-be/apperrors"
	"civicreport-be/models"
)

func seedIssue(t *testing.T, s *MemoryStore, category string) *models.Issue {
	t.Helper()
	issue := &models.Issue{
		Title:     "Broken streetlight",
		Category:  category,
		Latitude:  12.9716,
		Longitude: 77.5946,
		Status:    models.StatusReported,
		CreatedAt: time.Now().UTC(),
		UserID:    primitive.NewObjectID(),
	}
	entry := models.StatusLog{Status: models.StatusReported, Timestamp: issue.CreatedAt}
	images := []models.IssueImage{{Filename: "a.png"}, {Filename: "b.jpg"}}
	require.NoError(t, s.CreateIssue(context.Background(), issue, images, entry))
	return issue
}

func TestMemoryStoreUserUniqueness(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	first := &models.User{Username: "asha", Email: "asha@example.com"}
	require.NoError(t, s.CreateUser(ctx, first))

	dupName := &models.User{Username: "asha", Email: "other@example.com"}
	err := s.CreateUser(ctx, dupName)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))

	dupEmail := &models.User{Username: "ravi", Email: "asha@example.com"}
	err = s.CreateUser(ctx, dupEmail)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeValidation))

	got, err := s.UserByUsername(ctx, "asha")
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestMemoryStoreCreateIssueRoundtrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	issue := seedIssue(t, s, "streetlight")

	got, err := s.Issue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue.Title, got.Title)
	assert.Equal(t, models.StatusReported, got.Status)

	images, err := s.Images(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, issue.ID, images[0].IssueID)

	logs, err := s.Logs(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.StatusReported, logs[0].Status)
	assert.Nil(t, logs[0].AdminID)
}

func TestMemoryStoreIssuesFilterAndOrder(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	a := seedIssue(t, s, "pothole")
	b := seedIssue(t, s, "garbage")
	c := seedIssue(t, s, "pothole")

	all, err := s.Issues(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID.Hex(), all[i].ID.Hex())
	}

	potholes, err := s.Issues(ctx, Filter{Category: "pothole"})
	require.NoError(t, err)
	require.Len(t, potholes, 2)
	assert.Equal(t, a.ID, potholes[0].ID)
	assert.Equal(t, c.ID, potholes[1].ID)

	none, err := s.Issues(ctx, Filter{Category: "graffiti"})
	require.NoError(t, err)
	assert.Empty(t, none)

	_ = b
}

func TestMemoryStoreUpdateRollsBackOnError(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	issue := seedIssue(t, s, "pothole")

	boom := errors.New("boom")
	err := s.Update(ctx, issue.ID, func(tx Tx) error {
		current, err := tx.Issue(issue.ID)
		require.NoError(t, err)
		current.Flags = 99
		current.Status = models.StatusFlagged
		require.NoError(t, tx.SaveIssue(current))
		require.NoError(t, tx.AppendLog(models.StatusLog{Status: models.StatusFlagged, Timestamp: time.Now()}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Issue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Flags)
	assert.Equal(t, models.StatusReported, got.Status)

	logs, err := s.Logs(ctx, issue.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestMemoryStoreConcurrentUpdatesDoNotLoseIncrements(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	issue := seedIssue(t, s, "pothole")

	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = s.Update(ctx, issue.ID, func(tx Tx) error {
				current, err := tx.Issue(issue.ID)
				if err != nil {
					return err
				}
				current.Upvotes++
				return tx.SaveIssue(current)
			})
		}()
	}
	wg.Wait()

	got, err := s.Issue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, got.Upvotes)
}

func TestMemoryStoreDeleteCascade(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	issue := seedIssue(t, s, "pothole")
	require.NoError(t, s.DeleteIssue(ctx, issue.ID))

	_, err := s.Issue(ctx, issue.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeNotFound))

	images, err := s.Images(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	logs, err := s.Logs(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, logs)

	err = s.DeleteIssue(ctx, issue.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.TypeNotFound))
}
