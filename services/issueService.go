// Package services holds the issue lifecycle engine. Every operation
// takes the resolved Principal of the caller explicitly; nothing here
// reads ambient request state.
package services

import (
	"context"
	"strings"
	"time"

	"civicreport-be/apperrors"
	"civicreport-be/config"
	"civicreport-be/geo"
	"civicreport-be/models"
	"civicreport-be/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueService struct {
	store store.Store
}

func NewIssueService(st store.Store) *IssueService {
	return &IssueService{store: st}
}

// ListQuery describes a proximity listing request.
type ListQuery struct {
	Center   geo.Point
	RadiusKm float64
	Category string
	Status   string
}

// List returns the issues within RadiusKm of the center, optionally
// narrowed by exact-match category and status filters, in ascending
// id order. An empty result is not an error.
func (s *IssueService) List(ctx context.Context, q ListQuery) ([]models.Issue, error) {
	if err := geo.Validate(q.Center); err != nil {
		return nil, err
	}

	issues, err := s.store.Issues(ctx, store.Filter{
		Category: q.Category,
		Status:   models.IssueStatus(q.Status),
	})
	if err != nil {
		return nil, err
	}

	nearby := make([]models.Issue, 0, len(issues))
	for _, issue := range issues {
		point := geo.Point{Latitude: issue.Latitude, Longitude: issue.Longitude}
		if geo.WithinRadius(q.Center, point, q.RadiusKm) {
			nearby = append(nearby, issue)
		}
	}
	return nearby, nil
}

// All returns every issue regardless of location. Admin only.
func (s *IssueService) All(ctx context.Context, principal *models.Principal) ([]models.Issue, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthenticated("User not authenticated")
	}
	if !principal.IsAdmin {
		return nil, apperrors.NewForbidden("Admin access required")
	}
	return s.store.Issues(ctx, store.Filter{})
}

// CreateInput carries the fields of a new issue report. Image files
// are already persisted by the blob store; only filenames arrive here.
type CreateInput struct {
	Title          string
	Description    string
	Category       string
	Latitude       float64
	Longitude      float64
	IsAnonymous    bool
	ImageFilenames []string
}

// Create persists a new issue, its images and the initial "Reported"
// status log entry as one unit.
func (s *IssueService) Create(ctx context.Context, principal *models.Principal, in CreateInput) (*models.Issue, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthenticated("User not authenticated")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperrors.NewValidation("Title is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		return nil, apperrors.NewValidation("Category is required")
	}
	if err := geo.Validate(geo.Point{Latitude: in.Latitude, Longitude: in.Longitude}); err != nil {
		return nil, apperrors.NewValidation("Invalid coordinates")
	}

	now := time.Now().UTC()
	issue := &models.Issue{
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Status:      models.StatusReported,
		CreatedAt:   now,
		UserID:      principal.UserID,
		IsAnonymous: in.IsAnonymous,
	}

	images := make([]models.IssueImage, 0, len(in.ImageFilenames))
	for _, filename := range in.ImageFilenames {
		images = append(images, models.IssueImage{Filename: filename})
	}

	entry := models.StatusLog{Status: models.StatusReported, Timestamp: now}
	if err := s.store.CreateIssue(ctx, issue, images, entry); err != nil {
		return nil, err
	}
	return issue, nil
}

// EditInput carries the owner-editable fields; nil means unchanged.
type EditInput struct {
	Title       *string
	Description *string
	Category    *string
}

// Edit updates title, description and category. Only the owner or an
// admin may edit; status, upvotes and flags are untouched.
func (s *IssueService) Edit(ctx context.Context, principal *models.Principal, issueID primitive.ObjectID, in EditInput) (*models.Issue, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthenticated("User not authenticated")
	}

	var updated *models.Issue
	err := s.store.Update(ctx, issueID, func(tx store.Tx) error {
		issue, err := tx.Issue(issueID)
		if err != nil {
			return err
		}
		if issue.UserID != principal.UserID && !principal.IsAdmin {
			return apperrors.NewForbidden("You are not authorized to update this issue")
		}
		if in.Title != nil {
			issue.Title = *in.Title
		}
		if in.Description != nil {
			issue.Description = *in.Description
		}
		if in.Category != nil {
			issue.Category = *in.Category
		}
		if err := tx.SaveIssue(issue); err != nil {
			return err
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetStatus moves an issue to a new status and records the acting
// admin in the log. Flagged cannot be set through this path.
func (s *IssueService) SetStatus(ctx context.Context, principal *models.Principal, issueID primitive.ObjectID, status models.IssueStatus) (*models.Issue, error) {
	if principal == nil {
		return nil, apperrors.NewUnauthenticated("User not authenticated")
	}
	if !principal.IsAdmin {
		return nil, apperrors.NewForbidden("Admin access required")
	}

	valid := false
	for _, allowed := range models.AdminSettableStatuses {
		if status == allowed {
			valid = true
			break
		}
	}
	if !valid {
		return nil, apperrors.NewValidation("Invalid status")
	}

	adminID := principal.UserID
	var updated *models.Issue
	err := s.store.Update(ctx, issueID, func(tx store.Tx) error {
		issue, err := tx.Issue(issueID)
		if err != nil {
			return err
		}
		issue.Status = status
		if err := tx.SaveIssue(issue); err != nil {
			return err
		}
		if err := tx.AppendLog(models.StatusLog{
			IssueID:   issueID,
			Status:    status,
			Timestamp: time.Now().UTC(),
			AdminID:   &adminID,
		}); err != nil {
			return err
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Upvote increments the upvote count. Repeat calls by the same
// principal count again; there is deliberately no per-user dedup.
func (s *IssueService) Upvote(ctx context.Context, principal *models.Principal, issueID primitive.ObjectID) (int, error) {
	if principal == nil {
		return 0, apperrors.NewUnauthenticated("User not authenticated")
	}

	var count int
	err := s.store.Update(ctx, issueID, func(tx store.Tx) error {
		issue, err := tx.Issue(issueID)
		if err != nil {
			return err
		}
		issue.Upvotes++
		if err := tx.SaveIssue(issue); err != nil {
			return err
		}
		count = issue.Upvotes
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Flag increments the flag count. Crossing the auto-hide threshold
// moves the issue to Flagged and appends a single admin-less log
// entry; once Flagged, further flags only increment the count.
func (s *IssueService) Flag(ctx context.Context, principal *models.Principal, issueID primitive.ObjectID) (int, error) {
	if principal == nil {
		return 0, apperrors.NewUnauthenticated("User not authenticated")
	}

	var count int
	err := s.store.Update(ctx, issueID, func(tx store.Tx) error {
		issue, err := tx.Issue(issueID)
		if err != nil {
			return err
		}
		issue.Flags++
		if issue.Flags >= config.FlagAutoHideThreshold && issue.Status != models.StatusFlagged {
			issue.Status = models.StatusFlagged
			if err := tx.AppendLog(models.StatusLog{
				IssueID:   issueID,
				Status:    models.StatusFlagged,
				Timestamp: time.Now().UTC(),
			}); err != nil {
				return err
			}
		}
		if err := tx.SaveIssue(issue); err != nil {
			return err
		}
		count = issue.Flags
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes an issue together with its images and logs. Admin only.
func (s *IssueService) Delete(ctx context.Context, principal *models.Principal, issueID primitive.ObjectID) error {
	if principal == nil {
		return apperrors.NewUnauthenticated("User not authenticated")
	}
	if !principal.IsAdmin {
		return apperrors.NewForbidden("Admin access required")
	}
	return s.store.DeleteIssue(ctx, issueID)
}

// LogEntry is a status log joined with its acting admin, if any.
type LogEntry struct {
	Status    models.IssueStatus
	Timestamp time.Time
	Admin     *models.User
}

// Detail bundles everything the transport layer needs to serialize an
// issue: the record, its owner, image filenames and joined logs.
type Detail struct {
	Issue  models.Issue
	Owner  *models.User
	Images []string
	Logs   []LogEntry
}

// Detail fetches an issue with its images, logs and referenced users.
func (s *IssueService) Detail(ctx context.Context, issueID primitive.ObjectID) (*Detail, error) {
	issue, err := s.store.Issue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, *issue)
}

// Details resolves serialization data for a slice of already-fetched
// issues, preserving order.
func (s *IssueService) Details(ctx context.Context, issues []models.Issue) ([]Detail, error) {
	details := make([]Detail, 0, len(issues))
	for _, issue := range issues {
		d, err := s.detail(ctx, issue)
		if err != nil {
			return nil, err
		}
		details = append(details, *d)
	}
	return details, nil
}

func (s *IssueService) detail(ctx context.Context, issue models.Issue) (*Detail, error) {
	owner, err := s.store.User(ctx, issue.UserID)
	if err != nil && !apperrors.IsType(err, apperrors.TypeNotFound) {
		return nil, err
	}

	images, err := s.store.Images(ctx, issue.ID)
	if err != nil {
		return nil, err
	}
	filenames := make([]string, 0, len(images))
	for _, img := range images {
		filenames = append(filenames, img.Filename)
	}

	logs, err := s.store.Logs(ctx, issue.ID)
	if err != nil {
		return nil, err
	}
	entries := make([]LogEntry, 0, len(logs))
	for _, entry := range logs {
		joined := LogEntry{Status: entry.Status, Timestamp: entry.Timestamp}
		if entry.AdminID != nil {
			admin, err := s.store.User(ctx, *entry.AdminID)
			if err != nil && !apperrors.IsType(err, apperrors.TypeNotFound) {
				return nil, err
			}
			joined.Admin = admin
		}
		entries = append(entries, joined)
	}

	return &Detail{Issue: issue, Owner: owner, Images: filenames, Logs: entries}, nil
}
