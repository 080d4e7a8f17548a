package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"civicreport-be/apperrors"
	"civicreport-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a map-backed Store used by the test suite and by
// STORE=memory development runs. Per-issue mutexes serialize mutations
// on a single issue while leaving distinct issues independent.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[primitive.ObjectID]models.User
	issues  map[primitive.ObjectID]models.Issue
	images  map[primitive.ObjectID][]models.IssueImage
	logs    map[primitive.ObjectID][]models.StatusLog
	issueMu map[primitive.ObjectID]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[primitive.ObjectID]models.User),
		issues:  make(map[primitive.ObjectID]models.Issue),
		images:  make(map[primitive.ObjectID][]models.IssueImage),
		logs:    make(map[primitive.ObjectID][]models.StatusLog),
		issueMu: make(map[primitive.ObjectID]*sync.Mutex),
	}
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username {
			return apperrors.NewValidation("Username already exists")
		}
		if existing.Email == user.Email {
			return apperrors.NewValidation("Email already exists")
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	s.users[user.ID] = *user
	return nil
}

func (s *MemoryStore) User(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, apperrors.NewNotFound("User not found")
	}
	return &user, nil
}

func (s *MemoryStore) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, apperrors.NewNotFound("User not found")
}

func (s *MemoryStore) CreateIssue(ctx context.Context, issue *models.Issue, images []models.IssueImage, entry models.StatusLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	s.issues[issue.ID] = *issue

	stored := make([]models.IssueImage, 0, len(images))
	for _, img := range images {
		img.ID = primitive.NewObjectID()
		img.IssueID = issue.ID
		stored = append(stored, img)
	}
	s.images[issue.ID] = stored

	entry.ID = primitive.NewObjectID()
	entry.IssueID = issue.ID
	s.logs[issue.ID] = []models.StatusLog{entry}
	return nil
}

func (s *MemoryStore) Issue(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	issue, ok := s.issues[id]
	if !ok {
		return nil, apperrors.NewNotFound("Issue not found")
	}
	return &issue, nil
}

func (s *MemoryStore) Issues(ctx context.Context, f Filter) ([]models.Issue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Issue, 0, len(s.issues))
	for _, issue := range s.issues {
		if f.Category != "" && issue.Category != f.Category {
			continue
		}
		if f.Status != "" && issue.Status != f.Status {
			continue
		}
		result = append(result, issue)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID.Hex() < result[j].ID.Hex()
	})
	return result, nil
}

func (s *MemoryStore) Images(ctx context.Context, issueID primitive.ObjectID) ([]models.IssueImage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.IssueImage(nil), s.images[issueID]...), nil
}

func (s *MemoryStore) Logs(ctx context.Context, issueID primitive.ObjectID) ([]models.StatusLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.StatusLog(nil), s.logs[issueID]...), nil
}

// lockIssue returns the mutex serializing mutations of one issue,
// creating it on first use.
func (s *MemoryStore) lockIssue(id primitive.ObjectID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.issueMu[id]
	if !ok {
		m = &sync.Mutex{}
		s.issueMu[id] = m
	}
	return m
}

func (s *MemoryStore) Update(ctx context.Context, issueID primitive.ObjectID, fn func(tx Tx) error) error {
	m := s.lockIssue(issueID)
	m.Lock()
	defer m.Unlock()

	tx := &memoryTx{store: s, issueID: issueID}
	if err := fn(tx); err != nil {
		return err
	}

	// Commit staged writes in one critical section.
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.saved != nil {
		s.issues[issueID] = *tx.saved
	}
	for _, entry := range tx.appended {
		entry.ID = primitive.NewObjectID()
		entry.IssueID = issueID
		s.logs[issueID] = append(s.logs[issueID], entry)
	}
	return nil
}

func (s *MemoryStore) DeleteIssue(ctx context.Context, issueID primitive.ObjectID) error {
	m := s.lockIssue(issueID)
	m.Lock()
	defer m.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.issues[issueID]; !ok {
		return apperrors.NewNotFound("Issue not found")
	}
	delete(s.issues, issueID)
	delete(s.images, issueID)
	delete(s.logs, issueID)
	delete(s.issueMu, issueID)
	return nil
}

// memoryTx stages mutations until the callback succeeds, so a failed
// unit of work leaves no partial state behind.
type memoryTx struct {
	store    *MemoryStore
	issueID  primitive.ObjectID
	saved    *models.Issue
	appended []models.StatusLog
}

func (t *memoryTx) Issue(id primitive.ObjectID) (*models.Issue, error) {
	if t.saved != nil && t.saved.ID == id {
		issue := *t.saved
		return &issue, nil
	}
	return t.store.Issue(context.Background(), id)
}

func (t *memoryTx) SaveIssue(issue *models.Issue) error {
	staged := *issue
	t.saved = &staged
	return nil
}

func (t *memoryTx) AppendLog(entry models.StatusLog) error {
	t.appended = append(t.appended, entry)
	return nil
}
