// Package memstore is an in-process Store used for local development and tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// Store keeps every collection in maps guarded by a single mutex. Each call
// is atomic on its own, matching a hosted document store.
type Store struct {
	mu  sync.RWMutex
	seq uint64
	now func() time.Time

	users     map[string]*models.User
	questions map[string]*models.Question
	answers   map[string]*models.Answer
	comments  map[string]*models.Comment
	votes     map[string]*models.Vote
	order     map[string]uint64
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		now:       func() time.Time { return time.Now().UTC() },
		users:     make(map[string]*models.User),
		questions: make(map[string]*models.Question),
		answers:   make(map[string]*models.Answer),
		comments:  make(map[string]*models.Comment),
		votes:     make(map[string]*models.Vote),
		order:     make(map[string]uint64),
	}
}

// stamp assigns id, timestamps and insertion order. Caller holds mu.
func (s *Store) stamp(id *string, created, updated *time.Time) {
	if *id == "" {
		*id = models.NewID()
	}
	now := s.now()
	*created = now
	*updated = now
	s.seq++
	s.order[*id] = s.seq
}

func (s *Store) Health(ctx context.Context) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]string{
		"status":    "up",
		"driver":    "memory",
		"questions": strconv.Itoa(len(s.questions)),
		"votes":     strconv.Itoa(len(s.votes)),
	}
}

func (s *Store) Close() error { return nil }

// Users and prefs

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, store.ErrConflict)
		}
	}
	if _, ok := s.users[user.ID]; ok && user.ID != "" {
		return fmt.Errorf("user %s: %w", user.ID, store.ErrConflict)
	}
	s.stamp(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, store.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, store.ErrNotFound)
}

func (s *Store) GetPrefs(ctx context.Context, userID string) (models.Prefs, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return models.Prefs{}, err
	}
	return u.Prefs, nil
}

func (s *Store) UpdatePrefs(ctx context.Context, userID string, prefs models.Prefs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	u.Prefs = prefs
	u.UpdatedAt = s.now()
	return nil
}

func (s *Store) AdjustReputation(ctx context.Context, userID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %s: %w", userID, store.ErrNotFound)
	}
	u.Prefs.Reputation += delta
	u.UpdatedAt = s.now()
	return u.Prefs.Reputation, nil
}

// Questions

func (s *Store) CreateQuestion(ctx context.Context, q *models.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	cp := *q
	s.questions[q.ID] = &cp
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %s: %w", id, store.ErrNotFound)
	}
	cp := *q
	return &cp, nil
}

func (s *Store) ListQuestions(ctx context.Context, opts store.ListOptions) ([]models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, *q)
	}
	s.sortByOrder(len(out), func(i int) string { return out[i].ID }, func(i, j int) { out[i], out[j] = out[j], out[i] }, opts.Desc)
	lo, hi := window(len(out), opts)
	return out[lo:hi], nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.questions[id]; !ok {
		return fmt.Errorf("question %s: %w", id, store.ErrNotFound)
	}
	delete(s.questions, id)
	delete(s.order, id)
	return nil
}

// Answers

func (s *Store) CreateAnswer(ctx context.Context, a *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	cp := *a
	s.answers[a.ID] = &cp
	return nil
}

func (s *Store) GetAnswer(ctx context.Context, id string) (*models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.answers[id]
	if !ok {
		return nil, fmt.Errorf("answer %s: %w", id, store.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (s *Store) ListAnswers(ctx context.Context, questionID string, opts store.ListOptions) ([]models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Answer
	for _, a := range s.answers {
		if a.QuestionID == questionID {
			out = append(out, *a)
		}
	}
	s.sortByOrder(len(out), func(i int) string { return out[i].ID }, func(i, j int) { out[i], out[j] = out[j], out[i] }, opts.Desc)
	lo, hi := window(len(out), opts)
	return out[lo:hi], nil
}

func (s *Store) DeleteAnswer(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.answers[id]; !ok {
		return fmt.Errorf("answer %s: %w", id, store.ErrNotFound)
	}
	delete(s.answers, id)
	delete(s.order, id)
	return nil
}

// Comments

func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *Store) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, store.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListComments(ctx context.Context, kind models.TargetKind, targetID string, opts store.ListOptions) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Comment
	for _, c := range s.comments {
		if c.Type == kind && c.TypeID == targetID {
			out = append(out, *c)
		}
	}
	s.sortByOrder(len(out), func(i int) string { return out[i].ID }, func(i, j int) { out[i], out[j] = out[j], out[i] }, opts.Desc)
	lo, hi := window(len(out), opts)
	return out[lo:hi], nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return fmt.Errorf("comment %s: %w", id, store.ErrNotFound)
	}
	delete(s.comments, id)
	delete(s.order, id)
	return nil
}

func (s *Store) DeleteCommentsForTarget(ctx context.Context, kind models.TargetKind, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.comments {
		if c.Type == kind && c.TypeID == targetID {
			delete(s.comments, id)
			delete(s.order, id)
		}
	}
	return nil
}

// Votes

func (s *Store) FindVotes(ctx context.Context, key store.VoteKey) ([]models.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Vote
	for _, v := range s.votes {
		if v.Type == key.Kind && v.TypeID == key.TargetID && v.VotedByID == key.VoterID {
			out = append(out, *v)
		}
	}
	return out, nil
}

// CreateVote enforces the (type, typeId, votedById) uniqueness a unique index
// gives the SQL backend.
func (s *Store) CreateVote(ctx context.Context, vote *models.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.votes {
		if v.Type == vote.Type && v.TypeID == vote.TypeID && v.VotedByID == vote.VotedByID {
			return fmt.Errorf("vote on %s %s by %s: %w", vote.Type, vote.TypeID, vote.VotedByID, store.ErrConflict)
		}
	}
	s.stamp(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt)
	cp := *vote
	s.votes[vote.ID] = &cp
	return nil
}

func (s *Store) UpdateVoteDirection(ctx context.Context, id string, dir models.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.votes[id]
	if !ok {
		return fmt.Errorf("vote %s: %w", id, store.ErrNotFound)
	}
	v.VoteStatus = dir
	v.UpdatedAt = s.now()
	return nil
}

func (s *Store) DeleteVote(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.votes[id]; !ok {
		return fmt.Errorf("vote %s: %w", id, store.ErrNotFound)
	}
	delete(s.votes, id)
	delete(s.order, id)
	return nil
}

func (s *Store) CountVotes(ctx context.Context, kind models.TargetKind, targetID string, dir models.Direction) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, v := range s.votes {
		if v.Type == kind && v.TypeID == targetID && v.VoteStatus == dir {
			n++
		}
	}
	return n, nil
}

func (s *Store) DeleteVotesForTarget(ctx context.Context, kind models.TargetKind, targetID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.votes {
		if v.Type == kind && v.TypeID == targetID {
			delete(s.votes, id)
			delete(s.order, id)
		}
	}
	return nil
}

// sortByOrder sorts n items by insertion order. Caller holds mu.
func (s *Store) sortByOrder(n int, id func(int) string, swap func(i, j int), desc bool) {
	sort.Sort(byOrder{n: n, id: id, swap: swap, order: s.order, desc: desc})
}

type byOrder struct {
	n     int
	id    func(int) string
	swap  func(i, j int)
	order map[string]uint64
	desc  bool
}

func (b byOrder) Len() int      { return b.n }
func (b byOrder) Swap(i, j int) { b.swap(i, j) }
func (b byOrder) Less(i, j int) bool {
	if b.desc {
		return b.order[b.id(i)] > b.order[b.id(j)]
	}
	return b.order[b.id(i)] < b.order[b.id(j)]
}

func window(n int, opts store.ListOptions) (int, int) {
	opts = opts.Normalize()
	lo := opts.Offset
	if lo > n {
		lo = n
	}
	hi := lo + opts.Limit
	if hi > n {
		hi = n
	}
	return lo, hi
}
