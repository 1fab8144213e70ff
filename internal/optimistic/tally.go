// Package optimistic layers locally applied, unconfirmed votes over the last
// tally read from the server, so a client can show the outcome of a vote
// before the server answers and roll it back if the server refuses it.
package optimistic

import (
	"errors"
	"fmt"
	"sync"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

var ErrUnknownChange = errors.New("unknown change")

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// Change is one vote the user applied locally.
type Change struct {
	Seq       uint64
	Requested models.Direction
	Status    Status
}

// Step returns the tally that results from the current user requesting dir:
// a repeat removes their vote, a first vote adds one and a different
// direction moves their vote across.
func Step(t models.VoteTally, dir models.Direction) models.VoteTally {
	next := models.VoteTally{Upvotes: t.Upvotes, Downvotes: t.Downvotes}
	switch {
	case t.UserDirection != nil && *t.UserDirection == dir:
		bump(&next, dir, -1)
	case t.UserDirection == nil:
		bump(&next, dir, +1)
		next.UserDirection = &dir
	default:
		bump(&next, *t.UserDirection, -1)
		bump(&next, dir, +1)
		next.UserDirection = &dir
	}
	return next
}

func bump(t *models.VoteTally, dir models.Direction, n int64) {
	if dir == models.Upvoted {
		t.Upvotes += n
	} else {
		t.Downvotes += n
	}
	if t.Upvotes < 0 {
		t.Upvotes = 0
	}
	if t.Downvotes < 0 {
		t.Downvotes = 0
	}
}

// Tally is safe for concurrent use.
type Tally struct {
	mu        sync.Mutex
	confirmed models.VoteTally
	changes   []*Change
	seq       uint64
}

func New(confirmed models.VoteTally) *Tally {
	return &Tally{confirmed: copyTally(confirmed)}
}

// Apply records a pending change and returns it with the speculative view.
func (t *Tally) Apply(dir models.Direction) (Change, models.VoteTally) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	c := &Change{Seq: t.seq, Requested: dir, Status: StatusPending}
	t.changes = append(t.changes, c)
	return *c, t.view()
}

// Confirm marks a change as accepted by the server. Confirmed changes are
// folded into the base once every earlier change has settled.
func (t *Tally) Confirm(seq uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.find(seq)
	if c == nil {
		return fmt.Errorf("%w: %d", ErrUnknownChange, seq)
	}
	c.Status = StatusConfirmed
	t.settle()
	return nil
}

// Fail drops a refused change, which reverts its effect on the view.
func (t *Tally) Fail(seq uint64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, c := range t.changes {
		if c.Seq == seq {
			c.Status = StatusFailed
			t.changes = append(t.changes[:i], t.changes[i+1:]...)
			t.settle()
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrUnknownChange, seq)
}

// Reconcile replaces the base with an authoritative read. Settled changes
// are already reflected in it; pending ones stay layered on top.
func (t *Tally) Reconcile(server models.VoteTally) models.VoteTally {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.confirmed = copyTally(server)
	kept := t.changes[:0]
	for _, c := range t.changes {
		if c.Status == StatusPending {
			kept = append(kept, c)
		}
	}
	t.changes = kept
	return t.view()
}

// View is the confirmed tally with every outstanding change applied in order.
func (t *Tally) View() models.VoteTally {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view()
}

func (t *Tally) Confirmed() models.VoteTally {
	t.mu.Lock()
	defer t.mu.Unlock()
	return copyTally(t.confirmed)
}

func (t *Tally) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.changes {
		if c.Status == StatusPending {
			n++
		}
	}
	return n
}

func (t *Tally) view() models.VoteTally {
	v := copyTally(t.confirmed)
	for _, c := range t.changes {
		v = Step(v, c.Requested)
	}
	return v
}

// settle folds the leading run of confirmed changes into the base.
func (t *Tally) settle() {
	i := 0
	for ; i < len(t.changes) && t.changes[i].Status == StatusConfirmed; i++ {
		t.confirmed = Step(t.confirmed, t.changes[i].Requested)
	}
	t.changes = t.changes[i:]
}

func (t *Tally) find(seq uint64) *Change {
	for _, c := range t.changes {
		if c.Seq == seq {
			return c
		}
	}
	return nil
}

func copyTally(t models.VoteTally) models.VoteTally {
	out := models.VoteTally{Upvotes: t.Upvotes, Downvotes: t.Downvotes}
	if t.UserDirection != nil {
		d := *t.UserDirection
		out.UserDirection = &d
	}
	return out
}
