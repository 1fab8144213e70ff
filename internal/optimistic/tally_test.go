package optimistic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

func dirPtr(d models.Direction) *models.Direction { return &d }

func TestStep(t *testing.T) {
	tests := []struct {
		name  string
		start models.VoteTally
		dir   models.Direction
		want  models.VoteTally
	}{
		{
			name:  "add upvote",
			start: models.VoteTally{Upvotes: 2, Downvotes: 1},
			dir:   models.Upvoted,
			want:  models.VoteTally{Upvotes: 3, Downvotes: 1, UserDirection: dirPtr(models.Upvoted)},
		},
		{
			name:  "remove downvote",
			start: models.VoteTally{Upvotes: 2, Downvotes: 1, UserDirection: dirPtr(models.Downvoted)},
			dir:   models.Downvoted,
			want:  models.VoteTally{Upvotes: 2, Downvotes: 0},
		},
		{
			name:  "switch up to down",
			start: models.VoteTally{Upvotes: 2, Downvotes: 1, UserDirection: dirPtr(models.Upvoted)},
			dir:   models.Downvoted,
			want:  models.VoteTally{Upvotes: 1, Downvotes: 2, UserDirection: dirPtr(models.Downvoted)},
		},
		{
			name:  "never negative",
			start: models.VoteTally{UserDirection: dirPtr(models.Upvoted)},
			dir:   models.Upvoted,
			want:  models.VoteTally{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Step(tt.start, tt.dir))
		})
	}
}

func TestTally_ApplyThenFailReverts(t *testing.T) {
	base := models.VoteTally{Upvotes: 4, Downvotes: 2}
	tally := New(base)

	change, view := tally.Apply(models.Upvoted)
	assert.Equal(t, StatusPending, change.Status)
	assert.Equal(t, int64(5), view.Upvotes)
	assert.Equal(t, 1, tally.Pending())

	require.NoError(t, tally.Fail(change.Seq))
	assert.Equal(t, base, tally.View())
	assert.Zero(t, tally.Pending())
	assert.ErrorIs(t, tally.Fail(change.Seq), ErrUnknownChange)
}

func TestTally_ConfirmFoldsIntoBase(t *testing.T) {
	tally := New(models.VoteTally{Upvotes: 1})

	first, _ := tally.Apply(models.Upvoted)
	second, view := tally.Apply(models.Downvoted)
	assert.Equal(t, int64(1), view.Upvotes)
	assert.Equal(t, int64(1), view.Downvotes)

	// Out of order: the later confirmation waits for the earlier one.
	require.NoError(t, tally.Confirm(second.Seq))
	assert.Equal(t, int64(1), tally.Confirmed().Upvotes)
	assert.Nil(t, tally.Confirmed().UserDirection)

	require.NoError(t, tally.Confirm(first.Seq))
	confirmed := tally.Confirmed()
	assert.Equal(t, int64(1), confirmed.Upvotes)
	assert.Equal(t, int64(1), confirmed.Downvotes)
	require.NotNil(t, confirmed.UserDirection)
	assert.Equal(t, models.Downvoted, *confirmed.UserDirection)
	assert.Equal(t, confirmed, tally.View())

	assert.ErrorIs(t, tally.Confirm(99), ErrUnknownChange)
}

func TestTally_ReconcileKeepsPending(t *testing.T) {
	tally := New(models.VoteTally{})

	done, _ := tally.Apply(models.Upvoted)
	require.NoError(t, tally.Confirm(done.Seq))
	tally.Apply(models.Upvoted)

	// The server saw our upvote plus two more from other users.
	view := tally.Reconcile(models.VoteTally{Upvotes: 3, UserDirection: dirPtr(models.Upvoted)})
	assert.Equal(t, int64(2), view.Upvotes)
	assert.Nil(t, view.UserDirection)
	assert.Equal(t, 1, tally.Pending())
}

func TestTally_ViewIsACopy(t *testing.T) {
	tally := New(models.VoteTally{UserDirection: dirPtr(models.Upvoted)})

	v := tally.View()
	*v.UserDirection = models.Downvoted
	assert.Equal(t, models.Upvoted, *tally.View().UserDirection)
}
