package client

import (
	"context"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/optimistic"
)

// VoteOutcome reports each stage of a speculative vote.
type VoteOutcome struct {
	Speculative models.VoteTally
	Final       models.VoteTally
	Direction   *models.Direction
	Reverted    bool
}

// CastVote shows the vote locally before the server answers: the tally is
// read, the change is applied speculatively, then confirmed or reverted
// depending on the server and finally reconciled with a fresh read.
func (c *Client) CastVote(ctx context.Context, voterID string, kind models.TargetKind, targetID string, dir models.Direction) (VoteOutcome, error) {
	current, err := c.Tally(ctx, kind, targetID)
	if err != nil {
		return VoteOutcome{}, err
	}
	tally := optimistic.New(current)

	change, view := tally.Apply(dir)
	out := VoteOutcome{Speculative: view}

	result, err := c.Vote(ctx, models.VoteRequest{
		VotedByID:  voterID,
		VoteStatus: string(dir),
		Type:       string(kind),
		TypeID:     targetID,
	})
	if err != nil {
		_ = tally.Fail(change.Seq)
		out.Reverted = true
		out.Final = tally.View()
		return out, err
	}
	_ = tally.Confirm(change.Seq)
	out.Direction = result

	fresh, err := c.Tally(ctx, kind, targetID)
	if err != nil {
		out.Final = tally.View()
		return out, nil
	}
	out.Final = tally.Reconcile(fresh)
	return out, nil
}
