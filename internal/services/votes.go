package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

// VoteService reconciles vote intents against the vote store and reads
// tallies back. Votes never touch reputation.
type VoteService struct {
	store store.Store
	log   *slog.Logger
}

func NewVoteService(st store.Store, log *slog.Logger) *VoteService {
	return &VoteService{store: st, log: log}
}

// ApplyVote moves the voter's vote on a target toward requested:
// no record creates one, the same direction removes it, the other direction
// switches it. The returned direction is nil when the vote was removed.
func (s *VoteService) ApplyVote(ctx context.Context, kind models.TargetKind, targetID, voterID string, requested models.Direction) (*models.Direction, error) {
	if voterID == "" {
		return nil, fmt.Errorf("%w: voting requires a signed in user", ErrUnauthorized)
	}
	if !kind.Valid() {
		return nil, invalidf("unknown target type %q", kind)
	}
	if targetID == "" {
		return nil, invalidf("typeId is required")
	}
	if !requested.Valid() {
		return nil, invalidf("unknown vote status %q", requested)
	}

	if err := targetExists(ctx, s.store, kind, targetID); err != nil {
		return nil, err
	}

	key := store.VoteKey{Kind: kind, TargetID: targetID, VoterID: voterID}

	dir, err := s.reconcile(ctx, key, requested)
	if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
		// A concurrent request for the same triple changed the record
		// between our lookup and write. Re-read and apply once more.
		s.log.Debug("vote raced, reconciling again",
			"type", kind, "type_id", targetID, "voter_id", voterID, "error", err)
		dir, err = s.reconcile(ctx, key, requested)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return dir, nil
}

func (s *VoteService) reconcile(ctx context.Context, key store.VoteKey, requested models.Direction) (*models.Direction, error) {
	existing, err := s.store.FindVotes(ctx, key)
	if err != nil {
		return nil, err
	}

	switch {
	case len(existing) > 1:
		s.log.Error("duplicate vote records",
			"type", key.Kind, "type_id", key.TargetID, "voter_id", key.VoterID, "count", len(existing))
		return nil, fmt.Errorf("%w: %d votes on %s %s by %s",
			ErrIntegrity, len(existing), key.Kind, key.TargetID, key.VoterID)

	case len(existing) == 0:
		vote := &models.Vote{
			Type:       key.Kind,
			TypeID:     key.TargetID,
			VotedByID:  key.VoterID,
			VoteStatus: requested,
		}
		if err := s.store.CreateVote(ctx, vote); err != nil {
			return nil, err
		}
		return &requested, nil

	case existing[0].VoteStatus == requested:
		if err := s.store.DeleteVote(ctx, existing[0].ID); err != nil {
			return nil, err
		}
		return nil, nil

	default:
		if err := s.store.UpdateVoteDirection(ctx, existing[0].ID, requested); err != nil {
			return nil, err
		}
		return &requested, nil
	}
}

// GetTally counts up and down votes with two independent queries and, when
// requestingUserID is set, looks up that user's own vote. Under concurrent
// writes the two counts may be momentarily skewed.
func (s *VoteService) GetTally(ctx context.Context, kind models.TargetKind, targetID, requestingUserID string) (models.VoteTally, error) {
	if !kind.Valid() {
		return models.VoteTally{}, invalidf("unknown target type %q", kind)
	}
	if targetID == "" {
		return models.VoteTally{}, invalidf("typeId is required")
	}

	var tally models.VoteTally
	var err error

	if tally.Upvotes, err = s.store.CountVotes(ctx, kind, targetID, models.Upvoted); err != nil {
		return models.VoteTally{}, storeError(err)
	}
	if tally.Downvotes, err = s.store.CountVotes(ctx, kind, targetID, models.Downvoted); err != nil {
		return models.VoteTally{}, storeError(err)
	}

	if requestingUserID != "" {
		own, err := s.store.FindVotes(ctx, store.VoteKey{Kind: kind, TargetID: targetID, VoterID: requestingUserID})
		if err != nil {
			return models.VoteTally{}, storeError(err)
		}
		if len(own) > 0 {
			dir := own[0].VoteStatus
			tally.UserDirection = &dir
		}
	}
	return tally, nil
}
