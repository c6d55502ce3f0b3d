package voting

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrDuplicateVote is the deterministic rejection for a user who already
	// holds the gate for an election. Non-retryable.
	ErrDuplicateVote = errors.New("user has already voted in this election")
	// ErrStatusUnavailable means the atomic gate itself could not be
	// evaluated. No state changed, so the client may safely retry.
	ErrStatusUnavailable = errors.New("voting status store unavailable")
)

const defaultMetadata = "{}"

// votedAtLayout pins voted_at to millisecond precision so the hash can be
// recomputed byte for byte from the persisted fields.
const votedAtLayout = "2006-01-02T15:04:05.000Z07:00"

// ComputeVoteHash returns the tamper-evident integrity fingerprint of a
// vote: SHA-256 over voteID || candidateID || electionID || votedAt. It is
// a pure function of the persisted fields, not a secrecy mechanism.
func ComputeVoteHash(voteID, candidateID, electionID uuid.UUID, votedAt time.Time) string {
	input := voteID.String() + candidateID.String() + electionID.String() +
		votedAt.UTC().Format(votedAtLayout)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// StatusCache is a best-effort read cache in front of the fast-path store.
// It is consulted by the read path only; the write gate never touches it.
type StatusCache interface {
	GetVoted(ctx context.Context, userID, electionID uuid.UUID) (bool, error)
	SetVoted(ctx context.Context, userID, electionID uuid.UUID, votedAt time.Time) error
}

// EventPublisher emits anonymized vote events for the reporting service.
// Publishing is best-effort and never affects the commit result.
type EventPublisher interface {
	PublishVoteRecorded(ctx context.Context, vote *Vote) error
}

type VotingService interface {
	CastVote(ctx context.Context, userID uuid.UUID, req *VoteRequest) (*VoteResponse, error)
	CheckStatus(ctx context.Context, userID uuid.UUID, electionID *uuid.UUID) (*VotingStatusResponse, error)
	ListByCandidate(ctx context.Context, candidateID uuid.UUID, electionID *uuid.UUID) ([]VoteByCandidate, error)
}

type votingService struct {
	statusRepo      StatusRepository
	ledger          LedgerRepository
	cache           StatusCache
	publisher       EventPublisher
	defaultElection uuid.UUID
}

// NewVotingService wires the commit protocol. cache and publisher may be
// nil; both are optional collaborators.
func NewVotingService(statusRepo StatusRepository, ledger LedgerRepository, cache StatusCache, publisher EventPublisher, defaultElection uuid.UUID) VotingService {
	return &votingService{
		statusRepo:      statusRepo,
		ledger:          ledger,
		cache:           cache,
		publisher:       publisher,
		defaultElection: defaultElection,
	}
}

// CastVote runs the commit protocol: win the atomic gate on the status
// store, then append the three ledger rows. Correctness under concurrency
// rests entirely on the gate; a losing request never reaches the ledger.
func (s *votingService) CastVote(ctx context.Context, userID uuid.UUID, req *VoteRequest) (*VoteResponse, error) {
	// Resolved once and used for both the gate and the ledger. A request
	// must never check status under one election and write under another.
	electionID := s.resolveElection(req.ElectionID)
	votedAt := time.Now().UTC().Truncate(time.Millisecond)

	won, err := s.statusRepo.CreateIfAbsent(ctx, userID, electionID, votedAt)
	if err != nil {
		slog.Error("status gate unavailable",
			"userId", userID, "electionId", electionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStatusUnavailable, err)
	}
	if !won {
		slog.Warn("duplicate vote rejected", "userId", userID, "electionId", electionID)
		return nil, ErrDuplicateVote
	}

	// The gate is won. From here the operation must run to completion even
	// if the caller goes away; abandoning it would strand the gate.
	ctx = context.WithoutCancel(ctx)

	voteID := uuid.New()
	voteHash := ComputeVoteHash(voteID, req.CandidateID, electionID, votedAt)

	vote := &Vote{
		VoteID:      voteID,
		CandidateID: req.CandidateID,
		ElectionID:  electionID,
		VotedAt:     votedAt,
		VoteHash:    voteHash,
		Metadata:    defaultMetadata,
	}
	byCandidate := &VoteByCandidate{
		CandidateID: req.CandidateID,
		ElectionID:  electionID,
		VoteID:      voteID,
		VotedAt:     votedAt,
	}
	userLog := &UserVoteLog{
		UserID:      userID,
		ElectionID:  electionID,
		VoteID:      voteID,
		CandidateID: req.CandidateID,
		VotedAt:     votedAt,
	}

	if err := s.ledger.AppendVote(ctx, vote, byCandidate, userLog); err != nil {
		// Fail closed: the user stays marked as voted and the gate is not
		// rolled back (that would reopen the duplicate race). The sweep
		// resolves the partial commit from these identifiers.
		slog.Error("ledger write failed after gate commit",
			"userId", userID, "electionId", electionID, "voteId", voteID, "error", err)
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetVoted(ctx, userID, electionID, votedAt); err != nil {
			slog.Warn("status cache write failed",
				"userId", userID, "electionId", electionID, "error", err)
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishVoteRecorded(ctx, vote); err != nil {
			slog.Warn("vote event publish failed", "voteId", voteID, "error", err)
		}
	}

	slog.Info("vote committed",
		"voteId", voteID, "electionId", electionID, "candidateId", req.CandidateID)

	return &VoteResponse{
		VoteID:      voteID,
		CandidateID: req.CandidateID,
		ElectionID:  electionID,
		VotedAt:     votedAt,
		Message:     "vote registered successfully",
		Success:     true,
	}, nil
}

// CheckStatus consults the fast-path store first and falls back to the
// ledger only when the fast-path store is unreachable. When both paths are
// exhausted it reports hasVoted=false: the read path fails open so a
// legitimate voter is never falsely blocked.
func (s *votingService) CheckStatus(ctx context.Context, userID uuid.UUID, electionID *uuid.UUID) (*VotingStatusResponse, error) {
	election := s.resolveElection(electionID)

	if s.cache != nil {
		if voted, err := s.cache.GetVoted(ctx, userID, election); err == nil && voted {
			return hasVotedResponse(), nil
		}
	}

	status, found, err := s.statusRepo.Get(ctx, userID, election)
	if err == nil {
		if found && status.HasVoted {
			return hasVotedResponse(), nil
		}
		return hasNotVotedResponse(), nil
	}

	slog.Warn("status store unreachable, falling back to ledger",
		"userId", userID, "electionId", election, "error", err)

	if _, found, err := s.ledger.FindUserVoteLog(ctx, userID, election); err == nil && found {
		return hasVotedResponse(), nil
	} else if err != nil {
		slog.Warn("ledger fallback unreachable, failing open",
			"userId", userID, "electionId", election, "error", err)
	}

	return hasNotVotedResponse(), nil
}

func (s *votingService) ListByCandidate(ctx context.Context, candidateID uuid.UUID, electionID *uuid.UUID) ([]VoteByCandidate, error) {
	return s.ledger.ListByCandidate(ctx, candidateID, s.resolveElection(electionID))
}

func (s *votingService) resolveElection(electionID *uuid.UUID) uuid.UUID {
	if electionID != nil && *electionID != uuid.Nil {
		return *electionID
	}
	return s.defaultElection
}

func hasVotedResponse() *VotingStatusResponse {
	return &VotingStatusResponse{HasVoted: true, Message: "user has already voted"}
}

func hasNotVotedResponse() *VotingStatusResponse {
	return &VotingStatusResponse{HasVoted: false, Message: "user has not voted yet"}
}
