package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
)

// LedgerWriteError reports a ledger write that failed after the status gate
// was already won. It carries enough identity to drive the reconciliation
// sweep; it is never retried synchronously within the failing request.
type LedgerWriteError struct {
	Step       string
	VoteID     uuid.UUID
	UserID     uuid.UUID
	ElectionID uuid.UUID
	Err        error
}

func (e *LedgerWriteError) Error() string {
	return fmt.Sprintf("ledger write failed at %s (vote %s, user %s, election %s): %v",
		e.Step, e.VoteID, e.UserID, e.ElectionID, e.Err)
}

func (e *LedgerWriteError) Unwrap() error {
	return e.Err
}

// LedgerRepository is the append-only, partition-keyed vote ledger.
type LedgerRepository interface {
	// AppendVote writes the three derived views of a cast vote. The writes
	// are logically one unit, but the store has no multi-partition
	// transactions; a failure is reported as *LedgerWriteError and resolved
	// out of band.
	AppendVote(ctx context.Context, vote *Vote, byCandidate *VoteByCandidate, userLog *UserVoteLog) error
	// FindUserVoteLog is the duplicate-check fallback and the reconciler's
	// source of truth.
	FindUserVoteLog(ctx context.Context, userID, electionID uuid.UUID) (*UserVoteLog, bool, error)
	// ListByCandidate feeds the external reporting service.
	ListByCandidate(ctx context.Context, candidateID, electionID uuid.UUID) ([]VoteByCandidate, error)
	// RepairFromLog re-derives missing votes and votes_by_candidate rows
	// from a surviving user_vote_log row, recomputing the hash from the
	// persisted fields. It reports whether anything had to be written;
	// inserts are upserts, so repair is idempotent.
	RepairFromLog(ctx context.Context, entry *UserVoteLog) (bool, error)
}

type cassandraLedger struct {
	session *gocql.Session
}

func NewLedgerRepository(session *gocql.Session) LedgerRepository {
	return &cassandraLedger{session: session}
}

func (l *cassandraLedger) AppendVote(ctx context.Context, vote *Vote, byCandidate *VoteByCandidate, userLog *UserVoteLog) error {
	// Ids are bound as gocql.UUID throughout: the driver's uuid marshaller
	// rejects other named [16]byte types.
	if err := l.session.Query(
		`INSERT INTO votes (vote_id, candidate_id, election_id, voted_at, vote_hash, metadata)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		gocql.UUID(vote.VoteID), gocql.UUID(vote.CandidateID), gocql.UUID(vote.ElectionID),
		vote.VotedAt, vote.VoteHash, vote.Metadata,
	).WithContext(ctx).Exec(); err != nil {
		return l.writeError("votes", userLog, err)
	}

	if err := l.session.Query(
		`INSERT INTO votes_by_candidate (candidate_id, election_id, vote_id, voted_at)
		 VALUES (?, ?, ?, ?)`,
		gocql.UUID(byCandidate.CandidateID), gocql.UUID(byCandidate.ElectionID),
		gocql.UUID(byCandidate.VoteID), byCandidate.VotedAt,
	).WithContext(ctx).Exec(); err != nil {
		return l.writeError("votes_by_candidate", userLog, err)
	}

	// Written last: once the log row lands, the vote is durably attributable
	// and the reconciler can re-derive everything else from it.
	if err := l.session.Query(
		`INSERT INTO user_vote_log (user_id, election_id, vote_id, candidate_id, voted_at)
		 VALUES (?, ?, ?, ?, ?)`,
		gocql.UUID(userLog.UserID), gocql.UUID(userLog.ElectionID),
		gocql.UUID(userLog.VoteID), gocql.UUID(userLog.CandidateID), userLog.VotedAt,
	).WithContext(ctx).Exec(); err != nil {
		return l.writeError("user_vote_log", userLog, err)
	}

	return nil
}

func (l *cassandraLedger) FindUserVoteLog(ctx context.Context, userID, electionID uuid.UUID) (*UserVoteLog, bool, error) {
	var (
		userCol, electionCol, voteCol, candidateCol gocql.UUID
		votedAt                                     time.Time
	)
	err := l.session.Query(
		`SELECT user_id, election_id, vote_id, candidate_id, voted_at
		 FROM user_vote_log WHERE user_id = ? AND election_id = ?`,
		gocql.UUID(userID), gocql.UUID(electionID),
	).WithContext(ctx).Scan(&userCol, &electionCol, &voteCol, &candidateCol, &votedAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &UserVoteLog{
		UserID:      uuid.UUID(userCol),
		ElectionID:  uuid.UUID(electionCol),
		VoteID:      uuid.UUID(voteCol),
		CandidateID: uuid.UUID(candidateCol),
		VotedAt:     votedAt,
	}, true, nil
}

func (l *cassandraLedger) ListByCandidate(ctx context.Context, candidateID, electionID uuid.UUID) ([]VoteByCandidate, error) {
	iter := l.session.Query(
		`SELECT candidate_id, election_id, vote_id, voted_at
		 FROM votes_by_candidate WHERE candidate_id = ? AND election_id = ?`,
		gocql.UUID(candidateID), gocql.UUID(electionID),
	).WithContext(ctx).Iter()

	var entries []VoteByCandidate
	var (
		candidateCol, electionCol, voteCol gocql.UUID
		votedAt                            time.Time
	)
	for iter.Scan(&candidateCol, &electionCol, &voteCol, &votedAt) {
		entries = append(entries, VoteByCandidate{
			CandidateID: uuid.UUID(candidateCol),
			ElectionID:  uuid.UUID(electionCol),
			VoteID:      uuid.UUID(voteCol),
			VotedAt:     votedAt,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (l *cassandraLedger) RepairFromLog(ctx context.Context, entry *UserVoteLog) (bool, error) {
	haveVote, err := l.rowExists(ctx,
		`SELECT vote_id FROM votes WHERE vote_id = ?`,
		gocql.UUID(entry.VoteID))
	if err != nil {
		return false, err
	}
	haveByCandidate, err := l.rowExists(ctx,
		`SELECT vote_id FROM votes_by_candidate
		 WHERE candidate_id = ? AND election_id = ? AND vote_id = ?`,
		gocql.UUID(entry.CandidateID), gocql.UUID(entry.ElectionID), gocql.UUID(entry.VoteID))
	if err != nil {
		return false, err
	}
	if haveVote && haveByCandidate {
		return false, nil
	}

	if !haveVote {
		hash := ComputeVoteHash(entry.VoteID, entry.CandidateID, entry.ElectionID, entry.VotedAt)
		if err := l.session.Query(
			`INSERT INTO votes (vote_id, candidate_id, election_id, voted_at, vote_hash, metadata)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			gocql.UUID(entry.VoteID), gocql.UUID(entry.CandidateID), gocql.UUID(entry.ElectionID),
			entry.VotedAt, hash, defaultMetadata,
		).WithContext(ctx).Exec(); err != nil {
			return false, l.writeError("votes", entry, err)
		}
	}

	if !haveByCandidate {
		if err := l.session.Query(
			`INSERT INTO votes_by_candidate (candidate_id, election_id, vote_id, voted_at)
			 VALUES (?, ?, ?, ?)`,
			gocql.UUID(entry.CandidateID), gocql.UUID(entry.ElectionID),
			gocql.UUID(entry.VoteID), entry.VotedAt,
		).WithContext(ctx).Exec(); err != nil {
			return false, l.writeError("votes_by_candidate", entry, err)
		}
	}

	return true, nil
}

func (l *cassandraLedger) rowExists(ctx context.Context, stmt string, binds ...interface{}) (bool, error) {
	var id gocql.UUID
	err := l.session.Query(stmt, binds...).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (l *cassandraLedger) writeError(step string, userLog *UserVoteLog, err error) error {
	return &LedgerWriteError{
		Step:       step,
		VoteID:     userLog.VoteID,
		UserID:     userLog.UserID,
		ElectionID: userLog.ElectionID,
		Err:        err,
	}
}
