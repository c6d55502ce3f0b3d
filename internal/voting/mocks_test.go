package voting

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

func pairKey(userID, electionID uuid.UUID) string {
	return userID.String() + "/" + electionID.String()
}

func candidateKey(candidateID, electionID uuid.UUID) string {
	return candidateID.String() + "/" + electionID.String()
}

// memStatusRepo is an in-memory StatusRepository whose CreateIfAbsent is
// atomic under a mutex, mirroring the conditional insert of the real store.
type memStatusRepo struct {
	mu       sync.Mutex
	rows     map[string]*UserVotingStatus
	failGate error
	failGet  error
}

func newMemStatusRepo() *memStatusRepo {
	return &memStatusRepo{rows: make(map[string]*UserVotingStatus)}
}

func (r *memStatusRepo) Get(ctx context.Context, userID, electionID uuid.UUID) (*UserVotingStatus, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet != nil {
		return nil, false, r.failGet
	}
	row, ok := r.rows[pairKey(userID, electionID)]
	if !ok {
		return nil, false, nil
	}
	copied := *row
	return &copied, true, nil
}

func (r *memStatusRepo) CreateIfAbsent(ctx context.Context, userID, electionID uuid.UUID, votedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGate != nil {
		return false, r.failGate
	}
	key := pairKey(userID, electionID)
	if _, exists := r.rows[key]; exists {
		return false, nil
	}
	now := time.Now().UTC()
	r.rows[key] = &UserVotingStatus{
		UserID:     userID,
		ElectionID: electionID,
		HasVoted:   true,
		VotedAt:    votedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return true, nil
}

func (r *memStatusRepo) Delete(ctx context.Context, userID, electionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, pairKey(userID, electionID))
	return nil
}

func (r *memStatusRepo) ListVoted(ctx context.Context, after time.Time, limit int) ([]UserVotingStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []UserVotingStatus
	for _, row := range r.rows {
		if row.HasVoted && row.UpdatedAt.After(after) {
			out = append(out, *row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memStatusRepo) setUpdatedAt(userID, electionID uuid.UUID, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if row, ok := r.rows[pairKey(userID, electionID)]; ok {
		row.UpdatedAt = at
	}
}

// memLedger simulates the append-only ledger with per-table failure
// injection, so partial commits can be exercised. When gate is set, every
// append verifies that the status gate for the entry was already won.
type memLedger struct {
	mu          sync.Mutex
	votes       map[uuid.UUID]*Vote
	byCandidate map[string][]VoteByCandidate
	userLogs    map[string]*UserVoteLog
	appendCalls int
	failStep    string
	failFind    error
	gate        *memStatusRepo
	gateSkipped bool
}

func newMemLedger() *memLedger {
	return &memLedger{
		votes:       make(map[uuid.UUID]*Vote),
		byCandidate: make(map[string][]VoteByCandidate),
		userLogs:    make(map[string]*UserVoteLog),
	}
}

func (l *memLedger) AppendVote(ctx context.Context, vote *Vote, byCandidate *VoteByCandidate, userLog *UserVoteLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.appendCalls++

	if l.gate != nil {
		if _, found, _ := l.gate.Get(ctx, userLog.UserID, userLog.ElectionID); !found {
			l.gateSkipped = true
		}
	}

	if l.failStep == "votes" {
		return l.writeError("votes", userLog)
	}
	l.votes[vote.VoteID] = vote

	if l.failStep == "votes_by_candidate" {
		return l.writeError("votes_by_candidate", userLog)
	}
	key := candidateKey(byCandidate.CandidateID, byCandidate.ElectionID)
	l.byCandidate[key] = append(l.byCandidate[key], *byCandidate)

	if l.failStep == "user_vote_log" {
		return l.writeError("user_vote_log", userLog)
	}
	l.userLogs[pairKey(userLog.UserID, userLog.ElectionID)] = userLog
	return nil
}

func (l *memLedger) FindUserVoteLog(ctx context.Context, userID, electionID uuid.UUID) (*UserVoteLog, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failFind != nil {
		return nil, false, l.failFind
	}
	entry, ok := l.userLogs[pairKey(userID, electionID)]
	if !ok {
		return nil, false, nil
	}
	copied := *entry
	return &copied, true, nil
}

func (l *memLedger) ListByCandidate(ctx context.Context, candidateID, electionID uuid.UUID) ([]VoteByCandidate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]VoteByCandidate(nil), l.byCandidate[candidateKey(candidateID, electionID)]...), nil
}

func (l *memLedger) RepairFromLog(ctx context.Context, entry *UserVoteLog) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	wrote := false
	if _, exists := l.votes[entry.VoteID]; !exists {
		l.votes[entry.VoteID] = &Vote{
			VoteID:      entry.VoteID,
			CandidateID: entry.CandidateID,
			ElectionID:  entry.ElectionID,
			VotedAt:     entry.VotedAt,
			VoteHash:    ComputeVoteHash(entry.VoteID, entry.CandidateID, entry.ElectionID, entry.VotedAt),
			Metadata:    defaultMetadata,
		}
		wrote = true
	}
	key := candidateKey(entry.CandidateID, entry.ElectionID)
	haveByCandidate := false
	for _, existing := range l.byCandidate[key] {
		if existing.VoteID == entry.VoteID {
			haveByCandidate = true
			break
		}
	}
	if !haveByCandidate {
		l.byCandidate[key] = append(l.byCandidate[key], VoteByCandidate{
			CandidateID: entry.CandidateID,
			ElectionID:  entry.ElectionID,
			VoteID:      entry.VoteID,
			VotedAt:     entry.VotedAt,
		})
		wrote = true
	}
	return wrote, nil
}

func (l *memLedger) writeError(step string, userLog *UserVoteLog) error {
	return &LedgerWriteError{
		Step:       step,
		VoteID:     userLog.VoteID,
		UserID:     userLog.UserID,
		ElectionID: userLog.ElectionID,
		Err:        errors.New("injected failure"),
	}
}

func (l *memLedger) voteCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.votes)
}
