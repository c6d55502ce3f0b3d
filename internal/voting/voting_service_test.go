package voting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testElection = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func newTestService(statusRepo *memStatusRepo, ledger *memLedger) VotingService {
	return NewVotingService(statusRepo, ledger, nil, nil, testElection)
}

func TestCastVoteSuccess(t *testing.T) {
	statusRepo := newMemStatusRepo()
	ledger := newMemLedger()
	svc := newTestService(statusRepo, ledger)

	userID := uuid.New()
	candidateID := uuid.New()

	resp, err := svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: candidateID})
	require.NoError(t, err)
	require.True(t, resp.Success)
	assert.NotEqual(t, uuid.Nil, resp.VoteID)
	assert.Equal(t, candidateID, resp.CandidateID)
	assert.Equal(t, testElection, resp.ElectionID)

	// Status and ledger agree after a successful commit.
	status, err := svc.CheckStatus(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.True(t, status.HasVoted)

	entry, found, err := ledger.FindUserVoteLog(context.Background(), userID, testElection)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, resp.VoteID, entry.VoteID)
	assert.Equal(t, candidateID, entry.CandidateID)
}

func TestCastVoteDuplicateRejected(t *testing.T) {
	statusRepo := newMemStatusRepo()
	ledger := newMemLedger()
	svc := newTestService(statusRepo, ledger)

	userID := uuid.New()
	firstCandidate := uuid.New()
	secondCandidate := uuid.New()

	resp, err := svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: firstCandidate})
	require.NoError(t, err)
	require.True(t, resp.Success)

	// Re-submission is rejected regardless of the candidate requested.
	_, err = svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: firstCandidate})
	assert.ErrorIs(t, err, ErrDuplicateVote)
	_, err = svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: secondCandidate})
	assert.ErrorIs(t, err, ErrDuplicateVote)

	// The loser never reached the ledger.
	assert.Equal(t, 1, ledger.appendCalls)
	assert.Equal(t, 1, ledger.voteCount())

	status, err := svc.CheckStatus(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.True(t, status.HasVoted)
}

func TestCastVoteConcurrentSingleWinner(t *testing.T) {
	statusRepo := newMemStatusRepo()
	ledger := newMemLedger()
	ledger.gate = statusRepo
	svc := newTestService(statusRepo, ledger)

	userID := uuid.New()
	candidateA := uuid.New()
	candidateB := uuid.New()

	const attempts = 32
	var wg sync.WaitGroup
	results := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidateID := candidateA
			if i%2 == 1 {
				candidateID = candidateB
			}
			_, err := svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: candidateID})
			results[i] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrDuplicateVote)
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent cast may win")

	// Ledger holds exactly one vote for the user, and every append happened
	// after the gate for that (user, election) was won.
	assert.Equal(t, 1, ledger.voteCount())
	assert.Equal(t, 1, ledger.appendCalls)
	assert.False(t, ledger.gateSkipped, "ledger write observed before gate commit")

	entriesA, err := ledger.ListByCandidate(context.Background(), candidateA, testElection)
	require.NoError(t, err)
	entriesB, err := ledger.ListByCandidate(context.Background(), candidateB, testElection)
	require.NoError(t, err)
	assert.Equal(t, 1, len(entriesA)+len(entriesB))
}

func TestCastVoteStatusStoreUnavailable(t *testing.T) {
	statusRepo := newMemStatusRepo()
	statusRepo.failGate = errors.New("connection refused")
	ledger := newMemLedger()
	svc := newTestService(statusRepo, ledger)

	_, err := svc.CastVote(context.Background(), uuid.New(), &VoteRequest{CandidateID: uuid.New()})
	assert.ErrorIs(t, err, ErrStatusUnavailable)

	// Fail closed with no partial state: nothing reached the ledger.
	assert.Equal(t, 0, ledger.appendCalls)
}

func TestCastVoteLedgerFailureLeavesGateCommitted(t *testing.T) {
	statusRepo := newMemStatusRepo()
	ledger := newMemLedger()
	ledger.failStep = "user_vote_log"
	svc := newTestService(statusRepo, ledger)

	userID := uuid.New()
	candidateID := uuid.New()

	_, err := svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: candidateID})
	require.Error(t, err)

	var ledgerErr *LedgerWriteError
	require.ErrorAs(t, err, &ledgerErr)
	assert.Equal(t, "user_vote_log", ledgerErr.Step)
	assert.Equal(t, userID, ledgerErr.UserID)

	// The gate stays won: a retry is rejected as duplicate rather than
	// reopening the race.
	_, err = svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: candidateID})
	assert.ErrorIs(t, err, ErrDuplicateVote)
}

func TestCastVoteDefaultElectionUsedUniformly(t *testing.T) {
	statusRepo := newMemStatusRepo()
	ledger := newMemLedger()
	svc := newTestService(statusRepo, ledger)

	userID := uuid.New()
	resp, err := svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, testElection, resp.ElectionID)

	// Gate and ledger were both written under the default election.
	_, found, err := statusRepo.Get(context.Background(), userID, testElection)
	require.NoError(t, err)
	assert.True(t, found)
	_, found, err = ledger.FindUserVoteLog(context.Background(), userID, testElection)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestCastVoteExplicitElection(t *testing.T) {
	statusRepo := newMemStatusRepo()
	ledger := newMemLedger()
	svc := newTestService(statusRepo, ledger)

	userID := uuid.New()
	otherElection := uuid.New()

	resp, err := svc.CastVote(context.Background(), userID, &VoteRequest{
		CandidateID: uuid.New(),
		ElectionID:  &otherElection,
	})
	require.NoError(t, err)
	assert.Equal(t, otherElection, resp.ElectionID)

	// A vote in one election does not block another election.
	resp2, err := svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, testElection, resp2.ElectionID)
}

func TestVoteHashDeterminism(t *testing.T) {
	statusRepo := newMemStatusRepo()
	ledger := newMemLedger()
	svc := newTestService(statusRepo, ledger)

	userID := uuid.New()
	resp, err := svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: uuid.New()})
	require.NoError(t, err)

	ledger.mu.Lock()
	stored := ledger.votes[resp.VoteID]
	ledger.mu.Unlock()
	require.NotNil(t, stored)

	// Recomputing from the persisted fields reproduces the stored value.
	recomputed := ComputeVoteHash(stored.VoteID, stored.CandidateID, stored.ElectionID, stored.VotedAt)
	assert.Equal(t, stored.VoteHash, recomputed)
	assert.Len(t, stored.VoteHash, 64)
}

func TestComputeVoteHashPureFunction(t *testing.T) {
	voteID := uuid.New()
	candidateID := uuid.New()
	electionID := uuid.New()
	votedAt := time.Date(2026, 3, 15, 10, 30, 0, 123_000_000, time.UTC)

	first := ComputeVoteHash(voteID, candidateID, electionID, votedAt)
	second := ComputeVoteHash(voteID, candidateID, electionID, votedAt)
	assert.Equal(t, first, second)

	// Any field change changes the digest.
	assert.NotEqual(t, first, ComputeVoteHash(uuid.New(), candidateID, electionID, votedAt))
	assert.NotEqual(t, first, ComputeVoteHash(voteID, candidateID, electionID, votedAt.Add(time.Millisecond)))
}

func TestCheckStatusFallsBackToLedger(t *testing.T) {
	statusRepo := newMemStatusRepo()
	ledger := newMemLedger()
	svc := newTestService(statusRepo, ledger)

	userID := uuid.New()
	_, err := svc.CastVote(context.Background(), userID, &VoteRequest{CandidateID: uuid.New()})
	require.NoError(t, err)

	// Fast-path store goes down; the ledger still answers.
	statusRepo.failGet = errors.New("connection refused")
	status, err := svc.CheckStatus(context.Background(), userID, nil)
	require.NoError(t, err)
	assert.True(t, status.HasVoted)
}

func TestCheckStatusFailsOpen(t *testing.T) {
	statusRepo := newMemStatusRepo()
	statusRepo.failGet = errors.New("connection refused")
	ledger := newMemLedger()
	ledger.failFind = errors.New("no hosts available")
	svc := newTestService(statusRepo, ledger)

	// Both stores unreachable: the read path reports not-voted instead of
	// failing, so a legitimate voter is never falsely blocked.
	status, err := svc.CheckStatus(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, status.HasVoted)
}

func TestCheckStatusNotVoted(t *testing.T) {
	svc := newTestService(newMemStatusRepo(), newMemLedger())

	status, err := svc.CheckStatus(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, status.HasVoted)
	assert.Equal(t, "user has not voted yet", status.Message)
}
