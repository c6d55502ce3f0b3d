package voting

import (
	"time"

	"github.com/google/uuid"
)

// Vote is the primary ledger record, keyed by vote id. Rows are immutable
// once written; they are never updated or deleted.
type Vote struct {
	VoteID      uuid.UUID `json:"voteId"`
	CandidateID uuid.UUID `json:"candidateId"`
	ElectionID  uuid.UUID `json:"electionId"`
	VotedAt     time.Time `json:"votedAt"`
	VoteHash    string    `json:"voteHash"`
	Metadata    string    `json:"metadata"`
}

// VoteByCandidate is the denormalized reporting index, partitioned by
// candidate and clustered by election then vote id.
type VoteByCandidate struct {
	CandidateID uuid.UUID `json:"candidateId"`
	ElectionID  uuid.UUID `json:"electionId"`
	VoteID      uuid.UUID `json:"voteId"`
	VotedAt     time.Time `json:"votedAt"`
}

// UserVoteLog holds one row per (user, election). The existence of the row
// is the durable proof that the user voted, and it is the fallback for
// duplicate detection when the fast-path store is unavailable.
type UserVoteLog struct {
	UserID      uuid.UUID `json:"userId"`
	ElectionID  uuid.UUID `json:"electionId"`
	VoteID      uuid.UUID `json:"voteId"`
	CandidateID uuid.UUID `json:"candidateId"`
	VotedAt     time.Time `json:"votedAt"`
}

// UserVotingStatus is the relational fast-path gate. The composite
// (user_id, election_id) primary key backs the conditional insert that
// admits at most one winning cast per user and election.
type UserVotingStatus struct {
	UserID     uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey" json:"userId"`
	ElectionID uuid.UUID `gorm:"column:election_id;type:uuid;primaryKey" json:"electionId"`
	HasVoted   bool      `gorm:"column:has_voted;not null" json:"hasVoted"`
	VotedAt    time.Time `gorm:"column:voted_at" json:"votedAt"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (UserVotingStatus) TableName() string {
	return "user_voting_status"
}

// VoteRequest defines the input for casting a vote. ElectionID is optional;
// the configured default election is used when it is omitted.
type VoteRequest struct {
	CandidateID uuid.UUID  `json:"candidateId" binding:"required"`
	ElectionID  *uuid.UUID `json:"electionId"`
}

type VoteResponse struct {
	VoteID      uuid.UUID `json:"voteId"`
	CandidateID uuid.UUID `json:"candidateId"`
	ElectionID  uuid.UUID `json:"electionId"`
	VotedAt     time.Time `json:"votedAt"`
	Message     string    `json:"message"`
	Success     bool      `json:"success"`
}

type VotingStatusResponse struct {
	HasVoted bool   `json:"hasVoted"`
	Message  string `json:"message"`
}
