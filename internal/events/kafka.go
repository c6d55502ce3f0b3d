package events

import (
	"context"
	"encoding/json"
	"time"

	"votes-service/internal/voting"

	"github.com/segmentio/kafka-go"
)

// voteRecordedEvent is the anonymized payload consumed by the reporting
// service. It deliberately carries no user identity.
type voteRecordedEvent struct {
	Type        string    `json:"type"`
	VoteID      string    `json:"voteId"`
	CandidateID string    `json:"candidateId"`
	ElectionID  string    `json:"electionId"`
	VotedAt     time.Time `json:"votedAt"`
}

// VotePublisher emits vote.recorded events keyed by candidate, so tallies
// for a candidate land on one partition in order.
type VotePublisher struct {
	writer *kafka.Writer
}

func NewVotePublisher(brokers []string, topic string) *VotePublisher {
	return &VotePublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

func (p *VotePublisher) PublishVoteRecorded(ctx context.Context, vote *voting.Vote) error {
	payload, err := json.Marshal(voteRecordedEvent{
		Type:        "vote.recorded",
		VoteID:      vote.VoteID.String(),
		CandidateID: vote.CandidateID.String(),
		ElectionID:  vote.ElectionID.String(),
		VotedAt:     vote.VotedAt,
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(vote.CandidateID.String()),
		Value: payload,
	})
}

func (p *VotePublisher) Close() error {
	return p.writer.Close()
}
