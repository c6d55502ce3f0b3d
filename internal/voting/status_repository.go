package voting

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StatusRepository is the fast-path gate over the relational store.
type StatusRepository interface {
	// Get returns the status row for (userID, electionID), reporting absence
	// through the found flag rather than an error.
	Get(ctx context.Context, userID, electionID uuid.UUID) (*UserVotingStatus, bool, error)
	// CreateIfAbsent atomically inserts the status row and reports whether
	// this caller won. The insert is a single conditional statement; two
	// concurrent calls for the same (userID, electionID) race on it and
	// exactly one observes won=true.
	CreateIfAbsent(ctx context.Context, userID, electionID uuid.UUID, votedAt time.Time) (bool, error)
	// Delete compensates an orphaned gate win. Used only by the
	// reconciliation sweep.
	Delete(ctx context.Context, userID, electionID uuid.UUID) error
	// ListVoted pages through committed status rows in updated_at order,
	// returning at most limit rows updated strictly after the cursor. The
	// sweep walks the whole table with it, so no row ages out of
	// reconciliation no matter how long the service was down.
	ListVoted(ctx context.Context, after time.Time, limit int) ([]UserVotingStatus, error)
}

type statusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &statusRepository{db: db}
}

func (r *statusRepository) Get(ctx context.Context, userID, electionID uuid.UUID) (*UserVotingStatus, bool, error) {
	var status UserVotingStatus
	err := r.db.WithContext(ctx).
		First(&status, "user_id = ? AND election_id = ?", userID, electionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &status, true, nil
}

func (r *statusRepository) CreateIfAbsent(ctx context.Context, userID, electionID uuid.UUID, votedAt time.Time) (bool, error) {
	now := time.Now().UTC()
	row := UserVotingStatus{
		UserID:     userID,
		ElectionID: electionID,
		HasVoted:   true,
		VotedAt:    votedAt,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// INSERT .. ON CONFLICT DO NOTHING on the composite primary key.
	// RowsAffected == 0 means another request already holds the gate.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "election_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *statusRepository) Delete(ctx context.Context, userID, electionID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&UserVotingStatus{}, "user_id = ? AND election_id = ?", userID, electionID).Error
}

func (r *statusRepository) ListVoted(ctx context.Context, after time.Time, limit int) ([]UserVotingStatus, error) {
	var rows []UserVotingStatus
	err := r.db.WithContext(ctx).
		Where("has_voted = ? AND updated_at > ?", true, after).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
