package candidate

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CandidateRepository interface {
	Create(ctx context.Context, candidate *Candidate) error
	FindByID(ctx context.Context, id uuid.UUID) (*Candidate, error)
	FindAll(ctx context.Context) ([]*Candidate, error)
	Update(ctx context.Context, candidate *Candidate) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type candidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) CandidateRepository {
	return &candidateRepository{db: db}
}

func (r *candidateRepository) Create(ctx context.Context, candidate *Candidate) error {
	return r.db.WithContext(ctx).Create(candidate).Error
}

func (r *candidateRepository) FindByID(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	var candidate Candidate
	err := r.db.WithContext(ctx).First(&candidate, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &candidate, nil
}

func (r *candidateRepository) FindAll(ctx context.Context) ([]*Candidate, error) {
	var candidates []*Candidate
	err := r.db.WithContext(ctx).Order("name").Find(&candidates).Error
	return candidates, err
}

func (r *candidateRepository) Update(ctx context.Context, candidate *Candidate) error {
	return r.db.WithContext(ctx).Save(candidate).Error
}

func (r *candidateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Candidate{}, "id = ?", id).Error
}
