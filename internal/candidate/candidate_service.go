package candidate

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrCandidateNotFound = errors.New("candidate not found")

type CandidateService interface {
	CreateCandidate(ctx context.Context, req *CreateCandidateRequest) (*Candidate, error)
	GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error)
	GetAllCandidates(ctx context.Context) ([]*Candidate, error)
	UpdateCandidate(ctx context.Context, id uuid.UUID, req *UpdateCandidateRequest) (*Candidate, error)
	DeleteCandidate(ctx context.Context, id uuid.UUID) error
}

type candidateService struct {
	repo CandidateRepository
}

func NewCandidateService(repo CandidateRepository) CandidateService {
	return &candidateService{repo: repo}
}

func (s *candidateService) CreateCandidate(ctx context.Context, req *CreateCandidateRequest) (*Candidate, error) {
	now := time.Now().UTC()
	candidate := &Candidate{
		ID:          uuid.New(),
		Name:        req.Name,
		Party:       req.Party,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

func (s *candidateService) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	candidate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrCandidateNotFound
	}
	return candidate, nil
}

func (s *candidateService) GetAllCandidates(ctx context.Context) ([]*Candidate, error) {
	return s.repo.FindAll(ctx)
}

func (s *candidateService) UpdateCandidate(ctx context.Context, id uuid.UUID, req *UpdateCandidateRequest) (*Candidate, error) {
	candidate, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrCandidateNotFound
	}

	if req.Name != "" {
		candidate.Name = req.Name
	}
	if req.Party != "" {
		candidate.Party = req.Party
	}
	if req.Description != "" {
		candidate.Description = req.Description
	}
	candidate.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, candidate); err != nil {
		return nil, err
	}
	return candidate, nil
}

func (s *candidateService) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return ErrCandidateNotFound
	}
	return s.repo.Delete(ctx, id)
}
