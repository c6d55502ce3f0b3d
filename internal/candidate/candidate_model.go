package candidate

import (
	"time"

	"github.com/google/uuid"
)

// Candidate is registry data only; the commit protocol never depends on it.
type Candidate struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;size:100;not null" json:"name"`
	Party       string    `gorm:"column:party;size:100;not null" json:"party"`
	Description string    `gorm:"column:description;size:500" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

func (Candidate) TableName() string {
	return "candidates"
}

type CreateCandidateRequest struct {
	Name        string `json:"name" binding:"required"`
	Party       string `json:"party" binding:"required"`
	Description string `json:"description"`
}

type UpdateCandidateRequest struct {
	Name        string `json:"name"`
	Party       string `json:"party"`
	Description string `json:"description"`
}
