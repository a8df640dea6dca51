package ledger

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	ListOpenRecords(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Record, error)
	GetRecord(ctx context.Context, tenantID, id uuid.UUID) (*Record, error)
	MarkLinked(ctx context.Context, tenantID, recordID, documentID uuid.UUID) error
	// MarkUnlinked reopens the record only while documentID still holds it; a record
	// since linked to another document is left alone.
	MarkUnlinked(ctx context.Context, tenantID, recordID, documentID uuid.UUID) error
}

// Service is the engine's view of the external ledger. It only reads and annotates
// records; their lifecycle belongs to the ledger itself.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListOpenRecords(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]Record, error) {
	return s.repo.ListOpenRecords(ctx, tenantID, filter)
}

func (s *Service) GetRecord(ctx context.Context, tenantID, id uuid.UUID) (*Record, error) {
	return s.repo.GetRecord(ctx, tenantID, id)
}

func (s *Service) MarkLinked(ctx context.Context, tenantID, recordID, documentID uuid.UUID) error {
	return s.repo.MarkLinked(ctx, tenantID, recordID, documentID)
}

func (s *Service) MarkUnlinked(ctx context.Context, tenantID, recordID, documentID uuid.UUID) error {
	return s.repo.MarkUnlinked(ctx, tenantID, recordID, documentID)
}
