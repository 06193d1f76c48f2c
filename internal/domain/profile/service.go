package profile

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Service handles profile and studio business logic. Identity itself lives
// in the external provider; this only manages marketplace attributes.
type Service struct {
	repo *Repository
	now  func() time.Time
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) GetMe(ctx context.Context, userID int64) (*Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateMe applies a partial update. Only instructors carry a session fee.
func (s *Service) UpdateMe(ctx context.Context, userID int64, req UpdateProfileRequest) (*Profile, error) {
	p, err := s.repo.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{"updated_at": s.now()}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.SessionFee != nil {
		if p.Role != RoleInstructor {
			return nil, ErrNotInstructor
		}
		fee, err := decimal.NewFromString(strings.TrimSpace(*req.SessionFee))
		if err != nil || fee.IsNegative() {
			return nil, ErrInvalidFee
		}
		updates["session_fee"] = fee.Round(2)
	}
	return s.repo.UpdateProfile(ctx, userID, updates)
}

func (s *Service) CreateStudio(ctx context.Context, ownerID int64, name string) (*Studio, error) {
	p, err := s.repo.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if p.Role != RoleStudioOwner {
		return nil, ErrNotOwnerRole
	}
	st := &Studio{OwnerID: ownerID, Name: strings.TrimSpace(name)}
	if err := s.repo.CreateStudio(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) ListMyStudios(ctx context.Context, ownerID int64) ([]Studio, error) {
	return s.repo.ListStudiosByOwner(ctx, ownerID)
}

func (s *Service) SetProfilePayoutApproval(ctx context.Context, id int64, approved bool) (*Profile, error) {
	return s.repo.UpdateProfile(ctx, id, map[string]any{"payout_approved": approved, "updated_at": s.now()})
}

func (s *Service) SetStudioPayoutApproval(ctx context.Context, id int64, approved bool) (*Studio, error) {
	return s.repo.UpdateStudio(ctx, id, map[string]any{"payout_approved": approved, "updated_at": s.now()})
}

// ReinstateStudio lifts an automatic late-cancellation suspension.
func (s *Service) ReinstateStudio(ctx context.Context, id int64) (*Studio, error) {
	return s.repo.UpdateStudio(ctx, id, map[string]any{"suspended_at": nil, "updated_at": s.now()})
}
