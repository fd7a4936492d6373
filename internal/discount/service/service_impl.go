package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/clock"
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	"github.com/smallbiznis/folio/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repository discountdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  discountdomain.Repository
}

func NewService(p ServiceParam) discountdomain.Service {
	return &Service{
		log:   p.Log.Named("discount.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repository,
	}
}

func (s *Service) Create(ctx context.Context, req discountdomain.CreateRequest) (*discountdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, discountdomain.ErrInvalidOrganization
	}

	now := s.clock.Now()
	discount := &discountdomain.Discount{
		ID:         s.genID.Generate(),
		OrgID:      orgID,
		Name:       strings.TrimSpace(req.Name),
		Kind:       req.Kind,
		PercentOff: req.PercentOff,
		AmountOff:  req.AmountOff,
		IsEnabled:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.IsEnabled != nil {
		discount.IsEnabled = *req.IsEnabled
	}
	if err := discount.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, discount); err != nil {
		return nil, err
	}

	s.log.Info("discount created",
		zap.String("discount_id", discount.ID.String()),
		zap.String("kind", string(discount.Kind)),
	)
	return toResponse(discount), nil
}

func (s *Service) List(ctx context.Context, req discountdomain.ListRequest) ([]discountdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, discountdomain.ErrInvalidOrganization
	}

	discounts, err := s.repo.List(ctx, orgID, req)
	if err != nil {
		return nil, err
	}

	out := make([]discountdomain.Response, 0, len(discounts))
	for i := range discounts {
		out = append(out, *toResponse(&discounts[i]))
	}
	return out, nil
}

func (s *Service) Disable(ctx context.Context, rawID string) (*discountdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, discountdomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, discountdomain.ErrInvalidID
	}

	discount, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if discount == nil {
		return nil, discountdomain.ErrNotFound
	}

	discount.IsEnabled = false
	discount.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, discount); err != nil {
		return nil, err
	}

	s.log.Info("discount disabled", zap.String("discount_id", discount.ID.String()))
	return toResponse(discount), nil
}

func toResponse(discount *discountdomain.Discount) *discountdomain.Response {
	return &discountdomain.Response{
		ID:             discount.ID.String(),
		OrganizationID: discount.OrgID.String(),
		Name:           discount.Name,
		Kind:           discount.Kind,
		PercentOff:     discount.PercentOff,
		AmountOff:      discount.AmountOff,
		IsEnabled:      discount.IsEnabled,
		CreatedAt:      discount.CreatedAt,
		UpdatedAt:      discount.UpdatedAt,
	}
}
