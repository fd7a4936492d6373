package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/clock"
	"github.com/smallbiznis/folio/internal/orgcontext"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repository taxdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  taxdomain.Repository
}

func NewService(p ServiceParam) taxdomain.Service {
	return &Service{
		log:   p.Log.Named("tax.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repository,
	}
}

func (s *Service) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, taxdomain.ErrInvalidOrganization
	}

	now := s.clock.Now()
	def := &taxdomain.TaxDefinition{
		ID:          s.genID.Generate(),
		OrgID:       orgID,
		Name:        strings.TrimSpace(req.Name),
		TaxMode:     req.TaxMode,
		Rate:        req.Rate,
		Description: req.Description,
		IsEnabled:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.IsEnabled != nil {
		def.IsEnabled = *req.IsEnabled
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, def); err != nil {
		return nil, err
	}

	s.log.Info("tax definition created",
		zap.String("tax_definition_id", def.ID.String()),
		zap.String("tax_mode", string(def.TaxMode)),
	)
	return toResponse(def), nil
}

func (s *Service) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, taxdomain.ErrInvalidOrganization
	}

	defs, err := s.repo.List(ctx, orgID, req)
	if err != nil {
		return nil, err
	}

	out := make([]taxdomain.Response, 0, len(defs))
	for i := range defs {
		out = append(out, *toResponse(&defs[i]))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, taxdomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	def, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, taxdomain.ErrNotFound
	}

	if req.Name != nil {
		def.Name = strings.TrimSpace(*req.Name)
	}
	if req.TaxMode != nil {
		def.TaxMode = *req.TaxMode
	}
	if req.Rate != nil {
		def.Rate = *req.Rate
	}
	if req.Description != nil {
		def.Description = req.Description
	}
	def.UpdatedAt = s.clock.Now()

	if err := def.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, def); err != nil {
		return nil, err
	}
	return toResponse(def), nil
}

func (s *Service) Disable(ctx context.Context, rawID string) (*taxdomain.Response, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return nil, taxdomain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil {
		return nil, taxdomain.ErrInvalidID
	}

	def, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, taxdomain.ErrNotFound
	}

	def.IsEnabled = false
	def.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, def); err != nil {
		return nil, err
	}

	s.log.Info("tax definition disabled", zap.String("tax_definition_id", def.ID.String()))
	return toResponse(def), nil
}

func toResponse(def *taxdomain.TaxDefinition) *taxdomain.Response {
	return &taxdomain.Response{
		ID:             def.ID.String(),
		OrganizationID: def.OrgID.String(),
		Name:           def.Name,
		TaxMode:        def.TaxMode,
		Rate:           def.Rate,
		Description:    def.Description,
		IsEnabled:      def.IsEnabled,
		CreatedAt:      def.CreatedAt,
		UpdatedAt:      def.UpdatedAt,
	}
}
