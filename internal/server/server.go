// Package server exposes the document engine over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/folio/internal/config"
	"github.com/smallbiznis/folio/internal/discount"
	discountdomain "github.com/smallbiznis/folio/internal/discount/domain"
	"github.com/smallbiznis/folio/internal/invoice"
	invoicedomain "github.com/smallbiznis/folio/internal/invoice/domain"
	"github.com/smallbiznis/folio/internal/locker"
	"github.com/smallbiznis/folio/internal/observability"
	obsmiddleware "github.com/smallbiznis/folio/internal/observability/logger"
	obstracing "github.com/smallbiznis/folio/internal/observability/tracing"
	"github.com/smallbiznis/folio/internal/paymentlink"
	"github.com/smallbiznis/folio/internal/tax"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	paymentlink.Module,
	locker.Module,
	tax.Module,
	discount.Module,
	invoice.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	invoiceSvc  invoicedomain.Service
	taxSvc      taxdomain.Service
	discountSvc discountdomain.Service
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	InvoiceSvc  invoicedomain.Service
	TaxSvc      taxdomain.Service
	DiscountSvc discountdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		invoiceSvc:  p.InvoiceSvc,
		taxSvc:      p.TaxSvc,
		discountSvc: p.DiscountSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(s.OrgContext())

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.PUT("/invoices/:id/items", s.ReplaceInvoiceItems)
	api.POST("/invoices/:id/finalize", s.FinalizeInvoice)
	api.POST("/invoices/:id/pay", s.PayInvoice)
	api.POST("/invoices/:id/void", s.VoidInvoice)
	api.POST("/invoices/:id/uncollectible", s.MarkInvoiceUncollectible)
	api.POST("/invoices/:id/recalculate", s.RecalculateInvoice)

	// -------- Tax Definitions --------
	api.GET("/tax_definitions", s.ListTaxDefinitions)
	api.POST("/tax_definitions", s.CreateTaxDefinition)
	api.PATCH("/tax_definitions/:id", s.UpdateTaxDefinition)
	api.POST("/tax_definitions/:id/disable", s.DisableTaxDefinition)

	// -------- Discounts --------
	api.GET("/discounts", s.ListDiscounts)
	api.POST("/discounts", s.CreateDiscount)
	api.POST("/discounts/:id/disable", s.DisableDiscount)
}
