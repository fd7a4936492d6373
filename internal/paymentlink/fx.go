package paymentlink

import (
	"github.com/smallbiznis/folio/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the payment link issuer. Without a configured
// endpoint the fake issuer serves local development.
var Module = fx.Module("paymentlink",
	fx.Provide(func(cfg config.Config, log *zap.Logger) Issuer {
		if cfg.PaymentLinkEndpoint == "" {
			log.Warn("payment link endpoint not configured, using local fake issuer")
			return NewFakeIssuer()
		}
		return NewHTTPIssuer(cfg.PaymentLinkEndpoint, cfg.PaymentLinkAPIKey, log)
	}),
)
