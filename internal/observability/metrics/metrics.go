// Package metrics configures OpenTelemetry instruments for the engine.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	invoicesCreated   metric.Int64Counter
	invoicesFinalized metric.Int64Counter
	recalculations    metric.Int64Counter
	paymentLinks      metric.Int64Counter
	paymentLinkErrors metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down meter provider")
			return provider.Shutdown(ctx)
		},
	})

	return provider, nil
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "folio"
	}
	meter := provider.Meter(name)

	invoicesCreated, err := meter.Int64Counter("folio_invoices_created_total")
	if err != nil {
		return nil, err
	}
	invoicesFinalized, err := meter.Int64Counter("folio_invoices_finalized_total")
	if err != nil {
		return nil, err
	}
	recalculations, err := meter.Int64Counter("folio_totals_recalculations_total")
	if err != nil {
		return nil, err
	}
	paymentLinks, err := meter.Int64Counter("folio_payment_links_issued_total")
	if err != nil {
		return nil, err
	}
	paymentLinkErrors, err := meter.Int64Counter("folio_payment_link_errors_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		invoicesCreated:   invoicesCreated,
		invoicesFinalized: invoicesFinalized,
		recalculations:    recalculations,
		paymentLinks:      paymentLinks,
		paymentLinkErrors: paymentLinkErrors,
	}, nil
}

// RecordInvoiceCreated increments the created-invoice count.
func (m *Metrics) RecordInvoiceCreated(ctx context.Context, currency string) {
	if m == nil {
		return
	}
	m.invoicesCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("currency", strings.ToLower(strings.TrimSpace(currency))),
	))
}

// RecordInvoiceFinalized increments the finalized-invoice count.
func (m *Metrics) RecordInvoiceFinalized(ctx context.Context, currency string) {
	if m == nil {
		return
	}
	m.invoicesFinalized.Add(ctx, 1, metric.WithAttributes(
		attribute.String("currency", strings.ToLower(strings.TrimSpace(currency))),
	))
}

// RecordRecalculation counts totals recomputations by trigger.
func (m *Metrics) RecordRecalculation(ctx context.Context, trigger string) {
	if m == nil {
		return
	}
	m.recalculations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("trigger", strings.TrimSpace(trigger)),
	))
}

// RecordPaymentLinkIssued counts successful payment-link issuance.
func (m *Metrics) RecordPaymentLinkIssued(ctx context.Context) {
	if m == nil {
		return
	}
	m.paymentLinks.Add(ctx, 1)
}

// RecordPaymentLinkError counts issuer failures.
func (m *Metrics) RecordPaymentLinkError(ctx context.Context) {
	if m == nil {
		return
	}
	m.paymentLinkErrors.Add(ctx, 1)
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	protocol = strings.ToLower(strings.TrimSpace(protocol))
	switch protocol {
	case "http", "http/protobuf":
		opts := []otlpmetrichttp.Option{}
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint))
		}
		return otlpmetrichttp.New(context.Background(), opts...)
	case "grpc", "grpc/protobuf", "":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
