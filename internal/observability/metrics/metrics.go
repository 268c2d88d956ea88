// Package metrics exposes OTel instruments and Prometheus HTTP metrics.
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
	webhookEvents metric.Int64Counter
	rewardClaims  metric.Int64Counter
	linearCalls   metric.Int64Counter
	notifyErrors  metric.Int64Counter
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

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp protocol %q", protocol)
	}
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "acknowledge"
	}
	meter := provider.Meter(name)

	webhookEvents, err := meter.Int64Counter("acknowledge_webhook_events_total")
	if err != nil {
		return nil, err
	}
	rewardClaims, err := meter.Int64Counter("acknowledge_reward_claims_total")
	if err != nil {
		return nil, err
	}
	linearCalls, err := meter.Int64Counter("acknowledge_linear_requests_total")
	if err != nil {
		return nil, err
	}
	notifyErrors, err := meter.Int64Counter("acknowledge_notify_errors_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		webhookEvents: webhookEvents,
		rewardClaims:  rewardClaims,
		linearCalls:   linearCalls,
		notifyErrors:  notifyErrors,
	}, nil
}

// RecordWebhookEvent increments webhook delivery counts by outcome.
func (m *Metrics) RecordWebhookEvent(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", strings.TrimSpace(outcome)),
	))
}

// RecordRewardClaim increments settled reward counts.
func (m *Metrics) RecordRewardClaim(ctx context.Context, orgID string) {
	if m == nil {
		return
	}
	m.rewardClaims.Add(ctx, 1, metric.WithAttributes(
		attribute.String("org_id", strings.TrimSpace(orgID)),
	))
}

// RecordLinearCall increments outbound Linear API call counts.
func (m *Metrics) RecordLinearCall(ctx context.Context, operation string, success bool) {
	if m == nil {
		return
	}
	m.linearCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.Bool("success", success),
	))
}

// RecordNotifyError increments post-commit notification failures.
func (m *Metrics) RecordNotifyError(ctx context.Context) {
	if m == nil {
		return
	}
	m.notifyErrors.Add(ctx, 1)
}
