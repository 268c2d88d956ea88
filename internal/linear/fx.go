package linear

import (
	"github.com/acknowledge-dev/acknowledge/internal/config"
	obsmetrics "github.com/acknowledge-dev/acknowledge/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("linear",
	fx.Provide(NewFactory),
)

type FactoryParams struct {
	fx.In

	Cfg     config.Config
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// NewFactory builds per-credential clients against the configured endpoint.
func NewFactory(p FactoryParams) Factory {
	return func(apiKey string) API {
		return NewClient(ClientConfig{
			APIKey:   apiKey,
			Endpoint: p.Cfg.LinearAPIURL,
			Metrics:  p.Metrics,
		})
	}
}
