package plugin

import (
	"context"
	"net/http"

	"github.com/seedstats/seedstats/internal/metric"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Route represents an HTTP route exposed by a plugin.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

// Plugin defines the lifecycle that all seedstats modules must implement.
type Plugin interface {
	// Name returns the plugin's unique identifier (e.g., "transmission").
	Name() string

	// Version returns the plugin's semantic version.
	Version() string

	// Init initializes the plugin with configuration and logger.
	Init(config *viper.Viper, logger *zap.Logger) error

	// Start begins the plugin's background operations.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the plugin.
	Stop() error
}

// Collector is implemented by plugins that produce samples on each
// collection tick. The agent guarantees at most one in-flight Collect
// call per plugin; implementations need not serialize overlapping ticks.
type Collector interface {
	Collect(ctx context.Context) ([]metric.Sample, error)
}

// HTTPProvider is implemented by plugins that expose REST API routes.
type HTTPProvider interface {
	Routes() []Route
}

// Validator is implemented by plugins that validate their config post-init.
type Validator interface {
	ValidateConfig() error
}
