package transmission

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/seedstats/seedstats/internal/metric"
	"github.com/seedstats/seedstats/internal/plugin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PluginName labels every sample emitted by this collector.
const PluginName = "transmission"

// Plugin bridges the Transmission poller into the plugin lifecycle.
type Plugin struct {
	logger *zap.Logger
	config *viper.Viper
	opts   Options
	poller *Poller
}

// New creates a new Transmission collector plugin instance.
func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Name() string    { return PluginName }
func (p *Plugin) Version() string { return "0.1.0" }

// Init validates the plugin configuration. Credentials are required;
// address and timeout fall back to the documented defaults. Keys the
// plugin does not recognize stay in the config untouched.
func (p *Plugin) Init(config *viper.Viper, logger *zap.Logger) error {
	p.config = config
	p.logger = logger

	config.SetDefault("address", DefaultAddress)
	config.SetDefault("timeout", int(DefaultTimeout/time.Second))

	username := config.GetString("username")
	if username == "" {
		return &ConfigError{Field: "username", Reason: "required"}
	}
	password := config.GetString("password")
	if password == "" {
		return &ConfigError{Field: "password", Reason: "required"}
	}

	p.opts = Options{
		Address:  config.GetString("address"),
		Username: username,
		Password: password,
		Timeout:  time.Duration(config.GetInt("timeout")) * time.Second,
	}
	p.logger.Info("transmission module initialized", zap.String("address", p.opts.Address))
	return nil
}

// ValidateConfig rejects unusable values that Init accepted syntactically.
func (p *Plugin) ValidateConfig() error {
	if p.config.GetInt("timeout") <= 0 {
		return &ConfigError{Field: "timeout", Reason: "must be a positive number of seconds"}
	}
	return nil
}

// Start creates the poller and makes an opportunistic first connection.
// A daemon that is down at startup is tolerated; the poller redials on
// the first tick.
func (p *Plugin) Start(ctx context.Context) error {
	// A restart without an intervening Stop must not leak the previous
	// poller's connection.
	if p.poller != nil {
		p.poller.Shutdown()
	}
	p.poller = NewPoller(&HTTPDialer{Opts: p.opts}, p.logger)
	if !p.poller.Connect(ctx) {
		p.logger.Warn("daemon unreachable at startup, will retry on next tick",
			zap.String("address", p.opts.Address))
	}
	return nil
}

// Stop releases the connection. Start may be called again afterwards.
func (p *Plugin) Stop() error {
	if p.poller != nil {
		p.poller.Shutdown()
	}
	p.logger.Info("transmission module stopped")
	return nil
}

// Collect runs one collection tick.
func (p *Plugin) Collect(ctx context.Context) ([]metric.Sample, error) {
	if p.poller == nil {
		return nil, errors.New("transmission plugin not started")
	}
	return p.poller.CollectTick(ctx)
}

func (p *Plugin) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: "GET", Path: "/status", Handler: p.handleStatus},
	}
}

func (p *Plugin) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := StateUninitialized
	if p.poller != nil {
		state = p.poller.State()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"state":   state.String(),
		"address": p.opts.Address,
	})
}

// Compile-time capability guards.
var (
	_ plugin.Plugin       = (*Plugin)(nil)
	_ plugin.Collector    = (*Plugin)(nil)
	_ plugin.HTTPProvider = (*Plugin)(nil)
	_ plugin.Validator    = (*Plugin)(nil)
)
