package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads the agent configuration from the given file (YAML),
// falling back to a seedstats.yaml in the working directory, and
// applies defaults. Environment variables prefixed SEEDSTATS_ override
// file values (dots become underscores, e.g.
// SEEDSTATS_PLUGINS_TRANSMISSION_PASSWORD).
func LoadConfig(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "9109")
	v.SetDefault("agent.interval_seconds", 30)
	v.SetDefault("plugins.transmission.enabled", true)
	v.SetDefault("sinks.log.enabled", true)
	v.SetDefault("sinks.prometheus.enabled", true)
	v.SetDefault("sinks.mqtt.enabled", false)
	v.SetDefault("sinks.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("sinks.mqtt.topic_prefix", "seedstats")
	v.SetDefault("sinks.mqtt.qos", 0)

	v.SetEnvPrefix("SEEDSTATS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("seedstats")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/seedstats")
	if err := v.ReadInConfig(); err != nil {
		// A missing default config file is fine; defaults and env apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}
