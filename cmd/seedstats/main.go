package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/seedstats/seedstats/internal/agent"
	"github.com/seedstats/seedstats/internal/metric"
	"github.com/seedstats/seedstats/internal/plugin"
	"github.com/seedstats/seedstats/internal/server"
	"github.com/seedstats/seedstats/internal/sink"
	"github.com/seedstats/seedstats/internal/transmission"
	"github.com/seedstats/seedstats/internal/version"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("seedstats agent starting")

	// Load configuration
	config, err := server.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Create plugin registry
	registry := plugin.NewRegistry(logger)

	// Register all plugins (compile-time composition)
	plugins := []plugin.Plugin{
		transmission.New(),
	}
	for _, p := range plugins {
		if err := registry.Register(p); err != nil {
			logger.Fatal("failed to register plugin", zap.Error(err))
		}
	}

	// Initialize all plugins
	if err := registry.InitAll(config); err != nil {
		logger.Fatal("failed to initialize plugins", zap.Error(err))
	}

	// Build sinks
	instanceID := uuid.NewString()
	sinks, mqttSink, err := buildSinks(config, instanceID, logger)
	if err != nil {
		logger.Fatal("failed to build sinks", zap.Error(err))
	}

	// Start plugins
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := registry.StartAll(ctx); err != nil {
		logger.Fatal("failed to start plugins", zap.Error(err))
	}

	// Start the collection loop
	interval := time.Duration(config.GetInt("agent.interval_seconds")) * time.Second
	ag := agent.New(registry, sinks, interval, instanceID, logger.Named("agent"))
	go func() {
		if err := ag.Run(ctx); err != nil {
			logger.Fatal("agent error", zap.Error(err))
		}
	}()

	// Create and start HTTP server
	addr := config.GetString("server.host") + ":" + config.GetString("server.port")
	srv := server.New(addr, registry, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("seedstats agent ready",
		zap.String("addr", addr),
		zap.String("instance_id", instanceID),
		zap.Duration("interval", interval),
	)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	ag.Stop()
	registry.StopAll()
	if mqttSink != nil {
		mqttSink.Close()
	}

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("seedstats agent stopped")
}

// buildSinks assembles the enabled sinks from configuration. The MQTT
// sink is returned separately so main can disconnect it on shutdown.
func buildSinks(config *viper.Viper, instanceID string, logger *zap.Logger) ([]metric.Sink, *sink.MQTTSink, error) {
	var sinks []metric.Sink

	if config.GetBool("sinks.log.enabled") {
		sinks = append(sinks, sink.NewLogSink(logger.Named("sink.log")))
	}
	if config.GetBool("sinks.prometheus.enabled") {
		sinks = append(sinks, sink.NewPrometheusSink(prometheus.DefaultRegisterer))
	}

	var mqttSink *sink.MQTTSink
	if config.GetBool("sinks.mqtt.enabled") {
		var err error
		mqttSink, err = sink.NewMQTTSink(sink.MQTTOptions{
			Broker:      config.GetString("sinks.mqtt.broker"),
			TopicPrefix: config.GetString("sinks.mqtt.topic_prefix"),
			ClientID:    "seedstats-" + instanceID,
			Username:    config.GetString("sinks.mqtt.username"),
			Password:    config.GetString("sinks.mqtt.password"),
			QoS:         byte(config.GetInt("sinks.mqtt.qos")),
		}, logger.Named("sink.mqtt"))
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, mqttSink)
	}

	return sinks, mqttSink, nil
}
