// Command diy-hub routes home-automation events from MQTT to the fan light
// actuator, raises mail alerts and forces day/night mode across the house.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/sweeney/diy-hub/internal/actuator"
	"github.com/sweeney/diy-hub/internal/alert"
	"github.com/sweeney/diy-hub/internal/config"
	"github.com/sweeney/diy-hub/internal/gpio"
	"github.com/sweeney/diy-hub/internal/hub"
	"github.com/sweeney/diy-hub/internal/logging"
	"github.com/sweeney/diy-hub/internal/metrics"
	"github.com/sweeney/diy-hub/internal/mqtt"
	"github.com/sweeney/diy-hub/internal/schedule"
	"github.com/sweeney/diy-hub/internal/status"
	"github.com/sweeney/diy-hub/internal/topics"
	"github.com/sweeney/diy-hub/internal/web"
)

func main() {
	os.Exit(runMain(os.Args[1:]))
}

// runMain returns the process exit code: 2 for a bad configuration, 1 when
// the hub fails. Deferred cleanup has run by the time it returns.
func runMain(args []string) int {
	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "diy-hub: %v\n", err)
		return 2
	}

	closer, err := logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "diy-hub: %v\n", err)
		return 2
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("fatal")
		return 1
	}
	return 0
}

// loadConfig parses args, reads the config file and applies the overrides.
func loadConfig(args []string) (config.Config, error) {
	fs := flag.NewFlagSet("diy-hub", flag.ContinueOnError)
	overrides := config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(overrides.ConfigFile)
	if err != nil {
		return cfg, err
	}
	overrides.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config) error {
	out, err := newWriter(cfg)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	driver := actuator.NewDriver(out, cfg.Actuator.Pin)
	defer func() {
		if err := driver.Close(); err != nil {
			log.Warn().Err(err).Msg("release gpio line")
		}
	}()

	pulser := actuator.NewPulser(driver, actuator.Options{
		Waveform:      cfg.Waveform(),
		IdlePoll:      cfg.Actuator.IdlePoll,
		FlashDuration: cfg.Actuator.FlashDuration,
	})

	notifier, err := newNotifier(cfg)
	if err != nil {
		return fmt.Errorf("init alerts: %w", err)
	}

	ns := topics.New(cfg.Topics.Root)
	bus := mqtt.NewRealBus(mqtt.Config{
		Broker:         cfg.MQTT.Broker,
		ClientID:       cfg.ClientID(),
		Username:       cfg.MQTT.Username,
		Password:       cfg.MQTT.Password,
		Subscriptions:  ns.Subscriptions(),
		QoS:            topics.SubscriptionQoS,
		Buffer:         cfg.MQTT.Buffer,
		ConnectTimeout: cfg.MQTT.ConnectTimeout,
		RetryInterval:  cfg.MQTT.RetryInterval,
	})
	defer bus.Close()

	tracker := status.NewTracker(time.Now(), statusConfig(cfg))
	m := metrics.New(metrics.Sources{Actuator: pulser.State, Connected: bus.IsConnected})

	h, err := hub.New(bus, pulser, notifier, hub.Options{
		Namespace: ns,
		Peers:     cfg.Peers,
		Location:  cfg.Location,
		DayHour:   cfg.Schedule.DayHour,
		NightHour: cfg.Schedule.NightHour,
		Policy:    schedule.Policy(cfg.Schedule.Policy),
		Tracker:   tracker,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, m)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("http server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.HTTP.Addr).Msg("http status server listening")
	}

	if err := bus.Connect(ctx); err != nil {
		return err
	}

	log.Info().
		Str("broker", cfg.MQTT.Broker).
		Str("location", cfg.Location).
		Int("pin", cfg.Actuator.Pin).
		Bool("safe_mode", cfg.Actuator.SafeMode).
		Str("policy", cfg.Schedule.Policy).
		Int("peers", len(cfg.Peers)).
		Msg("started")

	ticker := time.NewTicker(cfg.Schedule.Tick)
	defer ticker.Stop()

	err = h.Run(ctx, time.Now, ticker.C)
	log.Info().Msg("shutting down")
	return err
}

// newWriter opens the GPIO line, or a null writer in safe mode.
func newWriter(cfg config.Config) (gpio.Writer, error) {
	if cfg.Actuator.SafeMode {
		log.Warn().Int("pin", cfg.Actuator.Pin).Msg("SAFE MODE ENABLED: gpio writes are discarded")
		return gpio.NullWriter{Pin: cfg.Actuator.Pin}, nil
	}
	return gpio.NewRealWriter(cfg.Actuator.Chip, cfg.Actuator.Pin)
}

// newNotifier returns the mail notifier, or Disabled when alerts are off.
func newNotifier(cfg config.Config) (alert.Notifier, error) {
	if !cfg.Alert.Enabled {
		log.Warn().Msg("mail alerts disabled")
		return alert.Disabled{}, nil
	}
	return alert.NewMailer(cfg.MailConfig())
}

func statusConfig(cfg config.Config) status.Config {
	wf := cfg.Waveform()
	return status.Config{
		Broker:    cfg.MQTT.Broker,
		Root:      cfg.Topics.Root,
		Location:  cfg.Location,
		Pin:       cfg.Actuator.Pin,
		SafeMode:  cfg.Actuator.SafeMode,
		Policy:    cfg.Schedule.Policy,
		DayHour:   cfg.Schedule.DayHour,
		NightHour: cfg.Schedule.NightHour,
		HTTPAddr:  cfg.HTTP.Addr,
		Peers:     len(cfg.Peers),
		Steps:     len(wf),
		Period:    wf.Period(),
	}
}
