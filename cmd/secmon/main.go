// Security Monitor - MAG Laboratory video wall supervisor
//
// This is the main entry point for the security monitor. The program
// drives a grid of long-running camera stream players, rotating them
// periodically to bound their lifetime, and exposes an authenticated
// remote-control surface over MQTT and UDP that flips the wall between
// an active and a blanked state.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MAGLaboratory/security-monitor/internal/auth"
	"github.com/MAGLaboratory/security-monitor/internal/command"
	"github.com/MAGLaboratory/security-monitor/internal/display"
	"github.com/MAGLaboratory/security-monitor/internal/infrastructure/config"
	"github.com/MAGLaboratory/security-monitor/internal/infrastructure/database"
	"github.com/MAGLaboratory/security-monitor/internal/infrastructure/influxdb"
	"github.com/MAGLaboratory/security-monitor/internal/infrastructure/logging"
	"github.com/MAGLaboratory/security-monitor/internal/infrastructure/mqtt"
	"github.com/MAGLaboratory/security-monitor/internal/journal"
	"github.com/MAGLaboratory/security-monitor/internal/layout"
	"github.com/MAGLaboratory/security-monitor/internal/monitor"
	"github.com/MAGLaboratory/security-monitor/internal/player"
	"github.com/MAGLaboratory/security-monitor/internal/transport/udp"
)

// Version information - set at build time via ldflags
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main so it can
// return errors for a consistent exit path.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting security monitor",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Decode the distributed command tokens. A monitor with no accepted
	// tokens still plays video; it just rejects every remote command.
	secrets, rejected := auth.DecodeTokens(cfg.Auth.Tokens)
	if rejected > 0 {
		log.Warn("some command tokens were not accepted", "rejected", rejected)
	}
	if len(secrets) == 0 {
		log.Error("no command tokens accepted; all remote commands will be rejected")
	} else {
		log.Info("command tokens decoded", "accepted", len(secrets))
	}

	// Display power surface.
	var power display.Power
	if cfg.Display.Control == "dpms" {
		dpms := display.NewDPMS(log)
		if !dpms.Supported() {
			log.Warn("display is not DPMS capable; power control disabled")
		}
		power = dpms
	} else {
		log.Info("display power control disabled")
		power = display.Noop{}
	}

	// Event journal (optional).
	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		db, openErr := database.Open(database.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening journal database: %w", openErr)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("migrating journal database: %w", migrateErr)
		}
		jnl = journal.New(db)
		log.Info("journal opened", "path", db.Path())
	} else {
		log.Info("journal disabled")
	}
	record := func(kind, detail string) {
		if jnl == nil {
			return
		}
		// Detached from the run context so teardown events (the final
		// state transitions during shutdown) still land.
		if recErr := jnl.Record(context.WithoutCancel(ctx), kind, detail); recErr != nil {
			log.Warn("journal write failed", "kind", kind, "error", recErr)
		}
	}

	// Telemetry (optional).
	var telemetry *influxdb.Client
	if cfg.Telemetry.Enabled {
		telemetry, err = influxdb.Connect(cfg.Identity.Name, cfg.Telemetry)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := telemetry.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		telemetry.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.Telemetry.URL, "bucket", cfg.Telemetry.Bucket)
	} else {
		log.Info("telemetry disabled")
	}

	// The top-level state machine.
	division, err := layout.ComputeDivision(cfg.Splitter.DivisionIndex)
	if err != nil {
		return fmt.Errorf("computing division: %w", err)
	}
	monCfg := monitor.Config{
		Name:          cfg.Identity.Name,
		URLs:          cfg.Sources.URLs,
		Division:      division,
		RefreshPeriod: cfg.Splitter.RefreshPeriod,
		JoinTimeout:   cfg.Splitter.JoinTimeoutDuration(),
		PlayTimeout:   cfg.Splitter.PlayTimeoutDuration(),
		Tuning: player.Tuning{
			NetworkTimeout: cfg.Player.NetworkTimeout,
			Profile:        cfg.Player.Profile,
			AudioOut:       cfg.Player.AudioOut,
			ExtraArgs:      cfg.Player.ExtraArgs,
		},
		NewPlayer:   player.NewFactory(cfg.Player.Binary, log),
		MotionField: cfg.MQTT.Topics.MotionField,
		OnStateChange: func(from, to monitor.State) {
			record(journal.KindState, fmt.Sprintf("%s -> %s", from, to))
			if telemetry != nil {
				telemetry.WriteState(to.String())
			}
		},
		OnRotate: func(slot int, forced bool) {
			record(journal.KindRotation, fmt.Sprintf("slot=%d forced=%t", slot, forced))
			if telemetry != nil {
				telemetry.WriteRotation(slot, forced)
			}
		},
		OnEngineFailure: func(slot int, fatal bool) {
			kind := journal.KindEngineFailure
			if fatal {
				kind = journal.KindEscalation
			}
			record(kind, fmt.Sprintf("slot=%d fatal=%t", slot, fatal))
			if telemetry != nil {
				telemetry.WriteEngineFailure(slot, fatal)
			}
		},
	}
	if jnl != nil {
		monCfg.Journal = jnl
	}
	top, err := monitor.New(monCfg, power, log)
	if err != nil {
		return fmt.Errorf("building monitor: %w", err)
	}

	// Command path shared by MQTT and UDP.
	handler := command.NewHandler(secrets, cfg.Auth.MaxDelta(), command.Intents{
		Restart: top.Restart,
		Auto:    top.AutoEnable,
		Force:   top.Force,
	})
	handler.SetLogger(log)
	applyCommand := func(text string) bool {
		ok := handler.Apply(text)
		if ok {
			record(journal.KindCommand, text)
		}
		return ok
	}

	// MQTT.
	mqttClient, err := mqtt.Connect(cfg.Identity.Name, cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.Identity.Name,
	)

	if err := wireSubscriptions(mqttClient, cfg, top, applyCommand, log); err != nil {
		return fmt.Errorf("subscribing: %w", err)
	}

	// UDP command listener (optional).
	if cfg.UDP.Enabled {
		listener, listenErr := udp.Listen(cfg.UDP.Bind, applyCommand, log)
		if listenErr != nil {
			return fmt.Errorf("starting UDP listener: %w", listenErr)
		}
		defer func() {
			log.Info("stopping UDP listener")
			listener.Stop()
		}()
	} else {
		log.Info("UDP listener disabled")
	}

	// Automatic idle control.
	idle := monitor.NewAutoTimer(top.Flags, cfg.Idle.Timeout, top.MonOn, top.MonOff)
	idle.Start()
	defer func() {
		log.Info("stopping automatic control")
		idle.Stop()
	}()
	log.Info("automatic control started", "timeout_ticks", cfg.Idle.Timeout)

	log.Info("initialisation complete")

	// Blocks until the shutdown signal cancels ctx.
	if err := top.Run(ctx); err != nil {
		return fmt.Errorf("running monitor: %w", err)
	}

	log.Info("security monitor stopped")
	return nil
}

// wireSubscriptions attaches the inbound MQTT topics: the command
// topic, the checkup request topic, and the motion event topics.
func wireSubscriptions(client *mqtt.Client, cfg *config.Config, top *monitor.Top, apply func(string) bool, log *logging.Logger) error {
	qos := byte(cfg.MQTT.QoS)
	topics := mqtt.Topics{Name: cfg.Identity.Name}

	if err := client.Subscribe(topics.Command(), qos, func(_ string, payload []byte) error {
		log.Info("display commanded", "payload", string(payload))
		apply(string(payload))
		return nil
	}); err != nil {
		return err
	}

	if cfg.MQTT.Topics.CheckupRequest != "" {
		if err := client.Subscribe(cfg.MQTT.Topics.CheckupRequest, qos, func(string, []byte) error {
			log.Info("checkup requested")
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			reply, err := top.CheckupReply(ctx)
			if err != nil {
				return err
			}
			return client.Publish(cfg.MQTT.Topics.CheckupReply, reply, qos, false)
		}); err != nil {
			return err
		}
	}

	for _, topic := range cfg.MQTT.Topics.Motion {
		if err := client.Subscribe(topic, qos, func(_ string, payload []byte) error {
			top.HandleMotion(payload)
			return nil
		}); err != nil {
			return err
		}
	}

	return nil
}

// getConfigPath returns the configuration file path.
// Uses SECMON_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SECMON_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
