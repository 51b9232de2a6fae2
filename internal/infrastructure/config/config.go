package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the security monitor.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Identity  IdentityConfig  `yaml:"identity"`
	Sources   SourcesConfig   `yaml:"sources"`
	Auth      AuthConfig      `yaml:"auth"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	UDP       UDPConfig       `yaml:"udp"`
	Splitter  SplitterConfig  `yaml:"splitter"`
	Idle      IdleConfig      `yaml:"idle"`
	Player    PlayerConfig    `yaml:"player"`
	Display   DisplayConfig   `yaml:"display"`
	Journal   JournalConfig   `yaml:"journal"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IdentityConfig names this monitor instance. The name doubles as the
// MQTT client ID and the prefix of the command topic.
type IdentityConfig struct {
	Name string `yaml:"name"`
}

// SourcesConfig lists the camera stream URLs, one per visible tile.
type SourcesConfig struct {
	URLs []string `yaml:"urls"`
}

// AuthConfig contains the distributed command tokens and the freshness
// window applied to command timestamps.
type AuthConfig struct {
	Tokens []string `yaml:"tokens"`

	// MaxTimeDelta is the maximum allowed clock skew, in seconds,
	// between a command's embedded timestamp and receipt time.
	MaxTimeDelta int `yaml:"max_time_delta"`
}

// MaxDelta returns the freshness window as a duration.
func (a AuthConfig) MaxDelta() time.Duration {
	return time.Duration(a.MaxTimeDelta) * time.Second
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
	Topics    MQTTTopicsConfig    `yaml:"topics"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	TLS  bool   `yaml:"tls"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// MQTTTopicsConfig contains the inbound topic wiring.
//
// Motion lists the event topics scanned for the MotionField; a non-zero
// numeric value of that field sets the motion trigger.
type MQTTTopicsConfig struct {
	CheckupRequest string   `yaml:"checkup_request"`
	CheckupReply   string   `yaml:"checkup_reply"`
	Motion         []string `yaml:"motion"`
	MotionField    string   `yaml:"motion_field"`
}

// UDPConfig contains the datagram command listener settings.
type UDPConfig struct {
	Enabled bool   `yaml:"enabled"`
	Bind    string `yaml:"bind"`
}

// SplitterConfig contains rotation scheduler settings.
type SplitterConfig struct {
	// DivisionIndex selects the grid layout (0 -> 1x1, 1 -> 2x1, ...).
	DivisionIndex int `yaml:"division_index"`

	// RefreshPeriod is the number of one-second ticks between slot
	// rotations.
	RefreshPeriod int `yaml:"refresh_period"`

	// JoinTimeout is how long, in seconds, to wait for a retiring
	// worker beyond the play timeout granted to its replacement
	// before force-killing its engine.
	JoinTimeout int `yaml:"join_timeout"`

	// PlayTimeout is how long, in seconds, a starting worker waits for
	// its engine to reach the playing state.
	PlayTimeout int `yaml:"play_timeout"`
}

// JoinTimeoutDuration returns the join timeout as a duration.
func (s SplitterConfig) JoinTimeoutDuration() time.Duration {
	return time.Duration(s.JoinTimeout) * time.Second
}

// PlayTimeoutDuration returns the play timeout as a duration.
func (s SplitterConfig) PlayTimeoutDuration() time.Duration {
	return time.Duration(s.PlayTimeout) * time.Second
}

// IdleConfig contains automatic display control settings.
type IdleConfig struct {
	// Timeout is the number of one-second ticks without motion before
	// the display is turned off.
	Timeout int `yaml:"timeout"`
}

// PlayerConfig contains rendering engine settings. Tuning values are
// passed through to the engine and not interpreted by the supervisor.
type PlayerConfig struct {
	Binary         string   `yaml:"binary"`
	NetworkTimeout int      `yaml:"network_timeout"`
	Profile        string   `yaml:"profile"`
	AudioOut       string   `yaml:"audio_out"`
	ExtraArgs      []string `yaml:"extra_args"`
}

// DisplayConfig contains display power control settings.
type DisplayConfig struct {
	// Control selects the power surface: "dpms" or "none".
	Control string `yaml:"control"`
}

// JournalConfig contains the SQLite event journal settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// TelemetryConfig contains InfluxDB metric settings.
type TelemetryConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is: defaults, YAML file, environment variables,
// validation. Environment variables follow the pattern SECMON_SECTION_KEY,
// for example SECMON_MQTT_HOST or SECMON_JOURNAL_PATH.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns the configuration defaults. Values mirror the
// long-standing deployment at the space: a 2x1 wall refreshed every five
// minutes, a two-hour command freshness window, and a fifteen-minute
// idle timeout.
func defaultConfig() *Config {
	return &Config{
		Auth: AuthConfig{
			MaxTimeDelta: 7200,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host: "localhost",
				Port: 1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			Topics: MQTTTopicsConfig{
				CheckupRequest: "reporter/checkup_req",
				CheckupReply:   "reporter/checkup",
				Motion:         []string{"daisy/event", "daisy/checkup"},
				MotionField:    "ConfRm Motion",
			},
		},
		UDP: UDPConfig{
			Enabled: true,
			Bind:    "0.0.0.0:11017",
		},
		Splitter: SplitterConfig{
			DivisionIndex: 1,
			RefreshPeriod: 300,
			JoinTimeout:   15,
			PlayTimeout:   60,
		},
		Idle: IdleConfig{
			Timeout: 900,
		},
		Player: PlayerConfig{
			Binary:         "mpv",
			NetworkTimeout: 10,
			Profile:        "low-latency",
			AudioOut:       "pulseaudio",
		},
		Display: DisplayConfig{
			Control: "dpms",
		},
		Journal: JournalConfig{
			Path:        "data/secmon.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Telemetry: TelemetryConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Secrets (MQTT password, telemetry token) should be
// provided this way rather than committed to the config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SECMON_NAME"); v != "" {
		cfg.Identity.Name = v
	}

	// MQTT
	if v := os.Getenv("SECMON_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SECMON_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("SECMON_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SECMON_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Journal
	if v := os.Getenv("SECMON_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	// Telemetry
	if v := os.Getenv("SECMON_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Identity.Name == "" {
		return fmt.Errorf("identity.name is required")
	}
	if len(c.Sources.URLs) == 0 {
		return fmt.Errorf("sources.urls must list at least one stream")
	}
	if c.Auth.MaxTimeDelta <= 0 {
		return fmt.Errorf("auth.max_time_delta must be positive")
	}
	if c.MQTT.Broker.Host == "" {
		return fmt.Errorf("mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port <= 0 || c.MQTT.Broker.Port > 65535 {
		return fmt.Errorf("mqtt.broker.port must be 1-65535, got %d", c.MQTT.Broker.Port)
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1, or 2, got %d", c.MQTT.QoS)
	}
	if c.UDP.Enabled && c.UDP.Bind == "" {
		return fmt.Errorf("udp.bind is required when udp.enabled")
	}
	if c.Splitter.DivisionIndex < 0 {
		return fmt.Errorf("splitter.division_index must be non-negative")
	}
	if c.Splitter.RefreshPeriod <= 0 {
		return fmt.Errorf("splitter.refresh_period must be positive")
	}
	if c.Splitter.JoinTimeout <= 0 {
		return fmt.Errorf("splitter.join_timeout must be positive")
	}
	if c.Splitter.PlayTimeout <= 0 {
		return fmt.Errorf("splitter.play_timeout must be positive")
	}
	if c.Idle.Timeout <= 0 {
		return fmt.Errorf("idle.timeout must be positive")
	}
	if c.Player.Binary == "" {
		return fmt.Errorf("player.binary is required")
	}
	switch c.Display.Control {
	case "dpms", "none":
	default:
		return fmt.Errorf("display.control must be dpms or none, got %q", c.Display.Control)
	}
	if c.Telemetry.Enabled {
		if c.Telemetry.URL == "" {
			return fmt.Errorf("telemetry.url is required when telemetry.enabled")
		}
		if c.Telemetry.Token == "" {
			return fmt.Errorf("telemetry.token is required when telemetry.enabled")
		}
	}
	return nil
}
