package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/MAGLaboratory/security-monitor/internal/infrastructure/config"
)

// Connection constants.
const (
	// connectTimeout is the maximum time to wait for the initial
	// connection.
	connectTimeout = 10 * time.Second

	// publishTimeout bounds publish and subscribe acknowledgments.
	publishTimeout = 5 * time.Second

	// disconnectQuiesce is how long, in milliseconds, to wait for
	// pending operations on disconnect.
	disconnectQuiesce = 1000

	// keepAlive is the connection keepalive interval.
	keepAlive = 60 * time.Second

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2
)

// buildClientOptions creates paho options from the monitor config.
func buildClientOptions(clientID string, cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port))

	opts.SetClientID(clientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)

	// Auto-reconnect with exponential backoff. The monitor runs
	// unattended for months; it must ride out broker restarts.
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second)
	opts.SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second)

	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	return opts
}

// configureLWT sets the Last Will so the broker announces an unexpected
// disconnect on the status topic. Retained, QoS 1.
func configureLWT(opts *pahomqtt.ClientOptions, topics Topics) {
	opts.SetWill(topics.Status(), statusPayload("offline", "unexpected_disconnect"), 1, true)
}

// statusPayload builds the JSON status message. reason may be empty.
func statusPayload(status, reason string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	if reason == "" {
		return fmt.Sprintf(`{"status":%q,"timestamp":%q}`, status, ts)
	}
	return fmt.Sprintf(`{"status":%q,"reason":%q,"timestamp":%q}`, status, reason, ts)
}
