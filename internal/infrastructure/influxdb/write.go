package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteState records a top state machine transition.
func (c *Client) WriteState(state string) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"monitor_state",
		map[string]string{"monitor": c.name},
		map[string]interface{}{"state": state},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteRotation records one completed slot rotation.
func (c *Client) WriteRotation(slot int, forcedKill bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"rotation",
		map[string]string{"monitor": c.name},
		map[string]interface{}{
			"slot":        slot,
			"forced_kill": forcedKill,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}

// WriteEngineFailure records a rendering engine that never reached the
// playing state or died unexpectedly.
func (c *Client) WriteEngineFailure(slot int, fatal bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"engine_failure",
		map[string]string{"monitor": c.name},
		map[string]interface{}{
			"slot":  slot,
			"fatal": fatal,
		},
		time.Now(),
	)
	c.writeAPI.WritePoint(point)
}
