// Package sink configures where telemetry goes.
package sink

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/robotalks/linecar/pkg/telemetry"
	"github.com/robotalks/linecar/pkg/telemetry/mqtt"
	"github.com/robotalks/linecar/pkg/telemetry/stream"
	"github.com/robotalks/linecar/pkg/telemetry/websocket"
)

// Config selects telemetry sinks. Empty addresses disable a sink.
type Config struct {
	CarID string
	// Every is the reporting period in control cycles.
	Every uint64

	// MQTTBrokerURL e.g. mqtt://host:port/topic-prefix/
	MQTTBrokerURL string
	// WebsocketAddr is the listen address for websocket clients.
	WebsocketAddr string
	// StreamAddr is a TCP address to send length-prefixed packets to.
	StreamAddr string
}

var defaultConfig = Config{
	Every: 10,
}

func init() {
	if val := os.Getenv("LINECAR_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("LINECAR_CAR_ID"); val != "" {
		defaultConfig.CarID = val
	}
	if val, err := strconv.ParseUint(os.Getenv("LINECAR_REPORT_EVERY"), 10, 32); err == nil && val > 0 {
		defaultConfig.Every = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.CarID, "car-id", defaultConfig.CarID, "Car ID in telemetry, machine ID if empty")
	flag.Uint64Var(&defaultConfig.Every, "report-every", defaultConfig.Every, "Report every N control cycles")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.WebsocketAddr, "ws", defaultConfig.WebsocketAddr, "Websocket listen address")
	flag.StringVar(&defaultConfig.StreamAddr, "stream", defaultConfig.StreamAddr, "TCP address to stream telemetry to")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ID gets CarID, or the machine derived one if not set.
func (c *Config) ID() string {
	if c.CarID != "" {
		return c.CarID
	}
	return telemetry.CarID()
}

// NewPublisher creates a publisher to all configured sinks. It must be added
// to the loop to get connected.
func (c *Config) NewPublisher() (*telemetry.PublisherMux, error) {
	id := c.ID()
	pub := &telemetry.PublisherMux{}
	if c.MQTTBrokerURL != "" {
		q, err := mqtt.NewQueueFromURL(c.MQTTBrokerURL)
		if err != nil {
			return nil, fmt.Errorf("mqtt %q: %w", c.MQTTBrokerURL, err)
		}
		pub.Add(telemetry.NewPublisher(mqtt.NewPacketReadWriter(q).ForCar(id), id))
	}
	if c.WebsocketAddr != "" {
		pub.Add(telemetry.NewPublisher(websocket.NewBroadcaster(c.WebsocketAddr), id))
	}
	if c.StreamAddr != "" {
		conn, err := net.Dial("tcp", c.StreamAddr)
		if err != nil {
			return nil, fmt.Errorf("stream %q: %w", c.StreamAddr, err)
		}
		pub.Add(telemetry.NewPublisher(stream.New(conn), id))
	}
	return pub, nil
}

// NewReporter creates a Reporter publishing to all configured sinks.
func (c *Config) NewReporter(sources ...telemetry.Source) (*telemetry.Reporter, error) {
	pub, err := c.NewPublisher()
	if err != nil {
		return nil, err
	}
	return telemetry.NewReporter(pub, c.Every, sources...), nil
}
