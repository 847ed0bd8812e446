// Package config holds the simulator's startup configuration: the
// communication endpoint, the two tag identifiers, and the plant parameters.
// Everything is fixed at startup; there is no runtime reconfiguration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Transport selectors.
const (
	TransportOPCUA = "opcua"
	TransportRedis = "redis"
)

// Config is the full simulator configuration.
type Config struct {
	// Transport selects the tag backend: "opcua" (default) or "redis".
	Transport string `yaml:"transport"`

	// Endpoint is the OPC UA endpoint URL, e.g. opc.tcp://192.168.0.1:4840.
	Endpoint string `yaml:"endpoint"`

	// MVNode and PVNode are the NodeID strings (or hash field names for the
	// redis transport) of the manipulated and process values.
	MVNode string `yaml:"mv_node"`
	PVNode string `yaml:"pv_node"`

	// RedisAddr and RedisKey configure the redis transport.
	RedisAddr string `yaml:"redis_addr"`
	RedisKey  string `yaml:"redis_key"`

	// Ts is the sample period in seconds. Must match the cyclic OB in the PLC.
	Ts float64 `yaml:"sample_time"`

	Kproc    float64 `yaml:"gain"`
	Tau      float64 `yaml:"time_constant"`
	NoisePct float64 `yaml:"noise_pct"`
	DelaySec float64 `yaml:"delay"`

	OutMin float64 `yaml:"out_min"`
	OutMax float64 `yaml:"out_max"`

	// InitialPV is the process value the model starts from.
	InitialPV float64 `yaml:"initial_pv"`
}

// Default returns the stock configuration: a 0.1 s loop against a unity-gain
// plant with a 2 s time constant, ±0.25% noise, 10 s of transport delay and
// a 0..100 output range.
func Default() Config {
	return Config{
		Transport: TransportOPCUA,
		Endpoint:  "opc.tcp://192.168.0.1:4840",
		MVNode:    `ns=3;s="PID_SIM_DB"."ManipulatedValue"`,
		PVNode:    `ns=3;s="PID_SIM_DB"."ProcessValue"`,
		RedisAddr: "localhost:6379",
		RedisKey:  "plantsim:tags",
		Ts:        0.1,
		Kproc:     1.0,
		Tau:       2.0,
		NoisePct:  0.0025,
		DelaySec:  10.0,
		OutMin:    0.0,
		OutMax:    100.0,
		InitialPV: 20.0,
	}
}

// Load reads a YAML file over the defaults. Fields absent from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the invariants the simulation depends on.
func (c Config) Validate() error {
	switch c.Transport {
	case TransportOPCUA:
		if c.Endpoint == "" {
			return fmt.Errorf("endpoint must not be empty")
		}
	case TransportRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis_addr must not be empty")
		}
		if c.RedisKey == "" {
			return fmt.Errorf("redis_key must not be empty")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.MVNode == "" || c.PVNode == "" {
		return fmt.Errorf("mv_node and pv_node must not be empty")
	}
	if c.Ts <= 0 {
		return fmt.Errorf("sample_time must be > 0, got %g", c.Ts)
	}
	if c.Tau <= 0 {
		return fmt.Errorf("time_constant must be > 0, got %g", c.Tau)
	}
	if c.NoisePct < 0 {
		return fmt.Errorf("noise_pct must be >= 0, got %g", c.NoisePct)
	}
	if c.DelaySec < 0 {
		return fmt.Errorf("delay must be >= 0, got %g", c.DelaySec)
	}
	if c.OutMin > c.OutMax {
		return fmt.Errorf("out_min %g exceeds out_max %g", c.OutMin, c.OutMax)
	}
	return nil
}
