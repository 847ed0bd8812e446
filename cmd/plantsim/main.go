// Command plantsim emulates a first-order plant in closed loop with a PLC.
// It reads the manipulated value the PLC writes over OPC UA, runs it through
// a transport delay and a first-order lag, and writes the process value back
// every sample period. With -transport redis it serves the same tags from a
// Redis hash for bench work without a PLC.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/argonur/S7PLC-PID-simulation/internal/config"
	"github.com/argonur/S7PLC-PID-simulation/internal/loop"
	"github.com/argonur/S7PLC-PID-simulation/internal/plant"
	"github.com/argonur/S7PLC-PID-simulation/internal/transport"
	"github.com/argonur/S7PLC-PID-simulation/internal/transport/opcuatag"
	"github.com/argonur/S7PLC-PID-simulation/internal/transport/redistag"
)

const version = "1.0.0"

func main() {
	configPath := flag.String("config", "", "YAML config file (optional)")

	def := config.Default()
	transportName := flag.String("transport", def.Transport, "tag transport: opcua or redis")
	endpoint := flag.String("endpoint", def.Endpoint, "OPC UA endpoint URL")
	mvNode := flag.String("mv", def.MVNode, "NodeID (or hash field) of the manipulated value")
	pvNode := flag.String("pv", def.PVNode, "NodeID (or hash field) of the process value")
	redisAddr := flag.String("redis", def.RedisAddr, "Redis address (redis transport)")
	ts := flag.Float64("ts", def.Ts, "sample period in seconds")
	gain := flag.Float64("gain", def.Kproc, "plant gain")
	tau := flag.Float64("tau", def.Tau, "plant time constant in seconds")
	noise := flag.Float64("noise", def.NoisePct, "multiplicative noise fraction")
	delay := flag.Float64("delay", def.DelaySec, "transport delay in seconds")
	pv0 := flag.Float64("pv0", def.InitialPV, "initial process value")
	flag.Parse()

	cfg := def
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}

	// Flags given explicitly on the command line win over the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "transport":
			cfg.Transport = *transportName
		case "endpoint":
			cfg.Endpoint = *endpoint
		case "mv":
			cfg.MVNode = *mvNode
		case "pv":
			cfg.PVNode = *pvNode
		case "redis":
			cfg.RedisAddr = *redisAddr
		case "ts":
			cfg.Ts = *ts
		case "gain":
			cfg.Kproc = *gain
		case "tau":
			cfg.Tau = *tau
		case "noise":
			cfg.NoisePct = *noise
		case "delay":
			cfg.DelaySec = *delay
		case "pv0":
			cfg.InitialPV = *pv0
		}
	})

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var dialer transport.Dialer
	switch cfg.Transport {
	case config.TransportOPCUA:
		dialer = &opcuatag.Dialer{
			Endpoint: cfg.Endpoint,
			Tags: map[string]string{
				"MV": cfg.MVNode,
				"PV": cfg.PVNode,
			},
		}
	case config.TransportRedis:
		dialer = &redistag.Dialer{
			Addr: cfg.RedisAddr,
			Key:  cfg.RedisKey,
			Fields: map[string]string{
				"MV": cfg.MVNode,
				"PV": cfg.PVNode,
			},
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	model := plant.NewModel(cfg.Kproc, cfg.Tau, cfg.NoisePct, cfg.OutMin, cfg.OutMax, nil)
	line := plant.NewDelayLine(plant.Samples(cfg.DelaySec, cfg.Ts))

	log.Printf("plantsim %s starting (run %s)", version, uuid.New().String())
	log.Printf("transport=%s Ts=%gs gain=%g tau=%gs noise=%g delay=%gs (%d samples)",
		cfg.Transport, cfg.Ts, cfg.Kproc, cfg.Tau, cfg.NoisePct, cfg.DelaySec, line.Len())

	runner := loop.New(dialer, "MV", "PV", model, line, cfg.Ts, cfg.InitialPV)
	if err := runner.Run(ctx); err != nil {
		log.Fatalf("Loop error: %v", err)
	}
}
