package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/m-lab/go/flagx"

	"github.com/m-lab/mbm/client"
	"github.com/m-lab/mbm/config"
	"github.com/m-lab/mbm/defaults"
	"github.com/m-lab/mbm/result"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	server       = flag.String("server", "localhost", "Server hostname or address to connect to")
	serverPort   = flag.Int("port", 4040, "Server control port")
	socketType   = flag.String("socket_type", "tcp", "Transport for the data channel: tcp or udp")
	rateKbS      = flag.Uint("rate", 1000, "Target constant-bitrate rate, in kb/s")
	rttMS        = flag.Uint("rtt", 50, "Expected round-trip time, in ms")
	mssBytes     = flag.Uint("mss", 1400, "Maximum segment size, in bytes")
	logDir       = flag.String("log_dir", "", "Directory to write per-run telemetry logs to; empty disables logging")
	legacyBudget = flag.Bool("legacy_budget_fields", false, "Expect the legacy max_num_pkt/max_time_sec control fields; must match the server")

	sweep      = flag.Bool("sweep", false, "Sweep rate from -minrate to -maxrate instead of a single run")
	minRateKbS = flag.Uint("minrate", 1000, "Sweep mode: starting rate, in kb/s")
	maxRateKbS = flag.Uint("maxrate", 10000, "Sweep mode: ending rate, in kb/s")
	rateStep   = flag.Uint("ratestep", 1000, "Sweep mode: rate increment, in kb/s")
)

func parseSocketType(s string) (config.SocketType, error) {
	switch s {
	case "tcp":
		return config.TCP, nil
	case "udp":
		return config.UDP, nil
	default:
		return 0, fmt.Errorf("unknown socket_type %q, want tcp or udp", s)
	}
}

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	st, err := parseSocketType(*socketType)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}

	addr := net.JoinHostPort(*server, strconv.Itoa(*serverPort))
	d := client.New(client.Options{
		ControlTimeout:     defaults.ControlTimeout,
		LogDir:             *logDir,
		LegacyBudgetFields: *legacyBudget,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *sweep {
		res, err := d.RunSweep(ctx, addr, client.SweepOptions{
			MinRateKbS:  uint32(*minRateKbS),
			MaxRateKbS:  uint32(*maxRateKbS),
			RateStepKbS: uint32(*rateStep),
			RTTMS:       uint32(*rttMS),
			MSSBytes:    uint32(*mssBytes),
		})
		if err != nil {
			log.Printf("sweep failed: %v", err)
			os.Exit(1)
		}
		fmt.Printf("confirmation run at %d kb/s: %s\n", res.RateKbS, res.Verdict)
		if res.Verdict == result.Error {
			os.Exit(1)
		}
		return
	}

	cfg := config.Config{
		SocketType: st,
		CBRKbS:     uint32(*rateKbS),
		RTTMS:      uint32(*rttMS),
		MSSBytes:   uint32(*mssBytes),
	}
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid config: %v", err)
		os.Exit(1)
	}
	verdict, err := d.RunOnce(ctx, addr, cfg)
	if err != nil {
		log.Printf("run failed: %v", err)
		os.Exit(1)
	}
	fmt.Println(verdict)
	if verdict == result.Error {
		os.Exit(1)
	}
}
