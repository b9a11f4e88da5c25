package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os/signal"
	"syscall"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"

	"github.com/m-lab/mbm/defaults"
	"github.com/m-lab/mbm/dispatcher"
	"github.com/m-lab/mbm/session"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	controlAddr  = flag.String("listen", ":4040", "Address to listen for control connections on")
	basePort     = flag.Int("base_port", defaults.BasePort, "First port in the data-port pool")
	numPorts     = flag.Int("num_ports", defaults.NumPorts, "Number of ports in the data-port pool")
	logDir       = flag.String("log_dir", "", "Directory to write per-session telemetry logs to; empty disables logging")
	promPort     = flag.String("prom", ":9090", "Prometheus metrics export address and port")
	legacyBudget = flag.Bool("legacy_budget_fields", false, "Send the legacy max_num_pkt/max_time_sec control fields; must match the client")
)

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	promSrv := prometheusx.MustStartPrometheus(*promPort)
	defer promSrv.Shutdown(ctx)

	ln, err := net.Listen("tcp", *controlAddr)
	rtx.Must(err, "could not listen on %s", *controlAddr)
	log.Printf("mbm_server: listening for control connections on %s", ln.Addr())

	opts := session.DefaultOptions()
	opts.LogDir = *logDir
	opts.LegacyBudgetFields = *legacyBudget

	d := dispatcher.New(uint16(*basePort), *numPorts, opts)
	rtx.Must(d.Serve(ctx, ln), "dispatcher exited")
}
