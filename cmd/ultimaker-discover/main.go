// ABOUTME: Entry point for the Ultimaker discovery tool
// ABOUTME: Lists printers on the network or looks one up by name
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/samuelkadolph/ultimaker-go/internal/config"
	"github.com/samuelkadolph/ultimaker-go/internal/ui"
	"github.com/samuelkadolph/ultimaker-go/internal/version"
	"github.com/samuelkadolph/ultimaker-go/pkg/discovery"
	"github.com/samuelkadolph/ultimaker-go/pkg/ultimaker"
)

var (
	configFile = flag.String("config", "", "YAML config file (default: built-in settings)")
	name       = flag.String("name", "", "Find the printer with this name and print its details")
	timeout    = flag.Duration("timeout", 0, "Per-stage discovery timeout (overrides config)")
	logLevel   = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
	logFile    = flag.String("log-file", "", "Log file path (default: stderr, discarded in TUI mode)")
	noTUI      = flag.Bool("no-tui", false, "Print a table instead of starting the TUI")
	showVer    = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Println(versionString())
		return
	}

	os.Exit(run())
}

func versionString() string {
	return fmt.Sprintf("%s %s (%s)", version.Product, version.Version, version.Manufacturer)
}

func run() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	useTUI := *name == "" && !*noTUI

	out, closeLog, err := logOutput(useTUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening log file: %v\n", err)
		return 2
	}
	defer closeLog()

	logger := newLogger(out, cfg.Log.Level)

	iface, err := cfg.NetInterface()
	if err != nil {
		level.Error(logger).Log("msg", "Invalid interface", "err", err)
		return 2
	}

	transport := discovery.NewMDNSTransport(discovery.MDNSConfig{
		Domain:      cfg.Discovery.Domain,
		Interface:   iface,
		DisableIPv6: cfg.Discovery.DisableIPv6,
		Logger:      logger,
	})

	d := discovery.New(discovery.Config{
		ServiceType: cfg.Discovery.ServiceType,
		Timeout:     cfg.Discovery.Timeout,
		Transport:   transport,
		Logger:      logger,
	})

	level.Info(logger).Log(
		"msg", "Starting discovery",
		"service", cfg.Discovery.ServiceType,
		"domain", cfg.Discovery.Domain,
		"timeout", cfg.Discovery.Timeout,
	)

	switch {
	case *name != "":
		return findPrinter(d, *name, logger)
	case !useTUI:
		return listPrinters(d, logger)
	default:
		if _, err := ui.Run(d.DiscoverPrinters).Run(); err != nil {
			level.Error(logger).Log("msg", "TUI failed", "err", err)
			return 1
		}
		return 0
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadConfig(*configFile); err != nil {
			return nil, err
		}
	}

	if *timeout > 0 {
		cfg.Discovery.Timeout = *timeout
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	return cfg, cfg.Validate()
}

// logOutput picks where logs go. The TUI owns the terminal, so logs are
// dropped there unless a file is given.
func logOutput(useTUI bool) (io.Writer, func(), error) {
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	}
	if useTUI {
		return io.Discard, func() {}, nil
	}
	return os.Stderr, func() {}, nil
}

func newLogger(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.WithPrefix(logger, "ts", log.DefaultTimestampUTC)
	logger = log.WithPrefix(logger, "caller", log.DefaultCaller)
	return level.NewFilter(logger, levelOption(lvl))
}

func levelOption(lvl string) level.Option {
	switch lvl {
	case "debug":
		return level.AllowDebug()
	case "warn":
		return level.AllowWarn()
	case "error":
		return level.AllowError()
	default:
		return level.AllowInfo()
	}
}

func findPrinter(d *discovery.Discoverer, name string, logger log.Logger) int {
	printer, err := d.FindByNameOrFail(name)
	if errors.Is(err, ultimaker.ErrPrinterNotFound) {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	if err != nil {
		level.Error(logger).Log("msg", "Discovery failed", "err", err)
		return 1
	}

	writePrinters(os.Stdout, []*discovery.DiscoveredPrinter{printer})
	return 0
}

func listPrinters(d *discovery.Discoverer, logger log.Logger) int {
	start := time.Now()

	printers, err := d.DiscoverPrinters()
	if err != nil {
		level.Error(logger).Log("msg", "Discovery failed", "err", err)
		return 1
	}

	level.Info(logger).Log("msg", "Discovery finished", "printers", len(printers), "took", time.Since(start))
	writePrinters(os.Stdout, printers)
	return 0
}

func writePrinters(w io.Writer, printers []*discovery.DiscoveredPrinter) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODEL\tTYPE\tADDRESS\tHOSTNAME\tFIRMWARE")
	for _, p := range printers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name(), p.Model(), p.Type(), p.Address(), p.Hostname(), p.FirmwareVersion())
	}
	_ = tw.Flush()
}
