// ABOUTME: Printer discovery facade
// ABOUTME: Runs browse, resolve and address lookup per host and assembles printers
package discovery

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/samuelkadolph/ultimaker-go/pkg/txtrecord"
	"github.com/samuelkadolph/ultimaker-go/pkg/ultimaker"
)

const (
	// ServiceType is the DNS-SD service type Ultimaker printers advertise
	ServiceType = "_ultimaker._tcp"

	// DefaultTimeout bounds each discovery stage
	DefaultTimeout = 2 * time.Second
)

// ErrTransportUnavailable is returned when no Transport was configured and
// the package was built without the mDNS transport
var ErrTransportUnavailable = errors.New("discovery: no mDNS transport available")

// Config holds discovery configuration
type Config struct {
	// ServiceType to browse for (default: _ultimaker._tcp)
	ServiceType string

	// Timeout bounds each of the browse, resolve and address lookup stages (default: 2s)
	Timeout time.Duration

	// Transport performs the network queries (default: DefaultTransport())
	Transport Transport

	// Logger receives debug output about dropped hosts (default: no-op)
	Logger log.Logger
}

// Discoverer finds printers on the network
type Discoverer struct {
	config Config
	logger log.Logger

	transportOnce sync.Once
	transportImpl Transport
	transportErr  error
}

// New creates a discoverer with the given configuration
func New(config Config) *Discoverer {
	if config.ServiceType == "" {
		config.ServiceType = ServiceType
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &Discoverer{
		config: config,
		logger: log.With(logger, "component", "discovery"),
	}
}

// DiscoverPrinters returns every printer that fully resolved within the
// timeouts, in the order the transport announced them
func (d *Discoverer) DiscoverPrinters() ([]*DiscoveredPrinter, error) {
	var printers []*DiscoveredPrinter

	err := d.walk("discover", func(logger log.Logger, resolved ResolveReply, txt map[string][]byte) (bool, error) {
		printer, err := d.assemble(logger, resolved, txt)
		if err != nil || printer == nil {
			return false, err
		}
		printers = append(printers, printer)
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	return printers, nil
}

// FindByName returns the first printer whose name matches, or nil if none
// did before browsing finished
func (d *Discoverer) FindByName(name string) (*DiscoveredPrinter, error) {
	var found *DiscoveredPrinter

	err := d.walk("find", func(logger log.Logger, resolved ResolveReply, txt map[string][]byte) (bool, error) {
		if string(txt[keyName]) != name {
			return false, nil
		}

		printer, err := d.assemble(logger, resolved, txt)
		if err != nil || printer == nil {
			return false, err
		}
		found = printer
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

// FindByNameOrFail is FindByName but reports a missing printer as a
// *ultimaker.PrinterNotFoundError
func (d *Discoverer) FindByNameOrFail(name string) (*DiscoveredPrinter, error) {
	printer, err := d.FindByName(name)
	if err != nil {
		return nil, err
	}
	if printer == nil {
		return nil, &ultimaker.PrinterNotFoundError{Name: name}
	}
	return printer, nil
}

type visitFunc func(logger log.Logger, resolved ResolveReply, txt map[string][]byte) (stop bool, err error)

// walk browses for the service and calls visit for each host whose text
// record resolved, until visit asks to stop or browsing times out
func (d *Discoverer) walk(op string, visit visitFunc) error {
	transport, err := d.transport()
	if err != nil {
		return err
	}

	logger := log.With(d.logger, "op", op, "call_id", uuid.NewString())

	session, err := transport.Browse(d.config.ServiceType)
	if err != nil {
		return fmt.Errorf("browse %s: %w", d.config.ServiceType, err)
	}
	defer session.Stop()

	for browsed := range session.Each(d.config.Timeout) {
		hostLogger := log.With(logger, "host", browsed.Name)

		resolved, ok, err := resolve(transport, browsed, d.config.Timeout)
		if err != nil {
			return err
		}
		if !ok {
			level.Debug(hostLogger).Log("msg", "host dropped", "stage", "resolve", "reason", "timeout")
			continue
		}

		txt, err := txtrecord.Decode(resolved.TextRecord)
		if err != nil {
			level.Debug(hostLogger).Log("msg", "host dropped", "stage", "resolve", "err", err)
			continue
		}

		stop, err := visit(hostLogger, resolved, txt)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}

	return nil
}

// assemble looks up the resolved target's address and builds the printer.
// It returns nil without error when the lookup timed out.
func (d *Discoverer) assemble(logger log.Logger, resolved ResolveReply, txt map[string][]byte) (*DiscoveredPrinter, error) {
	transport, err := d.transport()
	if err != nil {
		return nil, err
	}

	addr, ok, err := lookupAddress(transport, resolved, d.config.Timeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		level.Debug(logger).Log("msg", "host dropped", "stage", "address", "target", resolved.Target, "reason", "timeout")
		return nil, nil
	}

	printer := NewDiscoveredPrinter(addr, txt)
	level.Debug(logger).Log("msg", "printer discovered", "name", printer.Name(), "address", printer.Address())
	return printer, nil
}

// transport returns the configured Transport, falling back to
// DefaultTransport once per Discoverer
func (d *Discoverer) transport() (Transport, error) {
	d.transportOnce.Do(func() {
		if d.config.Transport != nil {
			d.transportImpl = d.config.Transport
			return
		}
		d.transportImpl, d.transportErr = DefaultTransport()
	})
	return d.transportImpl, d.transportErr
}

// DiscoverPrinters discovers printers with the default configuration
func DiscoverPrinters() ([]*DiscoveredPrinter, error) {
	return New(Config{}).DiscoverPrinters()
}

// FindByName searches for a printer by name with the default configuration
func FindByName(name string) (*DiscoveredPrinter, error) {
	return New(Config{}).FindByName(name)
}

// FindByNameOrFail searches for a printer by name with the default
// configuration and fails if it is not found
func FindByNameOrFail(name string) (*DiscoveredPrinter, error) {
	return New(Config{}).FindByNameOrFail(name)
}
