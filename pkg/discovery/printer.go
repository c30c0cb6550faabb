// ABOUTME: Discovered printer record assembled from resolve and address replies
// ABOUTME: Splits the text record into well-known fields and extra metadata
package discovery

import (
	"fmt"
	"maps"
	"net"
	"strings"

	"github.com/samuelkadolph/ultimaker-go/pkg/ultimaker"
)

// Text record keys with a dedicated DiscoveredPrinter field
const (
	keyFirmwareVersion = "firmware_version"
	keyMachine         = "machine"
	keyName            = "name"
	keyType            = "type"
)

// DiscoveredPrinter describes a printer found during discovery. It is
// immutable once created.
type DiscoveredPrinter struct {
	address         string
	hostname        string
	firmwareVersion string
	name            string
	typeCode        string
	extra           map[string]string
}

// NewDiscoveredPrinter assembles a printer from its address reply and
// decoded text record. Missing keys leave the matching field empty.
func NewDiscoveredPrinter(addr AddrInfo, txt map[string][]byte) *DiscoveredPrinter {
	p := &DiscoveredPrinter{
		hostname:        addr.Hostname,
		firmwareVersion: textValue(txt, keyFirmwareVersion),
		name:            textValue(txt, keyName),
		typeCode:        textValue(txt, keyMachine),
		extra:           make(map[string]string),
	}
	if addr.Address != nil {
		p.address = (&net.IPAddr{IP: addr.Address, Zone: addr.Zone}).String()
	}

	for k, v := range txt {
		switch k {
		case keyFirmwareVersion, keyMachine, keyName, keyType:
			continue
		}
		p.extra[k] = strings.ToValidUTF8(string(v), "\uFFFD")
	}

	return p
}

func textValue(txt map[string][]byte, key string) string {
	return strings.ToValidUTF8(string(txt[key]), "\uFFFD")
}

// Address returns the IP address of the printer. Link-local IPv6
// addresses carry their zone, e.g. "fe80::1%eth0".
func (p *DiscoveredPrinter) Address() string { return p.address }

// Hostname returns the host name the printer resolved to
func (p *DiscoveredPrinter) Hostname() string { return p.hostname }

// FirmwareVersion returns the advertised firmware version
func (p *DiscoveredPrinter) FirmwareVersion() string { return p.firmwareVersion }

// Name returns the user assigned printer name
func (p *DiscoveredPrinter) Name() string { return p.name }

// Type returns the machine type code. It starts with 9066 for the
// Ultimaker 3 and 9511 for the Ultimaker 3 Extended.
func (p *DiscoveredPrinter) Type() string { return p.typeCode }

// Extra returns a copy of every text record entry without a dedicated field
func (p *DiscoveredPrinter) Extra() map[string]string {
	return maps.Clone(p.extra)
}

// ExtraValue returns a single extra text record entry
func (p *DiscoveredPrinter) ExtraValue(key string) (string, bool) {
	v, ok := p.extra[key]
	return v, ok
}

// Model returns the printer model the type code maps to
func (p *DiscoveredPrinter) Model() ultimaker.Model {
	return ultimaker.ModelForType(p.typeCode)
}

// Connect returns a printer handle for the discovered printer, typed by its
// advertised machine code
func (p *DiscoveredPrinter) Connect() *ultimaker.Printer {
	return ultimaker.NewPrinter(p.address, p.Model())
}

// Equal reports whether two records hold the same values
func (p *DiscoveredPrinter) Equal(other *DiscoveredPrinter) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.address == other.address &&
		p.hostname == other.hostname &&
		p.firmwareVersion == other.firmwareVersion &&
		p.name == other.name &&
		p.typeCode == other.typeCode &&
		maps.Equal(p.extra, other.extra)
}

func (p *DiscoveredPrinter) String() string {
	return fmt.Sprintf("%s (%s) at %s [%s]", p.name, p.Model(), p.address, p.hostname)
}
