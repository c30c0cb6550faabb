// ABOUTME: mDNS printer discovery package
// ABOUTME: Finds Ultimaker printers on the local network via DNS-SD
// Package discovery finds Ultimaker printers on the local network.
//
// Discovery runs three sequential stages per advertised host: browse for
// the _ultimaker._tcp service, resolve the browse reply to a target host
// and text record, then look up the target's address. Each stage waits at
// most Config.Timeout. Hosts that do not fully resolve in time are left out
// of the results rather than reported as errors.
//
// Example:
//
//	printers, err := discovery.DiscoverPrinters()
//	for _, p := range printers {
//	    fmt.Printf("Found: %s (%s) at %s\n", p.Name(), p.Type(), p.Address())
//	}
//
//	printer, err := discovery.FindByNameOrFail("ultimaker3")
//
// The mDNS transport is compiled in by default. Building with the nomdns
// tag removes it; a Discoverer without an explicit Transport then fails
// with ErrTransportUnavailable.
package discovery
