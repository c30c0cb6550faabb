//go:build nomdns

// ABOUTME: Placeholder used when the mDNS transport is compiled out
// ABOUTME: Reports ErrTransportUnavailable instead of silently finding nothing
package discovery

// DefaultTransport always fails when built with the nomdns tag
func DefaultTransport() (Transport, error) {
	return nil, ErrTransportUnavailable
}
