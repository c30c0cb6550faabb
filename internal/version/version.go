// ABOUTME: Version information for the Ultimaker tools
// ABOUTME: Product, manufacturer and release identifiers
package version

const (
	// Version is the release version
	Version = "0.1.0"

	// Product is the product name reported by the tools
	Product = "Ultimaker Go"

	// Manufacturer identifies who ships the tools
	Manufacturer = "ultimaker-go"
)
