// ABOUTME: Domain errors for Ultimaker printers
// ABOUTME: Defines the printer-not-found failure
package ultimaker

import (
	"errors"
	"fmt"
)

// ErrPrinterNotFound matches any PrinterNotFoundError via errors.Is
var ErrPrinterNotFound = errors.New("printer not found")

// PrinterNotFoundError is returned when a printer looked up by name is not on the network
type PrinterNotFoundError struct {
	Name string
}

func (e *PrinterNotFoundError) Error() string {
	return fmt.Sprintf("printer %q not found", e.Name)
}

// Is lets errors.Is(err, ErrPrinterNotFound) match
func (e *PrinterNotFoundError) Is(target error) bool {
	return target == ErrPrinterNotFound
}
