// ABOUTME: Printer handle for a resolved Ultimaker printer
// ABOUTME: Carries the network address and model selected at connect time
package ultimaker

// Printer is a handle to a printer at a known address
type Printer struct {
	address string
	model   Model
}

// NewPrinter creates a handle for a printer of the given model
func NewPrinter(address string, model Model) *Printer {
	return &Printer{
		address: address,
		model:   model,
	}
}

// Connect returns a handle for the printer at address. The model is not
// known without asking the printer, so the handle is generic.
func Connect(address string) *Printer {
	return NewPrinter(address, ModelGeneric)
}

// Address returns the host or IP address of the printer
func (p *Printer) Address() string {
	return p.address
}

// Model returns the printer model
func (p *Printer) Model() Model {
	return p.model
}
