// ABOUTME: Ultimaker printer model package
// ABOUTME: Maps advertised type codes to printer models and defines domain errors
// Package ultimaker describes the network enabled Ultimaker printers.
//
// Printers advertise a machine type code such as "9066.0" (Ultimaker 3) or
// "9511.0" (Ultimaker 3 Extended). ModelForType maps those codes to a Model;
// unknown codes map to ModelGeneric.
//
// Example:
//
//	printer := ultimaker.Connect("192.168.1.20")
//	fmt.Println(printer.Model())
//
// Use the discovery package to find printers on the local network.
package ultimaker
