// Package interrupt holds the pending NMI/IRQ flags. Producers (the timer)
// set them; the main CPU samples and clears them at instruction boundaries.
package interrupt

import "log/slog"

type Flags struct {
	isNMI bool
	isIRQ bool
}

func New() *Flags {
	return &Flags{}
}

func (f *Flags) RequestNMI() {
	slog.Debug("Request VBlank NMI")
	f.isNMI = true
}

func (f *Flags) RequestIRQ() {
	slog.Debug("Request IRQ")
	f.isIRQ = true
}

func (f *Flags) ClearNMI() {
	f.isNMI = false
}

func (f *Flags) ClearIRQ() {
	f.isIRQ = false
}

// Pending reports whether any interrupt is waiting for the CPU.
func (f *Flags) Pending() bool {
	return f.isNMI || f.isIRQ
}

func (f *Flags) IsNMI() bool {
	return f.isNMI
}

func (f *Flags) IsIRQ() bool {
	return f.isIRQ
}
