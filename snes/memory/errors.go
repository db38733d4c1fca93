package memory

import "fmt"

// UnmappedAccessError indicates a read from or write to an I/O address that
// has no registered owner. This always means a component wasn't wired up, so
// it is raised as a panic and recovered at the orchestrator.
type UnmappedAccessError struct {
	Addr    Address
	IsWrite bool
}

func (e *UnmappedAccessError) Error() string {
	op := "read from"
	if e.IsWrite {
		op = "write to"
	}
	return fmt.Sprintf("unmapped %s 0x%06X", op, uint32(e.Addr))
}

// ReadOnlyError indicates a write into a ROM region.
type ReadOnlyError struct {
	Addr Address
}

func (e *ReadOnlyError) Error() string {
	return fmt.Sprintf("write to read-only address 0x%06X", uint32(e.Addr))
}

// OwnershipError indicates two components requested the same I/O register.
type OwnershipError struct {
	Reg uint16
}

func (e *OwnershipError) Error() string {
	return fmt.Sprintf("I/O register 0x%04X is already owned", e.Reg)
}
