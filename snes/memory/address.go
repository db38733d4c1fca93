package memory

// Address is a 24 bit bus address: bank in the upper 8 bits, offset in the
// lower 16. Stored in a uint32, the top byte is always zero.
type Address uint32

// MakeAddress builds an address from a bank and an offset within it.
func MakeAddress(bank uint8, offset uint16) Address {
	return Address(uint32(bank)<<16 | uint32(offset))
}

func (a Address) Bank() uint8 {
	return uint8(a >> 16)
}

func (a Address) Offset() uint16 {
	return uint16(a)
}

// AddOffset adds to the full 24 bit address, so the result may cross into the
// next bank.
func (a Address) AddOffset(off uint16) Address {
	return Address(uint32(a)+uint32(off)) & 0xFFFFFF
}

// AddOffsetWrapBank adds to the 16 bit offset only, wrapping within the bank.
func (a Address) AddOffsetWrapBank(off uint16) Address {
	return MakeAddress(a.Bank(), a.Offset()+off)
}
