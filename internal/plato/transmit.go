package plato

// FormatWord packs a 20-bit transmit word (start bit + 19-bit payload,
// no parity bit re-sent -- parity lives in the low bit already folded
// into w by MakeWord/Parity) into the 6-byte full-duplex SPI payload:
// the word left-shifted by 11 into the top of a 32-bit big-endian field,
// serialized as 3 bytes, followed by 3 padding bytes.
func FormatWord(w Word) [6]byte {
	shifted := uint32(w) << 11
	return [6]byte{
		byte(shifted >> 24),
		byte(shifted >> 16),
		byte(shifted >> 8),
		0, 0, 0,
	}
}

// FormatKey packs a keyset code into the two bytes sent to the host:
// the top bits, then the low 7 bits with the high bit forced set.
func FormatKey(key uint16) [2]byte {
	return [2]byte{byte(key >> 7), 0x80 | byte(key&0x7F)}
}

// KeyName returns a short diagnostic label for well-known key codes, or
// "" if key has no name (an unrecognized code).
func KeyName(key uint16) string {
	switch key {
	case KeyNext:
		return "-next-"
	case KeyData:
		return "-data-"
	case KeyStop:
		return "-stop-"
	case KeyStop1:
		return "-stop1-"
	case KeyXON:
		return "-flowon-"
	case KeyXOFF:
		return "-flowoff-"
	case KeyTurnOn:
		return "-turnon-"
	}
	if key >= KeyLCA && key < KeyLCA+26 {
		return string(rune('a' + (key - KeyLCA)))
	}
	return ""
}
