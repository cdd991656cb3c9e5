package plato

// Keyset key codes referenced directly by the protocol (flow control and
// the terminal-initiated abort keys); the rest are ordinary lowercase
// letters at 0x41 + (c - 'a').
const (
	KeyNext   uint16 = 0x16
	KeyStop   uint16 = 0x1A
	KeyStop1  uint16 = 0x3A
	KeyTurnOn uint16 = 0x3C0
	KeyData   uint16 = 0x19
	KeyLCA    uint16 = 0x41
	KeyXON    uint16 = 0x386
	KeyXOFF   uint16 = 0x387
)

// LCKey returns the keyset code for the lowercase letter c.
func LCKey(c byte) uint16 {
	return KeyLCA + uint16(c-'a')
}

// KeysetDecoder reassembles 10-bit keyset symbols from the bit stream
// shifted in over each SPI exchange's RX half.
type KeysetDecoder struct {
	bits  uint32
	count int
}

// fls returns the 1-based position of the highest set bit in w (0 if w
// is 0).
func fls(w uint32) int {
	n := 0
	for w != 0 {
		n++
		w >>= 1
	}
	return n
}

// Feed processes one 6-byte SPI RX buffer and returns the zero or more
// 10-bit key codes decoded from it.
//
// While the accumulator is empty, zero bytes (idle line) are skipped;
// the first nonzero byte loads the accumulator and sets the bit count
// to the position of its highest set bit, discarding the idle line's
// leading zero bits. Subsequent bytes shift in as 8-bit units. Once at
// least 12 bits have accumulated, the top 12 bits are taken, the low bit
// (start bit) is dropped, and the next 10 bits above it are the key code
// (the window's top bit is discarded). Any bits left over feed the next
// symbol, counted from their highest set bit; if only zero bits remain
// (idle line), they are discarded.
func (k *KeysetDecoder) Feed(rx [6]byte) []uint16 {
	var keys []uint16

	for _, b := range rx {
		if k.count == 0 {
			if b == 0 {
				continue
			}
			k.bits = uint32(b)
			k.count = fls(k.bits)
			continue
		}

		k.bits = (k.bits << 8) | uint32(b)
		k.count += 8

		if k.count >= 12 {
			remaining := k.count - 12
			keyData := k.bits >> uint(remaining)
			keyData = (keyData >> 1) & 0x3FF
			keys = append(keys, uint16(keyData))

			k.bits &= (1 << uint(remaining)) - 1
			if k.bits == 0 {
				k.count = 0
			} else {
				k.count = fls(k.bits)
			}
		}
	}

	return keys
}
