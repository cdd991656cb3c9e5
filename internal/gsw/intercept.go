package gsw

import "github.com/MRustad/plato-if/internal/plato"

// f2e converts a frequency in Hz to the GSW extended-frequency code that
// produces it, inverting the host's own ext(x) = (crystal/x-2)/4.
func f2e(freqHz uint32) uint32 {
	return (GSWCrystal/freqHz - 2) / 4
}

// e2d converts an extended-frequency code to the divisor setdiv() wants.
func e2d(ext uint32) uint32 {
	return ext*4 + 2
}

// Handle intercepts AUD and EXT commands aimed at the GSW, updates the
// voice bank accordingly, and returns the word the terminal should
// actually receive -- plato.NOPWord for any GSW command (the terminal's
// own sound hardware was removed when the SPI link replaced the serial
// one; these commands exist only to drive this package's software
// synthesis), or w unchanged for anything else, including all data
// words.
//
// An AUD word with no bits set in 0x7800 is GSW's own internal NOP: the
// voice state is left alone, but the word is still consumed.
func (b *Bank) Handle(w plato.Word) plato.Word {
	if w.IsData() {
		return w
	}

	// The 15-bit data field below the opcode (payload bits 14..0): cis at
	// bit 14, vs/vix at bits 13-12, and the four 3-bit amplitude indices
	// below that.
	data := (uint32(w) >> 1) & 0x7FFF

	switch w.Opcode() {
	case plato.AUD:
		if uint32(w)&0x7800 != 0 {
			b.cis = data&0x4000 != 0
			b.vs = uint8((data >> 12) & 3)
			b.vix = b.vs
			b.setAmp(0, uint8((data>>9)&7))
			b.setAmp(1, uint8((data>>6)&7))
			b.setAmp(2, uint8((data>>3)&7))
			b.setAmp(3, uint8(data&7))
		}

	case plato.EXT:
		b.setDiv(b.vix, e2d(data&0xFFFFF))
		if !b.cis {
			if b.vix != 0 {
				b.vix--
			} else {
				b.vix = b.vs
			}
		}

	default:
		return w
	}

	b.logDiag(w)
	return plato.NOPWord
}

func (b *Bank) setAmp(vix uint8, ampIx uint8) {
	b.Voices[vix].Amp = &AmpTable[ampIx]
}

func (b *Bank) setDiv(vix uint8, div uint32) {
	b.Voices[vix].SetDiv(div)
}

// logDiag records a consumed GSW command word into the bounded 32-entry
// ring used for diagnostics, overwriting the oldest entry once full.
func (b *Bank) logDiag(w plato.Word) {
	b.diag[b.diagCnt%len(b.diag)] = w
	b.diagCnt++
}

// DiagWords returns the most recently logged GSW command words, oldest
// first, capped at the ring's 32-entry capacity.
func (b *Bank) DiagWords() []plato.Word {
	n := b.diagCnt
	if n > len(b.diag) {
		n = len(b.diag)
	}
	out := make([]plato.Word, n)
	start := b.diagCnt - n
	for i := 0; i < n; i++ {
		out[i] = b.diag[(start+i)%len(b.diag)]
	}
	return out
}
