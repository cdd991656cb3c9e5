package gsw

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MRustad/plato-if/internal/plato"
)

func audWord(cis bool, vs, a0, a1, a2, a3 uint8) plato.Word {
	data := uint32(a3&7) | uint32(a2&7)<<3 | uint32(a1&7)<<6 | uint32(a0&7)<<9 | uint32(vs&3)<<12
	if cis {
		data |= 0x4000
	}
	payload := uint32(plato.AUD)<<15 | data
	return plato.MakeWord(payload)
}

func extWord(ext uint32) plato.Word {
	payload := uint32(plato.EXT)<<15 | (ext & 0xFFFFF)
	return plato.MakeWord(payload)
}

func TestHandlePassesThroughDataWords(t *testing.T) {
	b := NewBank()
	data := plato.MakeWord(1 << 18)
	require.Equal(t, data, b.Handle(data))
}

func TestHandlePassesThroughOrdinaryCommands(t *testing.T) {
	b := NewBank()
	ldm := plato.MakeWord(uint32(plato.LDM) << 15)
	require.Equal(t, ldm, b.Handle(ldm))
}

func TestHandleAUDConfiguresAmplitudesAndReturnsNOP(t *testing.T) {
	b := NewBank()
	w := audWord(false, 2, 0, 1, 2, 3)

	got := b.Handle(w)
	require.Equal(t, plato.NOPWord, got)
	require.Equal(t, &AmpTable[0], b.Voices[0].Amp)
	require.Equal(t, &AmpTable[1], b.Voices[1].Amp)
	require.Equal(t, &AmpTable[2], b.Voices[2].Amp)
	require.Equal(t, &AmpTable[3], b.Voices[3].Amp)
	require.EqualValues(t, 2, b.vix)
	require.EqualValues(t, 2, b.vs)
	require.False(t, b.cis)
}

func TestHandleAUDGSWNopLeavesVoicesAloneButIsConsumed(t *testing.T) {
	b := NewBank()
	b.Handle(audWord(false, 2, 1, 1, 1, 1))
	before := b.Voices

	// An AUD word with none of bits 0x7800 set is GSW's own internal
	// NOP: no voice or routing state changes, but the terminal still
	// sees a NOP in its place.
	w := plato.MakeWord(uint32(plato.AUD) << 15)
	require.Equal(t, plato.NOPWord, b.Handle(w))
	require.Equal(t, before, b.Voices)
	require.EqualValues(t, 2, b.vix)
}

func TestHandleEXTSetsDivisorAndAdvancesVoiceIndex(t *testing.T) {
	b := NewBank()
	b.Handle(audWord(false, 0, 7, 7, 7, 7)) // select voice 0, cis=false

	got := b.Handle(extWord(100))
	require.Equal(t, plato.NOPWord, got)
	require.NotZero(t, b.Voices[0].Div)
	// vix started at 0 and cis is false, so it wraps to vs (0) again.
	require.EqualValues(t, 0, b.vix)
}

func TestHandleEXTWithCountInhibitHoldsVoiceIndex(t *testing.T) {
	b := NewBank()
	b.Handle(audWord(true, 1, 7, 7, 7, 7)) // cis=true, vs=vix=1

	b.Handle(extWord(50))
	require.EqualValues(t, 1, b.vix, "count-inhibit must leave vix unchanged across EXT")
}

func TestHandleEXTDecrementsVoiceIndexAcrossMultipleCalls(t *testing.T) {
	b := NewBank()
	b.Handle(audWord(false, 3, 7, 7, 7, 7)) // vix starts at 3

	b.Handle(extWord(10))
	require.EqualValues(t, 2, b.vix)
	b.Handle(extWord(10))
	require.EqualValues(t, 1, b.vix)
	b.Handle(extWord(10))
	require.EqualValues(t, 0, b.vix)
	b.Handle(extWord(10))
	require.EqualValues(t, 3, b.vix, "wraps back to vs once vix reaches 0")
}

func TestDiagWordsRecordsConsumedGSWCommands(t *testing.T) {
	b := NewBank()
	w1 := audWord(false, 0, 1, 1, 1, 1)
	w2 := extWord(5)

	b.Handle(w1)
	b.Handle(w2)

	diag := b.DiagWords()
	require.Equal(t, []plato.Word{w1, w2}, diag)
}

func TestDiagWordsWrapsAt32Entries(t *testing.T) {
	b := NewBank()
	var last plato.Word
	for i := 0; i < 40; i++ {
		last = audWord(false, 0, uint8(i%8), 0, 0, 0)
		b.Handle(last)
	}
	diag := b.DiagWords()
	require.Len(t, diag, 32)
	require.Equal(t, last, diag[len(diag)-1])
}
