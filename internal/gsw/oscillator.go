// Package gsw implements the Gilfillan Sound Generator: the four-voice
// fixed-point additive synthesizer and the AUD/EXT command interceptor
// that drives it from the PLATO output stream.
//
// All arithmetic here is integer, end to end, so the rendered samples
// are bit-for-bit reproducible across machines.
package gsw

import "github.com/MRustad/plato-if/internal/plato"

// GSWCrystal is the GSW clock frequency in Hz.
const GSWCrystal = 3_872_000

// SampleRate is the audio sample rate this bridge renders at.
const SampleRate = 24_000

// PhaseIncr is the number of crystal ticks per output sample, rounded
// up: ceil(GSWCrystal / SampleRate).
const PhaseIncr = (GSWCrystal + SampleRate - 1) / SampleRate

// NumVoices is the number of simultaneous GSW voices (1 << NVShift).
const (
	NVShift   = 2
	NumVoices = 1 << NVShift
)

// Waveform is a small read-only sample table a voice plays back.
type Waveform struct {
	Samples []int16
}

// SquareWave is the default GSW waveform: two samples, full scale then
// silence.
var SquareWave = &Waveform{Samples: []int16{0x7FFF, 0}}

// Amp is one entry of the 8-step amplitude table: multiplying by Mult
// then right-shifting by Shift scales a sample by (3/4)^(7-n) for entry n.
type Amp struct {
	Mult  uint16
	Shift uint8
}

// AmpTable is the immutable 8-entry GSW amplitude table, indexed by the
// 3-bit amplitude field in an AUD command: entry n scales by (3/4)^(7-n),
// so 7 is loudest (multiplier 1, shift 0).
var AmpTable = [8]Amp{
	{2187, 14}, {729, 12}, {243, 10}, {81, 8},
	{27, 6}, {9, 4}, {3, 2}, {1, 0},
}

// Voice is one of the four GSW oscillators.
type Voice struct {
	Div   uint32
	Frac  uint32
	Shift uint16
	Step  uint16
	Phase uint32
	Amp   *Amp
	Wave  *Waveform
}

// FracGen computes the 30-bit-scaled reciprocal of div such that
// (x*frac)>>shift == x/div for all 0 <= x < div < 2^20: find the
// highest set bit of (1<<30)/div, and if it exceeds position 15, round
// and truncate to a 16-bit multiplier, adjusting shift accordingly.
// Division per sample then costs one multiply and one shift.
func FracGen(div uint32) (frac uint32, shift uint16) {
	l32 := uint32(1<<30) / div
	bit := 30
	for (uint32(1)<<uint(bit))&l32 == 0 {
		bit--
	}
	if bit > 15 {
		l32 += 1 << uint(bit-16)
		l32 >>= uint(bit - 15)
		shift = uint16(16 + 29 - bit)
	} else {
		shift = 30
	}
	return l32, shift
}

// SetDiv installs a new divisor on v, recomputing Step and the
// frac/shift reciprocal pair.
func (v *Voice) SetDiv(div uint32) {
	v.Div = div
	nsamp := uint32(len(v.Wave.Samples))
	step := (div + nsamp - 1) / nsamp
	v.Step = uint16(step)
	v.Frac, v.Shift = FracGen(step)
}

// Generate produces the next sample for v. If Div is below PhaseIncr the
// voice is silent (returns 0). Otherwise the phase accumulator advances
// by PhaseIncr modulo Div (via repeated subtraction -- Div is large
// enough that this loop runs only a handful of times), the waveform
// index is derived via the multiply-shift reciprocal instead of a
// hardware divide, and the looked-up sample is scaled by the voice's
// current amplitude entry.
func (v *Voice) Generate() int32 {
	if v.Div < PhaseIncr {
		return 0
	}

	v.Phase += PhaseIncr
	for v.Phase >= v.Div {
		v.Phase -= v.Div
	}

	product := uint64(v.Phase) * uint64(v.Frac)
	ix := uint32(product >> v.Shift)
	nsamp := uint32(len(v.Wave.Samples))
	if ix >= nsamp {
		ix = nsamp - 1
	}

	sample := int32(v.Wave.Samples[ix])
	return (int32(v.Amp.Mult) * sample) >> v.Amp.Shift
}

// Bank is the four-voice oscillator bank plus the GSW interception
// state (selected voice, count-inhibit, amplitude routing) that AUD/EXT
// commands mutate.
type Bank struct {
	Voices [NumVoices]Voice

	cis bool  // count-inhibit
	vs  uint8 // voice specifier set by the last AUD command
	vix uint8 // voice index the next EXT applies to

	diag    [32]plato.Word
	diagCnt int
}

// NewBank returns a Bank with every voice playing the default square
// wave and silent until an AUD/EXT pair configures it.
func NewBank() *Bank {
	b := &Bank{}
	for i := range b.Voices {
		b.Voices[i].Wave = SquareWave
		b.Voices[i].Amp = &AmpTable[0]
	}
	return b
}

// RenderPeriod fills buf (interleaved stereo int16) with one period of
// synthesized audio: each sample is the sum of all four voices,
// right-shifted by NVShift, written to both channels.
func (b *Bank) RenderPeriod(buf []int16) {
	for i := 0; i+1 < len(buf); i += 2 {
		var sum int32
		for v := range b.Voices {
			sum += b.Voices[v].Generate()
		}
		sum >>= NVShift
		sample := int16(sum)
		buf[i] = sample
		buf[i+1] = sample
	}
}
