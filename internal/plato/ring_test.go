package plato

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingThresholdValues(t *testing.T) {
	require.Equal(t, 3333, XOFF1Limit)
	require.Equal(t, 3750, XOFF2Limit)
	require.Equal(t, 1666, XON1Limit)
	require.Equal(t, 1250, XON2Limit)
}

func TestRingEnqueueDequeueOrder(t *testing.T) {
	var r Ring
	require.True(t, r.Empty())

	for i := uint32(0); i < 10; i++ {
		ok := r.Enqueue(MakeWord(i))
		require.True(t, ok)
	}
	require.Equal(t, 10, r.Count())

	for i := uint32(0); i < 10; i++ {
		w := r.Dequeue()
		require.Equal(t, i, w.Payload())
	}
	require.True(t, r.Empty())
}

func TestRingCapacityAndOverflow(t *testing.T) {
	var r Ring
	for i := 0; i < HostInWords-1; i++ {
		require.True(t, r.Enqueue(MakeWord(uint32(i))))
	}
	// One slot is always kept empty to distinguish full from empty.
	require.False(t, r.Enqueue(MakeWord(0xFFFF)))
	require.Equal(t, HostInWords-1, r.Count())
}

func TestRingDequeueOnEmptyPanics(t *testing.T) {
	var r Ring
	require.Panics(t, func() { r.Dequeue() })
}

func TestRingDiscardAll(t *testing.T) {
	var r Ring
	for i := 0; i < 5; i++ {
		r.Enqueue(MakeWord(uint32(i)))
	}
	r.DiscardAll()
	require.True(t, r.Empty())
	require.Equal(t, 0, r.Count())
}

func TestRingWrapsAroundCapacity(t *testing.T) {
	var r Ring
	for i := 0; i < HostInWords-2; i++ {
		r.Enqueue(MakeWord(uint32(i)))
	}
	for i := 0; i < HostInWords-2; i++ {
		r.Dequeue()
	}
	require.True(t, r.Empty())

	for i := 0; i < 100; i++ {
		require.True(t, r.Enqueue(MakeWord(uint32(1000+i))))
	}
	require.Equal(t, 100, r.Count())
	for i := 0; i < 100; i++ {
		w := r.Dequeue()
		require.Equal(t, uint32(1000+i), w.Payload())
	}
}
