package spi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// These are the only spi package behaviors exercisable without a real
// spidev character device present (Open/Transfer otherwise require one).

func TestModeConstantsMatchLinuxSPIDefinitions(t *testing.T) {
	require.EqualValues(t, 0x40, NoCS)
	require.EqualValues(t, 0x01, Mode1)
}

func TestTransferRejectsMismatchedLengths(t *testing.T) {
	d := &Device{fd: -1}
	err := d.Transfer(make([]byte, 6), make([]byte, 5))
	require.Error(t, err)
}
