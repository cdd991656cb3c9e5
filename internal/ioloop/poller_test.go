package ioloop

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPollerDispatchesOnReadableFd(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	p := New()
	var gotRevents int16
	called := false
	p.Register(int(r.Fd()), unix.POLLIN, func(revents int16) {
		called = true
		gotRevents = revents
	})

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	n, err := p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.True(t, called)
	require.NotZero(t, gotRevents&unix.POLLIN)
}

func TestPollerNoDispatchWhenNotReady(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	p := New()
	called := false
	p.Register(int(r.Fd()), unix.POLLIN, func(revents int16) { called = true })

	n, err := p.Poll(50)
	require.NoError(t, err)
	require.Zero(t, n)
	require.False(t, called)
}

func TestPollerRemoveStopsDispatch(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	p := New()
	called := false
	p.Register(int(r.Fd()), unix.POLLIN, func(revents int16) { called = true })
	p.Remove(int(r.Fd()))

	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	n, err := p.Poll(50)
	require.NoError(t, err)
	require.Zero(t, n)
	require.False(t, called)
}

func TestPollerRemoveUnknownFdIsNoop(t *testing.T) {
	p := New()
	require.NotPanics(t, func() { p.Remove(999) })
}

func TestPollerEmptySetReturnsImmediately(t *testing.T) {
	p := New()
	n, err := p.Poll(5000)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestPollerDispatchesOnlyReadyFd(t *testing.T) {
	r1, w1, err := os.Pipe()
	require.NoError(t, err)
	defer r1.Close()
	defer w1.Close()
	r2, w2, err := os.Pipe()
	require.NoError(t, err)
	defer r2.Close()
	defer w2.Close()

	p := New()
	var called1, called2 bool
	p.Register(int(r1.Fd()), unix.POLLIN, func(revents int16) { called1 = true })
	p.Register(int(r2.Fd()), unix.POLLIN, func(revents int16) { called2 = true })

	_, err = w2.Write([]byte("y"))
	require.NoError(t, err)

	n, err := p.Poll(1000)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.False(t, called1)
	require.True(t, called2)
}
