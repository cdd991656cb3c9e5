// Package ioloop implements the single-threaded cooperative event loop
// that drives the whole bridge: a poll(2) multiplexer dispatching to
// per-fd callbacks.
package ioloop

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Handler is invoked with the revents mask poll(2) reported for its fd.
type Handler func(revents int16)

type entry struct {
	fd      int
	events  int16
	handler Handler
}

// Poller holds the registered fd set and dispatches events from a
// single poll(2) call per iteration.
type Poller struct {
	entries []entry
}

// New returns an empty Poller.
func New() *Poller {
	return &Poller{}
}

// Register adds fd to the poll set with the given event mask (e.g.
// unix.POLLIN) and the callback to invoke when any of those events (or
// POLLERR/POLLHUP) fire.
func (p *Poller) Register(fd int, events int16, h Handler) {
	p.entries = append(p.entries, entry{fd: fd, events: events, handler: h})
}

// Remove drops fd from the poll set. It is a no-op if fd was never
// registered.
func (p *Poller) Remove(fd int) {
	for i, e := range p.entries {
		if e.fd == fd {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			return
		}
	}
}

// Poll waits up to timeoutMsec milliseconds (negative blocks forever)
// for any registered fd to become ready, dispatching a Handler call for
// each one that is. It returns the number of fds that had events, or an
// error from the underlying poll(2) call.
func (p *Poller) Poll(timeoutMsec int) (int, error) {
	if len(p.entries) == 0 {
		return 0, nil
	}

	fds := make([]unix.PollFd, len(p.entries))
	for i, e := range p.entries {
		fds[i] = unix.PollFd{Fd: int32(e.fd), Events: e.events}
	}

	n, err := unix.Poll(fds, timeoutMsec)
	if err != nil {
		return 0, fmt.Errorf("poll: %w", err)
	}
	if n == 0 {
		return 0, nil
	}

	for i, pfd := range fds {
		if pfd.Revents != 0 {
			p.entries[i].handler(pfd.Revents)
		}
	}
	return n, nil
}
