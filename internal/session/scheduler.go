package session

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/gordonklaus/portaudio"
	"golang.org/x/sys/unix"

	"github.com/MRustad/plato-if/internal/plato"
)

const pollinEvents = unix.POLLIN | unix.POLLERR

// connFd extracts the raw file descriptor behind s.conn for poller
// registration. It returns -1 if conn is not a *net.TCPConn or its raw
// connection cannot be obtained.
func (s *Session) connFd() int {
	tc, ok := s.conn.(*net.TCPConn)
	if !ok {
		return -1
	}
	raw, err := tc.SyscallConn()
	if err != nil {
		return -1
	}
	var fd int
	raw.Control(func(f uintptr) { fd = int(f) })
	return fd
}

// handleHostReadable reads whatever bytes are available from the host
// socket, feeds them through the framer one at a time, and enqueues
// each reassembled word. A framer resync violation is logged, not fatal
// -- the framer itself recovers.
func (s *Session) handleHostReadable(revents int16, buf []byte) {
	if revents&unix.POLLERR != 0 {
		s.log.Error("host socket error")
		return
	}
	if revents&unix.POLLIN == 0 {
		return
	}

	n, err := s.conn.Read(buf)
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.log.Error("host read: %v", err)
		}
		return
	}

	for i := 0; i < n; i++ {
		w, ok, ferr := s.framer.Feed(buf[i])
		if ferr != nil {
			s.log.Debug("%v", ferr)
		}
		if !ok {
			continue
		}
		if !s.proto.Enqueue(w) {
			s.log.Error("host word overflow")
			continue
		}
		if edge := s.proto.CheckEnqueueFlow(); edge == plato.FlowXOFF {
			s.sendKey(plato.KeyXOFF)
		}
	}
}

// period performs one audio period's worth of work: write out the
// period already rendered, process one host word through the protocol
// and GSW state machines, exchange it with the terminal over SPI
// (simultaneously reading back keyset data), render the next period,
// and decode any keys the terminal sent.
func (s *Session) period() error {
	if err := s.audio.Write(); err != nil {
		if errors.Is(err, portaudio.OutputUnderflowed) {
			// The stream keeps running after an underrun; the skipped
			// period comes out as silence.
			s.log.Error("audio underrun")
		} else if rerr := s.restartAudio(err); rerr != nil {
			return rerr
		}
	}

	word := s.nextHostWord()
	tx := plato.FormatWord(word)
	rx := [6]byte{}
	if err := s.spiDev.Transfer(tx[:], rx[:]); err != nil {
		return fmt.Errorf("spi transfer: %w", err)
	}

	s.bank.RenderPeriod(s.samples)

	for _, key := range s.proto.Keyset.Feed(rx) {
		s.sendKey(key)
		if key == plato.KeyStop || key == plato.KeyStop1 {
			s.proto.Stop()
		}
	}

	return nil
}

// nextHostWord pops one word from the ring (if any), resolves
// echo/flow-control side effects, and lets the GSW interceptor consume
// AUD/EXT commands before the word ever reaches the terminal.
func (s *Session) nextHostWord() plato.Word {
	s.wordCount = (s.wordCount + 1) & 0x7F

	result := s.proto.Dequeue()
	if !result.HasWord {
		return plato.NOPWord
	}

	if result.HasEcho {
		s.sendKey(result.EchoKey)
	}
	if result.Flow == plato.FlowXON {
		s.sendKey(plato.KeyXON)
	}

	return s.bank.Handle(result.Word)
}

// restartAudio stops and restarts the output stream after a write
// error, resuming with silence rather than tearing the session down.
func (s *Session) restartAudio(cause error) error {
	s.log.Error("audio write: %v", cause)
	if err := s.audio.Stop(); err != nil {
		return fmt.Errorf("audio restart: %w", err)
	}
	if err := s.audio.Start(); err != nil {
		return fmt.Errorf("audio restart: %w", err)
	}
	return nil
}

// sendKey writes the two-byte keyset code to the host and logs it with
// its decoded name, if any.
func (s *Session) sendKey(key uint16) {
	buf := plato.FormatKey(key)
	if _, err := s.conn.Write(buf[:]); err != nil {
		s.log.Error("send key %04o: %v", key, err)
		return
	}
	s.log.Debug("send %04o [%s]", key, plato.KeyName(key))
}
