// Package session owns the aggregate state of one terminal/host bridge:
// the TCP connection to the PLATO host, the SPI device talking to the
// terminal, the audio output stream synthesizing its GSW sound, and the
// protocol and GSW state those I/O paths drive. There is exactly one
// Session per process, owned by the event loop that drives it.
package session

import (
	"fmt"
	"net"

	"github.com/gordonklaus/portaudio"

	"github.com/MRustad/plato-if/internal/gsw"
	"github.com/MRustad/plato-if/internal/ioloop"
	"github.com/MRustad/plato-if/internal/plato"
	"github.com/MRustad/plato-if/internal/platolog"
	"github.com/MRustad/plato-if/internal/spi"
)

// Config collects everything Session needs to open its I/O paths.
type Config struct {
	Host     string
	Port     string
	SPIDev   string
	SPISpeed uint32
	Debug    bool
}

const (
	sampleRate      = gsw.SampleRate
	framesPerPeriod = sampleRate / 60
	channels        = 2
)

// Session is the live, connected bridge: TCP conn, SPI device, audio
// stream, and the protocol/GSW state machines they drive.
type Session struct {
	cfg Config
	log *platolog.Logger

	conn   net.Conn
	framer plato.Framer

	spiDev *spi.Device
	audio  *portaudio.Stream

	proto *plato.Session
	bank  *gsw.Bank

	// samples is reused in place each period: Write() blocks until
	// portaudio has consumed it, after which it is safe to overwrite
	// with the next period's rendering.
	samples []int16

	wordCount uint8 // wc: free-running word counter, diagnostic only
}

// Open dials the host, opens the SPI device, and opens the default
// audio output device, returning a Session ready for Run.
func Open(cfg Config, log *platolog.Logger) (*Session, error) {
	conn, err := net.Dial("tcp", net.JoinHostPort(cfg.Host, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("dial host %s:%s: %w", cfg.Host, cfg.Port, err)
	}

	dev, err := spi.Open(cfg.SPIDev, cfg.SPISpeed)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open SPI device %s: %w", cfg.SPIDev, err)
	}

	if err := portaudio.Initialize(); err != nil {
		conn.Close()
		dev.Close()
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	s := &Session{
		cfg:     cfg,
		log:     log,
		conn:    conn,
		framer:  *plato.NewFramer(),
		spiDev:  dev,
		proto:   plato.NewSession(),
		bank:    gsw.NewBank(),
		samples: make([]int16, framesPerPeriod*channels),
	}

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), framesPerPeriod, &s.samples)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open audio stream: %w", err)
	}
	s.audio = stream
	if err := s.audio.Start(); err != nil {
		s.Close()
		return nil, fmt.Errorf("start audio stream: %w", err)
	}

	s.bank.RenderPeriod(s.samples)

	return s, nil
}

// Close releases every resource Open acquired, best-effort.
func (s *Session) Close() {
	if s.audio != nil {
		s.audio.Close()
	}
	portaudio.Terminate()
	if s.spiDev != nil {
		s.spiDev.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

// Run drives the bridge until the host connection or the audio stream
// fails: the host socket is registered with poller and drained without
// blocking once per iteration, while the blocking audio write inside
// period() paces the loop to one pass per audio period.
func (s *Session) Run(poller *ioloop.Poller) error {
	readBuf := make([]byte, 256)
	poller.Register(s.connFd(), pollinEvents, func(revents int16) {
		s.handleHostReadable(revents, readBuf)
	})

	for {
		if _, err := poller.Poll(0); err != nil {
			return err
		}
		if err := s.period(); err != nil {
			return err
		}
	}
}
