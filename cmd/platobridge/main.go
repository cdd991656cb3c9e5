// Command platobridge interfaces a PLATO IV terminal, wired to this
// machine over SPI, to a remote PLATO host over TCP, synthesizing the
// terminal's GSW sound in software.
package main

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/MRustad/plato-if/internal/ioloop"
	"github.com/MRustad/plato-if/internal/platolog"
	"github.com/MRustad/plato-if/internal/session"
)

const (
	defaultPort     = "5004"
	defaultHost     = "cyberserv.org"
	defaultSPIDev   = "/dev/spidev0.0"
	defaultSPISpeed = 4000
)

func usage(cmd string) {
	fmt.Fprintf(os.Stderr, "%s: Command usage:\n", cmd)
	fmt.Fprint(os.Stderr,
		"\t-d\tEnable debugging\n"+
			"\t-h\tDisplay this help\n"+
			"\t-p\tPort number (default "+defaultPort+")\n"+
			"\t-r\tSPI rate\n"+
			"\t-s\tSPI device path\n")
}

func main() {
	os.Exit(run())
}

func run() int {
	debug := pflag.BoolP("debug", "d", false, "Enable debugging")
	help := pflag.BoolP("help", "h", false, "Display this help")
	port := pflag.StringP("port", "p", defaultPort, "Port number")
	spiSpeed := pflag.Uint32P("rate", "r", defaultSPISpeed, "SPI rate")
	spiDev := pflag.StringP("spi-device", "s", defaultSPIDev, "SPI device path")
	pflag.Parse()

	if *help {
		usage(os.Args[0])
		return 0
	}

	host := defaultHost
	switch pflag.NArg() {
	case 0:
	case 1:
		host = pflag.Arg(0)
	default:
		fmt.Fprintln(os.Stderr, "Too many arguments")
		return 4
	}

	log := platolog.New(os.Stderr, *debug)

	sess, err := session.Open(session.Config{
		Host:     host,
		Port:     *port,
		SPIDev:   *spiDev,
		SPISpeed: *spiSpeed,
		Debug:    *debug,
	}, log)
	if err != nil {
		log.Error("%v", err)
		var errno syscall.Errno
		if errors.As(err, &errno) {
			return int(errno)
		}
		return 1
	}
	defer sess.Close()

	poller := ioloop.New()
	if err := sess.Run(poller); err != nil {
		log.Error("%v", err)
		return 1
	}
	return 0
}
