// Package spi wraps the Linux spidev ioctl protocol for the one thing
// this bridge needs: fixed-size full-duplex 6-byte transfers with the
// PLATO terminal's keyset/display controller.
package spi

import (
	"fmt"
	"reflect"
	"syscall"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
)

const iocMagic = 'k'

// NoCS matches Linux's SPI_NO_CS; Mode1 matches SPI_MODE_1 (CPOL=0,
// CPHA=1). The terminal's shift register samples on the trailing clock
// edge and has no chip select wired.
const (
	NoCS  = 1 << 6
	Mode1 = 1 << 0
)

type transfer struct {
	txBuf uint64
	rxBuf uint64

	length  uint32
	speedHz uint32

	delayUsec     uint16
	bitsPerWord   uint8
	csChange      uint8
	txNbits       uint8
	rxNbits       uint8
	wordDelayUsec uint8
	pad           uint8
}

var (
	iocWrMode        = ioctl.IOW(iocMagic, 1, 1)
	iocRdMode        = ioctl.IOR(iocMagic, 1, 1)
	iocWrBitsPerWord = ioctl.IOW(iocMagic, 3, 1)
	iocRdBitsPerWord = ioctl.IOR(iocMagic, 3, 1)
	iocWrMaxSpeedHz  = ioctl.IOW(iocMagic, 4, 4)
	iocRdMaxSpeedHz  = ioctl.IOR(iocMagic, 4, 4)
	iocMessage       = ioctl.IOW(iocMagic, 0, unsafe.Sizeof(transfer{}))
)

// Device is an open spidev character device configured for one fixed
// transfer size.
type Device struct {
	fd    int
	speed uint32
}

// Open opens path (e.g. "/dev/spidev0.0"), configures SPI_NO_CS |
// SPI_MODE_1 and 8 bits per word, and sets the maximum clock speed to
// speedHz.
func Open(path string, speedHz uint32) (*Device, error) {
	fd, err := syscall.Open(path, syscall.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	mode := uint8(NoCS | Mode1)
	if err := ioctl.Ioctl(uintptr(fd), iocWrMode, uintptr(unsafe.Pointer(&mode))); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("SPI_IOC_WR_MODE: %w", err)
	}
	if err := ioctl.Ioctl(uintptr(fd), iocRdMode, uintptr(unsafe.Pointer(&mode))); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("SPI_IOC_RD_MODE: %w", err)
	}

	bits := uint8(8)
	if err := ioctl.Ioctl(uintptr(fd), iocWrBitsPerWord, uintptr(unsafe.Pointer(&bits))); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("SPI_IOC_WR_BITS_PER_WORD: %w", err)
	}
	if err := ioctl.Ioctl(uintptr(fd), iocRdBitsPerWord, uintptr(unsafe.Pointer(&bits))); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("SPI_IOC_RD_BITS_PER_WORD: %w", err)
	}

	speed := speedHz
	if err := ioctl.Ioctl(uintptr(fd), iocWrMaxSpeedHz, uintptr(unsafe.Pointer(&speed))); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("SPI_IOC_WR_MAX_SPEED_HZ: %w", err)
	}
	if err := ioctl.Ioctl(uintptr(fd), iocRdMaxSpeedHz, uintptr(unsafe.Pointer(&speed))); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("SPI_IOC_RD_MAX_SPEED_HZ: %w", err)
	}

	return &Device{fd: fd, speed: speed}, nil
}

// Transfer performs one full-duplex exchange: tx is written out while
// simultaneously reading len(tx) bytes back. The two slices must be the
// same length; this bridge always calls it with 6-byte buffers (a
// transmit word plus a keyset read).
func (d *Device) Transfer(tx, rx []byte) error {
	if len(tx) != len(rx) {
		return fmt.Errorf("spi: tx/rx length mismatch (%d != %d)", len(tx), len(rx))
	}

	txHeader := (*reflect.SliceHeader)(unsafe.Pointer(&tx))
	rxHeader := (*reflect.SliceHeader)(unsafe.Pointer(&rx))

	xfer := &transfer{
		txBuf:   uint64(txHeader.Data),
		rxBuf:   uint64(rxHeader.Data),
		length:  uint32(txHeader.Len),
		speedHz: d.speed,
	}
	return ioctl.Ioctl(uintptr(d.fd), iocMessage, uintptr(unsafe.Pointer(xfer)))
}

// Close closes the underlying file descriptor.
func (d *Device) Close() error {
	return syscall.Close(d.fd)
}
