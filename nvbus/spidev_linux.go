//go:build linux

package nvbus

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// spidevIOCMessageBase is the Linux spidev ioctl request code
// (<linux/spi/spidev.h>), reproduced the way dswarbrick/smart's ioctl.go
// reproduces raw Linux ioctl numbers it needs rather than depending on a
// generated constants package.
const (
	spidevIOCMessageBase = 0x40206b00 // SPI_IOC_MESSAGE(1), N=1 transfer of a 32-byte spi_ioc_transfer
)

// spiIOCTransfer mirrors struct spi_ioc_transfer from <linux/spi/spidev.h>.
type spiIOCTransfer struct {
	txBuf       uint64
	rxBuf       uint64
	length      uint32
	speedHz     uint32
	delayUsecs  uint16
	bitsPerWord uint8
	csChange    uint8
	txNbits     uint8
	rxNbits     uint8
	pad         uint16
}

// spiTransfer executes one SPI_IOC_MESSAGE ioctl, following the same direct
// syscall pattern the teacher's ioctl.go uses for Linux ioctl calls.
func spiTransfer(fd int, tx, rx []byte) error {
	xfer := spiIOCTransfer{
		txBuf:  uint64(uintptr(unsafe.Pointer(&tx[0]))),
		rxBuf:  uint64(uintptr(unsafe.Pointer(&rx[0]))),
		length: uint32(len(tx)),
	}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), uintptr(spidevIOCMessageBase), uintptr(unsafe.Pointer(&xfer)))
	if errno != 0 {
		return errno
	}
	return nil
}

// SpiDevice is a single open spidev character device node for one NV chip.
type SpiDevice struct {
	fd int
}

func openSpiDevice(path string) (SpiDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0600)
	if err != nil {
		return SpiDevice{}, err
	}
	return SpiDevice{fd: int(f.Fd())}, nil
}

func (d *SpiDevice) close() error {
	return unix.Close(d.fd)
}

// SpidevBus is the real hardware Bus implementation: each Device maps to
// one Linux spidev node (e.g. /dev/spidev0.0 and /dev/spidev0.1 for the two
// physically independent NV chips). Transfers use the SCSI-generic-style
// pattern from the teacher's sgio.go: build a fixed ioctl transfer struct,
// issue one ioctl, and turn a non-zero low-level status into a Go error.
type SpidevBus struct {
	mu      sync.Mutex
	devices [2]SpiDevice
}

// NewSpidevBus opens the two spidev nodes pathA and pathB for devices A and
// B respectively.
func NewSpidevBus(pathA, pathB string) (*SpidevBus, error) {
	a, err := openSpiDevice(pathA)
	if err != nil {
		return nil, fmt.Errorf("nvbus: open device A: %w", err)
	}
	b, err := openSpiDevice(pathB)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("nvbus: open device B: %w", err)
	}
	return &SpidevBus{devices: [2]SpiDevice{a, b}}, nil
}

// Close releases both spidev file descriptors.
func (b *SpidevBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err1 := b.devices[DeviceA].close()
	err2 := b.devices[DeviceB].close()
	if err1 != nil {
		return err1
	}
	return err2
}

// commandFrame builds the {opcode, addr, ...} command header the NV chip
// expects ahead of a read or write payload, matching the MRAM command
// framing declared in the original driver's MRAM_Commands.h.
func commandFrame(opcode byte, addr uint32) []byte {
	return []byte{opcode, byte(addr >> 16), byte(addr >> 8), byte(addr)}
}

const (
	opRead  = 0x03
	opWrite = 0x02
	opRDSR  = 0x05
)

func (b *SpidevBus) device(dev Device) (*SpiDevice, error) {
	if int(dev) < 0 || int(dev) >= len(b.devices) {
		return nil, fmt.Errorf("nvbus: unknown device %v", dev)
	}
	return &b.devices[dev], nil
}

// ReadBytes implements Bus.
func (b *SpidevBus) ReadBytes(dev Device, addr uint32, width int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, err := b.device(dev)
	if err != nil {
		return nil, err
	}
	tx := append(commandFrame(opRead, addr), make([]byte, width)...)
	rx := make([]byte, len(tx))
	if err := spiTransfer(d.fd, tx, rx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return rx[len(tx)-width:], nil
}

// WriteBytes implements Bus.
func (b *SpidevBus) WriteBytes(dev Device, addr uint32, buf []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, err := b.device(dev)
	if err != nil {
		return err
	}
	tx := append(commandFrame(opWrite, addr), buf...)
	rx := make([]byte, len(tx))
	if err := spiTransfer(d.fd, tx, rx); err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return nil
}

// StatusRegister implements Bus, mirroring mram_read_status_register.
func (b *SpidevBus) StatusRegister(dev Device) (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, err := b.device(dev)
	if err != nil {
		return 0, err
	}
	tx := []byte{opRDSR, 0x00}
	rx := make([]byte, len(tx))
	if err := spiTransfer(d.fd, tx, rx); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}
	return rx[1], nil
}
