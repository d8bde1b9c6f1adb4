//go:build linux

package transport

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// SerialChannel carries FILE_TRANSFER_PROTOCOL payloads over a Unix
// serial device. TxHeadroom and BandwidthBPS are both grounded directly
// in kernel state rather than estimated, the Go analogue of the
// original's UART driver calls (txspace()/bw_in_bytes_per_second()):
// TIOCOUTQ reports the real outbound queue depth, and the configured
// termios speed gives an exact bandwidth figure instead of a guess.
type SerialChannel struct {
	mu sync.Mutex

	id        int
	f         *os.File
	fd        int
	txBufSize int
}

// OpenSerialChannel opens device (e.g. "/dev/ttyUSB0") and puts it into
// raw mode at baud.
func OpenSerialChannel(id int, device string, baud uint32, txBufSize int) (*SerialChannel, error) {
	f, err := os.OpenFile(device, os.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: open %q: %w", device, err)
	}
	fd := int(f.Fd())

	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("transport: get termios: %w", err)
	}
	cfmakeraw(t)
	if speed, ok := baudToSpeed[baud]; ok {
		t.Ispeed = speed
		t.Ospeed = speed
		t.Cflag &^= unix.CBAUD
		t.Cflag |= speed
	}
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		f.Close()
		return nil, fmt.Errorf("transport: set termios: %w", err)
	}

	return &SerialChannel{id: id, f: f, fd: fd, txBufSize: txBufSize}, nil
}

func (c *SerialChannel) ID() int { return c.id }

// TxHeadroom reports free space in the kernel's output queue for this
// tty, via TIOCOUTQ, subtracted from the configured buffer size.
func (c *SerialChannel) TxHeadroom() int {
	queued, err := unix.IoctlGetInt(c.fd, unix.TIOCOUTQ)
	if err != nil {
		return 0
	}
	free := c.txBufSize - queued
	if free < 0 {
		return 0
	}
	return free
}

func (c *SerialChannel) PayloadSpace() bool {
	return c.TxHeadroom() >= PayloadSize
}

// BandwidthBPS derives bytes/sec from the termios output speed, the
// portable equivalent of reading the UART's configured baud rate.
func (c *SerialChannel) BandwidthBPS() (uint32, bool) {
	t, err := unix.IoctlGetTermios(c.fd, unix.TCGETS)
	if err != nil {
		return 0, false
	}
	baud, ok := speedToBaud[t.Ospeed]
	if !ok {
		return 0, false
	}
	// 8N1 framing: 10 bits on the wire per byte.
	return baud / 10, true
}

// FlowControlEnabled reports whether CRTSCTS is set on the line.
func (c *SerialChannel) FlowControlEnabled() bool {
	t, err := unix.IoctlGetTermios(c.fd, unix.TCGETS)
	if err != nil {
		return false
	}
	return t.Cflag&unix.CRTSCTS != 0
}

func (c *SerialChannel) Send(targetSys, targetComp uint8, payload []byte) error {
	_, err := c.f.Write(payload)
	return err
}

func (c *SerialChannel) Lock()   { c.mu.Lock() }
func (c *SerialChannel) Unlock() { c.mu.Unlock() }

// Close releases the underlying file descriptor.
func (c *SerialChannel) Close() error { return c.f.Close() }

// cfmakeraw mirrors the C library call of the same name: disable line
// editing, signal generation, and most input/output processing so bytes
// pass through the tty unmodified.
func cfmakeraw(t *unix.Termios) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}

var baudToSpeed = map[uint32]uint32{
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
	460800: unix.B460800,
	921600: unix.B921600,
}

var speedToBaud = func() map[uint32]uint32 {
	m := make(map[uint32]uint32, len(baudToSpeed))
	for baud, speed := range baudToSpeed {
		m[speed] = baud
	}
	return m
}()
