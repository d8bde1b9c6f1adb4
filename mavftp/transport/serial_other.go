//go:build !linux

package transport

import "fmt"

// OpenSerialChannel is unavailable on this platform: TIOCOUTQ and the
// termios ioctls serial_unix.go relies on are Linux-specific. Deployments
// on other platforms should use UDPChannel or SSHChannel instead, or
// build their own Channel over whatever serial library the platform
// provides.
func OpenSerialChannel(id int, device string, baud uint32, txBufSize int) (*SerialChannel, error) {
	return nil, fmt.Errorf("transport: serial channel not supported on this platform")
}

// SerialChannel is an unusable placeholder on non-Linux builds, kept so
// code referencing the type compiles everywhere.
type SerialChannel struct{}

func (c *SerialChannel) ID() int                         { return 0 }
func (c *SerialChannel) TxHeadroom() int                 { return 0 }
func (c *SerialChannel) PayloadSpace() bool              { return false }
func (c *SerialChannel) BandwidthBPS() (uint32, bool)    { return 0, false }
func (c *SerialChannel) FlowControlEnabled() bool        { return false }
func (c *SerialChannel) Send(_, _ uint8, _ []byte) error { return fmt.Errorf("transport: unsupported") }
func (c *SerialChannel) Lock()                           {}
func (c *SerialChannel) Unlock()                         {}
func (c *SerialChannel) Close() error                    { return nil }
