package transport

import (
	"fmt"
	"net"
	"sync"
)

// UDPChannel carries FILE_TRANSFER_PROTOCOL payloads over a UDP socket,
// the shape a MAVLink link most commonly takes between a ground station
// and a companion computer. It keeps a count of datagrams sent and
// replies to whichever single address last sent it a request; it does
// no per-destination sequence or ack bookkeeping.
type UDPChannel struct {
	mu sync.Mutex

	id   int
	conn *net.UDPConn

	peer     *net.UDPAddr
	sentSeq  uint64
	flowCtrl bool
}

// NewUDPChannel binds a UDP socket on listenAddr (e.g. ":14550").
func NewUDPChannel(id int, listenAddr string) (*UDPChannel, error) {
	addr, err := net.ResolveUDPAddr("udp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("transport: resolve %q: %w", listenAddr, err)
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %q: %w", listenAddr, err)
	}
	return &UDPChannel{id: id, conn: conn}, nil
}

func (c *UDPChannel) ID() int { return c.id }

// TxHeadroom is unbounded for UDP: the kernel send buffer is large
// relative to a single 251-byte datagram, and UDP has no notion of a
// partially-drained stream buffer the way a serial TX FIFO does.
func (c *UDPChannel) TxHeadroom() int { return 1 << 20 }

func (c *UDPChannel) PayloadSpace() bool { return true }

// BandwidthBPS has no estimate on a bare UDP socket; pacing falls back
// to the FlowControlEnabled() == true behavior (no delay), matching a
// fast local/LAN link.
func (c *UDPChannel) BandwidthBPS() (uint32, bool) { return 0, false }

func (c *UDPChannel) FlowControlEnabled() bool { return true }

// Recv reads the next datagram, remembering its source as the peer that
// subsequent Send calls address, mirroring the original client's
// per-packet source tracking.
func (c *UDPChannel) Recv(buf []byte) (int, error) {
	n, addr, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	c.peer = addr
	c.mu.Unlock()
	return n, nil
}

// Send is called with c's Lock held (see Channel), which also guards peer
// against a concurrent Recv, so it does not lock c.mu itself.
func (c *UDPChannel) Send(targetSys, targetComp uint8, payload []byte) error {
	peer := c.peer
	if peer == nil {
		return fmt.Errorf("transport: udp channel %d has no known peer yet", c.id)
	}
	_, err := c.conn.WriteToUDP(payload, peer)
	if err == nil {
		c.sentSeq++
	}
	return err
}

func (c *UDPChannel) Lock()   { c.mu.Lock() }
func (c *UDPChannel) Unlock() { c.mu.Unlock() }

// Close releases the underlying socket.
func (c *UDPChannel) Close() error { return c.conn.Close() }
