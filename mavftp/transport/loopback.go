package transport

import "sync"

// LoopbackChannel is an in-memory Channel used by tests and by mavftpd's
// "loopback" transport setting. Sent payloads are appended to an
// internal slice a test can inspect with Sent(); headroom and payload
// space are always reported as available unless artificially capped via
// SetHeadroom/SetPayloadFull, which lets tests exercise the reply pump's
// backpressure retry loop without a real link.
type LoopbackChannel struct {
	mu sync.Mutex

	id int

	headroom     int
	payloadFull  bool
	flowControl  bool
	bandwidthBPS uint32
	hasBandwidth bool

	sent []LoopbackFrame
}

// LoopbackFrame records one transmitted payload and its addressing.
type LoopbackFrame struct {
	TargetSys  uint8
	TargetComp uint8
	Payload    []byte
}

// NewLoopbackChannel creates a channel with unlimited headroom and no
// bandwidth estimate (as if attached via a fast, flow-controlled link).
func NewLoopbackChannel(id int) *LoopbackChannel {
	return &LoopbackChannel{id: id, headroom: 1 << 20, flowControl: true}
}

func (c *LoopbackChannel) ID() int { return c.id }

func (c *LoopbackChannel) TxHeadroom() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.headroom
}

func (c *LoopbackChannel) PayloadSpace() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.payloadFull
}

func (c *LoopbackChannel) BandwidthBPS() (uint32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bandwidthBPS, c.hasBandwidth
}

func (c *LoopbackChannel) FlowControlEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flowControl
}

func (c *LoopbackChannel) Send(targetSys, targetComp uint8, payload []byte) error {
	cp := make([]byte, len(payload))
	copy(cp, payload)
	c.sent = append(c.sent, LoopbackFrame{TargetSys: targetSys, TargetComp: targetComp, Payload: cp})
	return nil
}

func (c *LoopbackChannel) Lock()   { c.mu.Lock() }
func (c *LoopbackChannel) Unlock() { c.mu.Unlock() }

// Sent returns every frame transmitted so far, in order.
func (c *LoopbackChannel) Sent() []LoopbackFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LoopbackFrame, len(c.sent))
	copy(out, c.sent)
	return out
}

// SetHeadroom lets a test simulate a congested outbound buffer.
func (c *LoopbackChannel) SetHeadroom(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headroom = n
}

// SetPayloadFull lets a test simulate the transport running out of
// message slots.
func (c *LoopbackChannel) SetPayloadFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloadFull = full
}

// SetBandwidth configures a bandwidth estimate and disables flow control,
// so burst reads on this channel exercise the pacing delay.
func (c *LoopbackChannel) SetBandwidth(bps uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bandwidthBPS = bps
	c.hasBandwidth = true
	c.flowControl = false
}
