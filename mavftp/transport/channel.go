// Package transport defines the Channel abstraction the mavftp reply pump
// sends frames through, plus several concrete implementations: an
// in-memory loopback pair for tests, a UDP channel, a Unix serial channel,
// and an SSH-tunnelled channel.
//
// Channel intentionally knows nothing about FILE_TRANSFER_PROTOCOL framing
// — it moves opaque payloads and reports link-level backpressure and
// bandwidth, exactly the "external collaborator" boundary spec.md draws
// around the transport adapter.
package transport

import "sync"

// PayloadSize is the size of a FILE_TRANSFER_PROTOCOL payload. Channel
// implementations treat it as an opaque buffer of this length.
const PayloadSize = 251

// Channel is one communication link a GCS may be attached to. A server
// normally serves several Channels concurrently, one per radio/serial/
// network link; mavftp itself remains single-session/single-open-file
// regardless of how many channels are registered.
type Channel interface {
	// ID identifies the channel for banner-mask bookkeeping and logging.
	ID() int

	// TxHeadroom reports the number of bytes of outbound buffer space
	// currently free. The reply pump requires more than 33 bytes before
	// attempting a send.
	TxHeadroom() int

	// PayloadSpace reports whether the transport has room queued for one
	// more FILE_TRANSFER_PROTOCOL-sized message right now.
	PayloadSpace() bool

	// BandwidthBPS returns the channel's estimated bandwidth in bytes per
	// second, and false if no estimate is available (e.g. a loopback or
	// a link without a configured baud rate).
	BandwidthBPS() (bps uint32, ok bool)

	// FlowControlEnabled reports whether the underlying link has hardware
	// flow control, which disables the burst-read pacing delay.
	FlowControlEnabled() bool

	// Send transmits one payload addressed to (targetSys, targetComp).
	// Implementations must be safe to call only while holding Lock.
	Send(targetSys, targetComp uint8, payload []byte) error

	// Lock/Unlock serialize Send calls from concurrent producers on the
	// same channel, per spec.md §5's "channel send semaphore". Callers
	// must release unconditionally on every exit path.
	sync.Locker
}
