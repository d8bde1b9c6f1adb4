package mavftp

import (
	"testing"
	"time"

	"github.com/wander-ops/mavftpd/mavftp/transport"
)

func TestReplyPumpIdleMillisBeforeFirstSend(t *testing.T) {
	p := newReplyPump(transport.NewLoopbackChannel(0), nil)
	if got := p.idleMillis(); got < SessionTimeout {
		t.Fatalf("idleMillis() = %d before any send, want >= SessionTimeout", got)
	}
}

func TestReplyPumpIdleMillisUpdatesOnEverySend(t *testing.T) {
	ch := transport.NewLoopbackChannel(0)
	p := newReplyPump(ch, nil)
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	reply := &Reply{Opcode: OpNack}
	if err := p.send(reply, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := p.idleMillis(); got != 0 {
		t.Fatalf("idleMillis() = %d right after a send, want 0", got)
	}

	clock = clock.Add(1500 * time.Millisecond)
	if got := p.idleMillis(); got != 1500 {
		t.Fatalf("idleMillis() = %d after 1500ms, want 1500", got)
	}
}

func TestReplyPumpClearIdleResetsToUnsent(t *testing.T) {
	ch := transport.NewLoopbackChannel(0)
	p := newReplyPump(ch, nil)
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	if err := p.send(&Reply{Opcode: OpAck}, nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	p.clearIdle()
	if got := p.idleMillis(); got < SessionTimeout {
		t.Fatalf("idleMillis() after clearIdle = %d, want >= SessionTimeout", got)
	}
}
