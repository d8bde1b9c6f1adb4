package transport

import "testing"

func TestLoopbackChannelRecordsSends(t *testing.T) {
	ch := NewLoopbackChannel(1)
	if err := ch.Send(1, 2, []byte("hi")); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	sent := ch.Sent()
	if len(sent) != 1 || string(sent[0].Payload) != "hi" {
		t.Fatalf("Sent() = %+v", sent)
	}
	if sent[0].TargetSys != 1 || sent[0].TargetComp != 2 {
		t.Fatalf("addressing mismatch: %+v", sent[0])
	}
}

func TestLoopbackChannelHeadroomOverride(t *testing.T) {
	ch := NewLoopbackChannel(1)
	ch.SetHeadroom(10)
	if got := ch.TxHeadroom(); got != 10 {
		t.Fatalf("TxHeadroom() = %d, want 10", got)
	}
	ch.SetPayloadFull(true)
	if ch.PayloadSpace() {
		t.Fatal("expected PayloadSpace() to report false after SetPayloadFull(true)")
	}
}

func TestLoopbackChannelBandwidthDisablesFlowControl(t *testing.T) {
	ch := NewLoopbackChannel(1)
	if !ch.FlowControlEnabled() {
		t.Fatal("a fresh loopback channel should report flow control enabled")
	}
	ch.SetBandwidth(9600)
	if ch.FlowControlEnabled() {
		t.Fatal("SetBandwidth should disable flow control so pacing kicks in")
	}
	bps, ok := ch.BandwidthBPS()
	if !ok || bps != 9600 {
		t.Fatalf("BandwidthBPS() = (%d, %v), want (9600, true)", bps, ok)
	}
}
