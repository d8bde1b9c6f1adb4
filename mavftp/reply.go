package mavftp

import (
	"time"

	"github.com/wander-ops/mavftpd/mavftp/transport"
)

// minTxHeadroom is the outbound buffer headroom, in bytes, the pump
// insists on before attempting a send — spec.md §4.8's 33-byte
// threshold, chosen so a FILE_TRANSFER_PROTOCOL reply never gets queued
// behind (and starved by) a run of other MAVLink traffic on a nearly-
// full link.
const minTxHeadroom = 33

// replyPollInterval is how long push_reply sleeps between backpressure
// checks while waiting for TxHeadroom/PayloadSpace to clear.
const replyPollInterval = 2 * time.Millisecond

// replyPump owns sending replies out on one Channel, applying the
// backpressure rule before every send and draining any pending banner
// once the reply itself is out, matching ftp_push_replies' ordering in
// the original implementation.
type replyPump struct {
	ch  transport.Channel
	log Logger

	// needBanner is set by setBanner and drained here after the next
	// reply, never inside dispatch. Nothing in the worker calls setBanner,
	// so no banner is armed after any open.
	needBanner    bool
	bannerPayload []byte

	// lastSend is last_send_ms: the wall-clock time of the most recent
	// successful reply transmission, updated unconditionally for every
	// reply (Acks and Nacks alike) and consulted by sessionState's
	// idle-reclaim check. now is overridable so that check can be tested
	// without a real clock.
	lastSend time.Time
	now      func() time.Time
}

func newReplyPump(ch transport.Channel, log Logger) *replyPump {
	if log == nil {
		log = NoopLogger{}
	}
	return &replyPump{ch: ch, log: log, now: time.Now}
}

func (p *replyPump) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

// idleMillis reports how long it has been since the last successful reply
// was transmitted. Before the first reply ever goes out, it reports an
// idle time of exactly SessionTimeout, so the session-reclaim check treats a
// channel with no send history as immediately reclaimable.
func (p *replyPump) idleMillis() int64 {
	if p.lastSend.IsZero() {
		return SessionTimeout
	}
	return p.clock().Sub(p.lastSend).Milliseconds()
}

// clearIdle resets last_send_ms, per spec.md's TerminateSession behavior.
func (p *replyPump) clearIdle() {
	p.lastSend = time.Time{}
}

// send blocks until the channel reports enough headroom and payload
// space, then transmits reply. It returns nil on success; when stop is
// closed (server shutdown) or the channel's Send fails, it returns a
// transport error rather than blocking forever.
func (p *replyPump) send(reply *Reply, stop <-chan struct{}) error {
	for {
		if p.ch.TxHeadroom() > minTxHeadroom && p.ch.PayloadSpace() {
			break
		}
		select {
		case <-time.After(replyPollInterval):
		case <-stop:
			return NewError(ErrTypeTransport, "reply pump stopped while waiting for channel headroom")
		}
	}

	buf := EncodeFrame(reply)

	err := func() error {
		p.ch.Lock()
		defer p.ch.Unlock()
		return p.ch.Send(reply.SysID, reply.CompID, buf[:])
	}()
	if err != nil {
		p.log.Error("reply send failed on chan %d: %v", p.ch.ID(), err)
		return NewError(ErrTypeTransport, err.Error())
	}
	p.lastSend = p.clock()

	p.drainBanner(stop)
	return nil
}

// setBanner arms a banner payload to be sent right after the next reply,
// mirroring the original's need_banner_send_mask bit per channel.
func (p *replyPump) setBanner(payload []byte) {
	p.needBanner = true
	p.bannerPayload = payload
}

func (p *replyPump) drainBanner(stop <-chan struct{}) {
	if !p.needBanner {
		return
	}
	for {
		if p.ch.TxHeadroom() > minTxHeadroom && p.ch.PayloadSpace() {
			break
		}
		select {
		case <-time.After(replyPollInterval):
		case <-stop:
			return
		}
	}
	err := func() error {
		p.ch.Lock()
		defer p.ch.Unlock()
		return p.ch.Send(0, 0, p.bannerPayload)
	}()
	if err != nil {
		p.log.Error("banner send failed on chan %d: %v", p.ch.ID(), err)
		return
	}
	p.needBanner = false
	p.bannerPayload = nil
}
