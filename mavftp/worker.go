package mavftp

import (
	"github.com/wander-ops/mavftpd/mavftp/fsops"
	"github.com/wander-ops/mavftpd/mavftp/transport"
)

// sessionOpeningOpcodes are the opcodes that try to claim the single
// session slot, and so are also checked against ErrNoSessionsAvailable
// (the slot is held by someone else and isn't reclaimable yet) in
// addition to the general foreign-session gate every opcode goes
// through below.
var sessionOpeningOpcodes = map[Opcode]bool{
	OpOpenFileRO: true,
	OpOpenFileWO: true,
	OpCreateFile: true,
}

// Worker owns the single session for one server instance: it pops
// requests off the queue, applies the retransmit fast path and session
// reclaim rule, dispatches, and sends the reply. All of its state
// (queue aside) is confined to the goroutine that calls Run, per
// spec.md §5.
type Worker struct {
	queue *requestQueue
	sess  *sessionState
	disp  *dispatcher
	pump  *replyPump
	log   Logger

	stop chan struct{}
	done chan struct{}
}

// NewWorker creates a Worker that dispatches against fs and replies on
// ch. log may be nil, in which case logging is a no-op.
func NewWorker(fs fsops.FS, ch transport.Channel, log Logger) *Worker {
	if log == nil {
		log = NoopLogger{}
	}
	return &Worker{
		queue: newRequestQueue(QueueCapacity),
		sess:  newSessionState(),
		disp:  newDispatcher(fs, log),
		pump:  newReplyPump(ch, log),
		log:   log,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Submit enqueues a decoded request. It reports dropped=true if the
// bounded queue was full; the caller issues no error reply for this —
// the GCS's own retransmit timer is the recovery path (spec.md §4.2).
func (w *Worker) Submit(req Request) (dropped bool) {
	return w.queue.push(req)
}

// Run drains the queue until Close is called. It is meant to be run in
// its own goroutine; it returns once Close has been observed and no
// request is mid-flight.
func (w *Worker) Run() {
	defer close(w.done)
	for {
		req, ok := w.queue.pop(w.stop)
		if !ok {
			return
		}
		w.handle(&req)
	}
}

// Close stops Run and waits for it to return.
func (w *Worker) Close() {
	close(w.stop)
	<-w.done
}

func (w *Worker) handle(req *Request) {
	if reply, ok := w.sess.isRetransmit(req); ok {
		w.log.Debug("chan %d: retransmitting seq %d for opcode %s", req.Chan, reply.SeqNumber, req.Opcode.Name())
		w.sendReply(&reply)
		return
	}

	idle := w.pump.idleMillis()

	if sessionOpeningOpcodes[req.Opcode] && !w.sess.reclaimable(req, idle) {
		reply := w.disp.nack(req, ErrNoSessionsAvailable)
		w.sendReply(&reply)
		return
	}

	// Blanket pre-dispatch session gate (spec.md §4.3): applies to every
	// opcode, not just the ones that open a session. A request that
	// doesn't belong to the currently open session gets InvalidSession
	// unless that session has gone idle past SessionTimeout, in which
	// case its abandoned file handle is dropped before the request is
	// allowed through.
	if w.sess.open && !w.sess.belongsTo(req) {
		if idle < SessionTimeout {
			reply := w.disp.nack(req, ErrInvalidSession)
			w.sendReply(&reply)
			return
		}
		w.log.Info("chan %d: reclaiming idle session %d from sysid %d", req.Chan, w.sess.id, w.sess.sysID)
		w.sess.close()
	}

	if req.Opcode == OpBurstReadFile {
		w.handleBurstRead(req)
		return
	}

	reply, ok := w.disp.dispatch(req, w.sess)
	if !ok {
		return
	}
	w.sendReply(&reply)
	if req.Opcode == OpTerminateSession && reply.Opcode == OpAck {
		w.pump.clearIdle()
	}
}

func (w *Worker) handleBurstRead(req *Request) {
	bw, haveBW := w.pump.ch.BandwidthBPS()
	flow := w.pump.ch.FlowControlEnabled()
	err := w.disp.burstRead(req, w.sess, func(r Reply) error {
		w.sess.recordReply(r)
		return w.pump.send(&r, w.stop)
	}, bw, haveBW, flow)
	if err != nil {
		w.log.Error("burst read on chan %d failed: %v", req.Chan, err)
	}
}

func (w *Worker) sendReply(reply *Reply) {
	w.sess.recordReply(*reply)
	if err := w.pump.send(reply, w.stop); err != nil {
		w.log.Error("chan %d: %v", reply.Chan, err)
	}
}
