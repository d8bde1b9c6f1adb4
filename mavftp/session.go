package mavftp

import (
	"github.com/wander-ops/mavftpd/mavftp/fsops"
)

// sessionState is the single open-file session the worker owns. There is
// never more than one at a time (spec.md I1); it is a plain struct field
// on Worker rather than anything synchronized, since only the worker
// goroutine ever touches it.
type sessionState struct {
	open bool
	id   uint8
	mode FileMode
	file fsops.File
	path string
	size int64 // length reported by stat at open time; ReadFile detects EOF from the read itself

	// Owner addressing, captured from the request that opened the
	// session, required before any other channel may touch it.
	sysID  uint8
	compID uint8
	chanID int

	// Retransmit cache: the last reply sent for this session, resent
	// verbatim when a request's seq_number indicates the GCS never saw
	// it (spec.md §4.4).
	lastReply     Reply
	haveLastReply bool
}

func newSessionState() *sessionState {
	return &sessionState{}
}

// ownedBy reports whether (sysID, compID) match the session's owner.
// An unopened session is owned by nobody, so ownedBy is always false.
func (s *sessionState) ownedBy(sysID, compID uint8) bool {
	return s.open && s.sysID == sysID && s.compID == compID
}

// belongsTo reports whether req is addressed to the currently open
// session: same owner addressing and the same session id. An unopened
// session belongs to nobody.
func (s *sessionState) belongsTo(req *Request) bool {
	return s.ownedBy(req.SysID, req.CompID) && s.id == req.Session
}

// reclaimable reports whether req may steal this session: either no
// session is open, the request already belongs to it, or last_send_ms
// (idleMillis, the time since the most recent reply went out on this
// channel) shows it has sat idle past SessionTimeout (spec.md §4.3
// "abandoned session reclaim").
func (s *sessionState) reclaimable(req *Request, idleMillis int64) bool {
	if !s.open {
		return true
	}
	if s.belongsTo(req) {
		return true
	}
	return idleMillis >= SessionTimeout
}

// close releases the open file handle, if any, and clears session state
// but preserves the retransmit cache — a TerminateSession's Ack is itself
// subject to retransmission.
func (s *sessionState) close() {
	if s.file != nil {
		s.file.Close()
	}
	s.file = nil
	s.open = false
	s.mode = ModeNone
	s.path = ""
	s.size = 0
}

// openFile installs a freshly opened handle as the session's current
// file, taking ownership from req.
func (s *sessionState) openFile(req *Request, file fsops.File, path string, mode FileMode, size int64) {
	s.open = true
	s.id = req.Session
	s.sysID = req.SysID
	s.compID = req.CompID
	s.chanID = req.Chan
	s.file = file
	s.path = path
	s.mode = mode
	s.size = size
}

// isRetransmit reports whether req is asking for a reply already sent:
// same sysid, compid and session as the cached reply, and its seq_number
// is exactly one behind the cached reply's (spec.md §4.4's fast path,
// checked before dispatch).
func (s *sessionState) isRetransmit(req *Request) (Reply, bool) {
	if !s.haveLastReply {
		return Reply{}, false
	}
	if req.SysID != s.lastReply.SysID || req.CompID != s.lastReply.CompID || req.Session != s.lastReply.Session {
		return Reply{}, false
	}
	if req.SeqNumber+1 != s.lastReply.SeqNumber {
		return Reply{}, false
	}
	return s.lastReply, true
}

// recordReply caches reply as the last one sent, for the next retransmit
// check.
func (s *sessionState) recordReply(reply Reply) {
	s.lastReply = reply
	s.haveLastReply = true
}
