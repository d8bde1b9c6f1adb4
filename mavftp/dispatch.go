package mavftp

import (
	"errors"
	"io"
	"io/fs"
	"syscall"

	fsops "github.com/wander-ops/mavftpd/mavftp/fsops"
)

// dispatcher holds the filesystem adapter and logger every opcode
// handler needs. It never touches the request queue or a Channel
// directly — those are the worker's and reply pump's jobs respectively.
type dispatcher struct {
	fs  fsops.FS
	log Logger
}

func newDispatcher(fs fsops.FS, log Logger) *dispatcher {
	if log == nil {
		log = NoopLogger{}
	}
	return &dispatcher{fs: fs, log: log}
}

// dispatch handles one request against sess, returning the reply to send
// (if any). Ack/Nack requests are protocol responses, not commands, and
// are discarded outright — the original "case OP_ACK / case OP_NACK:
// ignore" behavior.
func (d *dispatcher) dispatch(req *Request, sess *sessionState) (Reply, bool) {
	// Blanket validation ahead of every opcode-specific handler, matching
	// the original's check at the top of the worker switch before any
	// opcode-specific logic runs.
	if req.Opcode != OpAck && req.Opcode != OpNack && req.Size > DataSize {
		return d.nack(req, ErrInvalidDataSize), true
	}
	switch req.Opcode {
	case OpAck, OpNack:
		return Reply{}, false
	case OpNone:
		return d.nack(req, ErrFail), true
	case OpTerminateSession:
		return d.terminateSession(req, sess), true
	case OpResetSessions:
		sess.close()
		sess.haveLastReply = false
		return d.ack(req, nil), true
	case OpListDirectory:
		return d.listDirectory(req), true
	case OpOpenFileRO:
		return d.openFile(req, sess, ModeRead), true
	case OpOpenFileWO:
		return d.openFile(req, sess, ModeWrite), true
	case OpCreateFile:
		return d.createFile(req, sess), true
	case OpReadFile:
		return d.readFile(req, sess), true
	case OpWriteFile:
		return d.writeFile(req, sess), true
	case OpRemoveFile:
		return d.removeEntry(req, false), true
	case OpCreateDirectory:
		return d.createDirectory(req), true
	case OpRemoveDirectory:
		return d.removeEntry(req, true), true
	case OpTruncateFile:
		// Explicitly unsupported (spec.md Non-goals): always Fail, never
		// touches the filesystem.
		return d.nack(req, ErrFail), true
	case OpRename:
		return d.rename(req), true
	case OpCalcFileCRC32:
		return d.calcCRC32(req), true
	case OpBurstReadFile:
		// Handled by the burst streamer; dispatch is never reached for
		// this opcode from the worker loop.
		return d.nack(req, ErrFail), true
	default:
		return d.nack(req, ErrUnknownCommand), true
	}
}

// strnlenBounded returns the number of non-zero bytes in data starting at
// start, stopping at the first zero byte or after maxLen bytes, whichever
// comes first — Go's equivalent of strnlen(data+start, maxLen).
func strnlenBounded(data []byte, start, maxLen int) int {
	end := start + maxLen
	if end > len(data) {
		end = len(data)
	}
	if end < start {
		end = start
	}
	for i := start; i < end; i++ {
		if data[i] == 0 {
			return i - start
		}
	}
	return end - start
}

// checkNameLen extracts the single path carried by a request's data
// buffer, implementing ftp_check_name_len's acceptance rule exactly: a
// path is valid when its terminating NUL falls precisely at index size
// within the full 239-byte buffer — which a zero-padded tail satisfies
// even without an explicit NUL inside data[0:size) — or when size counts
// that NUL explicitly (size == strnlen+1) and the buffer's last byte is
// zero. A naive "find a NUL inside data[0:size)" search rejects both of
// these, which is the bug this replaces.
func checkNameLen(data []byte, size uint8) (path string, ok bool) {
	if size == 0 {
		return "", false
	}
	n := strnlenBounded(data, 0, len(data))
	if n == int(size) {
		return string(data[:n]), true
	}
	if int(size) == n+1 && data[len(data)-1] == 0 {
		return string(data[:n]), true
	}
	return "", false
}

// checkRenameNames extracts Rename's two NUL-separated paths, matching
// the original's bespoke check (distinct from checkNameLen): the first
// path must be explicitly NUL-terminated; the second need not be, as
// long as the combined lengths plus the first path's terminator account
// for the whole request size. A GCS that NUL-terminates both paths
// (size counts two terminators rather than one) is also accepted, via
// the same "size - (len1+len2) == 2 && buffer's last byte is zero" carve
// -out the original uses.
func checkRenameNames(data []byte, size uint8) (oldpath, newpath string, ok bool) {
	if size == 0 {
		return "", "", false
	}
	len1 := strnlenBounded(data, 0, len(data)-2)
	if data[len1] != 0 {
		return "", "", false
	}
	len2 := strnlenBounded(data, len1+1, len(data)-(len1+1))
	bothNULsCounted := int(size)-(len1+len2) == 2 && data[len(data)-1] == 0
	if len1+len2+1 != int(size) && !bothNULsCounted {
		return "", "", false
	}
	return string(data[:len1]), string(data[len1+1 : len1+1+len2]), true
}

func (d *dispatcher) reply(req *Request, opcode Opcode) Reply {
	return Reply{
		SeqNumber: req.SeqNumber + 1,
		Session:   req.Session,
		Opcode:    opcode,
		ReqOpcode: req.Opcode,
		Chan:      req.Chan,
		SysID:     req.SysID,
		CompID:    req.CompID,
	}
}

func (d *dispatcher) ack(req *Request, data []byte) Reply {
	r := d.reply(req, OpAck)
	if n := copy(r.Data[:], data); n > 0 {
		r.Size = uint8(n)
	}
	return r
}

func (d *dispatcher) nack(req *Request, code ErrorCode) Reply {
	r := d.reply(req, OpNack)
	r.Data[0] = byte(code)
	r.Size = 1
	return r
}

// nackErrno builds a FailErrno Nack carrying the translated errno byte in
// data[1], per spec.md §7's filesystem error tier.
func (d *dispatcher) nackErrno(req *Request, err error) Reply {
	code, errno := classifyErrno(err)
	r := d.reply(req, OpNack)
	if code == ErrFailErrno {
		r.Data[0] = byte(code)
		r.Data[1] = errno
		r.Size = 2
	} else {
		r.Data[0] = byte(code)
		r.Size = 1
	}
	return r
}

// classifyErrno maps a Go filesystem error onto the wire ErrorCode/errno
// pair spec.md §7 describes: EEXIST and ENOENT get dedicated error codes
// (no errno byte needed), anything else is reported as FailErrno with the
// raw errno value, and an error that carries no errno at all falls back
// to a plain Fail.
func classifyErrno(err error) (ErrorCode, byte) {
	if err == nil {
		return ErrNone, 0
	}
	if errors.Is(err, fs.ErrExist) {
		return ErrFileExists, 0
	}
	if errors.Is(err, fs.ErrNotExist) {
		return ErrFileNotFound, 0
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EEXIST:
			return ErrFileExists, 0
		case syscall.ENOENT:
			return ErrFileNotFound, 0
		default:
			return ErrFailErrno, byte(errno)
		}
	}
	return ErrFail, 0
}

func (d *dispatcher) terminateSession(req *Request, sess *sessionState) Reply {
	if !sess.open || sess.id != req.Session {
		return d.nack(req, ErrInvalidSession)
	}
	sess.close()
	return d.ack(req, nil)
}

func (d *dispatcher) openFile(req *Request, sess *sessionState, mode FileMode) Reply {
	path, ok := checkNameLen(req.Data[:], req.Size)
	if !ok {
		return d.nack(req, ErrInvalidDataSize)
	}
	flag := fsops.O_RDONLY
	if mode == ModeWrite {
		flag = fsops.O_WRONLY
	}
	info, err := d.fs.Stat(path)
	if err != nil {
		return d.nackErrno(req, err)
	}
	if info.IsDir {
		return d.nack(req, ErrFail)
	}
	f, err := d.fs.Open(path, flag)
	if err != nil {
		return d.nackErrno(req, err)
	}
	sess.openFile(req, f, path, mode, info.Size)

	r := d.reply(req, OpAck)
	size := uint32(info.Size)
	copy(r.Data[0:4], u32le(size))
	r.Size = 4
	return r
}

func (d *dispatcher) createFile(req *Request, sess *sessionState) Reply {
	path, ok := checkNameLen(req.Data[:], req.Size)
	if !ok {
		return d.nack(req, ErrInvalidDataSize)
	}
	f, err := d.fs.Open(path, fsops.O_WRONLY|fsops.O_CREATE|fsops.O_TRUNC)
	if err != nil {
		return d.nackErrno(req, err)
	}
	sess.openFile(req, f, path, ModeWrite, 0)
	return d.ack(req, nil)
}

func (d *dispatcher) readFile(req *Request, sess *sessionState) Reply {
	// Session ownership is already enforced by the worker's pre-dispatch
	// gate; this only needs to tell "no file open" from "open in the
	// wrong mode" apart, matching the original's distinct FileNotFound
	// and Fail codes instead of collapsing both into InvalidSession.
	if !sess.open {
		return d.nack(req, ErrFileNotFound)
	}
	if sess.mode != ModeRead {
		return d.nack(req, ErrFail)
	}
	want := int(req.Size)
	if want == 0 {
		want = DataSize
	}
	if _, err := sess.file.Seek(int64(req.Offset), io.SeekStart); err != nil {
		return d.nackErrno(req, err)
	}
	buf := make([]byte, want)
	n, err := io.ReadFull(sess.file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return d.nackErrno(req, err)
	}
	if n == 0 {
		return d.nack(req, ErrEndOfFile)
	}
	r := d.reply(req, OpAck)
	copy(r.Data[:], buf[:n])
	r.Size = uint8(n)
	return r
}

func (d *dispatcher) writeFile(req *Request, sess *sessionState) Reply {
	if !sess.open {
		return d.nack(req, ErrFileNotFound)
	}
	if sess.mode != ModeWrite {
		return d.nack(req, ErrFail)
	}
	if _, err := sess.file.Seek(int64(req.Offset), io.SeekStart); err != nil {
		return d.nackErrno(req, err)
	}
	n := int(req.Size)
	if _, err := sess.file.Write(req.Data[:n]); err != nil {
		return d.nackErrno(req, err)
	}
	r := d.reply(req, OpAck)
	copy(r.Data[0:4], u32le(req.Offset))
	r.Size = 4
	return r
}

func (d *dispatcher) removeEntry(req *Request, dir bool) Reply {
	path, ok := checkNameLen(req.Data[:], req.Size)
	if !ok {
		return d.nack(req, ErrInvalidDataSize)
	}
	if err := d.fs.Remove(path); err != nil {
		return d.nackErrno(req, err)
	}
	return d.ack(req, nil)
}

func (d *dispatcher) createDirectory(req *Request) Reply {
	path, ok := checkNameLen(req.Data[:], req.Size)
	if !ok {
		return d.nack(req, ErrInvalidDataSize)
	}
	if err := d.fs.Mkdir(path); err != nil {
		return d.nackErrno(req, err)
	}
	return d.ack(req, nil)
}

func (d *dispatcher) rename(req *Request) Reply {
	oldpath, newpath, ok := checkRenameNames(req.Data[:], req.Size)
	if !ok {
		return d.nack(req, ErrInvalidDataSize)
	}
	if err := d.fs.Rename(oldpath, newpath); err != nil {
		return d.nackErrno(req, err)
	}
	return d.ack(req, nil)
}

func (d *dispatcher) calcCRC32(req *Request) Reply {
	path, ok := checkNameLen(req.Data[:], req.Size)
	if !ok {
		return d.nack(req, ErrInvalidDataSize)
	}
	crc, err := d.fs.CRC32(path)
	if err != nil {
		return d.nackErrno(req, err)
	}
	r := d.reply(req, OpAck)
	copy(r.Data[0:4], u32le(crc))
	r.Size = 4
	return r
}

func (d *dispatcher) listDirectory(req *Request) Reply {
	path, ok := checkNameLen(req.Data[:], req.Size)
	if !ok {
		return d.nack(req, ErrInvalidDataSize)
	}
	entries, err := d.fs.ReadDir(path)
	if err != nil {
		return d.nackErrno(req, err)
	}
	var buf [DataSize]byte
	n, eof := packDirListing(entries, req.Offset, buf[:])
	if n == 0 && eof {
		return d.nack(req, ErrEndOfFile)
	}
	r := d.reply(req, OpAck)
	copy(r.Data[:], buf[:n])
	r.Size = uint8(n)
	return r
}

func u32le(v uint32) []byte {
	return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}
}
