package mavftp

import (
	"testing"

	"github.com/wander-ops/mavftpd/mavftp/fsops"
)

func newTestDispatcher() (*dispatcher, *fsops.MemFS) {
	fs := fsops.NewMemFS()
	return newDispatcher(fs, nil), fs
}

func pathReq(opcode Opcode, path string) *Request {
	req := &Request{Opcode: opcode, SeqNumber: 1, Session: 1}
	n := copy(req.Data[:], path+"\x00")
	req.Size = uint8(n)
	return req
}

func TestDispatchListDirectoryNotFound(t *testing.T) {
	d, _ := newTestDispatcher()
	sess := newSessionState()
	reply, ok := d.dispatch(pathReq(OpListDirectory, "/missing"), sess)
	if !ok {
		t.Fatal("expected a reply")
	}
	if reply.Opcode != OpNack || ErrorCode(reply.Data[0]) != ErrFileNotFound {
		t.Fatalf("reply = %+v, want Nack/FileNotFound", reply)
	}
}

func TestDispatchCreateThenWriteThenRead(t *testing.T) {
	d, _ := newTestDispatcher()
	sess := newSessionState()

	createReq := pathReq(OpCreateFile, "/out.bin")
	reply, ok := d.dispatch(createReq, sess)
	if !ok || reply.Opcode != OpAck {
		t.Fatalf("create failed: %+v", reply)
	}
	if !sess.open || sess.mode != ModeWrite {
		t.Fatalf("session not opened for write: %+v", sess)
	}

	writeReq := &Request{Opcode: OpWriteFile, SeqNumber: 2, Session: sess.id, Offset: 0}
	writeReq.Size = uint8(copy(writeReq.Data[:], "hello"))
	reply, ok = d.dispatch(writeReq, sess)
	if !ok || reply.Opcode != OpAck {
		t.Fatalf("write failed: %+v", reply)
	}
	sess.close()

	openReq := pathReq(OpOpenFileRO, "/out.bin")
	reply, ok = d.dispatch(openReq, sess)
	if !ok || reply.Opcode != OpAck {
		t.Fatalf("open for read failed: %+v", reply)
	}

	readReq := &Request{Opcode: OpReadFile, SeqNumber: 3, Session: sess.id, Offset: 0, Size: 5}
	reply, ok = d.dispatch(readReq, sess)
	if !ok || reply.Opcode != OpAck || string(reply.Data[:reply.Size]) != "hello" {
		t.Fatalf("read got %+v, want data %q", reply, "hello")
	}
}

func TestDispatchReadFileWithoutOpenSessionIsNacked(t *testing.T) {
	// Session-ownership mismatches are intercepted by the worker's
	// pre-dispatch gate before dispatch ever runs; dispatch itself only
	// needs to distinguish "no file open" (FileNotFound) from "open in
	// the wrong mode" (Fail).
	d, _ := newTestDispatcher()
	sess := newSessionState() // never opened

	readReq := &Request{Opcode: OpReadFile, SeqNumber: 1, Session: 7}
	reply, ok := d.dispatch(readReq, sess)
	if !ok || reply.Opcode != OpNack || ErrorCode(reply.Data[0]) != ErrFileNotFound {
		t.Fatalf("reply = %+v, want Nack/FileNotFound", reply)
	}
}

func TestDispatchReadFileWrongModeIsNacked(t *testing.T) {
	d, _ := newTestDispatcher()
	sess := newSessionState()
	if reply, ok := d.dispatch(pathReq(OpCreateFile, "/w.bin"), sess); !ok || reply.Opcode != OpAck {
		t.Fatalf("setup create failed: %+v", reply)
	}

	readReq := &Request{Opcode: OpReadFile, SeqNumber: 2, Session: sess.id}
	reply, ok := d.dispatch(readReq, sess)
	if !ok || reply.Opcode != OpNack || ErrorCode(reply.Data[0]) != ErrFail {
		t.Fatalf("reply = %+v, want Nack/Fail", reply)
	}
}

func TestDispatchRejectsOversizedRequest(t *testing.T) {
	d, _ := newTestDispatcher()
	sess := newSessionState()

	reply, ok := d.dispatch(&Request{Opcode: OpReadFile, Size: DataSize + 1}, sess)
	if !ok || reply.Opcode != OpNack || ErrorCode(reply.Data[0]) != ErrInvalidDataSize {
		t.Fatalf("reply = %+v, want Nack/InvalidDataSize", reply)
	}
}

// Reproduces the hand-traced Rename case: a "oldname\0newname" payload
// where the second path isn't itself NUL-terminated inside the buffer —
// its end is implied by request.size — must still ACK.
func TestDispatchRenameAcceptsSecondPathWithoutTrailingNUL(t *testing.T) {
	d, fs := newTestDispatcher()
	fs.PutFile("/a", []byte("x"))
	sess := newSessionState()

	renameReq := &Request{Opcode: OpRename}
	renameReq.Data[0] = '/'
	renameReq.Data[1] = 'a'
	renameReq.Data[2] = 0
	renameReq.Data[3] = '/'
	renameReq.Data[4] = 'b'
	renameReq.Size = 5

	reply, ok := d.dispatch(renameReq, sess)
	if !ok || reply.Opcode != OpAck {
		t.Fatalf("rename reply = %+v, want Ack", reply)
	}
	if _, err := fs.Stat("/b"); err != nil {
		t.Fatalf("expected /b to exist after rename: %v", err)
	}
}

func TestDispatchTruncateAlwaysFails(t *testing.T) {
	d, _ := newTestDispatcher()
	sess := newSessionState()
	reply, ok := d.dispatch(&Request{Opcode: OpTruncateFile}, sess)
	if !ok || reply.Opcode != OpNack || ErrorCode(reply.Data[0]) != ErrFail {
		t.Fatalf("reply = %+v, want Nack/Fail (TruncateFile is unsupported)", reply)
	}
}

func TestDispatchAckNackAreDiscarded(t *testing.T) {
	d, _ := newTestDispatcher()
	sess := newSessionState()
	if _, ok := d.dispatch(&Request{Opcode: OpAck}, sess); ok {
		t.Fatal("an Ack request should produce no reply")
	}
	if _, ok := d.dispatch(&Request{Opcode: OpNack}, sess); ok {
		t.Fatal("a Nack request should produce no reply")
	}
}

func TestDispatchRenameAndRemove(t *testing.T) {
	d, fs := newTestDispatcher()
	fs.PutFile("/a.txt", []byte("x"))
	sess := newSessionState()

	renameReq := &Request{Opcode: OpRename}
	n := copy(renameReq.Data[:], "/a.txt\x00/b.txt\x00")
	renameReq.Size = uint8(n)
	if reply, ok := d.dispatch(renameReq, sess); !ok || reply.Opcode != OpAck {
		t.Fatalf("rename failed: %+v", reply)
	}

	removeReq := pathReq(OpRemoveFile, "/b.txt")
	if reply, ok := d.dispatch(removeReq, sess); !ok || reply.Opcode != OpAck {
		t.Fatalf("remove failed: %+v", reply)
	}
	if _, err := fs.Stat("/b.txt"); err == nil {
		t.Fatal("expected /b.txt to be gone")
	}
}

func TestDispatchCalcCRC32(t *testing.T) {
	d, fs := newTestDispatcher()
	fs.PutFile("/a.txt", []byte("hello"))
	sess := newSessionState()

	reply, ok := d.dispatch(pathReq(OpCalcFileCRC32, "/a.txt"), sess)
	if !ok || reply.Opcode != OpAck || reply.Size != 4 {
		t.Fatalf("crc32 reply = %+v, want 4-byte Ack", reply)
	}
}

func TestDispatchUnknownOpcode(t *testing.T) {
	d, _ := newTestDispatcher()
	sess := newSessionState()
	reply, ok := d.dispatch(&Request{Opcode: Opcode(250)}, sess)
	if !ok || reply.Opcode != OpNack || ErrorCode(reply.Data[0]) != ErrUnknownCommand {
		t.Fatalf("reply = %+v, want Nack/UnknownCommand", reply)
	}
}
