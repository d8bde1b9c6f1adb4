package mavftp

import "encoding/binary"

// Frame is the wire shape shared by requests and replies: a 12-byte header
// followed by a 239-byte data payload. Decode never fails on value content
// — out-of-range opcodes, oversized declared lengths, and malformed paths
// are all semantic concerns handled by the dispatcher, not the codec.
//
// Request and Reply are the same shape (as pending_ftp is in the original
// implementation); the two names exist so call sites read naturally.
type Frame struct {
	SeqNumber     uint16
	Session       uint8
	Opcode        Opcode
	Size          uint8
	ReqOpcode     Opcode
	BurstComplete bool
	Offset        uint32
	Data          [DataSize]byte

	// Out-of-band addressing, carried alongside the 251-byte payload and
	// mirrored from request into reply.
	Chan   int
	SysID  uint8
	CompID uint8
}

// Request is a decoded frame awaiting dispatch.
type Request = Frame

// Reply is a frame ready for (or already) transmission.
type Reply = Frame

// EncodeFrame serializes f into a 251-byte payload using the little-endian
// field layout: seq(2) session(1) opcode(1) size(1) req_opcode(1)
// burst_complete(1) pad(1) offset(4) data(239).
func EncodeFrame(f *Frame) [PayloadSize]byte {
	var buf [PayloadSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], f.SeqNumber)
	buf[2] = f.Session
	buf[3] = byte(f.Opcode)
	buf[4] = f.Size
	buf[5] = byte(f.ReqOpcode)
	if f.BurstComplete {
		buf[6] = 1
	}
	// buf[7] is the reserved pad byte, always zero.
	binary.LittleEndian.PutUint32(buf[8:12], f.Offset)
	copy(buf[HeaderSize:], f.Data[:])
	return buf
}

// DecodeFrame parses a 251-byte payload into a Frame. The out-of-band
// Chan/SysID/CompID fields are not part of the wire payload and must be
// set by the caller after decoding.
func DecodeFrame(payload []byte) Frame {
	var f Frame
	if len(payload) < PayloadSize {
		var padded [PayloadSize]byte
		copy(padded[:], payload)
		payload = padded[:]
	}
	f.SeqNumber = binary.LittleEndian.Uint16(payload[0:2])
	f.Session = payload[2]
	f.Opcode = Opcode(payload[3])
	f.Size = payload[4]
	f.ReqOpcode = Opcode(payload[5])
	f.BurstComplete = payload[6] != 0
	f.Offset = binary.LittleEndian.Uint32(payload[8:12])
	copy(f.Data[:], payload[HeaderSize:PayloadSize])
	return f
}
