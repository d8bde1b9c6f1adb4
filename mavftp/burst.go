package mavftp

import (
	"io"
	"time"
)

// burstSender is the narrow slice of the reply pump a burst transfer
// needs: send one reply, applying the same backpressure rules as any
// other reply. Defined here rather than importing reply.go's pump type
// directly, so burst.go can be unit tested with a trivial stub.
type burstSender func(Reply) error

// burstRead streams a BurstReadFile request as a sequence of ReadFile-
// shaped Ack replies with strictly increasing seq_number, stopping at
// end of file, at BurstMaxPackets, or on the first send error. Pacing
// between packets reproduces the adaptive delay from spec.md §4.7: on a
// channel without hardware flow control, the transfer is throttled to
// roughly a third of the channel's estimated bandwidth so a GCS with a slow radio
// link isn't buried in unacknowledged packets.
func (d *dispatcher) burstRead(req *Request, sess *sessionState, send burstSender, bandwidthBPS uint32, haveBandwidth, flowControl bool) error {
	// Session ownership is already enforced by the worker's pre-dispatch
	// gate; this only needs to tell "no file open" from "open in the
	// wrong mode" apart, matching the original's distinct FileNotFound
	// and Fail codes instead of collapsing both into InvalidSession.
	if !sess.open {
		return send(d.nack(req, ErrFileNotFound))
	}
	if sess.mode != ModeRead {
		return send(d.nack(req, ErrFail))
	}

	// max_read (spec.md §4.7): the client may request a burst chunk size
	// smaller than the full 239-byte packet; 0 means "use the default".
	maxRead := int(req.Size)
	if maxRead == 0 {
		maxRead = DataSize
	}
	readSize := maxRead
	if readSize > DataSize {
		readSize = DataSize
	}

	seq := req.SeqNumber
	offset := req.Offset
	pace := !flowControl && haveBandwidth && bandwidthBPS > 0

	for packets := 0; packets < BurstMaxPackets; packets++ {
		if _, err := sess.file.Seek(int64(offset), io.SeekStart); err != nil {
			return send(d.errnoPacket(req, seq, err))
		}
		buf := make([]byte, readSize)
		n, err := io.ReadFull(sess.file, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return send(d.errnoPacket(req, seq, err))
		}

		r := d.reply(req, OpAck)
		r.SeqNumber = seq
		r.Offset = offset
		copy(r.Data[:], buf[:n])
		r.Size = uint8(n)

		eof := n < maxRead
		r.BurstComplete = eof || packets == BurstMaxPackets-1

		if err := send(r); err != nil {
			return err
		}

		if eof {
			return nil
		}

		seq++
		offset += uint32(n)

		if pace {
			time.Sleep(burstDelay(readSize, bandwidthBPS))
		}
	}
	return nil
}

// burstDelay mirrors the original's bandwidth-proportional pacing:
// roughly three packet-times per packet sent, so a burst never saturates
// more than a third of the estimated link bandwidth.
func burstDelay(packetSize int, bandwidthBPS uint32) time.Duration {
	ms := 3000 * uint64(packetSize) / uint64(bandwidthBPS)
	return time.Duration(ms) * time.Millisecond
}

// errnoPacket builds a Nack for a burst packet that failed mid-stream,
// using the request's current seq_number rather than the original
// request's, so the GCS can tell which packet in the sequence failed.
func (d *dispatcher) errnoPacket(req *Request, seq uint16, err error) Reply {
	r := d.nackErrno(req, err)
	r.SeqNumber = seq
	return r
}
