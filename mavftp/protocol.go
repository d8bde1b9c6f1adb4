// Package mavftp implements the server side of a MAVLink-style
// FILE_TRANSFER_PROTOCOL session: a request/response filesystem protocol
// carried as 251-byte opaque payloads over an arbitrary channel.
package mavftp

// Payload layout, matching FILE_TRANSFER_PROTOCOL's 251-byte payload.
const (
	HeaderSize  = 12
	DataSize    = 239
	PayloadSize = HeaderSize + DataSize
)

// Opcode identifies the command or response kind carried by a frame.
type Opcode uint8

const (
	OpNone              Opcode = 0
	OpTerminateSession  Opcode = 1
	OpResetSessions     Opcode = 2
	OpListDirectory     Opcode = 3
	OpOpenFileRO        Opcode = 4
	OpReadFile          Opcode = 5
	OpCreateFile        Opcode = 6
	OpWriteFile         Opcode = 7
	OpRemoveFile        Opcode = 10
	OpCreateDirectory   Opcode = 11
	OpRemoveDirectory   Opcode = 12
	OpOpenFileWO        Opcode = 13
	OpTruncateFile      Opcode = 14
	OpBurstReadFile     Opcode = 15
	OpRename            Opcode = 16
	OpCalcFileCRC32     Opcode = 17
	OpAck               Opcode = 128
	OpNack              Opcode = 129
)

var opcodeNames = map[Opcode]string{
	OpNone:             "None",
	OpTerminateSession: "TerminateSession",
	OpResetSessions:    "ResetSessions",
	OpListDirectory:    "ListDirectory",
	OpOpenFileRO:       "OpenFileRO",
	OpReadFile:         "ReadFile",
	OpCreateFile:       "CreateFile",
	OpWriteFile:        "WriteFile",
	OpRemoveFile:       "RemoveFile",
	OpCreateDirectory:  "CreateDirectory",
	OpRemoveDirectory:  "RemoveDirectory",
	OpOpenFileWO:       "OpenFileWO",
	OpTruncateFile:     "TruncateFile",
	OpBurstReadFile:    "BurstReadFile",
	OpRename:           "Rename",
	OpCalcFileCRC32:    "CalcFileCRC32",
	OpAck:              "Ack",
	OpNack:             "Nack",
}

// Name returns a human-readable opcode name, or "Unknown" for unrecognized
// values. Used for logging, error messages and the mavftpc driver's output.
func (o Opcode) Name() string {
	if n, ok := opcodeNames[o]; ok {
		return n
	}
	return "Unknown"
}

// ErrorCode is the wire value placed in data[0] of a Nack reply.
type ErrorCode uint8

const (
	ErrNone                ErrorCode = 0
	ErrFail                ErrorCode = 1
	ErrFailErrno           ErrorCode = 2
	ErrInvalidDataSize     ErrorCode = 3
	ErrInvalidSession      ErrorCode = 4
	ErrNoSessionsAvailable ErrorCode = 5
	ErrEndOfFile           ErrorCode = 6
	ErrUnknownCommand      ErrorCode = 7
	ErrFileExists          ErrorCode = 8
	ErrFileNotFound        ErrorCode = 9
)

// FileMode selects the discipline an open file handle was opened under.
type FileMode int

const (
	ModeNone FileMode = iota
	ModeRead
	ModeWrite
)

// SessionTimeout is the inactivity threshold (FTP_SESSION_TIMEOUT) after
// which a foreign-session request may reclaim an abandoned open file.
const SessionTimeout = 3000 // milliseconds

// QueueCapacity is the bounded request FIFO's capacity between the
// decoder context and the worker.
const QueueCapacity = 5

// BurstMaxPackets caps a single BurstReadFile request to this many
// streamed replies (transfer_size in the original implementation).
const BurstMaxPackets = 500
