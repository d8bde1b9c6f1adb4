package transport

import (
	"io"
	"sync"

	"golang.org/x/crypto/ssh"
)

// SSHChannel carries FILE_TRANSFER_PROTOCOL payloads over an SSH
// session's stdin/stdout pipes, the same plumbing the teacher's
// SSHSession uses to tunnel a ZModem transfer through a remote shell —
// here wrapping a process on the far end that speaks raw
// FILE_TRANSFER_PROTOCOL frames on its standard streams instead of
// zmodem bytes. This lets a GCS reach a vehicle's mavftp server through
// a jump host without a dedicated radio link.
type SSHChannel struct {
	mu sync.Mutex

	id      int
	session *ssh.Session
	stdin   io.WriteCloser
	stdout  io.Reader
	stderr  io.Reader
}

// NewSSHChannel starts remoteCmd on an already-dialed SSH session and
// wraps its stdio as a Channel.
func NewSSHChannel(id int, session *ssh.Session, remoteCmd string) (*SSHChannel, error) {
	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	if err := session.Start(remoteCmd); err != nil {
		stdin.Close()
		return nil, err
	}

	return &SSHChannel{
		id:      id,
		session: session,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}, nil
}

func (c *SSHChannel) ID() int { return c.id }

// TxHeadroom has no kernel-level signal over an SSH pipe; a generous
// constant keeps the reply pump from ever blocking on it, matching an
// interactive shell channel's effectively unbounded local buffering.
func (c *SSHChannel) TxHeadroom() int { return 1 << 16 }

func (c *SSHChannel) PayloadSpace() bool { return true }

// BandwidthBPS is unknown for a tunnelled session; pacing is left to
// TCP's own flow control underneath SSH.
func (c *SSHChannel) BandwidthBPS() (uint32, bool) { return 0, false }

func (c *SSHChannel) FlowControlEnabled() bool { return true }

func (c *SSHChannel) Send(targetSys, targetComp uint8, payload []byte) error {
	_, err := c.stdin.Write(payload)
	return err
}

func (c *SSHChannel) Lock()   { c.mu.Lock() }
func (c *SSHChannel) Unlock() { c.mu.Unlock() }

// Read reads decoded-frame-sized chunks off the remote's stdout, for the
// decoder side to consume.
func (c *SSHChannel) Read(p []byte) (int, error) { return c.stdout.Read(p) }

// Stderr exposes the remote command's stderr for diagnostics.
func (c *SSHChannel) Stderr() io.Reader { return c.stderr }

// Close closes stdin and the underlying SSH session.
func (c *SSHChannel) Close() error {
	c.stdin.Close()
	return c.session.Close()
}
