// Command mavftpc is a manual/integration-test driver for mavftpd: it
// issues a single FILE_TRANSFER_PROTOCOL request over UDP and prints the
// decoded reply, the way a developer would poke at the server without a
// full ground-control station.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/wander-ops/mavftpd/mavftp"
)

var (
	addr      = flag.String("addr", "127.0.0.1:14550", "server UDP address")
	opcodeStr = flag.String("op", "list", "operation: list|read|write|create|remove|mkdir|rmdir|rename|crc32")
	path      = flag.String("path", "/", "target path")
	dest      = flag.String("dest", "", "destination path, for rename")
	offset    = flag.Uint("offset", 0, "read/write offset")
	interact  = flag.Bool("i", false, "interactive mode: raw terminal, repeat requests from stdin")
	help      = flag.Bool("h", false, "show help")
)

var opcodeByName = map[string]mavftp.Opcode{
	"list":   mavftp.OpListDirectory,
	"read":   mavftp.OpOpenFileRO,
	"write":  mavftp.OpOpenFileWO,
	"create": mavftp.OpCreateFile,
	"remove": mavftp.OpRemoveFile,
	"mkdir":  mavftp.OpCreateDirectory,
	"rmdir":  mavftp.OpRemoveDirectory,
	"rename": mavftp.OpRename,
	"crc32":  mavftp.OpCalcFileCRC32,
}

func main() {
	flag.Parse()
	if *help {
		showUsage(0)
	}

	conn, err := net.Dial("udp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mavftpc: dial: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	if *interact {
		runInteractive(conn)
		return
	}

	if err := runOnce(conn); err != nil {
		fmt.Fprintf(os.Stderr, "mavftpc: %v\n", err)
		os.Exit(1)
	}
}

func runOnce(conn net.Conn) error {
	op, ok := opcodeByName[*opcodeStr]
	if !ok {
		return fmt.Errorf("unknown operation %q", *opcodeStr)
	}

	req := mavftp.Request{
		SeqNumber: 0,
		Session:   0,
		Opcode:    op,
		Offset:    uint32(*offset),
	}
	if op == mavftp.OpRename {
		n := copy(req.Data[:], *path+"\x00"+*dest+"\x00")
		req.Size = uint8(n)
	} else {
		n := copy(req.Data[:], *path+"\x00")
		req.Size = uint8(n)
	}

	payload := mavftp.EncodeFrame(&req)
	if _, err := conn.Write(payload[:]); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, mavftp.PayloadSize)
	n, err := conn.Read(buf)
	if err != nil {
		return fmt.Errorf("recv: %w", err)
	}
	reply := mavftp.DecodeFrame(buf[:n])
	printReply(&reply)
	return nil
}

func printReply(reply *mavftp.Reply) {
	if reply.Opcode == mavftp.OpNack {
		fmt.Printf("NACK code=%d\n", reply.Data[0])
		return
	}
	fmt.Printf("ACK opcode=%s size=%d data=%q\n", reply.ReqOpcode.Name(), reply.Size, reply.Data[:reply.Size])
}

// runInteractive puts the local terminal into raw mode and echoes
// typed request lines ("op path [dest]") to the server one at a time,
// mirroring the way examples/sshClient.go and the teacher's terminal.go
// take over the local tty for the duration of a manual session.
func runInteractive(conn net.Conn) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mavftpc: failed to set raw terminal mode: %v\n", err)
		os.Exit(1)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(os.Stdin, "mavftpc> ")
	var seq uint16
	for {
		line, err := t.ReadLine()
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		op, ok := opcodeByName[fields[0]]
		if !ok {
			fmt.Fprintf(t, "unknown operation %q\r\n", fields[0])
			continue
		}
		req := mavftp.Request{SeqNumber: seq, Opcode: op}
		if op == mavftp.OpRename && len(fields) > 2 {
			n := copy(req.Data[:], fields[1]+"\x00"+fields[2]+"\x00")
			req.Size = uint8(n)
		} else if len(fields) > 1 {
			n := copy(req.Data[:], fields[1]+"\x00")
			req.Size = uint8(n)
		}
		payload := mavftp.EncodeFrame(&req)
		if _, err := conn.Write(payload[:]); err != nil {
			fmt.Fprintf(t, "send error: %v\r\n", err)
			continue
		}
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		buf := make([]byte, mavftp.PayloadSize)
		n, err := conn.Read(buf)
		if err != nil {
			fmt.Fprintf(t, "recv error: %v\r\n", err)
			continue
		}
		reply := mavftp.DecodeFrame(buf[:n])
		fmt.Fprintf(t, "reply opcode=%s size=%d\r\n", reply.Opcode.Name(), reply.Size)
		seq = reply.SeqNumber + 1
	}
}

func showUsage(exitcode int) {
	fmt.Fprintf(os.Stderr, `mavftpc - manual driver for a mavftpd server

Usage: %s [options]

Options:
  -addr ADDR    server UDP address (default 127.0.0.1:14550)
  -op OP        list|read|write|create|remove|mkdir|rmdir|rename|crc32
  -path PATH    target path
  -dest PATH    destination path, for rename
  -offset N     read/write offset
  -i            interactive mode
  -h            show this help message

`, os.Args[0])
	os.Exit(exitcode)
}
