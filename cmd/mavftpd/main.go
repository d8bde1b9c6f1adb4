package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/wander-ops/mavftpd/mavftp"
	"github.com/wander-ops/mavftpd/mavftp/config"
	"github.com/wander-ops/mavftpd/mavftp/fsops"
	"github.com/wander-ops/mavftpd/mavftp/transport"
)

var (
	configPath = flag.String("c", "", "path to JSON config file")
	root       = flag.String("root", "", "override: root directory to serve")
	udpAddr    = flag.String("udp", "", "override: UDP listen address")
	logFile    = flag.String("log", "", "override: log file path")
	help       = flag.Bool("h", false, "show help")
	version    = flag.Bool("version", false, "show version")
)

const versionString = "mavftpd version 0.1.0"

func main() {
	flag.Parse()

	if *help {
		showUsage(0)
	}
	if *version {
		fmt.Println(versionString)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mavftpd: %v\n", err)
		os.Exit(1)
	}
	if *root != "" {
		cfg.Root = *root
	}
	if *udpAddr != "" {
		cfg.UDPListenAddr = *udpAddr
	}
	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	var log mavftp.Logger = mavftp.NoopLogger{}
	if cfg.LogFile != "" {
		fl, err := mavftp.NewFileLogger(cfg.LogFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mavftpd: failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer fl.Close()
		log = fl
	}

	fs, err := fsops.NewOSFS(cfg.Root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mavftpd: %v\n", err)
		os.Exit(1)
	}

	ch, closer, err := openChannel(cfg)
	if err != nil {
		// The original implementation logs "failed to initialize MAVFTP"
		// via GCS_SEND_TEXT and leaves the rest of the vehicle running; the
		// server binary's equivalent operator-visible failure is a logged
		// error followed by a non-zero exit.
		log.Error("failed to initialize mavftp: %v", err)
		fmt.Fprintf(os.Stderr, "mavftpd: %v\n", err)
		os.Exit(1)
	}
	if closer != nil {
		defer closer()
	}

	worker := mavftp.NewWorker(fs, ch, log)
	go worker.Run()

	ctx, cancel := signalContext()
	defer cancel()

	if recv, ok := ch.(interface{ Recv([]byte) (int, error) }); ok {
		go pumpChannel(recv, worker, log)
	}

	<-ctx.Done()
	worker.Close()
}

// pumpChannel decodes incoming payloads off a readable Channel (e.g.
// UDPChannel) and submits them to the worker. The raw payload carries no
// out-of-band addressing, so every request is submitted with Chan, SysID
// and CompID left at zero.
func pumpChannel(recv interface{ Recv([]byte) (int, error) }, worker *mavftp.Worker, log mavftp.Logger) {
	buf := make([]byte, mavftp.PayloadSize)
	for {
		n, err := recv.Recv(buf)
		if err != nil {
			log.Error("channel recv failed: %v", err)
			return
		}
		if n < mavftp.PayloadSize {
			continue
		}
		req := mavftp.DecodeFrame(buf)
		if worker.Submit(req) {
			log.Debug("request queue full, dropped seq %d", req.SeqNumber)
		}
	}
}

func openChannel(cfg *config.Config) (transport.Channel, func(), error) {
	switch cfg.Transport {
	case "udp":
		ch, err := transport.NewUDPChannel(0, cfg.UDPListenAddr)
		if err != nil {
			return nil, nil, err
		}
		return ch, func() { ch.Close() }, nil
	case "serial":
		ch, err := transport.OpenSerialChannel(0, cfg.SerialDevice, cfg.SerialBaud, cfg.SerialTxBuf)
		if err != nil {
			return nil, nil, err
		}
		return ch, func() { ch.Close() }, nil
	case "loopback":
		return transport.NewLoopbackChannel(0), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()
	return ctx, cancel
}

func showUsage(exitcode int) {
	fmt.Fprintf(os.Stderr, `%s - MAVLink-style file transfer protocol server

Usage: %s [options]

Options:
  -c PATH        path to JSON config file
  -root PATH     override: root directory to serve
  -udp ADDR      override: UDP listen address
  -log PATH      override: log file path
  -h             show this help message
  -version       show version

`, versionString, os.Args[0])
	os.Exit(exitcode)
}
