// Command sshpktd is a small demonstration harness for the packet
// transport layer: it opens a TCP listener or dials one, wires up a
// session.Session with no encryption active (the pre-kex identity
// binding), and sends MSG_DEBUG traffic from client to server so the framing,
// compression and dispatch paths all see real wire bytes. Key
// exchange, authentication and channels are out of this package's
// scope (spec.md §1) and are not simulated here.
package main

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	log "github.com/inconshreveable/log15"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nsec/sshpacket/packet"
	"github.com/nsec/sshpacket/session"
)

func main() {
	app := cli.NewApp()
	app.Name = "sshpktd"
	app.Usage = "exercise the ssh packet transport layer over a real TCP connection"
	app.Flags = []cli.Flag{
		cli.BoolFlag{Name: "verbose", Usage: "dump every packet with go-spew"},
		cli.BoolFlag{Name: "compress", Usage: "enable deflate compression both ways"},
	}
	app.Commands = []cli.Command{
		{
			Name:  "serve",
			Usage: "accept one connection and log the DEBUG messages it receives",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "addr", Value: "127.0.0.1:2222"},
			},
			Action: serveCmd,
		},
		{
			Name:  "connect",
			Usage: "dial a server and send a handful of DEBUG messages",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "addr", Value: "127.0.0.1:2222"},
				cli.IntFlag{Name: "count", Value: 5},
			},
			Action: connectCmd,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "sshpktd:", err)
		os.Exit(1)
	}
}

// spewSink dumps every on-the-wire packet with go-spew, the same
// debug-dump library the teacher's own rpc/client_test.go reaches for.
type spewSink struct {
	dumper *spew.ConfigState
}

func newSpewSink() *spewSink {
	cfg := spew.NewDefaultConfig()
	cfg.DisableMethods = true
	return &spewSink{dumper: cfg}
}

func (s *spewSink) WriteOutgoing(b []byte) {
	fmt.Fprintln(os.Stderr, "--> outgoing wire packet")
	s.dumper.Fdump(os.Stderr, b)
}

func (s *spewSink) WriteIncoming(b []byte) {
	fmt.Fprintln(os.Stderr, "<-- incoming cleartext packet")
	s.dumper.Fdump(os.Stderr, b)
}

func newSession(c *cli.Context, conn net.Conn, role packet.Role) *session.Session {
	cfg := packet.Config{Role: role, CompressionLevel: 6}
	sess := session.New(conn, cfg)
	if c.GlobalBool("verbose") {
		sess.Layer().SetSink(newSpewSink())
		session.SetLogHandler(log.LvlFilterHandler(log.LvlDebug, log.StreamHandler(os.Stderr, log.TerminalFormat(true))))
	}
	if c.GlobalBool("compress") {
		sess.Layer().EnableCompression(true, true)
	}
	return sess
}

func serveCmd(c *cli.Context) error {
	addr := c.String("addr")
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	fmt.Fprintln(os.Stderr, "listening on", addr)

	conn, err := ln.Accept()
	if err != nil {
		return err
	}
	defer conn.Close()

	sess := newSession(c, conn, packet.RoleServer)
	// DEBUG and IGNORE are ALLOWED from any state (spec.md §4.6), so
	// this loop works without ever advancing Phase past initial-kex.
	return sess.Run()
}

func connectCmd(c *cli.Context) error {
	addr := c.String("addr")
	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		return err
	}
	defer conn.Close()

	sess := newSession(c, conn, packet.RoleClient)
	go func() {
		_ = sess.Run()
	}()

	count := c.Int("count")
	for i := 0; i < count; i++ {
		msg := fmt.Sprintf("hello #%d", i)
		payload := make([]byte, 5+len(msg))
		payload[0] = 1 // always_display
		binary.BigEndian.PutUint32(payload[1:5], uint32(len(msg)))
		copy(payload[5:], msg)
		if err := sess.Send(packet.MsgDebug, payload); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}
