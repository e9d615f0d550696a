// Package session wires a packet.Layer to a net.Conn: it owns the
// Phase the filter consults, drives the read loop, and exposes the
// small set of always-available connection-layer handlers
// (DISCONNECT, IGNORE, UNIMPLEMENTED, DEBUG) that spec.md's default
// handler table expects something to be registered against. Key
// exchange, authentication and channel multiplexing are feature
// layers built on top of this, out of scope here (spec.md §1).
package session

import (
	"net"
	"sync"

	log "github.com/inconshreveable/log15"

	"github.com/nsec/sshpacket/packet"
)

var logger = log.New("pkg", "sshsession")

// SetLogHandler redirects this package's logging, independent of the
// packet package's own logger.
func SetLogHandler(h log.Handler) {
	logger.SetHandler(h)
}

// Session pairs one packet.Layer with the net.Conn it reads from and
// writes to, and owns the Phase oracle the Layer's state filter
// consults.
type Session struct {
	fd    net.Conn
	layer *packet.Layer
	phase *packet.Phase

	wmu sync.Mutex // serializes Send calls against the connection

	flow     *packet.FlowControlFanout
	counters packet.RawCounter
}

// New constructs a Session in the initial pre-kex phase. cfg.Role
// selects which side of the state filter's client/server-only rows
// apply.
func New(fd net.Conn, cfg packet.Config) *Session {
	phase := &packet.Phase{
		Role:    cfg.Role,
		Session: packet.StateInitialKex,
		DH:      packet.DHInit,
	}
	layer := packet.NewLayer(cfg, fd, phase)

	s := &Session{
		fd:    fd,
		layer: layer,
		phase: phase,
		flow:  packet.NewFlowControlFanout(),
	}
	layer.SetRawCounter(&s.counters)
	s.registerDefaultHandlers()
	return s
}

// Layer exposes the underlying packet.Layer for feature layers (kex
// driver, userauth driver, channel multiplexer) that need to register
// their own handler tables or react to Phase transitions directly.
func (s *Session) Layer() *packet.Layer { return s.layer }

// Phase returns the state filter's oracle, which a feature layer
// mutates as key exchange, authentication and channel setup progress.
func (s *Session) Phase() *packet.Phase { return s.phase }

// Counters returns the byte/packet accounting block this session
// feeds on every Send/Feed.
func (s *Session) Counters() *packet.RawCounter { return &s.counters }

// FlowControl returns the channel write-unblock fan-out registry.
func (s *Session) FlowControl() *packet.FlowControlFanout { return s.flow }

// Send serializes concurrent senders before handing off to the
// packet layer, which is not itself safe for concurrent Send calls
// (spec.md §5 assumes a single cooperative thread of control per
// session; Send is the one operation real servers call from multiple
// goroutines, e.g. one per channel).
func (s *Session) Send(msgType byte, payload []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return s.layer.Send(msgType, payload)
}

// Run drives the read loop until the connection closes or a fatal
// framing error occurs.
func (s *Session) Run() error {
	return s.layer.Run(s.fd)
}

// Close closes the underlying connection.
func (s *Session) Close() error {
	return s.fd.Close()
}
