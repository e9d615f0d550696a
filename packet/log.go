package packet

import log "github.com/inconshreveable/log15"

// logger is the package-level structured logger, styled after
// github.com/ethereum/go-ethereum/log's package logger (used
// throughout the teacher's rpc package): leveled calls taking a
// message and an even number of key/value context arguments.
//
// Per-packet tracing (each packet read and sent, and packets no
// handler claimed) logs at Trace, mirroring the #ifdef DEBUG_PACKET gating in
// the reference implementation: present in every build, silent
// unless the caller raises the log15 handler's level.
var logger = log.New("pkg", "sshpacket")

func SetLogHandler(h log.Handler) {
	logger.SetHandler(h)
}
