package session

import (
	"encoding/binary"

	"github.com/nsec/sshpacket/packet"
)

// registerDefaultHandlers wires the four connection-layer-generic
// message handlers spec.md §4.7 says the default handler table
// carries: these are the only slots of the 100-entry built-in table
// this package fills in on its own. Everything else (KEXINIT,
// USERAUTH_*, CHANNEL_*) is left for a feature layer to register
// against the same Dispatcher.
func (s *Session) registerDefaultHandlers() {
	start, entries := packet.NewDefaultHandlerTable(
		s.handleDisconnect,
		s.handleIgnore,
		s.handleUnimplemented,
		s.handleDebug,
	)
	s.layer.RegisterHandlerTable(start, entries, s)
}

func (s *Session) handleDisconnect(msgType byte, payload []byte, userData any) (packet.HandlerResult, error) {
	var reasonCode uint32
	if len(payload) >= 4 {
		reasonCode = binary.BigEndian.Uint32(payload)
	}
	logger.Info("peer sent disconnect", "reason_code", reasonCode)
	s.phase.Session = packet.StateError
	return packet.Used, nil
}

func (s *Session) handleIgnore(msgType byte, payload []byte, userData any) (packet.HandlerResult, error) {
	return packet.Used, nil
}

func (s *Session) handleUnimplemented(msgType byte, payload []byte, userData any) (packet.HandlerResult, error) {
	var seq uint32
	if len(payload) >= 4 {
		seq = binary.BigEndian.Uint32(payload)
	}
	logger.Debug("peer does not implement packet", "seq", seq)
	return packet.Used, nil
}

func (s *Session) handleDebug(msgType byte, payload []byte, userData any) (packet.HandlerResult, error) {
	if len(payload) < 5 {
		return packet.Used, nil
	}
	alwaysDisplay := payload[0] != 0
	msgLen := binary.BigEndian.Uint32(payload[1:5])
	if uint32(len(payload)-5) < msgLen {
		return packet.Used, nil
	}
	msg := string(payload[5 : 5+msgLen])
	if alwaysDisplay {
		logger.Info("peer debug message", "msg", msg)
	} else {
		logger.Debug("peer debug message", "msg", msg)
	}
	return packet.Used, nil
}
