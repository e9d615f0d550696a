package packet

import (
	"bytes"
	"testing"
)

// FuzzFeedNoCrypto throws arbitrary byte strings at Feed with no
// crypto active; it must never panic, and any fatal kind it reports
// must drive the session into StateError (never leave it ambiguous).
func FuzzFeedNoCrypto(f *testing.F) {
	f.Add(ignorePacket(MsgIgnore))
	f.Add(ignorePacket(0xFA))
	f.Add([]byte{0, 0, 0, 0, 0})
	f.Add(append(ignorePacket(MsgIgnore), ignorePacket(MsgIgnore)...))

	f.Fuzz(func(t *testing.T, data []byte) {
		var conn bytes.Buffer
		phase := &Phase{Session: StateAuthenticated, Role: RoleServer}
		l := NewLayer(Config{}, &conn, phase)
		l.RegisterHandlerTable(1, []HandlerFunc{
			nil,
			func(msgType byte, payload []byte, userData any) (HandlerResult, error) {
				return Used, nil
			},
		}, nil)

		n, err := l.Feed(data)
		if n < 0 || n > len(data) {
			t.Fatalf("Feed returned consumed=%d out of range for len(data)=%d", n, len(data))
		}
		if err != nil && l.phase.Session != StateError {
			t.Fatalf("Feed returned an error but session state is %v, not StateError", l.phase.Session)
		}
	})
}
