package packet

// SessionState is the coarse phase of the connection.
type SessionState int

const (
	StateInitialKex SessionState = iota
	StateKexinitReceived
	StateDH
	StateAuthenticating
	StateAuthenticated
	StateError
)

func (s SessionState) String() string {
	switch s {
	case StateInitialKex:
		return "initial-kex"
	case StateKexinitReceived:
		return "kexinit-received"
	case StateDH:
		return "dh"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// DHState is the key-exchange sub-state.
type DHState int

const (
	DHInit DHState = iota
	DHInitSent
	DHNewkeysSent
	DHFinished
)

// AuthState is the user-authentication sub-state.
type AuthState int

const (
	AuthNoneSent AuthState = iota
	AuthPubkeyOfferSent
	AuthPubkeyAuthSent
	AuthPasswordAuthSent
	AuthKbdintSent
	AuthInfo
	AuthGSSAPIRequestSent
	AuthGSSAPIToken
	AuthGSSAPIMicSent
	AuthSuccess
	AuthFailed
	AuthPartial
	AuthError
)

// AuthServiceState tracks negotiation of the "ssh-userauth" service.
type AuthServiceState int

const (
	AuthServiceNone AuthServiceState = iota
	AuthServiceSent
	AuthServiceAccepted
)

// ReqState tracks a pending global or channel request awaiting a
// SUCCESS/FAILURE reply, per spec.md's GLOBAL_REQUEST/CHANNEL_REQUEST
// filter rows.
type ReqState int

const (
	ReqStateNone ReqState = iota
	ReqStatePending
	ReqStateAccepted
	ReqStateDenied
)

// Role distinguishes client and server ends; several message types
// are only legal from one side (spec.md §4.6).
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// Phase is the session-state oracle the state filter consults. The
// packet layer never owns this value; it is supplied by the caller
// (the session/feature layer) and read fresh on every filter
// invocation, never snapshotted at packet arrival (spec.md §4.6
// "Design rationale").
type Phase struct {
	Session        SessionState
	DH             DHState
	Auth           AuthState
	AuthService    AuthServiceState
	Role           Role
	GlobalReqState ReqState
	// ChannelReqState, keyed by channel-like identifier, lets the
	// filter check CHANNEL_SUCCESS/FAILURE preconditions without the
	// packet layer knowing anything about channel objects. The channel
	// multiplexer (out of scope here) is responsible for keeping this
	// populated; a missing entry is treated as "not pending".
	ChannelReqState func(channelID uint32) ReqState
}

func (p *Phase) channelReqState(id uint32) ReqState {
	if p.ChannelReqState == nil {
		return ReqStateNone
	}
	return p.ChannelReqState(id)
}
