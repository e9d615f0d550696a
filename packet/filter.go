package packet

import "encoding/binary"

// FilterResult is the outcome of applying the incoming state filter
// to a parsed packet type, per spec.md §4.6.
type FilterResult int

const (
	FilterAllowed FilterResult = iota
	FilterDenied
	FilterUnknown
)

func (r FilterResult) String() string {
	switch r {
	case FilterAllowed:
		return "ALLOWED"
	case FilterDenied:
		return "DENIED"
	case FilterUnknown:
		return "UNKNOWN"
	default:
		return "?"
	}
}

// filterIncoming maps (type, phase) to {ALLOWED, DENIED, UNKNOWN}.
// It is a pure function: it never mutates phase, matching spec.md's
// invariant that the filter consults current state but does not own
// transitions (those belong to the feature layer that reacts to an
// ALLOWED packet).
//
// payload is only consulted for CHANNEL_SUCCESS/CHANNEL_FAILURE,
// which need the target channel's pending-request state; it may be
// nil for every other message type.
func filterIncoming(msgType byte, payload []byte, phase *Phase) FilterResult {
	switch int(msgType) {
	case MsgDisconnect, MsgIgnore, MsgUnimplemented, MsgDebug:
		return FilterAllowed

	case MsgServiceRequest:
		if phase.Role != RoleServer {
			return FilterDenied
		}
		if !inAuth(phase.Session) || phase.DH != DHFinished {
			return FilterDenied
		}
		return FilterAllowed

	case MsgServiceAccept:
		if !inAuth(phase.Session) || phase.DH != DHFinished {
			return FilterDenied
		}
		if phase.AuthService != AuthServiceSent {
			return FilterDenied
		}
		return FilterAllowed

	case MsgExtInfo:
		if phase.Session != StateAuthenticating || phase.DH != DHFinished {
			return FilterDenied
		}
		return FilterAllowed

	case MsgKexInit:
		if phase.Session != StateAuthenticated && phase.Session != StateInitialKex {
			return FilterDenied
		}
		if phase.DH != DHInit && phase.DH != DHFinished {
			return FilterDenied
		}
		return FilterAllowed

	case MsgNewKeys:
		if phase.Session != StateDH {
			return FilterDenied
		}
		if phase.DH != DHNewkeysSent {
			return FilterDenied
		}
		return FilterAllowed

	case MsgKexDHInit:
		if phase.Role != RoleServer {
			return FilterDenied
		}
		if phase.Session != StateDH || phase.DH != DHInit {
			return FilterDenied
		}
		return FilterAllowed

	case MsgKexDHReply:
		if phase.Session != StateDH || phase.DH != DHInitSent {
			return FilterDenied
		}
		return FilterAllowed

	case MsgKexDHGexInit, MsgKexDHGexReply, MsgKexDHGexRequest:
		// Not filtered in the source; see spec.md §9 open question.
		return FilterAllowed

	case MsgUserauthRequest:
		if phase.Role != RoleServer {
			return FilterDenied
		}
		if phase.DH != DHFinished || phase.Session != StateAuthenticating {
			return FilterDenied
		}
		return FilterAllowed

	case MsgUserauthFailure:
		if phase.Role != RoleClient {
			return FilterDenied
		}
		if phase.DH != DHFinished || phase.Session != StateAuthenticating {
			return FilterDenied
		}
		return FilterAllowed

	case MsgUserauthSuccess:
		if phase.Role != RoleClient {
			return FilterDenied
		}
		if phase.DH != DHFinished || phase.Session != StateAuthenticating {
			return FilterDenied
		}
		switch phase.Auth {
		case AuthKbdintSent, AuthPubkeyAuthSent, AuthPasswordAuthSent, AuthGSSAPIMicSent, AuthNoneSent:
			return FilterAllowed
		default:
			return FilterDenied
		}

	case MsgUserauthBanner:
		if phase.Session != StateAuthenticating {
			return FilterDenied
		}
		return FilterAllowed

	case MsgUserauthPKOK:
		if phase.Session != StateAuthenticating {
			return FilterDenied
		}
		switch phase.Auth {
		case AuthKbdintSent, AuthPubkeyOfferSent, AuthGSSAPIRequestSent:
			return FilterAllowed
		default:
			return FilterDenied
		}

	case MsgUserauthInfoResponse:
		if phase.Session != StateAuthenticating {
			return FilterDenied
		}
		switch phase.Auth {
		case AuthInfo, AuthGSSAPIToken:
			return FilterAllowed
		default:
			return FilterDenied
		}

	case MsgUserauthGSSAPIExchangeComplete, MsgUserauthGSSAPIError, MsgUserauthGSSAPIErrtok:
		// Not filtered in the source; see spec.md §9 open question.
		return FilterAllowed

	case MsgUserauthGSSAPIMic:
		if phase.Role != RoleServer {
			return FilterDenied
		}
		if phase.DH != DHFinished || phase.Session != StateAuthenticating {
			return FilterDenied
		}
		return FilterAllowed

	case MsgGlobalRequest:
		if phase.Session != StateAuthenticated {
			return FilterDenied
		}
		return FilterAllowed

	case MsgRequestSuccess, MsgRequestFailure:
		if phase.Session != StateAuthenticated {
			return FilterDenied
		}
		if phase.GlobalReqState != ReqStatePending {
			return FilterDenied
		}
		return FilterAllowed

	case MsgChannelOpen, MsgChannelOpenConfirmation, MsgChannelOpenFailure,
		MsgChannelWindowAdjust, MsgChannelData, MsgChannelExtendedData,
		MsgChannelEOF, MsgChannelClose, MsgChannelRequest:
		if phase.Session != StateAuthenticated {
			return FilterDenied
		}
		return FilterAllowed

	case MsgChannelSuccess, MsgChannelFailure:
		if phase.Session != StateAuthenticated {
			return FilterDenied
		}
		if len(payload) < 4 {
			return FilterDenied
		}
		id := binary.BigEndian.Uint32(payload[:4])
		if phase.channelReqState(id) != ReqStatePending {
			return FilterDenied
		}
		return FilterAllowed

	default:
		return FilterUnknown
	}
}

func inAuth(s SessionState) bool {
	return s == StateAuthenticating || s == StateAuthenticated
}
