package packet

import "testing"

func TestFilterAlwaysAllowed(t *testing.T) {
	phase := &Phase{Session: StateInitialKex, DH: DHInit, Role: RoleServer}
	for _, mt := range []int{MsgDisconnect, MsgIgnore, MsgUnimplemented, MsgDebug} {
		if got := filterIncoming(byte(mt), nil, phase); got != FilterAllowed {
			t.Errorf("type %d: got %v, want ALLOWED", mt, got)
		}
	}
}

func TestFilterServiceRequestRequiresServerRole(t *testing.T) {
	phase := &Phase{Session: StateAuthenticating, DH: DHFinished, Role: RoleClient}
	if got := filterIncoming(MsgServiceRequest, nil, phase); got != FilterDenied {
		t.Fatalf("SERVICE_REQUEST as client: got %v, want DENIED", got)
	}
	phase.Role = RoleServer
	if got := filterIncoming(MsgServiceRequest, nil, phase); got != FilterAllowed {
		t.Fatalf("SERVICE_REQUEST as server mid-auth: got %v, want ALLOWED", got)
	}
}

func TestFilterServiceRequestDeniedBeforeDHFinished(t *testing.T) {
	phase := &Phase{Session: StateAuthenticating, DH: DHInit, Role: RoleServer}
	if got := filterIncoming(MsgServiceRequest, nil, phase); got != FilterDenied {
		t.Fatalf("got %v, want DENIED (DH not finished)", got)
	}
}

func TestFilterKexInitAllowedStates(t *testing.T) {
	cases := []struct {
		session SessionState
		dh      DHState
		want    FilterResult
	}{
		{StateInitialKex, DHInit, FilterAllowed},
		{StateAuthenticated, DHFinished, FilterAllowed},
		{StateDH, DHInit, FilterDenied},
		{StateAuthenticating, DHFinished, FilterDenied},
	}
	for _, c := range cases {
		phase := &Phase{Session: c.session, DH: c.dh}
		if got := filterIncoming(MsgKexInit, nil, phase); got != c.want {
			t.Errorf("session=%v dh=%v: got %v, want %v", c.session, c.dh, got, c.want)
		}
	}
}

func TestFilterUserauthSuccessRequiresPendingMethod(t *testing.T) {
	phase := &Phase{Session: StateAuthenticating, DH: DHFinished, Role: RoleClient, Auth: AuthPasswordAuthSent}
	if got := filterIncoming(MsgUserauthSuccess, nil, phase); got != FilterAllowed {
		t.Fatalf("got %v, want ALLOWED with a pending auth method", got)
	}
	phase.Auth = AuthSuccess
	if got := filterIncoming(MsgUserauthSuccess, nil, phase); got != FilterDenied {
		t.Fatalf("got %v, want DENIED once no auth method is pending", got)
	}
}

func TestFilterChannelSuccessConsultsPerChannelState(t *testing.T) {
	pending := map[uint32]ReqState{7: ReqStatePending, 9: ReqStateNone}
	phase := &Phase{
		Session:         StateAuthenticated,
		ChannelReqState: func(id uint32) ReqState { return pending[id] },
	}

	payload := make([]byte, 4)
	putBeUint32(payload, 7)
	if got := filterIncoming(MsgChannelSuccess, payload, phase); got != FilterAllowed {
		t.Fatalf("channel 7 (pending): got %v, want ALLOWED", got)
	}

	putBeUint32(payload, 9)
	if got := filterIncoming(MsgChannelSuccess, payload, phase); got != FilterDenied {
		t.Fatalf("channel 9 (not pending): got %v, want DENIED", got)
	}

	if got := filterIncoming(MsgChannelSuccess, payload[:2], phase); got != FilterDenied {
		t.Fatalf("truncated payload: got %v, want DENIED", got)
	}
}

func TestFilterChannelDataRequiresAuthenticated(t *testing.T) {
	phase := &Phase{Session: StateInitialKex}
	if got := filterIncoming(MsgChannelData, nil, phase); got != FilterDenied {
		t.Fatalf("got %v, want DENIED pre-auth", got)
	}
	phase.Session = StateAuthenticated
	if got := filterIncoming(MsgChannelData, nil, phase); got != FilterAllowed {
		t.Fatalf("got %v, want ALLOWED once authenticated", got)
	}
}

func TestFilterUnknownType(t *testing.T) {
	phase := &Phase{Session: StateAuthenticated}
	if got := filterIncoming(250, nil, phase); got != FilterUnknown {
		t.Fatalf("type 250: got %v, want UNKNOWN", got)
	}
}

func TestFilterDoesNotMutatePhase(t *testing.T) {
	phase := &Phase{Session: StateInitialKex, DH: DHInit, Role: RoleServer}
	session, dh, role := phase.Session, phase.DH, phase.Role
	filterIncoming(MsgServiceRequest, nil, phase)
	if phase.Session != session || phase.DH != dh || phase.Role != role {
		t.Fatalf("filterIncoming mutated phase")
	}
}
