package ft

import (
	"net"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// attemptKey identifies one pending roaming attempt by transmitting
// interface and target AP address, mirroring the reference implementation's
// (ifindex, aa) lookup key for its process-wide pending-attempts list.
type attemptKey struct {
	ifindex int
	aa      string
}

// Engine owns the set of in-progress FT roaming attempts for one station
// process. It is not safe for concurrent use without external
// serialization: callers are expected to run it from a single event loop,
// the same cooperative model the rest of this tree's netlink-driven state
// machines use.
type Engine struct {
	attempts map[attemptKey]*Attempt
}

// NewEngine returns an Engine with no pending attempts.
func NewEngine() *Engine {
	return &Engine{attempts: make(map[attemptKey]*Attempt)}
}

func key(ifindex int, aa net.HardwareAddr) attemptKey {
	return attemptKey{ifindex: ifindex, aa: string(aa)}
}

// Begin registers a new pending attempt for (ifindex, aa), transitioning it
// to StateInit. AlreadyPresent is returned if an attempt for the same key
// is already tracked.
func (e *Engine) Begin(ifindex int, aa net.HardwareAddr) (*Attempt, error) {
	const op = "ft.Engine.Begin"
	k := key(ifindex, aa)
	if _, ok := e.attempts[k]; ok {
		return nil, wsderr.New(wsderr.KindAlreadyPresent, op, nil)
	}
	a := &Attempt{Ifindex: ifindex, AA: aa, State: StateInit}
	e.attempts[k] = a
	return a, nil
}

// Lookup returns the pending attempt for (ifindex, aa), or NotFound.
func (e *Engine) Lookup(ifindex int, aa net.HardwareAddr) (*Attempt, error) {
	const op = "ft.Engine.Lookup"
	a, ok := e.attempts[key(ifindex, aa)]
	if !ok {
		return nil, wsderr.New(wsderr.KindNotFound, op, nil)
	}
	return a, nil
}

// Snapshot returns every pending attempt currently tracked, in no
// particular order; used by the control surface's status listing.
func (e *Engine) Snapshot() []*Attempt {
	out := make([]*Attempt, 0, len(e.attempts))
	for _, a := range e.attempts {
		out = append(out, a)
	}
	return out
}

// Remove drops the attempt for (ifindex, aa), whatever its state; used on
// success, timeout, or rejection to bound the pending set.
func (e *Engine) Remove(ifindex int, aa net.HardwareAddr) {
	delete(e.attempts, key(ifindex, aa))
}

// Advance validates that attempt is currently in from and moves it to to,
// rejecting any other transition as InvalidArgument -- this is the
// serialization point that keeps the state machine from processing a
// response out of order (e.g. an association response arriving before the
// authentication response it depends on).
func Advance(a *Attempt, from, to State) error {
	const op = "ft.Advance"
	if a.State != from {
		return wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	a.State = to
	return nil
}

// ValidateAuthResp checks an FT authentication response's MDE against what
// the station sent in its request (mdeSent), and the SNonce echoed in its
// FTE against the station's own. The RSNE is not checked here. A mismatched MDE
// (comparing full element bodies via MDEEqual, not just the first byte) or
// a returned SNonce that doesn't match the one the station generated for
// this attempt is Rejected -- a spoofed or cross-attempt response.
func ValidateAuthResp(a *Attempt, mdeSent, mdeGot, sNonceGot []byte) error {
	const op = "ft.ValidateAuthResp"
	if !MDEEqual(mdeSent, mdeGot) {
		return wsderr.New(wsderr.KindRejected, op, nil)
	}
	if string(sNonceGot) != string(a.SNonce) {
		return wsderr.New(wsderr.KindRejected, op, nil)
	}
	return nil
}

func to32(b []byte) [32]byte {
	var out [32]byte
	copy(out[:], b)
	return out
}

// BuildAuthRequest renders attempt's FT authentication request IEs from its
// target-BSS context (RSNE, MDE, PMK-R0 identity) and advances it from
// StateInit to StateSentAuthReq.
func (e *Engine) BuildAuthRequest(a *Attempt) ([]byte, error) {
	if err := Advance(a, StateInit, StateSentAuthReq); err != nil {
		return nil, err
	}
	return BuildAuthRequestIEs(AuthRequestParams{
		RSN:       a.RSNE != nil,
		BaseRSNE:  a.RSNE,
		PMKR0Name: a.PMKR0Name,
		MDE:       a.MDE,
		R0KHID:    a.R0KHID,
		SNonce:    to32(a.SNonce),
		MICLen:    a.MICLen,
	}), nil
}

// ValidateAuthResponse parses and validates an FT authentication response
// against attempt, capturing the target's ANonce and R1KH-ID on success and
// advancing attempt to StateGotAuthResp. Any validation failure moves
// attempt to StateRejected instead.
func (e *Engine) ValidateAuthResponse(a *Attempt, buf []byte) (*AuthResponse, error) {
	const op = "ft.Engine.ValidateAuthResponse"
	if a.State != StateSentAuthReq {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	resp, err := ValidateAuthResponseIEs(buf, a.RSNE, a.PMKR0Name, a.MDE, a.R0KHID, to32(a.SNonce), a.MICLen)
	if err != nil {
		a.State = StateRejected
		return nil, err
	}
	if resp.FTE != nil {
		if err := ValidateAuthResp(a, a.MDE, resp.MDE, resp.FTE.SNonce[:]); err != nil {
			a.State = StateRejected
			return nil, err
		}
		a.ANonce = append([]byte(nil), resp.ANonce[:]...)
		a.R1KH = append([]byte(nil), resp.R1KHID...)
	}
	a.State = StateGotAuthResp
	return resp, nil
}

// BuildAssocRequest renders attempt's reassociation request IEs -- PMK-R1
// identity, OCI subelement if OCI is set, and the FTE MIC over the whole
// sequence -- once the authentication exchange has completed.
func (e *Engine) BuildAssocRequest(a *Attempt) ([]byte, error) {
	const op = "ft.Engine.BuildAssocRequest"
	if a.State != StateGotAuthResp {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	var oci []byte
	if a.OCI != nil {
		oci = EncodeOCI(*a.OCI)
	}
	return BuildAssocRequestIEs(AssocRequestParams{
		SPA:       a.SPA,
		AA:        a.AA,
		RSNE:      a.RSNE,
		PMKR1Name: a.PMKR1Name,
		MDE:       a.MDE,
		R0KHID:    a.R0KHID,
		R1KHID:    a.R1KH,
		ANonce:    to32(a.ANonce),
		SNonce:    to32(a.SNonce),
		OCI:       oci,
		KCK:       a.KCK,
		MICLen:    a.MICLen,
	})
}

// ValidateAssocResponse validates a reassociation response's FTE MIC and (if
// attempt.OCI is set) its OCI subelement, advancing attempt to
// StateHandshakeReady on success or StateRejected on any mismatch.
func (e *Engine) ValidateAssocResponse(a *Attempt, buf []byte) (*FTE, error) {
	const op = "ft.Engine.ValidateAssocResponse"
	if a.State != StateGotAuthResp {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	fte, err := ValidateAssocResponseIEs(buf, a.SPA, a.AA, a.RSNE, a.PMKR1Name, a.MDE, a.R0KHID, a.R1KH, a.KCK, a.MICLen, to32(a.ANonce), to32(a.SNonce), a.OCI)
	if err != nil {
		a.State = StateRejected
		return nil, err
	}
	if err := Advance(a, StateGotAuthResp, StateHandshakeReady); err != nil {
		return nil, err
	}
	return fte, nil
}
