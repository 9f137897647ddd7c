// This file builds and validates the information-element sequences carried
// in FT authentication frames, (re)association frames, and FT-over-DS
// action frames, and checks the Operating Channel Information subelement
// those frames may carry.
package ft

import (
	"bytes"
	"encoding/binary"
	"net"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// AuthRequestParams carries the per-attempt values the authentication
// request's IEs are built from.
type AuthRequestParams struct {
	RSN       bool
	BaseRSNE  *RSNE // the supplicant's own advertised RSNE; nil if RSN is false
	PMKR0Name [16]byte
	MDE       []byte // the 3-byte MDE body copied verbatim from the target BSS
	R0KHID    string
	SNonce    [32]byte
	MICLen    int // width of the FTE's (zeroed) MIC field; 16 or 24
}

// BuildAuthRequestIEs renders the fixed-order IE sequence the FT
// authentication request carries: RSNE (if RSN), MDE, FTE (if RSN) with
// R0KH-ID and SNonce set, MIC zeroed to MICLen bytes, and every other
// field zero.
func BuildAuthRequestIEs(p AuthRequestParams) []byte {
	var buf []byte
	if p.RSN {
		rsne := p.BaseRSNE.WithSinglePMKID(p.PMKR0Name)
		buf = AppendIE(buf, IEIDRSN, rsne.Encode())
	}
	buf = AppendIE(buf, IEIDMDE, p.MDE)
	if p.RSN {
		fte := &FTE{MIC: make([]byte, p.MICLen), Subelems: AppendSubelem(nil, SubelemR0KHID, []byte(p.R0KHID))}
		fte.SNonce = p.SNonce
		buf = AppendIE(buf, IEIDFTE, fte.Encode())
	}
	return buf
}

// AuthResponse is the parsed, validated content of an FT authentication
// response, captured into the handshake once ValidateAuthResponseIEs
// accepts it.
type AuthResponse struct {
	RSNE   *RSNE
	MDE    []byte
	FTE    *FTE
	R1KHID []byte
	ANonce [32]byte
}

// ValidateAuthResponseIEs parses a response's IE run and checks it against
// what the station sent: the RSNE carries exactly one PMKID equal to
// PMK-R0-Name with all other fields matching scanRSNE; MDE is byte-equal
// to mdeSent; the FTE's R0KH-ID and SNonce echo what was sent, it declares
// an R1KH-ID, and (per message-2 framing) its MIC-element-count is 0 with
// a zeroed, micLen-byte MIC field.
func ValidateAuthResponseIEs(buf []byte, scanRSNE *RSNE, pmkR0Name [16]byte, mdeSent []byte, r0khID string, sNonceSent [32]byte, micLen int) (*AuthResponse, error) {
	const op = "ft.ValidateAuthResponseIEs"
	ies, err := IterIEs(buf)
	if err != nil {
		return nil, err
	}

	var resp AuthResponse
	if scanRSNE != nil {
		rsnIE, err := FindIE(ies, IEIDRSN)
		if err != nil {
			return nil, wsderr.New(wsderr.KindRejected, op, err)
		}
		rsne, err := ParseRSNE(rsnIE.Body)
		if err != nil {
			return nil, err
		}
		if !rsne.HasSinglePMKID(pmkR0Name) || !rsne.EqualIgnoringPMKIDs(scanRSNE) {
			return nil, wsderr.New(wsderr.KindRejected, op, nil)
		}
		resp.RSNE = rsne
	}

	mdeIE, err := FindIE(ies, IEIDMDE)
	if err != nil {
		return nil, wsderr.New(wsderr.KindRejected, op, err)
	}
	if !MDEEqual(mdeIE.Body, mdeSent) {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}
	resp.MDE = mdeIE.Body

	if scanRSNE != nil {
		fteIE, err := FindIE(ies, IEIDFTE)
		if err != nil {
			return nil, wsderr.New(wsderr.KindRejected, op, err)
		}
		fte, err := ParseFTE(fteIE.Body, micLen)
		if err != nil {
			return nil, err
		}
		if fte.MICElementCount() != 0 || !bytes.Equal(fte.MIC, make([]byte, micLen)) {
			return nil, wsderr.New(wsderr.KindRejected, op, nil)
		}
		if fte.SNonce != sNonceSent {
			return nil, wsderr.New(wsderr.KindRejected, op, nil)
		}
		gotR0KHID, err := FindSubelem(fte.Subelems, SubelemR0KHID)
		if err != nil || string(gotR0KHID) != r0khID {
			return nil, wsderr.New(wsderr.KindRejected, op, nil)
		}
		r1khID, err := FindSubelem(fte.Subelems, SubelemR1KHID)
		if err != nil {
			return nil, wsderr.New(wsderr.KindRejected, op, nil)
		}
		resp.FTE = fte
		resp.R1KHID = r1khID
		resp.ANonce = fte.ANonce
	}

	return &resp, nil
}

// AssocRequestParams carries the values the reassociation request's MIC
// and IE sequence are built from.
type AssocRequestParams struct {
	SPA       net.HardwareAddr
	AA        net.HardwareAddr
	RSNE      *RSNE
	PMKR1Name [16]byte
	MDE       []byte
	R0KHID    string
	R1KHID    []byte
	ANonce    [32]byte
	SNonce    [32]byte
	OCI       []byte // nil if OCVC is not negotiated
	KCK       []byte
	MICLen    int
}

// BuildAssocRequestIEs renders the RSNE/MDE/FTE sequence for a
// reassociation request and computes the FTE's MIC over
// SPA||AA||seq||RSNE||MDE||FTE(MIC zeroed, OCI subelement included when
// set), seq fixed to MICSeq and MIC-element-count set to 3.
func BuildAssocRequestIEs(p AssocRequestParams) ([]byte, error) {
	const op = "ft.BuildAssocRequestIEs"
	rsne := p.RSNE.WithSinglePMKID(p.PMKR1Name)
	rsneBytes := AppendIE(nil, IEIDRSN, rsne.Encode())
	mdeBytes := AppendIE(nil, IEIDMDE, p.MDE)

	fte := &FTE{MIC: make([]byte, p.MICLen), ANonce: p.ANonce, SNonce: p.SNonce}
	fte.SetMICElementCount(3)
	fte.Subelems = AppendSubelem(fte.Subelems, SubelemR0KHID, []byte(p.R0KHID))
	fte.Subelems = AppendSubelem(fte.Subelems, SubelemR1KHID, p.R1KHID)
	if p.OCI != nil {
		fte.Subelems = AppendSubelem(fte.Subelems, SubelemOCI, p.OCI)
	}

	zeroedFTEBytes := AppendIE(nil, IEIDFTE, fte.WithZeroMIC().Encode())
	micElements := [][]byte{
		p.SPA, p.AA, {MICSeq},
		rsneBytes, mdeBytes, zeroedFTEBytes,
	}
	mic, err := ComputeFTEMIC(p.KCK, p.MICLen, micElements...)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	copy(fte.MIC, mic)

	var buf []byte
	buf = append(buf, rsneBytes...)
	buf = append(buf, mdeBytes...)
	buf = AppendIE(buf, IEIDFTE, fte.Encode())
	return buf, nil
}

// ValidateAssocResponseIEs checks a reassociation response's RSNE, MDE, and
// FTE against the expected handshake state, recomputing the FTE MIC with
// seq = MICSeq and MIC-element-count = 3; a mismatch at any point is
// Rejected. On success it returns the validated FTE so the caller can
// locate and decrypt any GTK/IGTK subelement it carries.
// ociWant is nil when Operating Channel Validation was not negotiated for
// this attempt; when non-nil, the FTE must carry an OCI subelement equal to
// it or the response is Rejected.
func ValidateAssocResponseIEs(buf []byte, spa, aa net.HardwareAddr, scanRSNE *RSNE, pmkR1Name [16]byte, mdeSent []byte, r0khID string, r1khID, kck []byte, micLen int, aNonce, sNonce [32]byte, ociWant *OCIParams) (*FTE, error) {
	const op = "ft.ValidateAssocResponseIEs"
	ies, err := IterIEs(buf)
	if err != nil {
		return nil, err
	}

	rsnIE, err := FindIE(ies, IEIDRSN)
	if err != nil {
		return nil, wsderr.New(wsderr.KindRejected, op, err)
	}
	rsne, err := ParseRSNE(rsnIE.Body)
	if err != nil {
		return nil, err
	}
	if !rsne.HasSinglePMKID(pmkR1Name) || !rsne.EqualIgnoringPMKIDs(scanRSNE) {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}

	mdeIE, err := FindIE(ies, IEIDMDE)
	if err != nil {
		return nil, wsderr.New(wsderr.KindRejected, op, err)
	}
	if !MDEEqual(mdeIE.Body, mdeSent) {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}

	fteIE, err := FindIE(ies, IEIDFTE)
	if err != nil {
		return nil, wsderr.New(wsderr.KindRejected, op, err)
	}
	fte, err := ParseFTE(fteIE.Body, micLen)
	if err != nil {
		return nil, err
	}
	if fte.MICElementCount() != 3 {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}
	if fte.ANonce != aNonce || fte.SNonce != sNonce {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}
	gotR0KHID, err := FindSubelem(fte.Subelems, SubelemR0KHID)
	if err != nil || string(gotR0KHID) != string(r0khID) {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}
	gotR1KHID, err := FindSubelem(fte.Subelems, SubelemR1KHID)
	if err != nil || !bytes.Equal(gotR1KHID, r1khID) {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}

	wantMIC := fte.MIC
	zeroedFTEBytes := AppendIE(nil, IEIDFTE, fte.WithZeroMIC().Encode())
	micElements := [][]byte{
		spa, aa, {MICSeq},
		AppendIE(nil, IEIDRSN, rsnIE.Body), AppendIE(nil, IEIDMDE, mdeIE.Body), zeroedFTEBytes,
	}
	gotMIC, err := ComputeFTEMIC(kck, micLen, micElements...)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	if !bytes.Equal(wantMIC, gotMIC) {
		return nil, wsderr.New(wsderr.KindRejected, op, nil)
	}

	if ociWant != nil {
		gotOCI, err := FindSubelem(fte.Subelems, SubelemOCI)
		if err != nil {
			return nil, wsderr.New(wsderr.KindRejected, op, err)
		}
		if err := ValidateOCI(gotOCI, *ociWant); err != nil {
			return nil, err
		}
	}

	return fte, nil
}

// FT-over-DS action frame category/action codes.
const (
	ActionCategoryFT  = 6
	ActionFTRequest   = 1
	ActionFTResponse  = 2
)

// OverDSFrame is the parsed body of an FT-over-DS action frame, after the
// category/action bytes.
type OverDSFrame struct {
	SPA    net.HardwareAddr
	AA     net.HardwareAddr
	Status uint16
	IEs    []byte
}

// BuildOverDSFrame renders an FT-over-DS action frame body: SPA, AA,
// status, then the IE run.
func BuildOverDSFrame(f OverDSFrame) []byte {
	buf := make([]byte, 0, 6+6+2+len(f.IEs))
	buf = append(buf, f.SPA...)
	buf = append(buf, f.AA...)
	var status [2]byte
	binary.LittleEndian.PutUint16(status[:], f.Status)
	buf = append(buf, status[:]...)
	return append(buf, f.IEs...)
}

// ParseOverDSFrame decodes an FT-over-DS action frame body.
func ParseOverDSFrame(buf []byte) (*OverDSFrame, error) {
	const op = "ft.ParseOverDSFrame"
	if len(buf) < 14 {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	f := &OverDSFrame{
		SPA:    net.HardwareAddr(buf[0:6]),
		AA:     net.HardwareAddr(buf[6:12]),
		Status: binary.LittleEndian.Uint16(buf[12:14]),
		IEs:    buf[14:],
	}
	return f, nil
}

// OCIParams are the operating channel parameters an OCI subelement
// describes: operating class, primary channel number, and (for 160/80+80
// MHz) the segment-1 channel number.
type OCIParams struct {
	OperatingClass byte
	Channel        byte
	Segment1       byte
}

// EncodeOCI renders an OCI subelement body.
func EncodeOCI(p OCIParams) []byte {
	return []byte{p.OperatingClass, p.Channel, p.Segment1}
}

// ValidateOCI checks a received OCI subelement body against the current
// operating channel; any field mismatch is a fatal protocol error
// (Rejected), per the Operating Channel Validation requirement.
func ValidateOCI(got []byte, want OCIParams) error {
	const op = "ft.ValidateOCI"
	if len(got) != 3 {
		return wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	if got[0] != want.OperatingClass || got[1] != want.Channel || got[2] != want.Segment1 {
		return wsderr.New(wsderr.KindRejected, op, nil)
	}
	return nil
}
