// Package dpp implements the Wi-Fi Easy Connect (Device Provisioning
// Protocol) bootstrap, authentication, and configuration exchange: URI
// parsing/generation, PKEX, the authentication key schedule, wrapped-data
// attribute encryption, and JSON configuration-object exchange.
package dpp

import (
	"encoding/base64"
	"net"
	"strconv"
	"strings"

	"github.com/gowsd/gowsd/internal/eccutil"
	"github.com/gowsd/gowsd/internal/wsderr"
)

// Channel identifies one operating-class/channel pair parsed out of a
// bootstrapping URI's "C:" token.
type Channel struct {
	OperatingClass uint8
	Channel        uint8
}

// URIInfo is the decoded form of a "DPP:" bootstrapping URI (RFC-6763-style
// key/value token list, each token terminated by ';').
type URIInfo struct {
	Version   uint8
	MAC       net.HardwareAddr
	Channels  []Channel
	// Frequencies carries each channel's center frequency in MHz, in
	// Channels order, resolved through the operating-class table.
	Frequencies []uint32
	Info        string // I: free-form human-readable information
	Host        string // H: optional host/contact hint
	PublicKey   []byte // K: ASN.1 DER SubjectPublicKeyInfo, base64-decoded
}

const uriPrefix = "DPP:"

// ParseURI decodes a bootstrapping URI of the form
// "DPP:C:<channels>;M:<mac>;I:<info>;H:<host>;V:<version>;K:<pubkey>;;"
// tokens may appear in any order; all but K: are optional. A token whose
// value cannot be decoded into its expected shape is InvalidArgument; a
// string that doesn't start with the DPP: scheme, or doesn't end with the
// required ";;" terminator, is BadMessage.
func ParseURI(uri string) (*URIInfo, error) {
	const op = "dpp.ParseURI"

	if !strings.HasPrefix(uri, uriPrefix) {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	body := strings.TrimPrefix(uri, uriPrefix)
	if !strings.HasSuffix(body, ";;") {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}
	body = strings.TrimSuffix(body, ";;")

	info := &URIInfo{}
	seenKey := false

	for _, tok := range splitTokens(body) {
		// An empty token means the body carried more ';' than the single
		// mandatory terminator already trimmed above -- either a bare
		// "X:;" (empty token value) or trailing ";;;" and beyond. Both are
		// grammar violations, not tokens to skip.
		if tok == "" {
			return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
		}
		sep := strings.IndexByte(tok, ':')
		if sep < 0 {
			return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
		}
		key, val := tok[:sep], tok[sep+1:]
		if val == "" {
			return nil, wsderr.New(wsderr.KindInvalidArgument, op, errEmptyToken{key})
		}

		var err error
		switch key {
		case "V":
			err = parseVersion(info, val)
		case "M":
			err = parseMAC(info, val)
		case "C":
			err = parseClassAndChannel(info, val)
		case "I":
			info.Info = val
		case "H":
			info.Host = val
		case "K":
			err = parseKey(info, val)
			seenKey = seenKey || err == nil
		default:
			// Unknown tokens are forward-compatibility placeholders; a
			// future attribute the peer understands and we don't.
		}
		if err != nil {
			return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
		}
	}

	if !seenKey {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	return info, nil
}

// splitTokens splits body on ';' while respecting that a "C:" token's
// channel list is itself comma/plus separated and never contains ';'.
func splitTokens(body string) []string {
	return strings.Split(body, ";")
}

func parseVersion(info *URIInfo, val string) error {
	n, err := strconv.ParseUint(val, 10, 8)
	if err != nil {
		return err
	}
	if n != 1 && n != 2 {
		return errBadVersion{}
	}
	info.Version = uint8(n)
	return nil
}

type errBadVersion struct{}

func (errBadVersion) Error() string { return "dpp: V: token must be 1 or 2" }

func parseMAC(info *URIInfo, val string) error {
	if len(val) != 12 {
		return errBadMAC{}
	}
	raw, err := parseHexNoColons(val)
	if err != nil {
		return err
	}
	// Only a unicast, nonzero address can identify a peer station.
	if raw[0]&0x01 != 0 {
		return errBadMAC{}
	}
	var nonzero bool
	for _, o := range raw {
		nonzero = nonzero || o != 0
	}
	if !nonzero {
		return errBadMAC{}
	}
	info.MAC = net.HardwareAddr(raw)
	return nil
}

type errBadMAC struct{}

func (errBadMAC) Error() string { return "dpp: M: token must be 12 hex digits" }

type errEmptyToken struct{ key string }

func (e errEmptyToken) Error() string { return "dpp: " + e.key + ": token value must be non-empty" }

func parseHexNoColons(s string) ([]byte, error) {
	out := make([]byte, len(s)/2)
	for i := range out {
		v, err := strconv.ParseUint(s[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, err
		}
		out[i] = byte(v)
	}
	return out, nil
}

// parseClassAndChannel parses a "C:" token's comma-separated list of
// "<class>/<channel>" pairs.
func parseClassAndChannel(info *URIInfo, val string) error {
	for _, pair := range strings.Split(val, ",") {
		slash := strings.IndexByte(pair, '/')
		if slash < 0 {
			return errBadChannel{}
		}
		class, err := strconv.ParseUint(pair[:slash], 10, 8)
		if err != nil {
			return err
		}
		ch, err := strconv.ParseUint(pair[slash+1:], 10, 8)
		if err != nil {
			return err
		}
		freq, err := ChannelToFrequency(uint8(class), uint8(ch))
		if err != nil {
			return err
		}
		info.Channels = append(info.Channels, Channel{OperatingClass: uint8(class), Channel: uint8(ch)})
		info.Frequencies = append(info.Frequencies, freq)
	}
	return nil
}

type errBadChannel struct{}

func (errBadChannel) Error() string { return "dpp: C: token must be <class>/<channel> pairs" }

func parseKey(info *URIInfo, val string) error {
	der, err := base64.StdEncoding.DecodeString(val)
	if err != nil {
		return err
	}
	if _, _, _, err := eccutil.ParseSPKI(der); err != nil {
		return err
	}
	info.PublicKey = der
	return nil
}

// GenerateURI renders info back into a "DPP:" bootstrapping URI, emitting
// tokens in the canonical V/C/M/I/H/K order and terminating with ";;" as the
// reference grammar requires.
func GenerateURI(info *URIInfo) (string, error) {
	const op = "dpp.GenerateURI"
	if len(info.PublicKey) == 0 {
		return "", wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}

	var b strings.Builder
	b.WriteString(uriPrefix)

	if info.Version != 0 {
		b.WriteString("V:")
		b.WriteString(strconv.Itoa(int(info.Version)))
		b.WriteByte(';')
	}
	if len(info.Channels) > 0 {
		b.WriteString("C:")
		for i, c := range info.Channels {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(int(c.OperatingClass)))
			b.WriteByte('/')
			b.WriteString(strconv.Itoa(int(c.Channel)))
		}
		b.WriteByte(';')
	}
	if info.MAC != nil {
		b.WriteString("M:")
		for _, o := range info.MAC {
			b.WriteString(strconv.FormatUint(uint64(o>>4), 16))
			b.WriteString(strconv.FormatUint(uint64(o&0xf), 16))
		}
		b.WriteByte(';')
	}
	if info.Info != "" {
		b.WriteString("I:")
		b.WriteString(info.Info)
		b.WriteByte(';')
	}
	if info.Host != "" {
		b.WriteString("H:")
		b.WriteString(info.Host)
		b.WriteByte(';')
	}
	b.WriteString("K:")
	b.WriteString(base64.StdEncoding.EncodeToString(info.PublicKey))
	b.WriteString(";;")

	return b.String(), nil
}
