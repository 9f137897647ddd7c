package dpp

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/gowsd/gowsd/internal/wsderr"
)

// AKM is a bitmask of the AKM suites a configuration object's "cred.akm"
// field names. Suites the parser doesn't recognize are ignored, matching
// §4.2.5's "unknown AKMs are ignored" rule; an AKM bitmap that ends up
// empty after that filtering is a parse failure, not an empty-but-valid
// credential.
type AKM uint8

const (
	AKMPSK AKM = 1 << iota
	AKMSAE
)

// akmTokens lists the recognized "+"-joined AKM tokens in the canonical
// encoding order the configuration exchange uses.
var akmTokens = []struct {
	bit   AKM
	token string
}{
	{AKMPSK, "psk"},
	{AKMSAE, "sae"},
}

// parseAKM turns a "+"-joined cred.akm string into a bitmap, dropping any
// token it doesn't recognize.
func parseAKM(s string) AKM {
	var bitmap AKM
	for _, tok := range strings.Split(s, "+") {
		for _, known := range akmTokens {
			if known.token == tok {
				bitmap |= known.bit
			}
		}
	}
	return bitmap
}

// String renders bitmap back to its canonical "+"-joined form, in the
// fixed psk-then-sae order akmTokens defines.
func (a AKM) String() string {
	var parts []string
	for _, known := range akmTokens {
		if a&known.bit != 0 {
			parts = append(parts, known.token)
		}
	}
	return strings.Join(parts, "+")
}

// ConfigObject is the JSON payload a configurator sends an enrollee after a
// successful authentication exchange: the target SSID, the AKM(s) it
// supports, and exactly one credential form.
type ConfigObject struct {
	SSID       string // discovery.ssid, <=32 bytes, valid UTF-8
	AKM        AKM    // cred.akm, parsed from its "+"-joined string
	Passphrase string // cred.pass; mutually exclusive with PSKHex
	PSKHex     string // cred.psk, 64 hex chars (32-byte raw PSK)

	// Extras carried in the iwd-specific "/net/connman/iwd" extension
	// object; both default to false when the object is absent.
	SendHostname bool
	Hidden       bool
}

// configObjectWire is the literal JSON shape ConfigObject marshals to and
// unmarshals from: the discovery/cred nesting §4.2.5 specifies, plus the
// optional iwd extension object, each field in the canonical order the
// encoder is required to emit.
type configObjectWire struct {
	WiFiTech  string `json:"wi-fi_tech"`
	Discovery struct {
		SSID string `json:"ssid"`
	} `json:"discovery"`
	Cred struct {
		AKM  string `json:"akm"`
		Pass string `json:"pass,omitempty"`
		PSK  string `json:"psk,omitempty"`
	} `json:"cred"`
	IWD *iwdExtension `json:"/net/connman/iwd,omitempty"`
}

type iwdExtension struct {
	SendHostname bool `json:"send_hostname,omitempty"`
	Hidden       bool `json:"hidden,omitempty"`
}

// MarshalConfigObject serializes obj into the canonical wire form: mandatory
// wi-fi_tech="infra", discovery.ssid, cred.akm (the "+"-joined bitmap), and
// exactly one of cred.pass/cred.psk, plus the iwd extension object when
// either option is set.
func MarshalConfigObject(obj *ConfigObject) ([]byte, error) {
	const op = "dpp.MarshalConfigObject"
	if err := validateConfigObject(obj); err != nil {
		return nil, err
	}

	var wire configObjectWire
	wire.WiFiTech = "infra"
	wire.Discovery.SSID = obj.SSID
	wire.Cred.AKM = obj.AKM.String()
	wire.Cred.Pass = obj.Passphrase
	wire.Cred.PSK = obj.PSKHex
	if obj.SendHostname || obj.Hidden {
		wire.IWD = &iwdExtension{SendHostname: obj.SendHostname, Hidden: obj.Hidden}
	}

	b, err := json.Marshal(wire)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	return b, nil
}

// ParseConfigObject decodes a configuration object and validates it per
// §4.2.5: the SSID must be valid UTF-8 of at most 32 bytes, the AKM bitmap
// derived from cred.akm (after dropping unrecognized tokens) must be
// nonempty, and exactly one of cred.pass/cred.psk must be present with
// cred.psk being exactly 64 hex characters.
func ParseConfigObject(data []byte) (*ConfigObject, error) {
	const op = "dpp.ParseConfigObject"
	var wire configObjectWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, wsderr.New(wsderr.KindBadMessage, op, err)
	}
	if wire.WiFiTech != "infra" {
		return nil, wsderr.New(wsderr.KindBadMessage, op, nil)
	}

	obj := &ConfigObject{
		SSID:       wire.Discovery.SSID,
		AKM:        parseAKM(wire.Cred.AKM),
		Passphrase: wire.Cred.Pass,
		PSKHex:     wire.Cred.PSK,
	}
	if wire.IWD != nil {
		obj.SendHostname = wire.IWD.SendHostname
		obj.Hidden = wire.IWD.Hidden
	}

	if err := validateConfigObject(obj); err != nil {
		return nil, wsderr.New(wsderr.KindBadMessage, op, err)
	}
	return obj, nil
}

func validateConfigObject(obj *ConfigObject) error {
	const op = "dpp.validateConfigObject"
	if obj.SSID == "" || len(obj.SSID) > 32 || !utf8.ValidString(obj.SSID) {
		return wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	if obj.AKM == 0 {
		return wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	hasPass := obj.Passphrase != ""
	hasPSK := obj.PSKHex != ""
	if hasPass == hasPSK {
		return wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}
	if hasPSK {
		if len(obj.PSKHex) != 64 {
			return wsderr.New(wsderr.KindInvalidArgument, op, nil)
		}
		if _, err := hex.DecodeString(obj.PSKHex); err != nil {
			return wsderr.New(wsderr.KindInvalidArgument, op, err)
		}
	}
	return nil
}
