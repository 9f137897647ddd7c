package dpp

import (
	"errors"
	"strings"
	"testing"

	"github.com/gowsd/gowsd/internal/wsderr"
)

func TestConfigObjectRoundTrip(t *testing.T) {
	obj := &ConfigObject{
		SSID:       "example-ap",
		AKM:        AKMPSK,
		Passphrase: "correct horse battery staple",
	}

	data, err := MarshalConfigObject(obj)
	if err != nil {
		t.Fatalf("MarshalConfigObject: %v", err)
	}
	if !strings.Contains(string(data), `"wi-fi_tech":"infra"`) {
		t.Fatalf("marshaled object missing wi-fi_tech: %s", data)
	}

	got, err := ParseConfigObject(data)
	if err != nil {
		t.Fatalf("ParseConfigObject: %v", err)
	}
	if got.SSID != "example-ap" || got.AKM != AKMPSK || got.Passphrase != obj.Passphrase {
		t.Fatalf("got = %+v", got)
	}
}

func TestConfigObjectPSKHexRoundTrip(t *testing.T) {
	obj := &ConfigObject{
		SSID:   "example-ap",
		AKM:    AKMPSK | AKMSAE,
		PSKHex: strings.Repeat("ab", 32),
	}

	data, err := MarshalConfigObject(obj)
	if err != nil {
		t.Fatalf("MarshalConfigObject: %v", err)
	}

	got, err := ParseConfigObject(data)
	if err != nil {
		t.Fatalf("ParseConfigObject: %v", err)
	}
	if got.AKM != AKMPSK|AKMSAE || got.PSKHex != obj.PSKHex {
		t.Fatalf("got = %+v", got)
	}
}

func TestConfigObjectUnknownAKMIgnored(t *testing.T) {
	got, err := ParseConfigObject([]byte(`{"wi-fi_tech":"infra","discovery":{"ssid":"x"},"cred":{"akm":"psk+dpp","pass":"secret"}}`))
	if err != nil {
		t.Fatalf("ParseConfigObject: %v", err)
	}
	if got.AKM != AKMPSK {
		t.Fatalf("AKM = %v, want AKMPSK (dpp token ignored)", got.AKM)
	}
}

func TestConfigObjectIWDExtension(t *testing.T) {
	obj := &ConfigObject{
		SSID:         "example-ap",
		AKM:          AKMPSK,
		Passphrase:   "correct horse battery staple",
		SendHostname: true,
		Hidden:       true,
	}

	data, err := MarshalConfigObject(obj)
	if err != nil {
		t.Fatalf("MarshalConfigObject: %v", err)
	}

	got, err := ParseConfigObject(data)
	if err != nil {
		t.Fatalf("ParseConfigObject: %v", err)
	}
	if !got.SendHostname || !got.Hidden {
		t.Fatalf("got = %+v", got)
	}
}

func TestParseConfigObjectRejectsEmptyAKM(t *testing.T) {
	_, err := ParseConfigObject([]byte(`{"wi-fi_tech":"infra","discovery":{"ssid":"x"},"cred":{"akm":"","pass":"secret"}}`))
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestParseConfigObjectRejectsUnrecognizedAKM(t *testing.T) {
	_, err := ParseConfigObject([]byte(`{"wi-fi_tech":"infra","discovery":{"ssid":"x"},"cred":{"akm":"dpp","pass":"secret"}}`))
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestParseConfigObjectRejectsBothCredentials(t *testing.T) {
	_, err := ParseConfigObject([]byte(`{"wi-fi_tech":"infra","discovery":{"ssid":"x"},"cred":{"akm":"psk","pass":"secret","psk":"` + strings.Repeat("ab", 32) + `"}}`))
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestParseConfigObjectRejectsNoCredential(t *testing.T) {
	_, err := ParseConfigObject([]byte(`{"wi-fi_tech":"infra","discovery":{"ssid":"x"},"cred":{"akm":"psk"}}`))
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestParseConfigObjectRejectsShortPSKHex(t *testing.T) {
	_, err := ParseConfigObject([]byte(`{"wi-fi_tech":"infra","discovery":{"ssid":"x"},"cred":{"akm":"psk","psk":"abcd"}}`))
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestParseConfigObjectRejectsOversizeSSID(t *testing.T) {
	longSSID := strings.Repeat("a", 33)
	_, err := ParseConfigObject([]byte(`{"wi-fi_tech":"infra","discovery":{"ssid":"` + longSSID + `"},"cred":{"akm":"psk","pass":"secret"}}`))
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestParseConfigObjectRejectsInvalidJSON(t *testing.T) {
	_, err := ParseConfigObject([]byte(`not json`))
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestParseConfigObjectRejectsWrongTech(t *testing.T) {
	_, err := ParseConfigObject([]byte(`{"wi-fi_tech":"mesh","discovery":{"ssid":"x"},"cred":{"akm":"psk","pass":"secret"}}`))
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage for non-infra wi-fi_tech", err)
	}
}
