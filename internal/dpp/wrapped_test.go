package dpp

import (
	"errors"
	"testing"

	"github.com/gowsd/gowsd/internal/wsderr"
)

func testWrapKey() []byte {
	return make([]byte, 32) // zero key is fine for a round-trip test
}

func TestAppendUnwrapRoundTrip(t *testing.T) {
	key := testWrapKey()
	hdr := []byte{0x01, 0x02}

	var plain []byte
	plain = AppendAttr(plain, AttrInitiatorNonce, []byte{1, 2, 3, 4})

	var buf []byte
	buf, err := AppendWrappedData(buf, hdr, nil, key, plain)
	if err != nil {
		t.Fatalf("AppendWrappedData: %v", err)
	}

	attrs, err := IterAttrs(buf)
	if err != nil {
		t.Fatalf("IterAttrs: %v", err)
	}
	wrapped, err := Find(attrs, AttrWrappedData)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	got, err := UnwrapData(wrapped.Data, hdr, nil, key)
	if err != nil {
		t.Fatalf("UnwrapData: %v", err)
	}
	if len(got) != 1 || got[0].ID != AttrInitiatorNonce {
		t.Fatalf("got = %+v", got)
	}
}

func TestUnwrapDataRejectsWrongHeader(t *testing.T) {
	key := testWrapKey()
	var plain []byte
	plain = AppendAttr(plain, AttrInitiatorNonce, []byte{1, 2, 3, 4})

	var buf []byte
	buf, err := AppendWrappedData(buf, []byte{0x01}, nil, key, plain)
	if err != nil {
		t.Fatalf("AppendWrappedData: %v", err)
	}
	attrs, _ := IterAttrs(buf)
	wrapped, _ := Find(attrs, AttrWrappedData)

	_, err = UnwrapData(wrapped.Data, []byte{0x02}, nil, key)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestUnwrapDataRejectsWrongSecondChunk(t *testing.T) {
	key := testWrapKey()
	var plain []byte
	plain = AppendAttr(plain, AttrInitiatorNonce, []byte{1, 2, 3, 4})

	var buf []byte
	buf, err := AppendWrappedData(buf, []byte{0x01}, []byte{0xaa}, key, plain)
	if err != nil {
		t.Fatalf("AppendWrappedData: %v", err)
	}
	attrs, _ := IterAttrs(buf)
	wrapped, _ := Find(attrs, AttrWrappedData)

	_, err = UnwrapData(wrapped.Data, []byte{0x01}, []byte{0xbb}, key)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindBadMessage {
		t.Fatalf("err = %v, want KindBadMessage", err)
	}
}

func TestAppendWrappedDataRejectsEmptyPlaintext(t *testing.T) {
	_, err := AppendWrappedData(nil, nil, nil, testWrapKey(), nil)
	var werr *wsderr.Error
	if !errors.As(err, &werr) || werr.Kind != wsderr.KindInvalidArgument {
		t.Fatalf("err = %v, want KindInvalidArgument", err)
	}
}
