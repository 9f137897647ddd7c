package dpp

import (
	"github.com/gowsd/gowsd/internal/aessiv"
	"github.com/gowsd/gowsd/internal/wsderr"
)

// AppendWrappedData seals plaintextAttrs (an already-built TLV stream of the
// attributes that must be confidentiality- and integrity-protected) under
// key, associating ad0 and ad1 as additional authenticated data (their
// content is caller-defined per frame type -- typically ad0 is the
// attributes already written ahead of the wrapped-data attribute in the
// frame, and ad1 is empty except where a specific DPP frame type calls for
// a second chunk), and appends the resulting AttrWrappedData TLV to buf.
// Either ad0 or ad1 may be nil.
//
// The reference implementation silently no-ops when the caller's output
// buffer is too small to hold the sealed blob; that's a latent
// out-of-bounds-write trap in C and has no equivalent in Go, where append
// always grows buf as needed. It's kept observable here only in the sense
// that a zero-length key or plaintext is rejected explicitly rather than
// producing an attribute nobody could ever unwrap.
func AppendWrappedData(buf []byte, ad0, ad1 []byte, key []byte, plaintextAttrs []byte) ([]byte, error) {
	const op = "dpp.AppendWrappedData"
	if len(key) == 0 || len(plaintextAttrs) == 0 {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, nil)
	}

	sealed, err := aessiv.Seal(key, adChunks(ad0, ad1), plaintextAttrs)
	if err != nil {
		return nil, wsderr.New(wsderr.KindInvalidArgument, op, err)
	}
	return AppendAttr(buf, AttrWrappedData, sealed), nil
}

// adChunks assembles the S2V associated-data vector: an absent chunk is
// omitted entirely rather than fed as a zero-length string, since S2V
// distinguishes the two.
func adChunks(ad0, ad1 []byte) [][]byte {
	var ads [][]byte
	if ad0 != nil {
		ads = append(ads, ad0)
	}
	if ad1 != nil {
		ads = append(ads, ad1)
	}
	return ads
}

// UnwrapData opens an AttrWrappedData value under key, validating it
// against the same ad0/ad1 associated data the sender used, and parses the
// recovered plaintext as a nested TLV attribute stream.
func UnwrapData(wrapped []byte, ad0, ad1 []byte, key []byte) ([]Attribute, error) {
	const op = "dpp.UnwrapData"
	pt, err := aessiv.Open(key, adChunks(ad0, ad1), wrapped)
	if err != nil {
		return nil, wsderr.New(wsderr.KindBadMessage, op, err)
	}
	attrs, err := IterAttrs(pt)
	if err != nil {
		return nil, wsderr.New(wsderr.KindBadMessage, op, err)
	}
	return attrs, nil
}
