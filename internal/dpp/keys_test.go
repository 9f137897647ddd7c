package dpp

import (
	"bytes"
	"crypto/elliptic"
	"math/big"
	"testing"

	"github.com/gowsd/gowsd/internal/eccutil"
)

func TestDeriveK1K2Length(t *testing.T) {
	curve := elliptic.P256()
	mx := bytes.Repeat([]byte{0xAA}, 32)
	nx := bytes.Repeat([]byte{0xBB}, 32)

	ks := DeriveK1K2(curve, mx, nx)
	if len(ks.K1) != 32 || len(ks.K2) != 32 {
		t.Fatalf("K1/K2 lengths = %d/%d, want 32/32", len(ks.K1), len(ks.K2))
	}
	if bytes.Equal(ks.K1, ks.K2) {
		t.Fatal("K1 and K2 must differ for different ikm")
	}
}

func TestDeriveK1K2Deterministic(t *testing.T) {
	curve := elliptic.P256()
	mx := bytes.Repeat([]byte{0xAA}, 32)
	nx := bytes.Repeat([]byte{0xBB}, 32)

	a := DeriveK1K2(curve, mx, nx)
	b := DeriveK1K2(curve, mx, nx)
	if !bytes.Equal(a.K1, b.K1) || !bytes.Equal(a.K2, b.K2) {
		t.Fatal("key derivation must be deterministic")
	}
}

func TestDeriveKeDiffersByNonce(t *testing.T) {
	curve := elliptic.P256()
	ikm := bytes.Repeat([]byte{0x11}, 32)

	a := DeriveKe(curve, bytes.Repeat([]byte{1}, 16), bytes.Repeat([]byte{2}, 16), ikm)
	b := DeriveKe(curve, bytes.Repeat([]byte{3}, 16), bytes.Repeat([]byte{2}, 16), ikm)
	if bytes.Equal(a, b) {
		t.Fatal("ke must depend on the initiator nonce")
	}
}

func TestAuthTagDiffersByComponent(t *testing.T) {
	curve := elliptic.P256()

	a := AuthTag(curve, []byte("i-nonce"), []byte("r-nonce"), []byte{0x00})
	b := AuthTag(curve, []byte("i-nonce"), []byte("different"), []byte{0x00})
	if bytes.Equal(a, b) {
		t.Fatal("auth tag must depend on all components")
	}
	if bytes.Equal(a, AuthTag(curve, []byte("i-nonce"), []byte("r-nonce"), []byte{0x01})) {
		t.Fatal("auth tag must depend on the trailing role byte")
	}
	if len(a) != 32 {
		t.Fatalf("tag length = %d, want the curve's hash length", len(a))
	}
}

func TestDeriveMutualAuthEqual(t *testing.T) {
	curve := elliptic.P256()
	bR := []byte{1, 2, 3, 4}
	pR := []byte{5, 6, 7, 8}
	bI := []byte{9, 10, 11, 12}
	pI := []byte{13, 14, 15, 16}

	biX, biY := curve.ScalarBaseMult(bI)
	brX, brY := curve.ScalarBaseMult(bR)
	prX, prY := curve.ScalarBaseMult(pR)

	liX, liY := DeriveLI(curve, bI, brX, brY, prX, prY)
	lrX, lrY := DeriveLR(curve, bR, pR, biX, biY)

	if liX.Cmp(lrX) != 0 || liY.Cmp(lrY) != 0 {
		t.Fatal("DeriveLI and DeriveLR must produce equal points for corresponding key pairs")
	}
	if !curve.IsOnCurve(liX, liY) {
		t.Fatal("derived mutual-auth point must lie on the curve")
	}
	_ = pI // initiator's protocol private key plays no role in L_I
}

// dppVectorB1 is the EasyConnect B.1 mutual-authentication test vector
// for P-256, as reproduced in the reference implementation's unit tests.
// Public points are X || Y; the initiator bootstrap Y carries the
// prepended zero byte the 31-octet spec value needs to form a full
// coordinate.
var dppVectorB1 = struct {
	iProtoPublic, iBootPublic   string
	iBootPrivate                string
	rProtoPublic, rBootPublic   string
	rProtoPrivate, rBootPrivate string
	iNonce, rNonce              string

	k1, k2, ke string
	keRespOnly string
	mx, nx, lx string
	rAuth      string
	iAuth      string
	rASN1      string
	iASN1      string
}{
	iProtoPublic: "50a532ae2a07207276418d2fa630295d45569be425aa634f02014d00a7d1f61a" +
		"e14f35a5a858bccad90d126c46594c49ef82655e78888e15a32d916ac2172491",
	iBootPublic: "88b37ed91938b5197097808a6244847617892046d93b9501afd48fa0f148dfde" +
		"00f73b6991287884a9c9a33f8e0691f14d44b59811e9d8242d010270b0d33ec0",
	iBootPrivate: "15b2a83c5a0a38b61f2aa8200ee4994b8afdc01c58507d10d0a38f7eedf051bb",
	rProtoPublic: "5e3fb3576884887f17c3203d8a3a6c2fac722ef0e2201b61ac73bc655c709a90" +
		"2d4b030669fb9eff8b0a79fa7c1a172ac2a92c626256963f9274dc90682c81e5",
	rBootPublic: "09c585a91b4df9fd25a045201885c39cc5cfae397ddaeda957dec57fa0e3503f" +
		"52bf05968198a2f92883e96a386d767579883302dbf292105c90a43694c2fd5c",
	rProtoPrivate: "f798ed2e19286f6a6efe210b1863badb99af2a14b497634dbfd2a97394fb5aa5",
	rBootPrivate:  "54ce181a98525f217216f59b245f60e9df30ac7f6b26c939418cfc3c42d1afa0",
	iNonce:        "13f4602a16daeb69712263b9c46cba31",
	rNonce:        "3d0cfb011ca916d796f7029ff0b43393",

	k1:         "3d832a02ed6d7fc1dc96d2eceab738cf01c0028eb256be33d5a21a720bfcf949",
	k2:         "ca08bdeeef838ddf897a5f01f20bb93dc5a895cb86788ca8c00a7664899bc310",
	ke:         "b6db65526c9a0174c3bed56f7e614f3a656233c078693249ac3516425127e5d5",
	keRespOnly: "c8882a8ab30c878467822534138c704ede0ab1e873fe03b601a7908463fec87a",
	mx:         "dde2878117d69745be4f916a2dd14269d783d1d788c603bb8746beabbd1dbbbc",
	nx:         "92118478b75c21c2c59340c842b5bce560a535f60bc37a75fe390d738c58d8e8",
	lx:         "fb737234c973cc3a36e64e5170a32f12089d198c73c2fd85a53d0b282530fd02",
	rAuth:      "a725abe6dc66ccf3aa3d6d61a19932fcbb0799ed09ff78e5bc6d4ea5ef8e8670",
	iAuth:      "d34944bb4b1f05caebda762c6e4ae034c819ec2f62a57dcfade2473876e007b2",
	rASN1: "3039301306072a8648ce3d020106082a8648ce3d0301070322000209c585a91b" +
		"4df9fd25a045201885c39cc5cfae397ddaeda957dec57fa0e3503f",
	iASN1: "3039301306072a8648ce3d020106082a8648ce3d0301070322000288b37ed919" +
		"38b5197097808a6244847617892046d93b9501afd48fa0f148dfde",
}

// vecPoint splits an X || Y hex coordinate pair into big.Int halves.
func vecPoint(t *testing.T, s string) (x, y *big.Int) {
	t.Helper()
	b := unhex(t, s)
	return new(big.Int).SetBytes(b[:32]), new(big.Int).SetBytes(b[32:])
}

func TestDPPVectorB1K1K2(t *testing.T) {
	curve := elliptic.P256()
	vec := &dppVectorB1
	piX, piY := vecPoint(t, vec.iProtoPublic)

	mx := sharedX(curve, unhex(t, vec.rBootPrivate), piX, piY)
	if !bytes.Equal(mx, unhex(t, vec.mx)) {
		t.Fatalf("M.x = %x, want %s", mx, vec.mx)
	}
	nx := sharedX(curve, unhex(t, vec.rProtoPrivate), piX, piY)
	if !bytes.Equal(nx, unhex(t, vec.nx)) {
		t.Fatalf("N.x = %x, want %s", nx, vec.nx)
	}

	ks := DeriveK1K2(curve, mx, nx)
	if !bytes.Equal(ks.K1, unhex(t, vec.k1)) {
		t.Fatalf("k1 = %x, want %s", ks.K1, vec.k1)
	}
	if !bytes.Equal(ks.K2, unhex(t, vec.k2)) {
		t.Fatalf("k2 = %x, want %s", ks.K2, vec.k2)
	}
}

func TestDPPVectorB1MutualAuthL(t *testing.T) {
	curve := elliptic.P256()
	vec := &dppVectorB1
	brX, brY := vecPoint(t, vec.rBootPublic)
	prX, prY := vecPoint(t, vec.rProtoPublic)
	biX, biY := vecPoint(t, vec.iBootPublic)

	liX, _ := DeriveLI(curve, unhex(t, vec.iBootPrivate), brX, brY, prX, prY)
	if got := xCoordBytes(t, curve, liX); !bytes.Equal(got, unhex(t, vec.lx)) {
		t.Fatalf("L_I.x = %x, want %s", got, vec.lx)
	}

	lrX, _ := DeriveLR(curve, unhex(t, vec.rBootPrivate), unhex(t, vec.rProtoPrivate), biX, biY)
	if got := xCoordBytes(t, curve, lrX); !bytes.Equal(got, unhex(t, vec.lx)) {
		t.Fatalf("L_R.x = %x, want %s", got, vec.lx)
	}
}

func TestDPPVectorB1Ke(t *testing.T) {
	curve := elliptic.P256()
	vec := &dppVectorB1
	iNonce, rNonce := unhex(t, vec.iNonce), unhex(t, vec.rNonce)

	ikm := append(append(unhex(t, vec.mx), unhex(t, vec.nx)...), unhex(t, vec.lx)...)
	ke := DeriveKe(curve, iNonce, rNonce, ikm)
	if !bytes.Equal(ke, unhex(t, vec.ke)) {
		t.Fatalf("ke = %x, want %s", ke, vec.ke)
	}

	// B.2: responder-only authentication omits L.x from the ikm.
	ikm = append(unhex(t, vec.mx), unhex(t, vec.nx)...)
	ke = DeriveKe(curve, iNonce, rNonce, ikm)
	if !bytes.Equal(ke, unhex(t, vec.keRespOnly)) {
		t.Fatalf("responder-only ke = %x, want %s", ke, vec.keRespOnly)
	}
}

func TestDPPVectorB1AuthTags(t *testing.T) {
	curve := elliptic.P256()
	vec := &dppVectorB1
	iNonce, rNonce := unhex(t, vec.iNonce), unhex(t, vec.rNonce)
	pix := unhex(t, vec.iProtoPublic)[:32]
	prx := unhex(t, vec.rProtoPublic)[:32]
	bix := unhex(t, vec.iBootPublic)[:32]
	brx := unhex(t, vec.rBootPublic)[:32]

	rAuth := AuthTag(curve, iNonce, rNonce, pix, prx, bix, brx, []byte{0x00})
	if !bytes.Equal(rAuth, unhex(t, vec.rAuth)) {
		t.Fatalf("R-auth = %x, want %s", rAuth, vec.rAuth)
	}

	iAuth := AuthTag(curve, rNonce, iNonce, prx, pix, brx, bix, []byte{0x01})
	if !bytes.Equal(iAuth, unhex(t, vec.iAuth)) {
		t.Fatalf("I-auth = %x, want %s", iAuth, vec.iAuth)
	}
}

func TestDPPVectorB1BootstrapASN1(t *testing.T) {
	curve := elliptic.P256()
	vec := &dppVectorB1

	brX, brY := vecPoint(t, vec.rBootPublic)
	der, err := eccutil.MarshalSPKI(curve, brX, brY)
	if err != nil {
		t.Fatalf("MarshalSPKI: %v", err)
	}
	if !bytes.Equal(der, unhex(t, vec.rASN1)) {
		t.Fatalf("responder SPKI = %x, want %s", der, vec.rASN1)
	}

	biX, biY := vecPoint(t, vec.iBootPublic)
	der, err = eccutil.MarshalSPKI(curve, biX, biY)
	if err != nil {
		t.Fatalf("MarshalSPKI: %v", err)
	}
	if !bytes.Equal(der, unhex(t, vec.iASN1)) {
		t.Fatalf("initiator SPKI = %x, want %s", der, vec.iASN1)
	}

	gotCurve, gx, gy, err := eccutil.ParseSPKI(der)
	if err != nil {
		t.Fatalf("ParseSPKI: %v", err)
	}
	if gotCurve != curve || gx.Cmp(biX) != 0 || gy.Cmp(biY) != 0 {
		t.Fatal("SPKI round trip lost the bootstrap point")
	}
}
