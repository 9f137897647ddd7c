package dbussvc

import "testing"

func TestGetStatusReturnsUpdatedSnapshot(t *testing.T) {
	s := &Service{}
	want := Status{Interface: "wlan0", MAC: "aabbccddeeff", FTPending: 2, DPPEnabled: true}
	s.Update(want)

	got, derr := s.GetStatus()
	if derr != nil {
		t.Fatalf("GetStatus: %v", derr)
	}
	if got != want {
		t.Fatalf("GetStatus() = %+v, want %+v", got, want)
	}
}
