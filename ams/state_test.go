package ams

import "testing"

func TestParseAdsStateBijective(t *testing.T) {
	for v := uint16(0); v <= uint16(ADSStateException); v++ {
		s, err := ParseAdsState(v)
		if err != nil {
			t.Fatalf("ParseAdsState(%d): %v", v, err)
		}
		if uint16(s) != v {
			t.Errorf("ParseAdsState(%d) = %d", v, s)
		}
		if s.String() == "" {
			t.Errorf("AdsState(%d).String() is empty", v)
		}
	}
}

func TestParseAdsStateOutOfRange(t *testing.T) {
	if _, err := ParseAdsState(uint16(ADSStateException) + 1); err == nil {
		t.Error("expected an error for an out-of-range state")
	}
}

func TestAdsStateStringUnknown(t *testing.T) {
	s := AdsState(9999)
	if got := s.String(); got != "AdsState(9999)" {
		t.Errorf("String() = %q, want %q", got, "AdsState(9999)")
	}
}
