package fingerprint

import (
	"testing"

	"github.com/tidesound/soundprint/internal/model"
)

func TestPackUnpackTokenRoundTrip(t *testing.T) {
	cases := []struct {
		f1, f2, dt uint32
	}{
		{0, 0, 0},
		{511, 511, 16383},
		{1, 2, 3},
		{255, 10, 9000},
	}

	for _, c := range cases {
		token, ok := PackToken(c.f1, c.f2, c.dt)
		if !ok {
			t.Fatalf("PackToken(%d, %d, %d) unexpectedly rejected", c.f1, c.f2, c.dt)
		}
		f1, f2, dt := UnpackToken(token)
		if f1 != c.f1 || f2 != c.f2 || dt != c.dt {
			t.Errorf("round trip mismatch: got (%d,%d,%d), want (%d,%d,%d)", f1, f2, dt, c.f1, c.f2, c.dt)
		}
	}
}

func TestPackTokenRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name       string
		f1, f2, dt uint32
	}{
		{"f1 over 9 bits", 512, 0, 0},
		{"f2 over 9 bits", 0, 512, 0},
		{"dt over 14 bits", 0, 0, 16384},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, ok := PackToken(c.f1, c.f2, c.dt); ok {
				t.Errorf("expected PackToken to reject %+v", c)
			}
		})
	}
}

func TestGenerateTokensShortConstellationYieldsNone(t *testing.T) {
	p := DefaultParams()
	peaks := make([]model.Peak, p.AnchorGap+p.TargetZoneSize-1)
	if got := GenerateTokens(peaks, p); got != nil {
		t.Errorf("expected nil for a too-short constellation, got %d tokens", len(got))
	}
}

func TestGenerateTokensAnchorLoopBound(t *testing.T) {
	p := Params{TargetZoneSize: 2, AnchorGap: 1}
	// L = 4: bound = 4 - 1 - 2 = 1, so exactly one anchor (index 0).
	peaks := []model.Peak{
		{Time: 0.0, Freq: 100},
		{Time: 0.1, Freq: 200},
		{Time: 0.2, Freq: 300},
		{Time: 0.3, Freq: 400},
	}

	records := GenerateTokens(peaks, p)
	if len(records) != p.TargetZoneSize {
		t.Fatalf("expected %d records from the single anchor, got %d", p.TargetZoneSize, len(records))
	}
}

func TestGenerateTokensDeterministic(t *testing.T) {
	p := DefaultParams()
	peaks := make([]model.Peak, 20)
	for i := range peaks {
		peaks[i] = model.Peak{Time: float64(i) * 0.05, Freq: float64(100 + i*37)}
	}

	a := GenerateTokens(peaks, p)
	b := GenerateTokens(peaks, p)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic output: %d vs %d records", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("record %d differs across runs: %+v vs %+v", i, a[i], b[i])
		}
	}
}
