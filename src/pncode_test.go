package usbrf

import "testing"

func TestPnRowDSMXFormula(t *testing.T) {
	// pn_row = (channel - 2) mod 5 under DSMX (§4.2).
	cases := map[byte]byte{0: 3, 1: 4, 2: 0, 3: 1, 4: 2, 7: 0}
	for ch, want := range cases {
		if got := PnRow(ch, true); got != want {
			t.Fatalf("PnRow(%d, DSMX) = %d, want %d", ch, got, want)
		}
	}
}

func TestPnRowDSM2Formula(t *testing.T) {
	// pn_row = channel mod 5 under DSM2.
	for ch := byte(0); ch < 20; ch++ {
		if got := PnRow(ch, false); got != ch%5 {
			t.Fatalf("PnRow(%d, DSM2) = %d, want %d", ch, got, ch%5)
		}
	}
}

func TestPnCodeTableShape(t *testing.T) {
	for row := 0; row < 5; row++ {
		for col := 0; col < 9; col++ {
			if len(PnCodes.Codes[row][col]) != 8 {
				t.Fatalf("row %d col %d: expected an 8-byte code", row, col)
			}
		}
	}
	if len(PnCodes.Bind) != 8 {
		t.Fatalf("expected an 8-byte bind preamble")
	}
}
