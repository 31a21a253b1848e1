package history

import "testing"

func TestEncodeDecodeBiasAvoidsControlValues(t *testing.T) {
	for v := -2; v <= 15; v++ {
		enc := encodeBiased(v)
		if enc == metadataEscape || enc == newline {
			t.Errorf("encodeBiased(%d) = %d collides with a control value", v, enc)
		}
		if got := decodeBiased(enc); got != v {
			t.Errorf("decodeBiased(encodeBiased(%d)) = %d, want %d", v, got, v)
		}
	}
}

func TestEncodeFontRecordShape(t *testing.T) {
	rec := encodeFont(3)
	if len(rec) != 3 {
		t.Fatalf("font record length = %d, want 3", len(rec))
	}
	if rec[0] != metadataEscape || rec[1] != Uch(recordFont) {
		t.Errorf("font record header = %v, want [escape, recordFont, ...]", rec[:2])
	}
	if decodeBiased(rec[2]) != 3 {
		t.Errorf("font record param = %d, want 3", decodeBiased(rec[2]))
	}
}

func TestEncodeColourRecordShape(t *testing.T) {
	rec := encodeColour(1, 7)
	if len(rec) != 4 {
		t.Fatalf("colour record length = %d, want 4", len(rec))
	}
	if recordKind(rec[1]) != recordColour {
		t.Errorf("colour record kind byte = %d, want %d", rec[1], recordColour)
	}
	if decodeBiased(rec[2]) != 1 || decodeBiased(rec[3]) != 7 {
		t.Errorf("colour record params = (%d, %d), want (1, 7)", decodeBiased(rec[2]), decodeBiased(rec[3]))
	}
}

func TestValidateColourRange(t *testing.T) {
	cases := []struct {
		v  int
		ok bool
	}{
		{-3, false},
		{-2, true},
		{0, true},
		{15, true},
		{16, false},
	}
	for _, c := range cases {
		if got := validateColour(c.v); got != c.ok {
			t.Errorf("validateColour(%d) = %v, want %v", c.v, got, c.ok)
		}
	}
}

func TestRecordLenMatchesEncodedLength(t *testing.T) {
	if recordFont.recordLen() != len(encodeFont(0)) {
		t.Errorf("recordFont.recordLen() mismatch")
	}
	if recordStyle.recordLen() != len(encodeStyle(0)) {
		t.Errorf("recordStyle.recordLen() mismatch")
	}
	if recordColour.recordLen() != len(encodeColour(0, 0)) {
		t.Errorf("recordColour.recordLen() mismatch")
	}
	if recordParagraph.recordLen() != len(encodeParagraphAttr(0, 0)) {
		t.Errorf("recordParagraph.recordLen() mismatch")
	}
}
