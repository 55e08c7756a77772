package cursor

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestEncodeDecode(t *testing.T) {
	at := time.Date(2024, 3, 9, 12, 30, 1, 123456789, time.UTC)
	c := New("CREATED", at, 4711, Older)

	got, err := Decode(c.Encode())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Sort() != "CREATED" || got.ID() != 4711 || got.Direction() != Older {
		t.Errorf("Decode() = %+v", got)
	}
	if !got.Value().Equal(at.Truncate(time.Microsecond)) {
		t.Errorf("Value() = %v, want %v", got.Value(), at.Truncate(time.Microsecond))
	}
}

func TestBeforeAfterBoundaryIDs(t *testing.T) {
	at := time.Unix(1700000000, 0)
	if b := Before("UPDATED", at); b.ID() != 0 || b.Direction() != Older {
		t.Errorf("Before() = %+v", b)
	}
	if a := After("UPDATED", at); a.ID() != math.MaxInt64 || a.Direction() != Newer {
		t.Errorf("After() = %+v", a)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tokens := []string{
		"",
		"!!!",
		"djE6Q1JFQVRFRA",           // "v1:CREATED"
		"djI6Q1JFQVRFRDpvOjE6Mg",   // "v2:CREATED:o:1:2"
		"djE6Q1JFQVRFRDp4OjE6Mg",   // "v1:CREATED:x:1:2"
		"djE6Q1JFQVRFRDpvOmFiYzoy", // "v1:CREATED:o:abc:2"
		"djE6Q1JFQVRFRDpvOjE6dHdv", // "v1:CREATED:o:1:two"
	}
	for _, tok := range tokens {
		if _, err := Decode(tok); !errors.Is(err, ErrMalformed) {
			t.Errorf("Decode(%q) err = %v, want ErrMalformed", tok, err)
		}
	}
}

func TestEncode_IsURLSafe(t *testing.T) {
	c := New("SONGS_UPDATED", time.Now(), math.MaxInt64, Newer)
	for _, r := range c.Encode() {
		if r == '+' || r == '/' || r == '=' {
			t.Fatalf("token %q is not URL safe", c.Encode())
		}
	}
}
