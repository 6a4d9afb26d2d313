package deltaenc

import "testing"

func TestRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"a",
		"hello_world",
		Charset,
		"cache:user:1234!@#",
	}
	for _, s := range cases {
		enc, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%q): %v", s, err)
		}
		dec, err := Decode(enc)
		if err != nil {
			t.Fatalf("Decode(%q): %v", enc, err)
		}
		if dec != s {
			t.Fatalf("round trip mismatch: %q -> %q -> %q", s, enc, dec)
		}
	}
}

func TestEncodeRejectsOutOfCharset(t *testing.T) {
	if _, err := Encode("hello world\n"); err == nil {
		t.Fatalf("expected error for characters outside Charset (space, newline)")
	}
}

func TestEncodeIsBijective(t *testing.T) {
	seen := make(map[string]string)
	for _, s := range []string{"aa", "ab", "ba", "bb", "zz", "AA"} {
		enc, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode(%q): %v", s, err)
		}
		if other, ok := seen[enc]; ok && other != s {
			t.Fatalf("collision: %q and %q both encode to %q", s, other, enc)
		}
		seen[enc] = s
	}
}
