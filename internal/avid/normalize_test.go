package avid

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"SingleC", "ABC-123-C", "ABC-123"},
		{"SingleUC", "ABC-123-UC", "ABC-123"},
		{"CThenUC", "ABC-123-C-UC", "ABC-123"},
		{"UCThenC", "ABC-123-UC-C", "ABC-123"},
		{"RepeatedC", "ABC-123-C-C", "ABC-123"},
		{"RepeatedUC", "ABC-123-UC-UC", "ABC-123"},
		{"NoSuffix", "ABC-123", "ABC-123"},
		{"LowerAndSpaces", "  abc-123-c ", "ABC-123"},
		{"SuffixInsideKept", "ABC-C-123", "ABC-C-123"},
		{"Empty", "", ""},
		{"Blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func FuzzNormalizeIdempotent(f *testing.F) {
	for _, seed := range []string{"ABC-123-C-UC", "abc-123-uc-c", "-C-C", "", " x-UC "} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	})
}
