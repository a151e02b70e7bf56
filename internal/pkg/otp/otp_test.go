package otp

import (
	"testing"
	"time"
)

func TestGeneratorDeterministic(t *testing.T) {
	// Arrange
	gen := NewGenerator([]byte("unit-test-secret"), 60, 6, 1)
	at := time.Unix(1_700_000_000, 0)

	// Act
	first := gen.Generate(at, 42)
	second := gen.Generate(at, 42)

	// Assert
	if first != second {
		t.Fatalf("same inputs produced different codes: %q vs %q", first, second)
	}
	if len(first) != 6 {
		t.Fatalf("expected 6-digit code, got %q", first)
	}
}

func TestGeneratorSubjectBinding(t *testing.T) {
	// Arrange
	gen := NewGenerator([]byte("unit-test-secret"), 60, 6, 1)
	at := time.Unix(1_700_000_000, 0)

	// Act
	codeA := gen.Generate(at, 1)
	codeB := gen.Generate(at, 2)

	// Assert
	if codeA == codeB {
		t.Fatalf("expected distinct codes for distinct subjects, both %q", codeA)
	}
	if gen.Verify(codeA, 2, at) {
		t.Fatalf("code for subject 1 validated for subject 2")
	}

	// Subject ids occupy the full 64-bit packing width.
	wide := gen.Generate(at, 1<<62)
	if !gen.Verify(wide, 1<<62, at) {
		t.Fatalf("code for a wide subject id did not validate")
	}
}

func TestGeneratorVerifyWindow(t *testing.T) {
	// Arrange
	gen := NewGenerator([]byte("unit-test-secret"), 60, 6, 1)
	at := time.Unix(1_700_000_000, 0)
	code := gen.Generate(at, 42)

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"same slice", at, true},
		{"previous slice", at.Add(-60 * time.Second), true},
		{"next slice", at.Add(60 * time.Second), true},
		{"two slices later", at.Add(121 * time.Second), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			got := gen.Verify(code, 42, tc.at)

			// Assert
			if got != tc.want {
				t.Fatalf("Verify at %v = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestGeneratorVerifyRejectsBadInput(t *testing.T) {
	// Arrange
	gen := NewGenerator([]byte("unit-test-secret"), 60, 6, 1)
	at := time.Unix(1_700_000_000, 0)

	// Act & Assert
	if gen.Verify("12345", 42, at) {
		t.Fatalf("accepted code with wrong width")
	}
	if gen.Verify("000000", 42, at) && gen.Generate(at, 42) != "000000" &&
		gen.Generate(at.Add(-60*time.Second), 42) != "000000" &&
		gen.Generate(at.Add(60*time.Second), 42) != "000000" {
		t.Fatalf("accepted code that was never issued")
	}

	other := NewGenerator([]byte("another-secret"), 60, 6, 1)
	if other.Verify(gen.Generate(at, 42), 42, at) {
		t.Fatalf("code validated under a different secret")
	}
}

func TestGeneratorDefaults(t *testing.T) {
	// Arrange & Act
	gen := NewGenerator([]byte("unit-test-secret"), 0, 7, 0)

	// Assert
	if gen.period != 60 {
		t.Fatalf("expected default period 60, got %d", gen.period)
	}
	if gen.digits != 6 {
		t.Fatalf("expected fallback to 6 digits, got %d", gen.digits)
	}
	if gen.window != 1 {
		t.Fatalf("expected default window 1, got %d", gen.window)
	}
}
