package codegen_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode"

	"github.com/dalemusser/brewcircles/internal/app/system/circleerr"
	"github.com/dalemusser/brewcircles/internal/app/system/codegen"
)

func TestGenerate_LengthAndAlphabet(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := codegen.InviteCode()
		if err != nil {
			t.Fatalf("InviteCode failed: %v", err)
		}
		if len(code) != codegen.InviteCodeLength {
			t.Fatalf("len(%q) = %d, want %d", code, len(code), codegen.InviteCodeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codegen.InviteAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
	}
}

func TestInviteAlphabet_ExcludesAmbiguous(t *testing.T) {
	for _, r := range "0O1I" {
		if strings.ContainsRune(codegen.InviteAlphabet, r) {
			t.Errorf("alphabet contains ambiguous %q", r)
		}
	}
}

func TestGenerate_BadInput(t *testing.T) {
	if _, err := codegen.Generate("", 8); err == nil {
		t.Error("expected error for empty alphabet")
	}
	if _, err := codegen.Generate("AB", 0); err == nil {
		t.Error("expected error for zero length")
	}
}

func TestGenerate_UsesWholeAlphabet(t *testing.T) {
	seen := map[rune]bool{}
	for i := 0; i < 200; i++ {
		code, err := codegen.Generate("AB", 8)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		for _, r := range code {
			seen[r] = true
		}
	}
	if !seen['A'] || !seen['B'] {
		t.Errorf("expected both symbols to appear, saw %v", seen)
	}
}

func TestGenerateUnique_FirstFree(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls < 3, nil
	}

	code, err := codegen.GenerateUnique(context.Background(), exists, codegen.InviteAlphabet, 8, 10)
	if err != nil {
		t.Fatalf("GenerateUnique failed: %v", err)
	}
	if len(code) != 8 {
		t.Errorf("len(%q) = %d", code, len(code))
	}
	if calls != 3 {
		t.Errorf("lookup calls = %d, want 3", calls)
	}
}

func TestGenerateUnique_Exhausted(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := codegen.GenerateUnique(context.Background(), exists, codegen.InviteAlphabet, 8, 10)
	if !errors.Is(err, circleerr.ErrCodeGenerationExhausted) {
		t.Fatalf("expected ErrCodeGenerationExhausted, got %v", err)
	}
	if calls != 10 {
		t.Errorf("lookup calls = %d, want 10", calls)
	}
}

func TestGenerateUnique_LookupError(t *testing.T) {
	boom := errors.New("store down")
	exists := func(ctx context.Context, code string) (bool, error) {
		return false, boom
	}

	_, err := codegen.GenerateUnique(context.Background(), exists, codegen.InviteAlphabet, 8, 10)
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
}

func TestProfileCode_Shape(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := codegen.ProfileCode()
		if err != nil {
			t.Fatalf("ProfileCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("len(%q) = %d, want 6", code, len(code))
		}
		for j, r := range code {
			if j < 4 && !unicode.IsUpper(r) {
				t.Fatalf("code %q: position %d should be a letter", code, j)
			}
			if j >= 4 && !unicode.IsDigit(r) {
				t.Fatalf("code %q: position %d should be a digit", code, j)
			}
		}
	}
}

func TestIsInviteCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"7F3K9QXZ", true},
		{"7f3k9qxz", true},
		{"  7F3K9QXZ ", true},
		{"7F3K9QX", false},
		{"7F3K9QXZZ", false},
		{"0F3K9QXZ", false},
		{"IF3K9QXZ", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := codegen.IsInviteCode(tt.code); got != tt.want {
				t.Errorf("IsInviteCode(%q) = %v, want %v", tt.code, got, tt.want)
			}
		})
	}
}
