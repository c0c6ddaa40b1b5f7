package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw   string
		want error
	}{
		{"secure123", nil},
		{"MyP@ssw0rd", nil},
		{"abcdef1", nil},
		{strings.Repeat("a", MaxPasswordLength), nil},
		{"", ErrPasswordTooShort},
		{"abcde", ErrPasswordTooShort},
		{strings.Repeat("a", MaxPasswordLength+1), ErrPasswordTooLong},
		{"123456", ErrPasswordCommon},
		{"password", ErrPasswordCommon},
		{"Qwerty", ErrPasswordCommon},
		{"ILoveYou", ErrPasswordCommon},
		{"PLACEMENT", ErrPasswordCommon},
	}
	for _, tt := range tests {
		if got := ValidatePassword(tt.pw); got != tt.want {
			t.Errorf("ValidatePassword(%q) = %v, want %v", tt.pw, got, tt.want)
		}
	}
}

func TestHashPassword_SaltsEachHash(t *testing.T) {
	h1, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	h2, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if h1 == h2 {
		t.Error("expected different hashes for the same password")
	}
	if !strings.HasPrefix(h1, "$2") {
		t.Errorf("expected a bcrypt hash, got %q", h1)
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	tests := []struct {
		name string
		pw   string
		hash string
		want bool
	}{
		{"correct", "SecurePassword123", hash, true},
		{"wrong", "WrongPassword456", hash, false},
		{"empty password", "", hash, false},
		{"invalid hash", "password", "not-a-valid-hash", false},
		{"no hash", "SecurePassword123", "", false},
	}
	for _, tt := range tests {
		if got := CheckPassword(tt.pw, tt.hash); got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPasswordRules(t *testing.T) {
	if rules := PasswordRules(); !strings.Contains(rules, "6") {
		t.Errorf("rules should mention the minimum length: %q", rules)
	}
}
