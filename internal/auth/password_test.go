package auth

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost, 4)

	hash, err := p.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !p.VerifyPassword("s3cret", hash) {
		t.Error("VerifyPassword() rejected the correct password")
	}
	if p.VerifyPassword("wrong", hash) {
		t.Error("VerifyPassword() accepted a wrong password")
	}
}

func TestValidatePasswordLength(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost, 4)

	if err := p.ValidatePassword("abc"); err == nil {
		t.Error("ValidatePassword() accepted a password below the minimum")
	}
	if err := p.ValidatePassword("abcd"); err != nil {
		t.Errorf("ValidatePassword() rejected a valid password: %v", err)
	}
	if err := p.ValidatePassword(strings.Repeat("x", MaxPasswordLength+1)); err == nil {
		t.Error("ValidatePassword() accepted an oversized password")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	p := NewPasswordManager(bcrypt.MinCost, 4)
	if _, err := p.HashPassword(strings.Repeat("x", MaxPasswordLength+1)); err == nil {
		t.Error("HashPassword() accepted an oversized password")
	}
}
