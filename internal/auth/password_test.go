package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("hunter22")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("Hash() returned the plaintext password")
	}

	if err := h.Compare(hash, "hunter22"); err != nil {
		t.Errorf("Compare() with correct password error = %v", err)
	}
	if err := h.Compare(hash, "hunter23"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Compare() with wrong password error = %v, want ErrPasswordMismatch", err)
	}
	if err := h.Compare("not-a-hash", "hunter22"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Compare() with corrupt hash error = %v, want ErrPasswordMismatch", err)
	}

	// Only checks that the dummy path is safe to call.
	h.CompareDummy("anything")
}
