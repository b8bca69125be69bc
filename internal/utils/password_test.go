package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !VerifyPassword(hash, "s3cret") {
		t.Errorf("correct password rejected")
	}
	if VerifyPassword(hash, "wrong") {
		t.Errorf("wrong password accepted")
	}
}

func TestHashPasswordClampsBadCost(t *testing.T) {
	// 0 and 99 are outside bcrypt's range; both must hash with the
	// default cost rather than fail.
	for _, cost := range []int{0, 99} {
		hash, err := HashPassword("s3cret", cost)
		if err != nil {
			t.Fatalf("cost %d: %v", cost, err)
		}
		got, err := bcrypt.Cost([]byte(hash))
		if err != nil {
			t.Fatalf("cost %d: read back: %v", cost, err)
		}
		if got != bcrypt.DefaultCost {
			t.Errorf("cost %d: hashed with cost %d, want default %d", cost, got, bcrypt.DefaultCost)
		}
	}
}
