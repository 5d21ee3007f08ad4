package service

import (
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(10)

	hash, err := h.Hash("Abc12345!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("unexpected hash format: %q", hash)
	}
	if !h.Verify("Abc12345!", hash) {
		t.Fatalf("correct password rejected")
	}
	if h.Verify("wrong", hash) {
		t.Fatalf("wrong password accepted")
	}
}

func TestBcryptHasher_EnforcesMinimumCost(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("Abc12345!")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		t.Fatalf("cost: %v", err)
	}
	if cost < minBcryptCost {
		t.Fatalf("cost %d below minimum %d", cost, minBcryptCost)
	}
}

func TestBcryptHasher_VerifyMalformedHash(t *testing.T) {
	h := NewBcryptHasher(10)
	if h.Verify("anything", "not-a-bcrypt-hash") {
		t.Fatalf("malformed hash must not verify")
	}
}
