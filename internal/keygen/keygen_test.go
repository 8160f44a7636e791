package keygen

import (
	"regexp"
	"strings"
	"testing"
)

var receiptRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewReceiptFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		r, err := NewReceipt()
		if err != nil {
			t.Fatalf("NewReceipt: %v", err)
		}
		if !receiptRe.MatchString(r) {
			t.Fatalf("receipt %q is not a canonical v4 UUID", r)
		}
		if seen[r] {
			t.Fatalf("receipt %q repeated", r)
		}
		seen[r] = true
	}
}

func TestNewKeyString(t *testing.T) {
	for _, length := range []int{1, 16, 64, 128} {
		key, err := NewKeyString(length)
		if err != nil {
			t.Fatalf("NewKeyString(%d): %v", length, err)
		}
		if len(key) != length {
			t.Errorf("got length %d, want %d", len(key), length)
		}
		for _, c := range key {
			if !strings.ContainsRune(KeyAlphabet, c) {
				t.Errorf("key contains %q, outside the alphabet", c)
			}
		}
	}
}

func TestNewKeyStringRejectsBadLength(t *testing.T) {
	if _, err := NewKeyString(0); err == nil {
		t.Error("expected error for length 0")
	}
	if _, err := NewKeyString(-5); err == nil {
		t.Error("expected error for negative length")
	}
}

func TestNewKeyStringUniform(t *testing.T) {
	// Every alphabet character should appear in a large enough sample.
	// With 32 characters and 32k draws, a missing character means the
	// sampling is broken, not unlucky.
	counts := make(map[rune]int)
	for i := 0; i < 512; i++ {
		key, err := NewKeyString(64)
		if err != nil {
			t.Fatalf("NewKeyString: %v", err)
		}
		for _, c := range key {
			counts[c]++
		}
	}
	for _, c := range KeyAlphabet {
		if counts[c] == 0 {
			t.Errorf("character %q never drawn", c)
		}
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("p@ss1")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash %q is not PHC-encoded argon2id", hash)
	}
	if strings.Contains(hash, "p@ss1") {
		t.Fatal("hash contains the raw password")
	}

	ok, err := VerifyPassword("p@ss1", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Error("correct password rejected")
	}

	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if ok {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	b, err := HashPassword("same")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two hashes of the same password are identical; salt is not random")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$aGFzaA",
	} {
		if _, err := VerifyPassword("x", bad); err == nil {
			t.Errorf("expected error for hash %q", bad)
		}
	}
}
