package crypto

import (
	"bytes"
	"testing"
)

func TestGenerateKeyPairClamping(t *testing.T) {
	for i := 0; i < 16; i++ {
		kp, err := GenerateKeyPair()
		if err != nil {
			t.Fatalf("GenerateKeyPair() error = %v", err)
		}

		if kp.Private[0]&7 != 0 {
			t.Errorf("low 3 bits of scalar byte 0 not cleared: %08b", kp.Private[0])
		}
		if kp.Private[31]&128 != 0 {
			t.Errorf("high bit of scalar byte 31 not cleared: %08b", kp.Private[31])
		}
		if kp.Private[31]&64 == 0 {
			t.Errorf("bit 6 of scalar byte 31 not set: %08b", kp.Private[31])
		}
	}
}

func TestSharedSecretAgreement(t *testing.T) {
	alice, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}
	bob, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	ab, err := alice.SharedSecret(bob.Public[:])
	if err != nil {
		t.Fatalf("SharedSecret() error = %v", err)
	}
	ba, err := bob.SharedSecret(alice.Public[:])
	if err != nil {
		t.Fatalf("SharedSecret() error = %v", err)
	}

	if !bytes.Equal(ab, ba) {
		t.Error("shared secrets do not agree")
	}

	if _, err := alice.SharedSecret([]byte("short")); err == nil {
		t.Error("SharedSecret() accepted a short public key")
	}
}

func TestExpandSecret(t *testing.T) {
	shared := bytes.Repeat([]byte{0x42}, KeySize)

	a, err := ExpandSecret(shared, ExpandedSecretSize)
	if err != nil {
		t.Fatalf("ExpandSecret() error = %v", err)
	}
	if len(a) != ExpandedSecretSize {
		t.Fatalf("len = %d, want %d", len(a), ExpandedSecretSize)
	}

	// Deterministic for the same input
	b, err := ExpandSecret(shared, ExpandedSecretSize)
	if err != nil {
		t.Fatalf("ExpandSecret() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("expansion is not deterministic")
	}

	// Different secret, different expansion
	other, err := ExpandSecret(bytes.Repeat([]byte{0x43}, KeySize), ExpandedSecretSize)
	if err != nil {
		t.Fatalf("ExpandSecret() error = %v", err)
	}
	if bytes.Equal(a, other) {
		t.Error("different secrets expanded identically")
	}
}

func TestKeyPairWipe(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() error = %v", err)
	}

	kp.Wipe()
	if kp.Private != [KeySize]byte{} {
		t.Error("Wipe() left private scalar bytes")
	}
}
