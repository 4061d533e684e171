package utils

import "testing"

func TestEncryptDecryptRoundTrip(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "12345678901234567890123456789012")

	encrypted, err := EncryptDocumentRef("001234567890")
	if err != nil {
		t.Fatalf("EncryptDocumentRef: %v", err)
	}
	if encrypted == "001234567890" {
		t.Fatal("ciphertext equals plaintext")
	}

	decrypted, err := DecryptDocumentRef(encrypted)
	if err != nil {
		t.Fatalf("DecryptDocumentRef: %v", err)
	}
	if decrypted != "001234567890" {
		t.Errorf("round trip mismatch: %q", decrypted)
	}

	// Each encryption uses a fresh IV.
	second, err := EncryptDocumentRef("001234567890")
	if err != nil {
		t.Fatalf("EncryptDocumentRef: %v", err)
	}
	if second == encrypted {
		t.Error("two encryptions of the same value should differ")
	}
}

func TestEncryptRejectsBadKey(t *testing.T) {
	t.Setenv("ENCRYPTION_KEY", "too-short")

	if _, err := EncryptDocumentRef("001234567890"); err == nil {
		t.Fatal("short key should be rejected")
	}
}

func TestDocumentLast4(t *testing.T) {
	if got := DocumentLast4("001234567890"); got != "7890" {
		t.Errorf("DocumentLast4 = %q", got)
	}
	if got := DocumentLast4("123"); got != "123" {
		t.Errorf("short ref: DocumentLast4 = %q", got)
	}
}
