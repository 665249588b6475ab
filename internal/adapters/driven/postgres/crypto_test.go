package postgres

import (
	"bytes"
	"errors"
	"testing"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, keySize)
}

func TestSecretEncryptor_RoundTrip(t *testing.T) {
	enc, err := NewSecretEncryptor(testKey())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blob, err := enc.EncryptString("sk-live-secret-token")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if blob[0] != secretVersion {
		t.Errorf("expected version byte %d, got %d", secretVersion, blob[0])
	}

	got, err := enc.DecryptString(blob)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if got != "sk-live-secret-token" {
		t.Errorf("round trip mismatch: %q", got)
	}
}

func TestSecretEncryptor_InvalidKeySize(t *testing.T) {
	_, err := NewSecretEncryptor([]byte("too short"))
	if !errors.Is(err, ErrInvalidKeySize) {
		t.Errorf("expected ErrInvalidKeySize, got %v", err)
	}
}

func TestSecretEncryptor_WrongKey(t *testing.T) {
	enc1, _ := NewSecretEncryptor(testKey())
	enc2, _ := NewSecretEncryptor(bytes.Repeat([]byte{0x99}, keySize))

	blob, err := enc1.EncryptString("secret")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}

	_, err = enc2.DecryptString(blob)
	if !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestSecretEncryptor_TruncatedBlob(t *testing.T) {
	enc, _ := NewSecretEncryptor(testKey())

	_, err := enc.DecryptString([]byte{secretVersion, 0x01, 0x02})
	if !errors.Is(err, ErrInvalidBlobSize) {
		t.Errorf("expected ErrInvalidBlobSize, got %v", err)
	}
}

func TestSecretEncryptor_UnsupportedVersion(t *testing.T) {
	enc, _ := NewSecretEncryptor(testKey())

	blob, err := enc.EncryptString("secret")
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	blob[0] = 0xFF

	_, err = enc.DecryptString(blob)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestSecretEncryptor_NonceUniqueness(t *testing.T) {
	enc, _ := NewSecretEncryptor(testKey())

	blob1, _ := enc.EncryptString("same plaintext")
	blob2, _ := enc.EncryptString("same plaintext")
	if bytes.Equal(blob1, blob2) {
		t.Error("two encryptions of the same plaintext produced identical blobs")
	}
}
