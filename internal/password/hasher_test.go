package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *Hasher {
	t.Helper()
	h, err := NewHasher(Config{Scheme: SchemePBKDF2, Iterations: 1000, SaltLength: 8})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}
	return h
}

func TestHashVerifyRoundTrip(t *testing.T) {
	h := newTestHasher(t)

	for _, pw := range []string{"pw123", "a", "correct horse battery staple", "パスワード"} {
		digest, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) failed: %v", pw, err)
		}
		if digest == pw || !strings.HasPrefix(digest, "pbkdf2:sha256:1000$") {
			t.Fatalf("unexpected digest for %q: %s", pw, digest)
		}
		if !h.Verify(digest, pw) {
			t.Fatalf("Verify should accept the original password %q", pw)
		}
		if h.Verify(digest, pw+"x") {
			t.Fatalf("Verify should reject a different password for %q", pw)
		}
	}
}

func TestHashFormatIsSelfDescribing(t *testing.T) {
	h := newTestHasher(t)

	digest, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	parts := strings.Split(digest, "$")
	if len(parts) != 3 {
		t.Fatalf("unexpected digest format: %s", digest)
	}
	if parts[0] != "pbkdf2:sha256:1000" {
		t.Fatalf("unexpected method: %s", parts[0])
	}
	if len(parts[1]) != 8 {
		t.Fatalf("unexpected salt length: %q", parts[1])
	}
	if len(parts[2]) != 64 {
		t.Fatalf("unexpected digest length: %d", len(parts[2]))
	}
}

func TestHashUsesFreshSalt(t *testing.T) {
	h := newTestHasher(t)

	a, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	b, err := h.Hash("same")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password should differ")
	}
}

func TestVerifyWerkzeugDigests(t *testing.T) {
	h := newTestHasher(t)

	tests := []struct {
		name   string
		digest string
		pw     string
	}{
		{
			name:   "sha256",
			digest: "pbkdf2:sha256:1000$Xy7kQp2L$d77f6fa399952b3edfbfa1f7c87878ef12c7c815f86a9e709410547574642759",
			pw:     "pw123",
		},
		{
			name:   "sha512",
			digest: "pbkdf2:sha512:1000$saltsalt$b26d3dad4cd2dfefb7f9caac5b3888a1614ef1b1249cac09c0612fc83d6b6b83dc589b793a258594cfc156ff326c97b85d6f2a329ab7dde705ace6a26cd1a21c",
			pw:     "secret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !h.Verify(tt.digest, tt.pw) {
				t.Fatalf("expected %s digest to verify", tt.name)
			}
			if h.Verify(tt.digest, "wrong") {
				t.Fatalf("expected %s digest to reject a wrong password", tt.name)
			}
		})
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := newTestHasher(t)

	for _, digest := range []string{
		"",
		"pw123",
		"pbkdf2:sha256:1000$salt",
		"pbkdf2:sha256:1000$$abcd",
		"pbkdf2:sha256:abc$salt$abcd",
		"pbkdf2:sha256:-5$salt$abcd",
		"pbkdf2:md5:1000$salt$abcd",
		"pbkdf2:sha256:1000$salt$not-hex",
		"scrypt:32768:8:1$salt$abcd",
		"$2a$10$short",
	} {
		if h.Verify(digest, "pw123") {
			t.Fatalf("Verify(%q) should be false", digest)
		}
	}
}

func TestBcryptScheme(t *testing.T) {
	h, err := NewHasher(Config{Scheme: SchemeBcrypt, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	digest, err := h.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.HasPrefix(digest, "$2a$") {
		t.Fatalf("expected bcrypt digest, got %s", digest)
	}
	if !h.Verify(digest, "pw123") || h.Verify(digest, "pw124") {
		t.Fatal("bcrypt verify mismatch")
	}

	// pbkdf2 設定のハッシャーでも bcrypt ダイジェストを検証できる
	if !newTestHasher(t).Verify(digest, "pw123") {
		t.Fatal("pbkdf2 hasher should still verify bcrypt digests")
	}
}

func TestNeedsRehash(t *testing.T) {
	h := newTestHasher(t)

	current, err := h.Hash("pw")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if h.NeedsRehash(current) {
		t.Fatal("fresh digest should not need a rehash")
	}
	if !h.NeedsRehash("pbkdf2:sha256:10$salt$abcd") {
		t.Fatal("low iteration digest should need a rehash")
	}
	if !h.NeedsRehash("pbkdf2:sha512:1000$saltsalt$abcd") {
		t.Fatal("non-sha256 digest should need a rehash")
	}
	if !h.NeedsRehash("garbage") {
		t.Fatal("malformed digest should need a rehash")
	}

	legacy, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt failed: %v", err)
	}
	if !h.NeedsRehash(string(legacy)) {
		t.Fatal("bcrypt digest should need a rehash under the pbkdf2 scheme")
	}
}

func TestNewHasherRejectsUnknownScheme(t *testing.T) {
	if _, err := NewHasher(Config{Scheme: "md5"}); err == nil {
		t.Fatal("expected error for unknown scheme")
	}
	if _, err := NewHasher(Config{Scheme: SchemeBcrypt, BcryptCost: 99}); err == nil {
		t.Fatal("expected error for out-of-range bcrypt cost")
	}
}

func TestGenerateSaltAlphabet(t *testing.T) {
	salt, err := generateSalt(64)
	if err != nil {
		t.Fatalf("generateSalt failed: %v", err)
	}
	if len(salt) != 64 {
		t.Fatalf("unexpected salt length: %d", len(salt))
	}
	for _, r := range salt {
		if !strings.ContainsRune(saltChars, r) {
			t.Fatalf("unexpected salt character %q", r)
		}
	}
}

func TestBcryptRejectsLongPassword(t *testing.T) {
	h, err := NewHasher(Config{Scheme: SchemeBcrypt, BcryptCost: bcrypt.MinCost})
	if err != nil {
		t.Fatalf("NewHasher failed: %v", err)
	}

	if _, err := h.Hash(strings.Repeat("x", 73)); !errors.Is(err, ErrPasswordTooLong) {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
	if _, err := h.Hash(strings.Repeat("x", 72)); err != nil {
		t.Fatalf("72 bytes should be accepted: %v", err)
	}

	// PBKDF2 には長さの上限がない
	if _, err := newTestHasher(t).Hash(strings.Repeat("x", 200)); err != nil {
		t.Fatalf("pbkdf2 should accept long passwords: %v", err)
	}
}
