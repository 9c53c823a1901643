package password

import (
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

// ハッシュ方式
const (
	SchemePBKDF2 = "pbkdf2"
	SchemeBcrypt = "bcrypt"
)

const (
	defaultIterations = 600000
	defaultSaltLength = 16
	saltChars         = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrMalformedDigest は解釈できないダイジェストを表します。
var ErrMalformedDigest = errors.New("malformed password digest")

// ErrPasswordTooLong は bcrypt が扱える72バイトを超えるパスワードを表します。
var ErrPasswordTooLong = errors.New("password too long")

const bcryptMaxLength = 72

// Config はハッシュ化のパラメータです。ゼロ値の項目は既定値で補われます。
type Config struct {
	Scheme     string
	Iterations int
	SaltLength int
	BcryptCost int
}

// Hasher はパスワードのハッシュ化と検証を行います。初期化後は読み取り専用なので並行利用できます。
type Hasher struct {
	config Config
}

// NewHasher は Hasher を作成します。
func NewHasher(cfg Config) (*Hasher, error) {
	if cfg.Scheme == "" {
		cfg.Scheme = SchemePBKDF2
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = defaultIterations
	}
	if cfg.SaltLength <= 0 {
		cfg.SaltLength = defaultSaltLength
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}

	switch cfg.Scheme {
	case SchemePBKDF2:
	case SchemeBcrypt:
		if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
			return nil, fmt.Errorf("bcrypt cost out of range: %d", cfg.BcryptCost)
		}
	default:
		return nil, fmt.Errorf("unsupported password scheme: %q", cfg.Scheme)
	}

	return &Hasher{config: cfg}, nil
}

// Hash は平文パスワードからソルト付きダイジェストを生成します。呼び出しごとにソルトは新しく生成されます。
func (h *Hasher) Hash(plaintext string) (string, error) {
	if h.config.Scheme == SchemeBcrypt {
		if len(plaintext) > bcryptMaxLength {
			return "", ErrPasswordTooLong
		}
		digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.config.BcryptCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return string(digest), nil
	}

	salt, err := generateSalt(h.config.SaltLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plaintext), []byte(salt), h.config.Iterations, sha256.Size, sha256.New)
	return fmt.Sprintf("pbkdf2:sha256:%d$%s$%s", h.config.Iterations, salt, hex.EncodeToString(key)), nil
}

// Verify はダイジェストと平文パスワードが一致するかを判定します。
// 形式が不正なダイジェストに対しては false を返します。
func (h *Hasher) Verify(digest, plaintext string) bool {
	switch {
	case isBcrypt(digest):
		return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
	case strings.HasPrefix(digest, "pbkdf2"):
		parsed, err := parsePBKDF2(digest)
		if err != nil {
			return false
		}
		computed := pbkdf2.Key([]byte(plaintext), []byte(parsed.salt), parsed.iterations, len(parsed.sum), parsed.newHash)
		return subtle.ConstantTimeCompare(computed, parsed.sum) == 1
	default:
		return false
	}
}

// NeedsRehash は現在の設定で作り直すべきダイジェストかどうかを返します。
func (h *Hasher) NeedsRehash(digest string) bool {
	if isBcrypt(digest) {
		if h.config.Scheme != SchemeBcrypt {
			return true
		}
		cost, err := bcrypt.Cost([]byte(digest))
		return err != nil || cost < h.config.BcryptCost
	}

	if h.config.Scheme != SchemePBKDF2 {
		return true
	}
	parsed, err := parsePBKDF2(digest)
	if err != nil {
		return true
	}
	return parsed.hashName != "sha256" || parsed.iterations < h.config.Iterations
}

type parsedPBKDF2 struct {
	hashName   string
	newHash    func() hash.Hash
	iterations int
	salt       string
	sum        []byte
}

// parsePBKDF2 は "pbkdf2[:hash[:iterations]]$salt$hex" を分解します。
func parsePBKDF2(digest string) (*parsedPBKDF2, error) {
	parts := strings.Split(digest, "$")
	if len(parts) != 3 {
		return nil, ErrMalformedDigest
	}
	method, salt, sumHex := parts[0], parts[1], parts[2]
	if salt == "" || sumHex == "" {
		return nil, ErrMalformedDigest
	}

	args := strings.Split(method, ":")
	if args[0] != "pbkdf2" || len(args) > 3 {
		return nil, ErrMalformedDigest
	}

	parsed := &parsedPBKDF2{
		hashName:   "sha256",
		iterations: defaultIterations,
		salt:       salt,
	}
	if len(args) >= 2 && args[1] != "" {
		parsed.hashName = args[1]
	}
	if len(args) == 3 && args[2] != "" {
		n, err := strconv.Atoi(args[2])
		if err != nil || n <= 0 {
			return nil, ErrMalformedDigest
		}
		parsed.iterations = n
	}

	switch parsed.hashName {
	case "sha256":
		parsed.newHash = sha256.New
	case "sha512":
		parsed.newHash = sha512.New
	case "sha1":
		parsed.newHash = sha1.New
	default:
		return nil, ErrMalformedDigest
	}

	sum, err := hex.DecodeString(sumHex)
	if err != nil || len(sum) == 0 {
		return nil, ErrMalformedDigest
	}
	parsed.sum = sum
	return parsed, nil
}

func isBcrypt(digest string) bool {
	return strings.HasPrefix(digest, "$2a$") ||
		strings.HasPrefix(digest, "$2b$") ||
		strings.HasPrefix(digest, "$2y$")
}

// generateSalt は英数字のみのソルトを生成します（Werkzeug と同じ文字集合）。
func generateSalt(length int) (string, error) {
	const maxByte = 256 - (256 % len(saltChars))

	out := make([]byte, 0, length)
	buf := make([]byte, length*2)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= maxByte {
				continue
			}
			out = append(out, saltChars[int(b)%len(saltChars)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
