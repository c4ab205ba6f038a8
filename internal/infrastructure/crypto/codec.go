// Package crypto protects verification codes at rest.
//
// The key is derived with PBKDF2-SHA256 from a configured secret, salted
// with the configured 16-byte vector, which also serves as the cipher IV.
// Because the IV never changes, equal codes always encrypt to equal
// ciphertext. Stored values depend on that format, so it is kept as is.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/avatarctic/account-lifecycle/internal/core/domain/apperr"
	"github.com/avatarctic/account-lifecycle/internal/core/ports"
	"golang.org/x/crypto/pbkdf2"
)

const (
	AlgorithmAES256CBC = "aes-256-cbc"
	AlgorithmAES256CTR = "aes-256-ctr"

	keyIterations = 100000
	keyLength     = 32
	vectorLength  = 16
)

// CodecConfig holds the externally supplied cipher settings.
type CodecConfig struct {
	Secret    string
	Vector    string // hex encoded
	Algorithm string
}

// Codec implements ports.CodeCipher.
type Codec struct {
	algorithm string
	block     cipher.Block
	iv        []byte
}

var _ ports.CodeCipher = (*Codec)(nil)

// NewCodec validates cfg and derives the cipher key once.
func NewCodec(cfg CodecConfig) (*Codec, error) {
	if cfg.Secret == "" || cfg.Vector == "" {
		return nil, apperr.NewConfigurationError("VERIFICATION_SECRET_KEY/VERIFICATION_VECTOR", "encryption secret key or vector is not set")
	}

	iv, err := hex.DecodeString(cfg.Vector)
	if err != nil || len(iv) != vectorLength {
		return nil, apperr.NewConfigurationError("VERIFICATION_VECTOR", "invalid vector length, must be 16 bytes of hex")
	}

	algorithm := strings.ToLower(strings.TrimSpace(cfg.Algorithm))
	if algorithm == "" {
		algorithm = AlgorithmAES256CBC
	}
	if algorithm != AlgorithmAES256CBC && algorithm != AlgorithmAES256CTR {
		return nil, apperr.NewConfigurationError("VERIFICATION_ALGORITHM", fmt.Sprintf("unsupported algorithm %q", cfg.Algorithm))
	}

	key := pbkdf2.Key([]byte(cfg.Secret), iv, keyIterations, keyLength, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.NewConfigurationError("VERIFICATION_SECRET_KEY", err.Error())
	}

	return &Codec{algorithm: algorithm, block: block, iv: iv}, nil
}

// Encrypt returns the lowercase hex ciphertext of code.
func (c *Codec) Encrypt(code string) (string, error) {
	if code == "" {
		return "", fmt.Errorf("encrypt: empty code")
	}

	plaintext := []byte(code)
	switch c.algorithm {
	case AlgorithmAES256CTR:
		out := make([]byte, len(plaintext))
		cipher.NewCTR(c.block, c.iv).XORKeyStream(out, plaintext)
		return hex.EncodeToString(out), nil
	default:
		padded := pkcs7Pad(plaintext, c.block.BlockSize())
		out := make([]byte, len(padded))
		cipher.NewCBCEncrypter(c.block, c.iv).CryptBlocks(out, padded)
		return hex.EncodeToString(out), nil
	}
}

// Decrypt reverses Encrypt. Any structural problem with ciphertext is
// reported as apperr.ErrDecryption.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", fmt.Errorf("%w: encrypted code is empty", apperr.ErrDecryption)
	}

	raw, err := hex.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: ciphertext is not hex", apperr.ErrDecryption)
	}

	var plaintext []byte
	switch c.algorithm {
	case AlgorithmAES256CTR:
		plaintext = make([]byte, len(raw))
		cipher.NewCTR(c.block, c.iv).XORKeyStream(plaintext, raw)
	default:
		bs := c.block.BlockSize()
		if len(raw) == 0 || len(raw)%bs != 0 {
			return "", fmt.Errorf("%w: ciphertext is not a whole number of blocks", apperr.ErrDecryption)
		}
		buf := make([]byte, len(raw))
		cipher.NewCBCDecrypter(c.block, c.iv).CryptBlocks(buf, raw)
		plaintext, err = pkcs7Unpad(buf, bs)
		if err != nil {
			return "", fmt.Errorf("%w: %v", apperr.ErrDecryption, err)
		}
	}

	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext is not valid utf-8", apperr.ErrDecryption)
	}
	return string(plaintext), nil
}

func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	return append(append(make([]byte, 0, len(b)+n), b...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize || n > len(b) {
		return nil, fmt.Errorf("bad padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("bad padding")
		}
	}
	return b[:len(b)-n], nil
}
