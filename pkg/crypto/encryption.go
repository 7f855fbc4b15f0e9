package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"io"
	"strings"
)

// Cipher 设置字段加解密
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

var (
	ErrInvalidKey      = errors.New("encryption key must be 32 bytes (64 hex chars)")
	ErrMalformedCipher = errors.New("malformed ciphertext")
	ErrDecryptFailed   = errors.New("ciphertext was not produced by this key")
)

// AESCipher AES-256-GCM 实现
// 密文格式: base64(iv) + ":" + base64(ciphertext)
type AESCipher struct {
	key []byte
}

var _ Cipher = (*AESCipher)(nil)

// NewAESCipher 使用 64 位 hex 密钥创建
func NewAESCipher(hexKey string) (*AESCipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil || len(key) != 32 {
		return nil, ErrInvalidKey
	}
	return &AESCipher{key: key}, nil
}

func (c *AESCipher) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}

	iv := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	sealed := gcm.Seal(nil, iv, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(iv) + ":" + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt 空串解密为空串；格式错误返回 ErrMalformedCipher
func (c *AESCipher) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}

	ivPart, dataPart, ok := strings.Cut(ciphertext, ":")
	if !ok {
		return "", ErrMalformedCipher
	}
	iv, err := base64.StdEncoding.DecodeString(ivPart)
	if err != nil {
		return "", ErrMalformedCipher
	}
	data, err := base64.StdEncoding.DecodeString(dataPart)
	if err != nil {
		return "", ErrMalformedCipher
	}

	gcm, err := c.gcm()
	if err != nil {
		return "", err
	}
	if len(iv) != gcm.NonceSize() {
		return "", ErrMalformedCipher
	}

	plain, err := gcm.Open(nil, iv, data, nil)
	if err != nil {
		return "", ErrDecryptFailed
	}
	return string(plain), nil
}

func (c *AESCipher) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
