// Package crypto encrypts login verdicts with AES-CBC under a per-license
// key and IV. Plaintext is zero padded and always gains at least one zero
// byte, which keeps existing clients able to strip the padding.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
)

func zeroPad(data []byte) []byte {
	padLen := aes.BlockSize - len(data)%aes.BlockSize
	return append(data, make([]byte, padLen)...)
}

func newBlock(key, iv string) (cipher.Block, error) {
	block, err := aes.NewCipher([]byte(key))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("iv must be %d bytes, got %d", aes.BlockSize, len(iv))
	}
	return block, nil
}

// Encrypt returns the CBC ciphertext of plaintext.
func Encrypt(plaintext []byte, key, iv string) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	padded := zeroPad(bytes.Clone(plaintext))
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, []byte(iv)).CryptBlocks(out, padded)
	return out, nil
}

// EncryptToBase64 is Encrypt followed by standard base64 encoding.
func EncryptToBase64(plaintext []byte, key, iv string) (string, error) {
	out, err := Encrypt(plaintext, key, iv)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(out), nil
}

// DecryptBase64 reverses EncryptToBase64 and strips the trailing zeros.
func DecryptBase64(encoded, key, iv string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64: %w", err)
	}
	if len(data) == 0 || len(data)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("ciphertext is not a multiple of the block size")
	}
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(block, []byte(iv)).CryptBlocks(out, data)
	return bytes.TrimRight(out, "\x00"), nil
}
