// Package filecrypt implements the AES-CBC file-body encryption used by
// clients: a fresh random key and IV per upload, PKCS7 padding, and the
// SHA-256 content digest that clients compare after decrypting (§4 Client
// role, §9 Open Question b). Decrypt itself does not check the digest.
package filecrypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// KeySize is the AES key size in bytes (AES-128, matching the hex-32-char
// keys used throughout the worked examples).
const KeySize = 16

// ErrInvalidPadding is returned when PKCS7 padding fails to validate on decrypt.
var ErrInvalidPadding = errors.New("filecrypt: invalid padding")

// NewKey returns a fresh CSPRNG AES key, hex-encoded (the wire form of
// file_key).
func NewKey() (string, error) {
	buf := make([]byte, KeySize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewIV returns a fresh CSPRNG initialization vector, hex-encoded.
func NewIV() (string, error) {
	buf := make([]byte, aes.BlockSize)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Digest returns the lowercase-hex SHA-256 content hash of plaintext, the
// FileRecord.file_hash used by scenario S1.
func Digest(plaintext []byte) string {
	sum := sha256.Sum256(plaintext)
	return hex.EncodeToString(sum[:])
}

// Encrypt PKCS7-pads plaintext to a block multiple and AES-CBC-encrypts it
// under keyHex/ivHex, returning the hex-encoded ciphertext.
func Encrypt(plaintext []byte, keyHex, ivHex string) (string, error) {
	block, iv, err := newBlock(keyHex, ivHex)
	if err != nil {
		return "", err
	}
	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt, stripping PKCS7 padding.
func Decrypt(ciphertextHex, keyHex, ivHex string) ([]byte, error) {
	block, iv, err := newBlock(keyHex, ivHex)
	if err != nil {
		return nil, err
	}
	raw, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return nil, fmt.Errorf("filecrypt: decode ciphertext: %w", err)
	}
	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return nil, fmt.Errorf("filecrypt: ciphertext is not a block multiple")
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, raw)
	return pkcs7Unpad(out, block.BlockSize())
}

func newBlock(keyHex, ivHex string) (cipher.Block, []byte, error) {
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, nil, fmt.Errorf("filecrypt: decode key: %w", err)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, nil, fmt.Errorf("filecrypt: decode iv: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("filecrypt: new cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, nil, fmt.Errorf("filecrypt: iv must be %d bytes", block.BlockSize())
	}
	return block, iv, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - (len(data) % blockSize)
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPadding
	}
	padLen := int(data[len(data)-1])
	if padLen < 1 || padLen > blockSize || padLen > len(data) {
		return nil, ErrInvalidPadding
	}
	if !bytes.Equal(data[len(data)-padLen:], bytes.Repeat([]byte{byte(padLen)}, padLen)) {
		return nil, ErrInvalidPadding
	}
	return data[:len(data)-padLen], nil
}
