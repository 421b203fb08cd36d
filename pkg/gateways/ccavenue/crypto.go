package ccavenue

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	errCiphertextEncoding = errors.New("ccavenue: ciphertext is not hex")
	errCiphertextLength   = errors.New("ccavenue: ciphertext length is not a block multiple")
	errPadding            = errors.New("ccavenue: invalid padding")
)

// CCAvenue's fixed IV.
var iv = []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

func blockFor(workingKey string) (cipher.Block, error) {
	key := md5.Sum([]byte(workingKey))
	return aes.NewCipher(key[:])
}

// Encrypt returns hex(AES-128-CBC(pkcs7(plaintext))) keyed by MD5(workingKey).
func Encrypt(workingKey string, plaintext []byte) (string, error) {
	block, err := blockFor(workingKey)
	if err != nil {
		return "", err
	}
	padded := pad(plaintext, block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return hex.EncodeToString(out), nil
}

// Decrypt reverses Encrypt. Any malformed ciphertext or padding fails.
func Decrypt(workingKey, ciphertext string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, errCiphertextEncoding
	}
	block, err := blockFor(workingKey)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || len(raw)%block.BlockSize() != 0 {
		return nil, errCiphertextLength
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, raw)
	return unpad(out, block.BlockSize())
}

func pad(data []byte, size int) []byte {
	n := size - len(data)%size
	return append(append([]byte{}, data...), bytes.Repeat([]byte{byte(n)}, n)...)
}

func unpad(data []byte, size int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n == 0 || n > size || n > len(data) {
		return nil, errPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, errPadding
		}
	}
	return data[:len(data)-n], nil
}
