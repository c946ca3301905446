package wire

import (
	"bytes"
	"compress/gzip"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/pay-seva/sms-payment-processor/internal/domain"
)

// smsLengthLimit is the ceiling for a single GSM message. framingOverhead
// accounts for the fixed envelope characters wrapped around the ciphertext
// when a message is authored.
const smsLengthLimit = 160
const framingOverhead = 10

// Codec compresses and encrypts transaction payloads so they fit inside
// one SMS. Encryption is AES in ECB mode with PKCS#7 padding: no IV is
// transmitted, which keeps the envelope short at the cost of identical
// plaintexts producing identical ciphertexts. That trade is part of the
// wire format; changing it breaks every deployed client.
type Codec struct {
	block cipher.Block
}

func NewCodec(base64Key string) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(base64Key))
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key is not valid base64", domain.ErrCodec)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: bad encryption key length %d", domain.ErrCodec, len(key))
	}

	return &Codec{block: block}, nil
}

func (c *Codec) CompressAndEncrypt(plaintext string) (string, error) {
	compressed, err := compress(plaintext)
	if err != nil {
		return "", fmt.Errorf("%w: compress: %v", domain.ErrCodec, err)
	}

	padded := pkcs7Pad(compressed, c.block.BlockSize())
	encrypted := make([]byte, len(padded))
	for i := 0; i < len(padded); i += c.block.BlockSize() {
		c.block.Encrypt(encrypted[i:], padded[i:])
	}

	return base64.RawURLEncoding.EncodeToString(encrypted), nil
}

func (c *Codec) DecryptAndDecompress(transportText string) (string, error) {
	encrypted, err := decodeTransportText(transportText)
	if err != nil {
		return "", err
	}
	if len(encrypted) == 0 || len(encrypted)%c.block.BlockSize() != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a whole number of blocks", domain.ErrCodec, len(encrypted))
	}

	decrypted := make([]byte, len(encrypted))
	for i := 0; i < len(encrypted); i += c.block.BlockSize() {
		c.block.Decrypt(decrypted[i:], encrypted[i:])
	}

	unpadded, err := pkcs7Unpad(decrypted, c.block.BlockSize())
	if err != nil {
		return "", err
	}

	plaintext, err := decompress(unpadded)
	if err != nil {
		return "", fmt.Errorf("%w: decompress: %v", domain.ErrCodec, err)
	}

	return plaintext, nil
}

// FitsInSMS reports whether the payload's compressed-and-encrypted form
// plus envelope framing stays under the SMS ceiling. Used when authoring
// messages, never during ingestion.
func (c *Codec) FitsInSMS(jsonPayload string) bool {
	encoded, err := c.CompressAndEncrypt(jsonPayload)
	if err != nil {
		return false
	}
	return len(encoded)+framingOverhead <= smsLengthLimit
}

// decodeTransportText accepts the URL-safe unpadded alphabet the protocol
// emits, but tolerates standard-alphabet and padded input from older
// clients.
func decodeTransportText(s string) ([]byte, error) {
	normalized := strings.NewReplacer("+", "-", "/", "_").Replace(strings.TrimRight(s, "="))
	decoded, err := base64.RawURLEncoding.DecodeString(normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext is not valid base64", domain.ErrCodec)
	}
	return decoded, nil
}

func compress(data string) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(data)); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(data []byte) (string, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	defer gz.Close()

	out, err := io.ReadAll(gz)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty ciphertext", domain.ErrCodec)
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, fmt.Errorf("%w: bad padding", domain.ErrCodec)
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, fmt.Errorf("%w: bad padding", domain.ErrCodec)
		}
	}
	return data[:len(data)-padding], nil
}
