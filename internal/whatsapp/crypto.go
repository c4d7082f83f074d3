package whatsapp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
)

// Per-media-type HKDF info strings fixed by the WhatsApp media protocol.
var mediaAppInfo = map[string]string{
	"image":    "WhatsApp Image Keys",
	"video":    "WhatsApp Video Keys",
	"audio":    "WhatsApp Audio Keys",
	"document": "WhatsApp Document Keys",
}

// mediaTrailerLen is the MAC trailer appended after the ciphertext.
const mediaTrailerLen = 10

const mediaKeyExpandedLen = 112

// DecryptMedia decrypts one downloaded media payload. The 32-byte media key
// from the message is expanded with HKDF-SHA256 (zero salt, per-type info)
// into 112 bytes: IV at [0:16], cipher key at [16:48]. The 10-byte
// authentication trailer is stripped before AES-CBC decryption and the
// PKCS#7 padding removed after.
func DecryptMedia(payload []byte, mediaKeyB64, mimeType string) ([]byte, error) {
	mediaKey, err := base64.StdEncoding.DecodeString(mediaKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode media key: %w", err)
	}

	expanded := make([]byte, mediaKeyExpandedLen)
	kdf := hkdf.New(sha256.New, mediaKey, make([]byte, 32), []byte(appInfoFor(mimeType)))
	if _, err := io.ReadFull(kdf, expanded); err != nil {
		return nil, fmt.Errorf("derive media key: %w", err)
	}
	iv := expanded[:16]
	key := expanded[16:48]

	if len(payload) < mediaTrailerLen+aes.BlockSize {
		return nil, errors.New("media payload too short")
	}
	ciphertext := payload[:len(payload)-mediaTrailerLen]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, errors.New("media ciphertext not block-aligned")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init media cipher: %w", err)
	}
	plain := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ciphertext)

	return stripPKCS7(plain)
}

// appInfoFor maps a mimetype like "audio/ogg; codecs=opus" to its info string.
func appInfoFor(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, "/", 2)[0]))
	if info, ok := mediaAppInfo[base]; ok {
		return info
	}
	return mediaAppInfo["audio"]
}

func stripPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("empty plaintext")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, errors.New("invalid media padding")
	}
	return data[:len(data)-pad], nil
}
