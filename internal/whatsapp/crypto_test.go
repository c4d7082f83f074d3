package whatsapp

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/hkdf"
)

// encryptMedia mirrors the provider-side encryption: HKDF expansion, PKCS#7
// padding, AES-CBC, then a 10-byte trailer.
func encryptMedia(t *testing.T, plain []byte, mediaKey []byte, mimeType string) []byte {
	t.Helper()

	expanded := make([]byte, mediaKeyExpandedLen)
	kdf := hkdf.New(sha256.New, mediaKey, make([]byte, 32), []byte(appInfoFor(mimeType)))
	_, err := io.ReadFull(kdf, expanded)
	require.NoError(t, err)

	pad := aes.BlockSize - len(plain)%aes.BlockSize
	padded := make([]byte, len(plain)+pad)
	copy(padded, plain)
	for i := len(plain); i < len(padded); i++ {
		padded[i] = byte(pad)
	}

	block, err := aes.NewCipher(expanded[16:48])
	require.NoError(t, err)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, expanded[:16]).CryptBlocks(out, padded)

	trailer := make([]byte, mediaTrailerLen)
	_, err = rand.Read(trailer)
	require.NoError(t, err)
	return append(out, trailer...)
}

func TestDecryptMediaRoundTrip(t *testing.T) {
	mediaKey := make([]byte, 32)
	_, err := rand.Read(mediaKey)
	require.NoError(t, err)

	plain := []byte("OggS fake opus audio payload for the decoder")
	payload := encryptMedia(t, plain, mediaKey, "audio/ogg; codecs=opus")

	got, err := DecryptMedia(payload, base64.StdEncoding.EncodeToString(mediaKey), "audio/ogg; codecs=opus")
	require.NoError(t, err)
	require.Equal(t, plain, got)
}

func TestDecryptMediaWrongKey(t *testing.T) {
	mediaKey := make([]byte, 32)
	_, err := rand.Read(mediaKey)
	require.NoError(t, err)

	payload := encryptMedia(t, []byte("segredo"), mediaKey, "audio/ogg")

	other := make([]byte, 32)
	_, err = rand.Read(other)
	require.NoError(t, err)

	got, err := DecryptMedia(payload, base64.StdEncoding.EncodeToString(other), "audio/ogg")
	if err == nil {
		// CBC with a wrong key rarely yields valid padding; when it does the
		// plaintext still must differ.
		require.NotEqual(t, []byte("segredo"), got)
	}
}

func TestDecryptMediaTooShort(t *testing.T) {
	key := base64.StdEncoding.EncodeToString(make([]byte, 32))
	_, err := DecryptMedia([]byte("curto"), key, "audio/ogg")
	require.Error(t, err)
}

func TestDecryptMediaBadKeyEncoding(t *testing.T) {
	_, err := DecryptMedia(make([]byte, 64), "not-base64!!", "audio/ogg")
	require.Error(t, err)
}

func TestAppInfoFor(t *testing.T) {
	require.Equal(t, "WhatsApp Audio Keys", appInfoFor("audio/ogg; codecs=opus"))
	require.Equal(t, "WhatsApp Image Keys", appInfoFor("image/jpeg"))
	require.Equal(t, "WhatsApp Video Keys", appInfoFor("video/mp4"))
	require.Equal(t, "WhatsApp Document Keys", appInfoFor("document/pdf"))
	// Unknown types fall back to the audio info string.
	require.Equal(t, "WhatsApp Audio Keys", appInfoFor("application/octet-stream"))
}
