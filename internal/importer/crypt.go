package importer

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"fmt"
	"os"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltSize  = 16
	nonceSize = 16
	tagSize   = 16
	kdfRounds = 100000
)

// DecryptFile 解密 AES-256-GCM 加密的文件
// 文件格式: salt(16) + nonce(16) + tag(16) + ciphertext
func DecryptFile(path string, password string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Decrypt(data, password)
}

func Decrypt(data []byte, password string) ([]byte, error) {
	if len(data) < saltSize+nonceSize+tagSize {
		return nil, fmt.Errorf("file too small")
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+nonceSize]
	tag := data[saltSize+nonceSize : saltSize+nonceSize+tagSize]
	ciphertext := data[saltSize+nonceSize+tagSize:]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	// GCM 的 decrypt 需要 ciphertext+tag 拼在一起
	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}
	return plaintext, nil
}

// Encrypt produces the layout Decrypt reads. salt and nonce must be 16 bytes.
func Encrypt(plaintext []byte, password string, salt, nonce []byte) ([]byte, error) {
	if len(salt) != saltSize || len(nonce) != nonceSize {
		return nil, fmt.Errorf("salt and nonce must be %d bytes", saltSize)
	}
	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, saltSize+nonceSize+tagSize+len(ct))
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, kdfRounds, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, nonceSize)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return gcm, nil
}
