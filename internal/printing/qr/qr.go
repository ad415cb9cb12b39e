package qr

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"time"

	"github.com/skip2/go-qrcode"
)

// Entry is what a digital entry QR carries.
type Entry struct {
	SaleID       int64     `json:"sale_id"`
	EventID      *int64    `json:"event_id,omitempty"`
	TicketTypeID int64     `json:"ticket_type_id"`
	Quantity     int       `json:"quantity"`
	ControlCode  string    `json:"control_code"`
	IssuedAt     time.Time `json:"issued_at"`
}

var ErrInvalidToken = errors.New("invalid entry token")

type QRGenerator struct {
	secret []byte
}

func NewQRGenerator(secret string) *QRGenerator {
	hashed := sha256.Sum256([]byte(secret))
	return &QRGenerator{secret: hashed[:]}
}

// Token encrypts the entry into a URL-safe string.
func (q *QRGenerator) Token(entry Entry) (string, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	return q.encrypt(data)
}

// PNG renders the encrypted entry token as a QR image.
func (q *QRGenerator) PNG(entry Entry, size int) ([]byte, error) {
	token, err := q.Token(entry)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, size)
}

// Decrypt reverses Token.
func (q *QRGenerator) Decrypt(token string) (*Entry, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	if len(raw) < gcm.NonceSize()+gcm.Overhead() {
		return nil, ErrInvalidToken
	}
	nonce, sealed := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
	plain, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var entry Entry
	if err := json.Unmarshal(plain, &entry); err != nil {
		return nil, ErrInvalidToken
	}
	return &entry, nil
}

func (q *QRGenerator) encrypt(data []byte) (string, error) {
	block, err := aes.NewCipher(q.secret)
	if err != nil {
		return "", err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := gcm.Seal(nonce, nonce, data, nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}
