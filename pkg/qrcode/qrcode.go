package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	// ErrEmptyContent is returned when the content string is empty or only whitespace.
	ErrEmptyContent = errors.New("content cannot be empty")
	// ErrFailedToGenerate is returned when the underlying library fails.
	ErrFailedToGenerate = errors.New("failed to generate QR code")
)

// DefaultSize is the image size in pixels used when no size is given.
const DefaultSize = 256

// GeneratePNG renders the content as a PNG QR code of the given size.
// Medium error correction keeps the image scannable on typical phone cameras
// while leaving room for long otpauth URIs.
func GeneratePNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = DefaultSize
	}
	png, err := skipqrcode.Encode(content, skipqrcode.Medium, size)
	if err != nil {
		return nil, errors.Join(ErrFailedToGenerate, err)
	}
	return png, nil
}

// GenerateDataURI renders the content as a base64 PNG data URI suitable for
// embedding directly into an <img> tag during authenticator enrollment.
func GenerateDataURI(content string, size int) (string, error) {
	png, err := GeneratePNG(content, size)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)), nil
}
