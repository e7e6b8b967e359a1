package storage

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const MaxImageBytes = 5 << 20

var (
	ErrImageTooLarge = errors.New("Image size should not exceed 5MB.")
	ErrImageType     = errors.New("Only .jpg, .jpeg, .png files are allowed.")
)

var imageExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// Upload is one incoming file.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

// ValidateImage checks size, extension and the sniffed content type.
// On success u.Body still yields the full file and u.ContentType is the sniffed type.
func ValidateImage(u *Upload) error {
	if u.Size > MaxImageBytes {
		return ErrImageTooLarge
	}
	want, ok := imageExts[strings.ToLower(filepath.Ext(u.Filename))]
	if !ok {
		return ErrImageType
	}

	head := make([]byte, 3072)
	n, err := io.ReadFull(u.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return err
	}
	head = head[:n]
	m := mimetype.Detect(head)
	if !m.Is(want) {
		return ErrImageType
	}
	u.ContentType = want
	u.Body = io.MultiReader(bytes.NewReader(head), u.Body)
	return nil
}
