// Package uploads stores profile pictures.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Raymond-engr/DRID-Research/pkg/idx"
)

// MaxPictureSize bounds a single profile picture.
const MaxPictureSize = 5 << 20

var (
	ErrTooLarge        = errors.New("file exceeds 5MB")
	ErrUnsupportedType = errors.New("only jpeg, png and webp images are accepted")
)

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store persists an object and returns the URL it is served from.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)

	// Delete removes key. A missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Object is a stored picture.
type Object struct {
	Key string
	URL string
}

// Picture is a validated image ready to store.
type Picture struct {
	ContentType string
	Data        []byte
}

// ReadPicture reads at most MaxPictureSize bytes from r and checks the
// content type by sniffing rather than trusting the client.
func ReadPicture(r io.Reader) (Picture, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPictureSize+1))
	if err != nil {
		return Picture{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxPictureSize {
		return Picture{}, ErrTooLarge
	}

	ct := http.DetectContentType(data)
	if _, ok := extensions[ct]; !ok {
		return Picture{}, ErrUnsupportedType
	}
	return Picture{ContentType: ct, Data: data}, nil
}

// Key names a new object under profile-pictures/ by date.
func (p Picture) Key(now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("profile-pictures/%04d/%02d/%02d/%s%s",
		now.Year(), now.Month(), now.Day(), idx.NewAt(now), extensions[p.ContentType])
}

// Save validates r and stores it.
func Save(ctx context.Context, s Store, r io.Reader, now time.Time) (Object, error) {
	pic, err := ReadPicture(r)
	if err != nil {
		return Object{}, err
	}
	key := pic.Key(now)
	url, err := s.Put(ctx, key, pic.ContentType, bytes.NewReader(pic.Data), int64(len(pic.Data)))
	if err != nil {
		return Object{}, err
	}
	return Object{Key: key, URL: url}, nil
}
