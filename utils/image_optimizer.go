package utils

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"strings"

	"github.com/nfnt/resize"
)

// ErrUnsupportedImage is returned for anything other than JPEG or PNG
var ErrUnsupportedImage = errors.New("unsupported image format")

// IsImage checks if the content type is a supported image format
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/jpeg") ||
		strings.HasPrefix(contentType, "image/png")
}

// OptimizeImage shrinks an image to at most maxWidth pixels wide, keeping the
// aspect ratio. It returns the encoded bytes and the file extension to use.
func OptimizeImage(data []byte, maxWidth uint) ([]byte, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", ErrUnsupportedImage
	}

	var ext string
	switch format {
	case "jpeg":
		ext = ".jpg"
	case "png":
		ext = ".png"
	default:
		return nil, "", ErrUnsupportedImage
	}

	if maxWidth == 0 || uint(img.Bounds().Dx()) <= maxWidth {
		return data, ext, nil
	}

	m := resize.Resize(maxWidth, 0, img, resize.Lanczos3)

	var buf bytes.Buffer
	if format == "jpeg" {
		err = jpeg.Encode(&buf, m, &jpeg.Options{Quality: 85})
	} else {
		err = png.Encode(&buf, m)
	}
	if err != nil {
		return nil, "", err
	}

	return buf.Bytes(), ext, nil
}
