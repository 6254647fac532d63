package service

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/disintegration/imaging"
)

// thumbnailMaxDim bounds the longest edge of generated thumbnails.
const thumbnailMaxDim = 320

// GenerateThumbnail downsizes a bill image for list views. Returns JPEG
// bytes. PDFs and unreadable images return an error; callers treat a
// missing thumbnail as cosmetic.
func GenerateThumbnail(imageData []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(imageData), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	thumb := imaging.Fit(img, thumbnailMaxDim, thumbnailMaxDim, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
