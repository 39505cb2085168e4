package provider

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	// Registered decoders for attachments.
	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// EncodePNG decodes an image in any registered format and re-encodes it as
// PNG, the single format images are carried in through histories.
func EncodePNG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if format == "png" {
		return data, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode %s image as png: %w", format, err)
	}
	return buf.Bytes(), nil
}

// LoadImageFile reads an image from disk and normalizes it to PNG.
func LoadImageFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image %s: %w", path, err)
	}
	out, err := EncodePNG(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}
