// Package images resizes uploaded pictures and publishes the variants to
// object storage.
package images

import (
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
)

// Quality is the JPEG quality of resized variants.
const Quality = 100

var supportedTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpg":  {},
	"image/jpeg": {},
	"image/gif":  {},
}

// IsSupported reports whether contentType is an accepted upload type.
func IsSupported(contentType string) bool {
	_, ok := supportedTypes[contentType]
	return ok
}

// VariantPath is where the size variant of src is written.
func VariantPath(src string, size int) string {
	return fmt.Sprintf("%s-x%d", src, size)
}

// Resize scales src to size pixels wide, keeping the aspect ratio, and
// writes it as JPEG next to the source. It returns the variant path.
func Resize(src string, size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("invalid size %d", size)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", src, err)
	}

	b := img.Bounds()
	height := b.Dy() * size / b.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, size, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)

	out := VariantPath(src, size)
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}

	if err := jpeg.Encode(f, dst, &jpeg.Options{Quality: Quality}); err != nil {
		f.Close()
		_ = os.Remove(out)
		return "", fmt.Errorf("encode %s: %w", out, err)
	}

	return out, f.Close()
}
