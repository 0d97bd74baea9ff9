package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// MaxStoredBytes is the size every stored image must fit in.
const MaxStoredBytes = 2 << 20

const minQuality = 10

// pass is one compression attempt: fit within MaxSide at Quality, then keep
// lowering quality until the output fits Target.
type pass struct {
	MaxSide int
	Quality int
	Target  int
}

var passes = []pass{
	{MaxSide: 1920, Quality: 80, Target: MaxStoredBytes},
	{MaxSide: 1440, Quality: 60, Target: MaxStoredBytes * 3 / 4},
}

var passthroughTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

var ErrTooLarge = errors.New("image does not fit the size cap")

type Compressed struct {
	Data        []byte
	ContentType string
	// Reencoded is false when the original bytes were kept.
	Reencoded bool
}

// Compress returns data unchanged when it is already small and in a web
// format; otherwise it re-encodes to JPEG, shrinking resolution and quality
// until the result is at most MaxStoredBytes.
func Compress(data []byte, contentType string) (Compressed, error) {
	if len(data) <= MaxStoredBytes && passthroughTypes[contentType] {
		return Compressed{Data: data, ContentType: contentType}, nil
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Compressed{}, fmt.Errorf("decode image: %w", err)
	}

	var out []byte
	for _, p := range passes {
		scaled := fit(src, p.MaxSide)
		for q := p.Quality; q >= minQuality; q -= 10 {
			out, err = encodeJPEG(scaled, q)
			if err != nil {
				return Compressed{}, err
			}
			if len(out) <= p.Target {
				return Compressed{Data: out, ContentType: "image/jpeg", Reencoded: true}, nil
			}
		}
	}

	if len(out) <= MaxStoredBytes {
		return Compressed{Data: out, ContentType: "image/jpeg", Reencoded: true}, nil
	}
	return Compressed{}, fmt.Errorf("%w: %d bytes after compression", ErrTooLarge, len(out))
}

func fit(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	if w >= h {
		h = h * maxSide / w
		w = maxSide
	} else {
		w = w * maxSide / h
		h = maxSide
	}

	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
