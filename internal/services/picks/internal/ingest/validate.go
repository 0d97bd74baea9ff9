// Package ingest turns user photos into stored images with preview records:
// validate, compress, read EXIF, upload, describe.
package ingest

import (
	"fmt"
	"strings"
)

// MaxOriginalBytes caps a file before compression.
const MaxOriginalBytes = 50 << 20

type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int {
	return len(f.Data)
}

// Validate splits a batch into acceptable files and one error message per
// rejected file. A bad file never rejects its siblings.
func Validate(files []File) (valid []File, errs []string) {
	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			errs = append(errs, fmt.Sprintf("%s is not an image file", f.Name))
			continue
		}
		if f.Size() > MaxOriginalBytes {
			errs = append(errs, fmt.Sprintf("%s is too large (max 50MB before compression)", f.Name))
			continue
		}
		valid = append(valid, f)
	}
	return valid, errs
}
