package document

import (
	"bytes"
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

var ErrUnsupportedImage = errors.New("unsupported image format")

// maxCertificateEdge caps decoded certificate photos before embedding.
const maxCertificateEdge = 2000

// DetectImage returns "image/jpeg" or "image/png" from the leading magic bytes,
// or ErrUnsupportedImage with the detected type for anything else.
func DetectImage(b []byte) (string, error) {
	mt := mimetype.Detect(b)
	switch {
	case mt.Is("image/jpeg"), mt.Is("image/png"):
		return mt.String(), nil
	}
	return mt.String(), ErrUnsupportedImage
}

// normalizeImage applies EXIF orientation, bounds the size and re-encodes in
// the source format. It returns the encoded bytes and pixel dimensions.
func normalizeImage(b []byte, mime string) ([]byte, int, int, error) {
	img, err := imaging.Decode(bytes.NewReader(b), imaging.AutoOrientation(true))
	if err != nil {
		return nil, 0, 0, err
	}
	img = fitWithin(img, maxCertificateEdge)

	format := imaging.JPEG
	if mime == "image/png" {
		format = imaging.PNG
	}
	var out bytes.Buffer
	if err := imaging.Encode(&out, img, format, imaging.JPEGQuality(88)); err != nil {
		return nil, 0, 0, err
	}
	bounds := img.Bounds()
	return out.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

func fitWithin(img image.Image, edge int) image.Image {
	b := img.Bounds()
	if b.Dx() <= edge && b.Dy() <= edge {
		return img
	}
	return imaging.Fit(img, edge, edge, imaging.Lanczos)
}

// fitScale is the largest factor keeping a w×h image within frac of the page
// in both directions.
func fitScale(imgW, imgH int, pageW, pageH, frac float64) float64 {
	if imgW <= 0 || imgH <= 0 {
		return 1
	}
	sx := pageW * frac / float64(imgW)
	sy := pageH * frac / float64(imgH)
	if sx < sy {
		return sx
	}
	return sy
}
