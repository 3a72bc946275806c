package ocr

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
)

// maxWidth keeps upstream OCR payloads small; scans from phone cameras
// routinely arrive at 4000px+.
const maxWidth = 1600

// PreprocessDocument normalizes an uploaded scan before extraction:
// grayscale plus a downscale when the image is wider than maxWidth.
// Non-image payloads (PDFs) pass through untouched.
func PreprocessDocument(data []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	processed := imaging.Grayscale(img)
	if processed.Bounds().Dx() > maxWidth {
		processed = imaging.Resize(processed, maxWidth, 0, imaging.Lanczos)
	}

	encFormat := imaging.PNG
	if format == "jpeg" {
		encFormat = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, processed, encFormat); err != nil {
		return data
	}
	return buf.Bytes()
}
