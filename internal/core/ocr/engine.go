package ocr

import (
	"context"
	"errors"
	"image"

	"github.com/joseph-ayodele/offerscan/constants"
)

// ErrEmptyImage is returned when there is nothing to recognize.
var ErrEmptyImage = errors.New("ocr: empty image")

// Options tune a single recognition call.
type Options struct {
	Language    string
	Whitelist   string
	PageSegMode int
}

// DefaultOptions restricts recognition to the offer-letter character set with automatic segmentation.
func DefaultOptions(lang string) Options {
	if lang == "" {
		lang = constants.DefaultOCRLanguage
	}
	return Options{
		Language:    lang,
		Whitelist:   constants.OCRWhitelist,
		PageSegMode: constants.PSMAuto,
	}
}

// Engine recognizes text in an image. An empty result is not an error.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image, opts Options) (string, error)
}

func isEmpty(img image.Image) bool {
	return img == nil || img.Bounds().Empty()
}
