// Package symbol renders byte chunks into QR rasters and detects them back.
package symbol

import (
	"fmt"
	"image"

	"github.com/makiuchi-d/gozxing"
	multiqr "github.com/makiuchi-d/gozxing/multi/qrcode"
	qrc "github.com/skip2/go-qrcode"

	"github.com/mkarlsen/qrvid/internal/config"
	"github.com/mkarlsen/qrvid/internal/errors"
)

// Codec is the per-frame symbol primitive: render one chunk into a raster
// and detect the symbols inside a raster.
type Codec interface {
	// Render draws data as a single symbol. Fails with CapacityExceeded when
	// data exceeds the level's byte capacity.
	Render(data []byte, cfg *config.Config) (image.Image, error)

	// Detect returns the concatenated payloads of all symbols found in img,
	// in the order the detector reports them. Fails when none are present.
	Detect(img image.Image) ([]byte, error)
}

// QR is the Codec implementation backed by go-qrcode and gozxing.
type QR struct{}

// NewQR returns the default QR codec.
func NewQR() QR { return QR{} }

func toRecoveryLevel(l config.ErrorCorrectionLevel) qrc.RecoveryLevel {
	switch l {
	case config.LevelL:
		return qrc.Low
	case config.LevelQ:
		return qrc.High
	case config.LevelH:
		return qrc.Highest
	default:
		return qrc.Medium
	}
}

// Render draws data as one QR symbol scaled to cfg.BoxSize pixels per module.
func (QR) Render(data []byte, cfg *config.Config) (image.Image, error) {
	maxBytes := cfg.ErrorCorrection.MaxBytes()
	if len(data) > maxBytes {
		return nil, &errors.CoreError{
			Kind:    errors.KindCapacityExceeded,
			Message: fmt.Sprintf("data is %d bytes, symbol capacity is %d bytes at level %s", len(data), maxBytes, cfg.ErrorCorrection),
		}
	}

	q, err := qrc.New(string(data), toRecoveryLevel(cfg.ErrorCorrection))
	if err != nil {
		return nil, &errors.CoreError{
			Kind:       errors.KindCapacityExceeded,
			Message:    fmt.Sprintf("symbol encoder rejected %d bytes", len(data)),
			Underlying: err,
		}
	}
	q.DisableBorder = cfg.Border == 0

	// Negative size scales each module to BoxSize pixels, letting the symbol
	// version dictate the raster dimensions.
	return q.Image(-cfg.BoxSize), nil
}

// Detect finds all QR symbols in img and concatenates their payloads in
// detector order.
func (QR) Detect(img image.Image) ([]byte, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("binarizing raster: %w", err)
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
		// Byte-mode payloads come back as text; Latin-1 keeps the mapping
		// between code units and payload bytes bijective.
		gozxing.DecodeHintType_CHARACTER_SET: "ISO-8859-1",
	}

	results, err := multiqr.NewQRCodeMultiReader().DecodeMultiple(bmp, hints)
	if err != nil {
		return nil, fmt.Errorf("no symbol detected: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no symbol detected")
	}

	var out []byte
	for _, r := range results {
		out = append(out, textToBytes(r.GetText())...)
	}
	return out, nil
}

// textToBytes maps a detected text back to payload bytes. With the Latin-1
// charset hint every code point fits one byte; if the detector guessed a
// different charset the raw UTF-8 form is the original byte sequence.
func textToBytes(s string) []byte {
	for _, r := range s {
		if r > 0xff {
			return []byte(s)
		}
	}
	out := make([]byte, 0, len(s))
	for _, r := range s {
		out = append(out, byte(r))
	}
	return out
}
