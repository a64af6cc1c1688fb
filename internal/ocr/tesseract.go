package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// extractWithTesseract runs the local Tesseract engine over the image.
// gosseract has no context support, so the recognition runs in a goroutine
// and the result is dropped if the caller went away.
func (s *Service) extractWithTesseract(ctx context.Context, image []byte, lang string) (string, error) {
	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)

	go func() {
		client := gosseract.NewClient()
		defer client.Close()

		if err := client.SetImageFromBytes(image); err != nil {
			ch <- result{err: fmt.Errorf("failed to set OCR image: %w", err)}
			return
		}
		if err := client.SetLanguage(lang); err != nil {
			ch <- result{err: fmt.Errorf("failed to set OCR language: %w", err)}
			return
		}
		text, err := client.Text()
		if err != nil {
			ch <- result{err: fmt.Errorf("failed to recognize text: %w", err)}
			return
		}
		ch <- result{text: strings.TrimSpace(text)}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		slog.Info("Extracted OCR text", "provider", "tesseract", "lang", lang, "length", len(res.text))
		return res.text, nil
	}
}
