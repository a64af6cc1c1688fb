// Package ocr extracts plain text from receipt images. A local Tesseract
// engine is the default; vision-capable LLM providers can be selected via
// REPLIQ_OCR_PROVIDER for receipts Tesseract struggles with.
package ocr

import (
	"context"
	"fmt"
	"os"
)

// DefaultLanguage is the OCR language hint used when a submission does not
// carry one. Receipts handled by this service are French.
const DefaultLanguage = "fra"

// Engine extracts text from a single image. lang is a provider-specific
// language hint (Tesseract trained-data name for the local engine).
type Engine interface {
	ExtractText(ctx context.Context, image []byte, lang string) (string, error)
}

// Service routes extraction to the configured provider.
type Service struct {
	provider string
}

// NewService picks the provider from REPLIQ_OCR_PROVIDER, defaulting to
// the local Tesseract engine.
func NewService() *Service {
	provider := os.Getenv("REPLIQ_OCR_PROVIDER")
	if provider == "" {
		provider = "tesseract"
	}
	return &Service{provider: provider}
}

// ExtractText runs OCR on the image with the configured provider. It is
// the latency-heavy step of a submission and must be called with a
// cancellable context off the interactive path.
func (s *Service) ExtractText(ctx context.Context, image []byte, lang string) (string, error) {
	if lang == "" {
		lang = DefaultLanguage
	}
	switch s.provider {
	case "tesseract":
		return s.extractWithTesseract(ctx, image, lang)
	case "ollama":
		return s.extractWithOllama(ctx, image, lang)
	case "openai":
		return s.extractWithOpenAI(ctx, image, lang)
	case "gemini":
		return s.extractWithGemini(ctx, image, lang)
	default:
		return "", fmt.Errorf("unsupported OCR provider: %s", s.provider)
	}
}

func buildOCRPrompt(lang string) string {
	return fmt.Sprintf(`You are performing OCR (Optical Character Recognition) on a photographed store receipt. The receipt language is %q.

Your task is to extract ALL visible text from the image exactly as it appears, preserving:
- Line breaks (one receipt line per output line)
- Capitalization
- Prices and quantities exactly as printed

INSTRUCTIONS:
1. Read the receipt from top to bottom
2. Transcribe every line, including totals, taxes and discounts
3. Do not add any interpretation, commentary, or explanations
4. If text is partially obscured, transcribe what you can see and use [?] for illegible portions

OUTPUT FORMAT:
Provide ONLY the extracted text. Do not include phrases like "Here is the text:".

Example output:
LIBRAIRIE DU CENTRE
LE PETIT PRINCE 12,50
TVA 0,69
TOTAL 12,50`, lang)
}
