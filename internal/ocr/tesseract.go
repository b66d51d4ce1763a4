/**
 * Tesseract engine - offline OCR via gosseract
 *
 * Kept as a no-setup alternative when neither AWS credentials nor kraken
 * models are available. Line and word confidences come from the page
 * iterator, so the low-confidence annex works the same as with Textract.
 */

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/annsrecipes/digitizer/internal/logging"
)

// TesseractEngine performs OCR in-process through the Tesseract library
type TesseractEngine struct {
	language string
	logger   *logging.Logger
}

// NewTesseractEngine creates an engine with the given trained language
func NewTesseractEngine(language string, logger *logging.Logger) *TesseractEngine {
	return &TesseractEngine{language: language, logger: logger}
}

// Name implements Engine
func (e *TesseractEngine) Name() string { return "tesseract" }

// Recognize implements Engine
func (e *TesseractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	client := gosseract.NewClient()
	defer client.Close()

	if e.language != "" {
		if err := client.SetLanguage(e.language); err != nil {
			return Result{}, fmt.Errorf("failed to set tesseract language %q: %w", e.language, err)
		}
	}

	if err := client.SetImageFromBytes(in.PNG); err != nil {
		return Result{}, fmt.Errorf("failed to set page image: %w", err)
	}

	lineBoxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract line detection failed: %w", err)
	}

	wordBoxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return Result{}, fmt.Errorf("tesseract word detection failed: %w", err)
	}

	lines := make([]Line, 0, len(lineBoxes))
	lineTexts := make([]string, 0, len(lineBoxes))
	for _, box := range lineBoxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		lines = append(lines, Line{Text: text, Confidence: box.Confidence})
		lineTexts = append(lineTexts, text)
	}

	words := make([]Word, 0, len(wordBoxes))
	for _, box := range wordBoxes {
		text := strings.TrimSpace(box.Word)
		if text == "" {
			continue
		}
		words = append(words, Word{Text: text, Confidence: box.Confidence})
	}

	result := Result{
		Text:              strings.Join(lineTexts, "\n"),
		Confidence:        meanLineConfidence(lines),
		Lines:             lines,
		Words:             words,
		HasWordConfidence: true,
	}

	e.logger.Info("Tesseract page recognized",
		"page", in.PageNumber, "lines", len(lines), "words", len(words),
		"confidence", fmt.Sprintf("%.1f", result.Confidence))

	return result, nil
}
