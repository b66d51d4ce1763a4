/**
 * OCR engine contract - shared types for the interchangeable backends
 *
 * One image in, one normalized result out. The pipeline converts engine
 * faults into error page records; engines just return errors.
 */

package ocr

import (
	"context"
	"strings"
)

// Input is a single page image submitted for recognition
type Input struct {
	PageNumber int

	// PNG holds the encoded page image for engines that consume bytes
	PNG []byte

	// ImagePath points at the image on disk for engines that shell out
	ImagePath string
}

// Line is a recognized text line with its confidence score (0-100)
type Line struct {
	Text       string
	Confidence float64
}

// Word is a recognized word with its confidence score (0-100)
type Word struct {
	Text       string
	Confidence float64
}

// Result captures normalized OCR output for a single page image
type Result struct {
	// Text is the linearized page text, lines joined by newlines
	Text string

	// Confidence is the arithmetic mean of per-line confidence, 0 when the
	// engine detected no lines or provides no scores
	Confidence float64

	Lines []Line
	Words []Word

	// HasWordConfidence is true for engines that score individual words
	HasWordConfidence bool
}

// WordCount returns the number of detected words, falling back to a
// whitespace split for engines without word-level output
func (r Result) WordCount() int {
	if r.HasWordConfidence {
		return len(r.Words)
	}
	return len(strings.Fields(r.Text))
}

// LowConfidenceWords returns the words scored below the threshold
func (r Result) LowConfidenceWords(threshold float64) []Word {
	if !r.HasWordConfidence {
		return nil
	}
	var flagged []Word
	for _, w := range r.Words {
		if w.Confidence < threshold {
			flagged = append(flagged, w)
		}
	}
	return flagged
}

// Engine is the OCR backend contract: one page image in, one result out
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// meanLineConfidence averages per-line scores, 0 with no lines detected
func meanLineConfidence(lines []Line) float64 {
	if len(lines) == 0 {
		return 0
	}
	sum := 0.0
	for _, l := range lines {
		sum += l.Confidence
	}
	return sum / float64(len(lines))
}
