/**
 * AWS Textract engine - cloud text detection for handwritten pages
 *
 * Submits raw PNG bytes to DetectDocumentText and normalizes the returned
 * LINE and WORD blocks. No other block types are consumed.
 */

package ocr

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/annsrecipes/digitizer/internal/logging"
)

// TextractAPI is the subset of the Textract client the engine uses
type TextractAPI interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput,
		optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// TextractEngine performs OCR through the AWS Textract service
type TextractEngine struct {
	client TextractAPI
	logger *logging.Logger
}

// NewTextractEngine creates an engine backed by the default AWS credential
// chain in the given region
func NewTextractEngine(ctx context.Context, region string, logger *logging.Logger) (*TextractEngine, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return &TextractEngine{
		client: textract.NewFromConfig(cfg),
		logger: logger,
	}, nil
}

// NewTextractEngineWithClient creates an engine with an explicit client
func NewTextractEngineWithClient(client TextractAPI, logger *logging.Logger) *TextractEngine {
	return &TextractEngine{client: client, logger: logger}
}

// Name implements Engine
func (e *TextractEngine) Name() string { return "textract" }

// Recognize implements Engine. Page confidence is the arithmetic mean of
// per-line confidence; zero when no lines were detected.
func (e *TextractEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: in.PNG},
	})
	if err != nil {
		return Result{}, fmt.Errorf("textract detect_document_text failed: %w", err)
	}

	var (
		lines []Line
		words []Word
	)
	for _, block := range out.Blocks {
		text := ""
		if block.Text != nil {
			text = *block.Text
		}
		confidence := 0.0
		if block.Confidence != nil {
			confidence = float64(*block.Confidence)
		}

		switch block.BlockType {
		case types.BlockTypeLine:
			lines = append(lines, Line{Text: text, Confidence: confidence})
		case types.BlockTypeWord:
			words = append(words, Word{Text: text, Confidence: confidence})
		}
	}

	lineTexts := make([]string, len(lines))
	for i, l := range lines {
		lineTexts[i] = l.Text
	}

	result := Result{
		Text:              strings.Join(lineTexts, "\n"),
		Confidence:        meanLineConfidence(lines),
		Lines:             lines,
		Words:             words,
		HasWordConfidence: true,
	}

	e.logger.Info("Textract page recognized",
		"page", in.PageNumber, "lines", len(lines), "words", len(words),
		"confidence", fmt.Sprintf("%.1f", result.Confidence))

	return result, nil
}
