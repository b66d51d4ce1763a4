/**
 * Kraken engine - local OCR via the kraken command-line tool
 *
 * Invokes kraken as a detached process per page:
 *   kraken -i <image> <output.txt> segment -bl -i <segmodel> ocr -m <recmodel>
 * Exit status zero means success; the recognized text is read back from the
 * output path (empty when kraken produced no output file). Kraken emits no
 * word-level scores, so page confidence stays zero.
 */

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/annsrecipes/digitizer/internal/logging"
)

// KrakenEngine shells out to the kraken binary for each page
type KrakenEngine struct {
	binPath           string
	segmentationModel string
	recognitionModel  string
	scratchDir        string
	logger            *logging.Logger
}

// NewKrakenEngine creates an engine invoking binPath with the given models.
// scratchDir receives the per-page text files kraken writes.
func NewKrakenEngine(binPath, segmentationModel, recognitionModel, scratchDir string, logger *logging.Logger) *KrakenEngine {
	return &KrakenEngine{
		binPath:           binPath,
		segmentationModel: segmentationModel,
		recognitionModel:  recognitionModel,
		scratchDir:        scratchDir,
		logger:            logger,
	}
}

// Name implements Engine
func (e *KrakenEngine) Name() string { return "kraken" }

// Available reports whether the kraken binary can be found
func (e *KrakenEngine) Available() error {
	if _, err := exec.LookPath(e.binPath); err != nil {
		return fmt.Errorf("kraken binary not found (looked for %q): %w", e.binPath, err)
	}
	return nil
}

// SegmentationModel returns the configured segmentation model identifier
func (e *KrakenEngine) SegmentationModel() string { return e.segmentationModel }

// RecognitionModel returns the configured recognition model identifier
func (e *KrakenEngine) RecognitionModel() string { return e.recognitionModel }

// Recognize implements Engine. The page image must be on disk.
func (e *KrakenEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	if in.ImagePath == "" {
		return Result{}, fmt.Errorf("kraken engine requires an on-disk page image")
	}

	textOut := filepath.Join(e.scratchDir, fmt.Sprintf("page_%03d_kraken.txt", in.PageNumber))

	cmd := exec.CommandContext(ctx, e.binPath,
		"-i", in.ImagePath, textOut,
		"segment", "-bl", "-i", e.segmentationModel,
		"ocr", "-m", e.recognitionModel,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Info("Running kraken", "page", in.PageNumber, "image", in.ImagePath)

	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return Result{}, fmt.Errorf("kraken failed on page %d: %s", in.PageNumber, diag)
	}

	data, err := os.ReadFile(textOut)
	if err != nil {
		// Exit zero with no output file means an empty page, not a failure
		if os.IsNotExist(err) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("failed to read kraken output for page %d: %w", in.PageNumber, err)
	}

	return Result{Text: strings.TrimSpace(string(data))}, nil
}
