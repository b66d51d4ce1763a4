/**
 * Recipe digitizer - main entry point
 *
 * Subcommands:
 *   process   run the OCR pipeline over the configured source PDF
 *   review    render the side-by-side review document from OCR results
 *   run       process then review
 *   validate  check the environment before a run
 *
 * Configuration comes from environment variables (optionally a .env file);
 * there is no flag surface. Exit code 0 on success, 1 on any fatal setup
 * error.
 */

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/annsrecipes/digitizer/internal/config"
	"github.com/annsrecipes/digitizer/internal/logging"
	"github.com/annsrecipes/digitizer/internal/ocr"
	"github.com/annsrecipes/digitizer/internal/pipeline"
	"github.com/annsrecipes/digitizer/internal/raster"
	"github.com/annsrecipes/digitizer/internal/results"
	"github.com/annsrecipes/digitizer/internal/review"
)

func main() {
	logger := logging.NewLogger("digitizer")

	if err := godotenv.Load(".env"); err != nil {
		logger.Warn(".env not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	ctx := context.Background()

	switch command {
	case "process":
		err = runProcess(ctx, cfg, logger)
	case "review":
		err = runReview(cfg, logger)
	case "run":
		if err = runProcess(ctx, cfg, logger); err == nil {
			err = runReview(cfg, logger)
		}
	case "validate":
		err = runValidate(ctx, cfg, logger)
	default:
		fmt.Fprintf(os.Stderr, "Usage: digitizer <process|review|run|validate>\n")
		os.Exit(1)
	}

	if err != nil {
		logger.Error("Run failed", "command", command, "error", err)
		os.Exit(1)
	}
}

// buildEngine selects the OCR backend from configuration
func buildEngine(ctx context.Context, cfg *config.Config, logger *logging.Logger) (ocr.Engine, error) {
	switch cfg.OCRBackend {
	case config.BackendTextract:
		return ocr.NewTextractEngine(ctx, cfg.AWSRegion, logging.NewLogger("textract"))
	case config.BackendKraken:
		scratch := filepath.Join(cfg.OutputDir, "kraken_text")
		if err := os.MkdirAll(scratch, 0o755); err != nil {
			return nil, fmt.Errorf("cannot create kraken scratch directory: %w", err)
		}
		engine := ocr.NewKrakenEngine(cfg.KrakenPath, cfg.KrakenSegmentationModel,
			cfg.KrakenRecognitionModel, scratch, logging.NewLogger("kraken"))
		if err := engine.Available(); err != nil {
			return nil, err
		}
		return engine, nil
	case config.BackendTesseract:
		return ocr.NewTesseractEngine(cfg.TesseractLanguage, logging.NewLogger("tesseract")), nil
	default:
		return nil, fmt.Errorf("unknown OCR backend %q", cfg.OCRBackend)
	}
}

func runProcess(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	logger.Info("Starting OCR processing",
		"source", cfg.SourcePDF, "output", cfg.OutputDir, "backend", cfg.OCRBackend)

	engine, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}

	rasterizer := raster.New(cfg.RasterScale, logging.NewLogger("raster"))
	pipe := pipeline.New(cfg, engine, rasterizer, logging.NewLogger("pipeline"))

	doc, err := pipe.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("OCR processing complete",
		"success_rate", fmt.Sprintf("%d/%d", doc.SuccessfulPages, doc.TotalPages))
	return nil
}

func runReview(cfg *config.Config, logger *logging.Logger) error {
	logger.Info("Generating review document", "results_dir", cfg.OutputDir)

	summaryPath, err := results.FindSummary(cfg.OutputDir)
	if err != nil {
		return err
	}
	doc, err := results.LoadSummary(summaryPath)
	if err != nil {
		return err
	}
	logger.Info("Loaded OCR results", "summary", summaryPath,
		"pages", doc.TotalPages, "successful", doc.SuccessfulPages)

	renderer := review.NewRenderer(cfg, logging.NewLogger("review"))
	rasterizer := raster.New(cfg.RasterScale, logging.NewLogger("raster"))

	images, cleanup := renderer.StagePageImages(rasterizer, cfg.SourcePDF)
	defer cleanup()

	stem := doc.PDFName
	stem = stem[:len(stem)-len(filepath.Ext(stem))]
	outPath := filepath.Join(filepath.Dir(cfg.OutputDir), fmt.Sprintf("%s_OCR_Review.pdf", stem))

	if err := renderer.Generate(doc, images, cfg.OutputDir, outPath); err != nil {
		return err
	}

	if info, err := os.Stat(outPath); err == nil {
		logger.Info("Review document ready", "path", outPath,
			"size_mb", fmt.Sprintf("%.2f", float64(info.Size())/(1024*1024)))
	}
	return nil
}

// runValidate checks the environment before a run: source document, output
// directory and backend availability
func runValidate(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	failures := 0

	check := func(name string, err error) {
		if err != nil {
			logger.Error("Check failed", "check", name, "error", err)
			failures++
		} else {
			logger.Info("Check passed", "check", name)
		}
	}

	srcErr := error(nil)
	if cfg.SourcePDF == "" {
		srcErr = fmt.Errorf("SOURCE_PDF is not set")
	} else if _, err := os.Stat(cfg.SourcePDF); err != nil {
		srcErr = fmt.Errorf("source document not found: %s", cfg.SourcePDF)
	}
	check("source document", srcErr)

	outErr := error(nil)
	if cfg.OutputDir == "" {
		outErr = fmt.Errorf("OUTPUT_DIR is not set and cannot be derived")
	} else if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		outErr = fmt.Errorf("cannot create output directory: %w", err)
	}
	check("output directory", outErr)

	switch cfg.OCRBackend {
	case config.BackendKraken:
		engine := ocr.NewKrakenEngine(cfg.KrakenPath, cfg.KrakenSegmentationModel,
			cfg.KrakenRecognitionModel, os.TempDir(), logging.NewLogger("kraken"))
		check("kraken binary", engine.Available())
	case config.BackendTextract:
		_, err := ocr.NewTextractEngine(ctx, cfg.AWSRegion, logging.NewLogger("textract"))
		check("aws credentials", err)
	case config.BackendTesseract:
		check("tesseract", nil)
	}

	if failures > 0 {
		return fmt.Errorf("%d validation checks failed", failures)
	}
	logger.Info("All validation checks passed", "backend", cfg.OCRBackend)
	return nil
}
