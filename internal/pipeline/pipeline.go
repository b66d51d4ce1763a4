/**
 * OCR pipeline - rasterize, recognize, aggregate
 *
 * Strictly sequential: one page at a time through rasterization and OCR, in
 * page-number order. Backend faults and undecodable pages become error page
 * records; only a missing source document or an unopenable PDF aborts the
 * run. Artifacts are fanned out through the results writer.
 */

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/annsrecipes/digitizer/internal/config"
	digerrors "github.com/annsrecipes/digitizer/internal/errors"
	"github.com/annsrecipes/digitizer/internal/logging"
	"github.com/annsrecipes/digitizer/internal/ocr"
	"github.com/annsrecipes/digitizer/internal/raster"
	"github.com/annsrecipes/digitizer/internal/results"
)

// PageImagesDirName holds the rendered page images inside the output dir
const PageImagesDirName = "page_images"

// PageImageName returns the saved page image filename
func PageImageName(pageNumber int) string {
	return fmt.Sprintf("page-%03d.png", pageNumber)
}

// PageRasterizer renders every page of a source document
type PageRasterizer interface {
	RenderAll(path string) ([]raster.PageImage, error)
}

// Pipeline runs one source document through rasterization, OCR and
// aggregation
type Pipeline struct {
	cfg        *config.Config
	engine     ocr.Engine
	rasterizer PageRasterizer
	logger     *logging.Logger
}

// New creates a pipeline around the selected OCR engine
func New(cfg *config.Config, engine ocr.Engine, rasterizer PageRasterizer, logger *logging.Logger) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		engine:     engine,
		rasterizer: rasterizer,
		logger:     logger,
	}
}

// Run processes the configured source document and persists all artifacts.
// Returns the aggregated results document.
func (p *Pipeline) Run(ctx context.Context) (*results.Document, error) {
	src := p.cfg.SourcePDF
	if src == "" {
		return nil, digerrors.NewSetupError("no source document configured (set SOURCE_PDF)", nil)
	}
	if _, err := os.Stat(src); err != nil {
		return nil, digerrors.NewSourceNotFoundError(src)
	}

	imagesDir := filepath.Join(p.cfg.OutputDir, PageImagesDirName)
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, digerrors.NewSetupError(fmt.Sprintf("cannot create output directory %s", imagesDir), err)
	}

	p.logger.Info("Step 1: Rendering pages", "source", src, "scale", p.cfg.RasterScale)
	pages, err := p.rasterizer.RenderAll(src)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Rendered pages", "count", len(pages))

	p.logger.Info("Step 2: Running OCR", "engine", p.engine.Name(), "pages", len(pages))
	writer := results.NewWriter(p.cfg.OutputDir, p.logger)

	records := make([]results.PageRecord, 0, len(pages))
	for _, page := range pages {
		record := p.processPage(ctx, writer, imagesDir, page)
		records = append(records, record)

		if record.HasError {
			p.logger.Warn("Page failed", "page", record.PageNumber, "detail", record.ErrorDetail)
		} else {
			p.logger.Info("Page processed", "page", record.PageNumber,
				"confidence", fmt.Sprintf("%.1f", record.Confidence), "words", record.WordCount)
		}
	}

	doc := results.BuildDocument(filepath.Base(src), p.engine.Name(), records)
	if k, ok := p.engine.(*ocr.KrakenEngine); ok {
		doc.SegmentationModel = k.SegmentationModel()
		doc.RecognitionModel = k.RecognitionModel()
	}

	p.logger.Info("Step 3: Writing combined artifacts")
	if err := writer.WriteCombined(doc); err != nil {
		return nil, err
	}
	summaryPath, err := writer.WriteSummary(doc, p.cfg.SourceStem())
	if err != nil {
		return nil, err
	}

	p.logger.Info("Processing complete",
		"summary", summaryPath,
		"successful", doc.SuccessfulPages,
		"failed", doc.FailedPages,
		"mean_confidence", fmt.Sprintf("%.1f", doc.MeanConfidence()))

	return doc, nil
}

// processPage runs one page through OCR and writes its text artifact.
// Failures are absorbed into the returned record.
func (p *Pipeline) processPage(ctx context.Context, writer *results.Writer, imagesDir string, page raster.PageImage) results.PageRecord {
	if page.Err != nil {
		return results.PageRecord{
			PageNumber:  page.PageNumber,
			HasError:    true,
			ErrorDetail: page.Err.Error(),
		}
	}

	imagePath := filepath.Join(imagesDir, PageImageName(page.PageNumber))
	if err := os.WriteFile(imagePath, page.PNG, 0o644); err != nil {
		// The engine may still work from bytes; keep going without the file
		p.logger.Warn("Failed to save page image", "page", page.PageNumber, "error", err)
		imagePath = ""
	}

	res, err := p.engine.Recognize(ctx, ocr.Input{
		PageNumber: page.PageNumber,
		PNG:        page.PNG,
		ImagePath:  imagePath,
	})
	if err != nil {
		ocrErr := digerrors.NewOCRFailedError(page.PageNumber, p.engine.Name(), err)
		record := results.PageRecord{
			PageNumber:  page.PageNumber,
			HasError:    true,
			ErrorDetail: err.Error(),
		}
		p.logger.Error("OCR backend fault", "page", page.PageNumber, "error", ocrErr)
		if werr := writer.WritePageArtifact(record, false); werr != nil {
			p.logger.Warn("Failed to write page artifact", "page", page.PageNumber, "error", werr)
		}
		return record
	}

	lowConfidence := res.LowConfidenceWords(p.cfg.ConfidenceThreshold)
	record := results.PageRecord{
		PageNumber: page.PageNumber,
		Text:       res.Text,
		Confidence: res.Confidence,
		WordCount:  res.WordCount(),
	}
	for _, w := range lowConfidence {
		record.LowConfidenceWords = append(record.LowConfidenceWords, results.Word{
			Text:       w.Text,
			Confidence: w.Confidence,
		})
	}

	if err := writer.WritePageArtifact(record, res.HasWordConfidence); err != nil {
		p.logger.Warn("Failed to write page artifact", "page", page.PageNumber, "error", err)
	}

	return record
}
