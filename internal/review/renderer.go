/**
 * Side-by-side review renderer
 *
 * Turns a results document plus the re-rendered page images into a paginated
 * PDF for manual correction: original scan on the left, extracted text on
 * the right, low-confidence pages highlighted, failed pages and tier
 * statistics in trailing sections. Rendering never fails because an image or
 * a page's text is missing; it degrades to explicit placeholders.
 */

package review

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"github.com/annsrecipes/digitizer/internal/config"
	digerrors "github.com/annsrecipes/digitizer/internal/errors"
	"github.com/annsrecipes/digitizer/internal/logging"
	"github.com/annsrecipes/digitizer/internal/raster"
	"github.com/annsrecipes/digitizer/internal/results"
)

const (
	pageMargin  = 10.0
	pageWidth   = 210.0 // A4 portrait, mm
	columnGap   = 5.0
	textLineHt  = 4.5
	annexMarker = "--- Low Confidence Words ---"
)

// PageRasterizer renders every page of a source document
type PageRasterizer interface {
	RenderAll(path string) ([]raster.PageImage, error)
}

// Renderer produces the review document
type Renderer struct {
	cfg    *config.Config
	bounds Bounds
	logger *logging.Logger
}

// NewRenderer creates a renderer using the configured threshold, tier bounds
// and formatting settings
func NewRenderer(cfg *config.Config, logger *logging.Logger) *Renderer {
	return &Renderer{
		cfg:    cfg,
		bounds: Bounds{High: cfg.TierHigh, Low: cfg.TierLow},
		logger: logger,
	}
}

// NeedsHighlight reports whether a page's text region is flagged for review
func (r *Renderer) NeedsHighlight(confidence float64) bool {
	return confidence < r.cfg.ConfidenceThreshold
}

// StagePageImages re-renders the source document into a transient scratch
// directory and returns page number -> image path plus a cleanup function.
// Any failure here degrades to an empty map: review generation must never
// fail solely because images are unavailable.
func (r *Renderer) StagePageImages(rasterizer PageRasterizer, sourcePath string) (map[int]string, func()) {
	noop := func() {}

	if sourcePath == "" {
		r.logger.Warn("No source document configured, review will use placeholders")
		return nil, noop
	}
	if _, err := os.Stat(sourcePath); err != nil {
		r.logger.Warn("Source document not found, review will use placeholders", "path", sourcePath)
		return nil, noop
	}

	scratch := filepath.Join(os.TempDir(), "digitizer-review-"+uuid.NewString())
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		r.logger.Warn("Cannot create scratch directory, review will use placeholders", "error", err)
		return nil, noop
	}
	cleanup := func() {
		if err := os.RemoveAll(scratch); err != nil {
			r.logger.Warn("Failed to clean up scratch directory", "dir", scratch, "error", err)
		}
	}

	pages, err := rasterizer.RenderAll(sourcePath)
	if err != nil {
		r.logger.Warn("Failed to render source document, review will use placeholders", "error", err)
		return nil, cleanup
	}

	images := make(map[int]string, len(pages))
	for _, page := range pages {
		if page.Err != nil {
			r.logger.Warn("Skipping undecodable page image", "page", page.PageNumber)
			continue
		}
		path := filepath.Join(scratch, fmt.Sprintf("page_%03d.png", page.PageNumber))
		if err := os.WriteFile(path, page.PNG, 0o644); err != nil {
			r.logger.Warn("Failed to stage page image", "page", page.PageNumber, "error", err)
			continue
		}
		images[page.PageNumber] = path
	}

	r.logger.Info("Staged page images for review", "count", len(images), "dir", scratch)
	return images, cleanup
}

// Generate writes the review document to outPath. images maps page numbers
// to staged PNG paths and may be nil. artifactDir, when non-empty, is
// consulted for the low-confidence annex of summaries that carry no word
// data.
func (r *Renderer) Generate(doc *results.Document, images map[int]string, artifactDir, outPath string) error {
	stats := ComputeStats(doc, r.bounds)
	successful := doc.Successful()
	failed := doc.Failed()

	r.logger.Info("Creating review document", "path", outPath,
		"pages", stats.TotalPages, "successful", stats.Successful)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	r.writeHeader(pdf, tr, doc, stats)

	for _, page := range successful {
		r.writePage(pdf, tr, doc, page, images, artifactDir)
	}

	if len(failed) > 0 {
		r.writeFailedSection(pdf, tr, failed)
	}

	r.writeStatsSection(pdf, stats)

	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return digerrors.NewRenderFailedError(err)
	}

	r.logger.Info("Review document created", "path", outPath)
	return nil
}

func (r *Renderer) writeHeader(pdf *fpdf.Fpdf, tr func(string) string, doc *results.Document, stats Stats) {
	font := r.cfg.ReviewFontFamily

	pdf.AddPage()
	pdf.SetFont(font, "B", 16)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("OCR Review: %s", doc.PDFName)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(font, "B", r.cfg.ReviewFontSize+1)
	pdf.CellFormat(0, 6, "Processing Information:", "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", r.cfg.ReviewFontSize)

	info := []string{
		fmt.Sprintf("- Total pages: %d", stats.TotalPages),
		fmt.Sprintf("- Successfully processed: %d", stats.Successful),
		fmt.Sprintf("- Processing method: %s", doc.Backend),
		fmt.Sprintf("- Source PDF: %s", doc.PDFName),
	}
	if doc.RecognitionModel != "" {
		info = append(info, fmt.Sprintf("- Recognition model: %s", doc.RecognitionModel))
	}
	if stats.Successful > 0 {
		info = append(info, fmt.Sprintf("- Average confidence: %.1f%%", stats.MeanConfidence))
	}
	for _, line := range info {
		pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont(font, "B", r.cfg.ReviewFontSize)
	pdf.CellFormat(0, 5, "Instructions:", "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", r.cfg.ReviewFontSize)
	pdf.MultiCell(0, textLineHt, tr("Compare the original scan (left) with the extracted text (right) and correct "+
		"any errors against the scan. Pages highlighted in yellow fell below the review threshold "+
		"and may need extra attention."), "", "L", false)
	pdf.Ln(2)

	pdf.SetFont(font, "B", r.cfg.ReviewFontSize)
	pdf.CellFormat(0, 5, "Confidence Scoring:", "", 1, "L", false, 0, "")
	pdf.SetFont(font, "", r.cfg.ReviewFontSize)
	pdf.MultiCell(0, textLineHt, tr(fmt.Sprintf("Each page carries a confidence score from the OCR backend. Pages "+
		"below %.0f%% are highlighted for review; higher scores generally indicate more accurate extraction.",
		r.cfg.ConfidenceThreshold)), "", "L", false)

	if stats.Failed > 0 {
		pdf.Ln(2)
		pdf.MultiCell(0, textLineHt, tr(fmt.Sprintf("Note: %d pages had processing errors and appear in the "+
			"Processing Errors section instead.", stats.Failed)), "", "L", false)
	}
}

func (r *Renderer) writePage(pdf *fpdf.Fpdf, tr func(string) string, doc *results.Document,
	page results.PageRecord, images map[int]string, artifactDir string) {
	font := r.cfg.ReviewFontFamily

	pdf.AddPage()

	// Heading colored by confidence tier
	pdf.SetFont(font, "B", 12)
	switch r.bounds.Classify(page.Confidence) {
	case TierHigh:
		pdf.SetTextColor(0, 128, 0)
	case TierMedium:
		pdf.SetTextColor(255, 165, 0)
	default:
		pdf.SetTextColor(255, 0, 0)
	}
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("Page %d (Confidence: %.1f%%)", page.PageNumber, page.Confidence)),
		"", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	top := pdf.GetY() + 2
	imageWidth := r.cfg.ReviewImageWidthMM
	textX := pageMargin + imageWidth + columnGap
	textWidth := pageWidth - pageMargin - textX

	// Left region: the staged page image, or a manual-lookup placeholder
	imagePath, haveImage := images[page.PageNumber]
	if haveImage {
		if _, err := os.Stat(imagePath); err != nil {
			haveImage = false
		}
	}
	if haveImage {
		pdf.ImageOptions(imagePath, pageMargin, top, imageWidth, 0, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	} else {
		pdf.SetXY(pageMargin, top)
		pdf.SetFont(font, "", r.cfg.ReviewFontSize)
		pdf.MultiCell(imageWidth, textLineHt, tr(fmt.Sprintf(
			"[Original page image not available]\n\n"+
				"To view the original image:\n"+
				"1. Open the source PDF: %s\n"+
				"2. Navigate to page %d\n"+
				"3. Compare with the OCR text on the right",
			doc.PDFName, page.PageNumber)), "", "L", false)
	}

	// Right region: extracted text, highlighted when below the threshold
	pdf.SetXY(textX, top)
	pdf.SetFont(font, "", r.cfg.ReviewFontSize)
	text := strings.TrimSpace(page.Text)
	if text == "" {
		text = "[No text detected on this page]"
	}
	highlight := r.NeedsHighlight(page.Confidence)
	if highlight {
		pdf.SetFillColor(255, 255, 0)
	}
	pdf.MultiCell(textWidth, textLineHt, tr(text), "", "L", highlight)

	// Italic annex note when low-confidence words were recorded
	if r.hasLowConfidenceWords(page, artifactDir) {
		pdf.SetX(textX)
		pdf.Ln(2)
		pdf.SetX(textX)
		pdf.SetFont(font, "I", r.cfg.ReviewFontSize-1)
		pdf.SetTextColor(255, 140, 0)
		pdf.MultiCell(textWidth, textLineHt, tr(annexMarker+"\n"+
			"Some words on this page have low confidence scores. "+
			"Please review carefully against the original image."), "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}
}

// hasLowConfidenceWords prefers the structured record and only falls back to
// the page text artifact when the summary carries no word data
func (r *Renderer) hasLowConfidenceWords(page results.PageRecord, artifactDir string) bool {
	if len(page.LowConfidenceWords) > 0 {
		return true
	}
	if artifactDir == "" {
		return false
	}
	artifact, ok := results.LoadPageArtifact(artifactDir, page.PageNumber)
	return ok && artifact.HasLowConfidenceWords
}

func (r *Renderer) writeFailedSection(pdf *fpdf.Fpdf, tr func(string) string, failed []results.PageRecord) {
	font := r.cfg.ReviewFontFamily

	pdf.AddPage()
	pdf.SetFont(font, "B", 14)
	pdf.CellFormat(0, 10, "Processing Errors", "", 1, "L", false, 0, "")

	pdf.SetFont(font, "", r.cfg.ReviewFontSize)
	pdf.MultiCell(0, textLineHt, "The following pages encountered processing errors:", "", "L", false)
	pdf.Ln(2)

	for _, page := range failed {
		detail := page.ErrorDetail
		if detail == "" {
			detail = "Unknown error"
		}
		pdf.SetFont(font, "B", r.cfg.ReviewFontSize)
		pdf.CellFormat(25, textLineHt, tr(fmt.Sprintf("Page %d:", page.PageNumber)), "", 0, "L", false, 0, "")
		pdf.SetFont(font, "", r.cfg.ReviewFontSize)
		pdf.MultiCell(0, textLineHt, tr(detail), "", "L", false)
		pdf.Ln(1)
	}
}

func (r *Renderer) writeStatsSection(pdf *fpdf.Fpdf, stats Stats) {
	font := r.cfg.ReviewFontFamily

	pdf.AddPage()
	pdf.SetFont(font, "B", 14)
	pdf.CellFormat(0, 10, "Processing Statistics", "", 1, "L", false, 0, "")

	pdf.SetFont(font, "", r.cfg.ReviewFontSize)
	lines := []string{
		fmt.Sprintf("- Total pages processed: %d", stats.TotalPages),
		fmt.Sprintf("- Successful pages: %d", stats.Successful),
		fmt.Sprintf("- Failed pages: %d", stats.Failed),
	}
	if stats.Successful > 0 {
		lines = append(lines,
			fmt.Sprintf("- Average confidence: %.1f%%", stats.MeanConfidence),
			fmt.Sprintf("- High confidence pages (>=%.0f%%): %d", r.bounds.High, stats.High),
			fmt.Sprintf("- Medium confidence pages (%.0f-%.0f%%): %d", r.bounds.Low, r.bounds.High-1, stats.Medium),
			fmt.Sprintf("- Low confidence pages (<%.0f%%): %d", r.bounds.Low, stats.Low),
		)
	}
	for _, line := range lines {
		pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
	}
}
