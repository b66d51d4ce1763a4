/**
 * Page rasterizer - renders source PDF pages to PNG via MuPDF
 *
 * Pages are rendered in order at a fixed scale against the 72-unit PDF base
 * (scale 3 -> 216 DPI). A page that cannot be decoded is returned with its
 * error recorded so the pipeline can degrade per page instead of aborting.
 */

package raster

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	fitz "github.com/gen2brain/go-fitz"

	digerrors "github.com/annsrecipes/digitizer/internal/errors"
	"github.com/annsrecipes/digitizer/internal/logging"
)

// BaseDPI is the PDF unit base the scale factor is applied to
const BaseDPI = 72

// PageImage is one rendered page. PNG is nil when Err is set.
type PageImage struct {
	PageNumber int
	PNG        []byte
	Err        error
}

// Rasterizer renders PDF pages at a fixed resolution
type Rasterizer struct {
	scale  float64
	logger *logging.Logger
}

// New creates a rasterizer with the given scale factor
func New(scale float64, logger *logging.Logger) *Rasterizer {
	return &Rasterizer{scale: scale, logger: logger}
}

// DPI returns the effective rendering resolution
func (r *Rasterizer) DPI() float64 {
	return BaseDPI * r.scale
}

// RenderAll renders every page of the source document, in page order, with
// no page skipped and no page merged. Returns SOURCE_NOT_FOUND when the
// document path does not exist; a page-level decode failure is recorded on
// the corresponding PageImage.
func (r *Rasterizer) RenderAll(path string) ([]PageImage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, digerrors.NewSourceNotFoundError(path)
	}

	doc, err := fitz.New(path)
	if err != nil {
		return nil, digerrors.NewSetupError(fmt.Sprintf("failed to open source document %s", path), err)
	}
	defer doc.Close()

	total := doc.NumPage()
	r.logger.Info("Rendering source document", "path", path, "pages", total, "dpi", r.DPI())

	pages := make([]PageImage, 0, total)
	for i := 0; i < total; i++ {
		pageNum := i + 1

		img, err := doc.ImageDPI(i, r.DPI())
		if err != nil {
			r.logger.Warn("Failed to rasterize page, recording as error page", "page", pageNum, "error", err)
			pages = append(pages, PageImage{
				PageNumber: pageNum,
				Err:        digerrors.NewRasterizationError(pageNum, err),
			})
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			r.logger.Warn("Failed to encode page image, recording as error page", "page", pageNum, "error", err)
			pages = append(pages, PageImage{
				PageNumber: pageNum,
				Err:        digerrors.NewRasterizationError(pageNum, err),
			})
			continue
		}

		pages = append(pages, PageImage{PageNumber: pageNum, PNG: buf.Bytes()})
	}

	return pages, nil
}
