/**
 * Results model - normalized per-page OCR records and the results document
 *
 * The JSON summary is the contract between the OCR pipelines and the review
 * renderer: whichever backend produced the pages, the renderer only ever
 * reads this document back.
 */

package results

import (
	"fmt"
)

// Word is a recognized word with its individual confidence score (0-100)
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// PageRecord is the normalized OCR result for a single page.
// Created once per page during OCR and immutable thereafter.
type PageRecord struct {
	PageNumber  int     `json:"page_number"`
	Text        string  `json:"text"`
	Confidence  float64 `json:"confidence"`
	WordCount   int     `json:"word_count"`
	HasError    bool    `json:"has_error"`
	ErrorDetail string  `json:"error_detail,omitempty"`

	// LowConfidenceWords lists recognized words below the review threshold.
	// Backends without word-level scores (kraken) leave it empty.
	LowConfidenceWords []Word `json:"low_confidence_words,omitempty"`
}

// Document is the ordered collection of page records for one source PDF
type Document struct {
	PDFName           string       `json:"pdf_name"`
	Backend           string       `json:"backend"`
	SegmentationModel string       `json:"segmentation_model,omitempty"`
	RecognitionModel  string       `json:"recognition_model,omitempty"`
	TotalPages        int          `json:"total_pages"`
	SuccessfulPages   int          `json:"successful_pages"`
	FailedPages       int          `json:"failed_pages"`
	Pages             []PageRecord `json:"pages"`
}

// BuildDocument assembles a document from an ordered page sequence,
// filling in the aggregate counts
func BuildDocument(pdfName, backend string, pages []PageRecord) *Document {
	doc := &Document{
		PDFName:    pdfName,
		Backend:    backend,
		TotalPages: len(pages),
		Pages:      pages,
	}
	for _, p := range pages {
		if p.HasError {
			doc.FailedPages++
		} else {
			doc.SuccessfulPages++
		}
	}
	return doc
}

// Validate checks the document invariants: total_pages matches the page
// sequence length, page numbers form the contiguous range 1..total_pages,
// and the success/failure counts add up
func (d *Document) Validate() error {
	if d.TotalPages != len(d.Pages) {
		return fmt.Errorf("total_pages=%d does not match page sequence length %d", d.TotalPages, len(d.Pages))
	}

	for i, p := range d.Pages {
		if p.PageNumber != i+1 {
			return fmt.Errorf("page numbers are not contiguous: position %d holds page_number %d", i, p.PageNumber)
		}
	}

	if d.SuccessfulPages+d.FailedPages != d.TotalPages {
		return fmt.Errorf("successful_pages=%d + failed_pages=%d does not match total_pages=%d",
			d.SuccessfulPages, d.FailedPages, d.TotalPages)
	}

	return nil
}

// Successful returns the pages without a recorded error, in page order
func (d *Document) Successful() []PageRecord {
	pages := make([]PageRecord, 0, d.SuccessfulPages)
	for _, p := range d.Pages {
		if !p.HasError {
			pages = append(pages, p)
		}
	}
	return pages
}

// Failed returns the pages with a recorded error, in page order
func (d *Document) Failed() []PageRecord {
	pages := make([]PageRecord, 0, d.FailedPages)
	for _, p := range d.Pages {
		if p.HasError {
			pages = append(pages, p)
		}
	}
	return pages
}

// MeanConfidence returns the arithmetic mean confidence across successful
// pages, or 0 when no page succeeded
func (d *Document) MeanConfidence() float64 {
	sum := 0.0
	count := 0
	for _, p := range d.Pages {
		if !p.HasError {
			sum += p.Confidence
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
