/**
 * Results aggregator - persists per-page text artifacts, the combined text
 * file and the JSON summary
 *
 * The text artifacts are derived, human-readable exports of the page
 * records; the JSON summary is the authoritative contract. A tolerant
 * artifact parser is kept for summaries that were produced without
 * word-level data.
 */

package results

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	digerrors "github.com/annsrecipes/digitizer/internal/errors"
	"github.com/annsrecipes/digitizer/internal/logging"
)

const (
	// CombinedTextName is the single artifact concatenating all pages
	CombinedTextName = "all_pages_combined.txt"

	// NoConfidenceWordsMarker is written when every word clears the threshold
	NoConfidenceWordsMarker = "None - all words have good confidence!"

	lowConfidenceHeader = "LOW CONFIDENCE WORDS (may need review):"

	separator = "=================================================="
)

// PageArtifactName returns the per-page text artifact filename
func PageArtifactName(pageNumber int) string {
	return fmt.Sprintf("page_%03d_ocr.txt", pageNumber)
}

// SummaryName returns the JSON summary filename for a source document stem
func SummaryName(stem string) string {
	return fmt.Sprintf("%s_summary.json", stem)
}

// Writer persists the artifacts for one processing run into a directory
type Writer struct {
	dir    string
	logger *logging.Logger
}

// NewWriter creates a writer rooted at the output directory
func NewWriter(dir string, logger *logging.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// WritePageArtifact writes the page text artifact: a confidence header, the
// raw text between separator lines and, when word-level scores exist, the
// low-confidence words annex
func (w *Writer) WritePageArtifact(p PageRecord, withAnnex bool) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Page %d - Confidence: %.1f%%\n", p.PageNumber, p.Confidence)
	b.WriteString(separator + "\n")
	b.WriteString(p.Text)
	b.WriteString("\n\n" + separator + "\n")

	if withAnnex {
		b.WriteString(lowConfidenceHeader + "\n")
		if len(p.LowConfidenceWords) > 0 {
			for _, word := range p.LowConfidenceWords {
				fmt.Fprintf(&b, "  '%s' (%.1f%%)\n", word.Text, word.Confidence)
			}
		} else {
			b.WriteString("  " + NoConfidenceWordsMarker + "\n")
		}
	}

	path := filepath.Join(w.dir, PageArtifactName(p.PageNumber))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write page artifact: %w", err)
	}
	return nil
}

// WriteCombined writes the single text artifact concatenating all pages with
// page-boundary separators
func (w *Writer) WriteCombined(doc *Document) error {
	var b strings.Builder

	fmt.Fprintf(&b, "%s - OCR Results\n", doc.PDFName)
	b.WriteString(separator + "\n")
	fmt.Fprintf(&b, "Source PDF: %s\n", doc.PDFName)
	fmt.Fprintf(&b, "OCR Backend: %s\n", doc.Backend)
	if doc.RecognitionModel != "" {
		fmt.Fprintf(&b, "Recognition Model: %s\n", doc.RecognitionModel)
	}
	fmt.Fprintf(&b, "Total Pages: %d\n", doc.TotalPages)
	fmt.Fprintf(&b, "Successful Pages: %d\n", doc.SuccessfulPages)
	b.WriteString(separator + "\n\n")

	for _, p := range doc.Pages {
		fmt.Fprintf(&b, "PAGE %d\n", p.PageNumber)
		b.WriteString("--------------------\n")
		switch {
		case p.HasError:
			detail := p.ErrorDetail
			if detail == "" {
				detail = "Unknown error"
			}
			fmt.Fprintf(&b, "[OCR Error: %s]", detail)
		case strings.TrimSpace(p.Text) == "":
			b.WriteString("[No text detected on this page]")
		default:
			b.WriteString(p.Text)
		}
		b.WriteString("\n\n" + separator + "\n\n")
	}

	path := filepath.Join(w.dir, CombinedTextName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write combined text: %w", err)
	}
	return nil
}

// WriteSummary persists the JSON summary and returns its path
func (w *Writer) WriteSummary(doc *Document, stem string) (string, error) {
	if err := doc.Validate(); err != nil {
		return "", fmt.Errorf("refusing to persist invalid results document: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode results document: %w", err)
	}

	path := filepath.Join(w.dir, SummaryName(stem))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write summary: %w", err)
	}
	return path, nil
}

// FindSummary locates the JSON summary inside a results directory
func FindSummary(dir string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", digerrors.NewResultsNotFoundError(dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*_summary.json"))
	if err == nil && len(matches) > 0 {
		return matches[0], nil
	}

	// Older local-pipeline runs used a fixed name
	legacy := filepath.Join(dir, "processing_results.json")
	if _, err := os.Stat(legacy); err == nil {
		return legacy, nil
	}

	return "", digerrors.NewResultsNotFoundError(filepath.Join(dir, "*_summary.json"))
}

// LoadSummary reads a results document back from its JSON summary
func LoadSummary(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, digerrors.NewResultsNotFoundError(path)
		}
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode summary %s: %w", path, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("summary %s is inconsistent: %w", path, err)
	}

	return &doc, nil
}

// PageArtifact is the parsed form of a per-page text artifact
type PageArtifact struct {
	Text string

	// HasLowConfidenceWords is true only when the annex lists actual words,
	// not when it carries the explicit "none" marker
	HasLowConfidenceWords bool
}

// ParsePageArtifact extracts the OCR text between the separator lines and
// reports whether the artifact flags low-confidence words
func ParsePageArtifact(r io.Reader) PageArtifact {
	var (
		artifact   PageArtifact
		textLines  []string
		separators int
		inAnnex    bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "=") {
			separators++
			continue
		}

		switch {
		case separators == 1:
			// Between the first and second separator lines: the raw OCR text
			textLines = append(textLines, line)
		case strings.HasPrefix(line, "LOW CONFIDENCE"):
			inAnnex = true
		case inAnnex:
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && trimmed != NoConfidenceWordsMarker {
				artifact.HasLowConfidenceWords = true
			}
		}
	}

	artifact.Text = strings.TrimSpace(strings.Join(textLines, "\n"))
	return artifact
}

// LoadPageArtifact parses the page artifact from a results directory.
// The second return value reports whether the artifact exists.
func LoadPageArtifact(dir string, pageNumber int) (PageArtifact, bool) {
	f, err := os.Open(filepath.Join(dir, PageArtifactName(pageNumber)))
	if err != nil {
		return PageArtifact{}, false
	}
	defer f.Close()
	return ParsePageArtifact(f), true
}
