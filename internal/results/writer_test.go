package results

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	digerrors "github.com/annsrecipes/digitizer/internal/errors"
	"github.com/annsrecipes/digitizer/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger("test")
}

func TestWritePageArtifactWithFlaggedWords(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, testLogger())

	page := PageRecord{
		PageNumber: 4,
		Text:       "2 cups flour\n1 tsp soda",
		Confidence: 83.4,
		WordCount:  6,
		LowConfidenceWords: []Word{
			{Text: "soda", Confidence: 71.2},
		},
	}

	if err := writer.WritePageArtifact(page, true); err != nil {
		t.Fatalf("WritePageArtifact failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "page_004_ocr.txt"))
	if err != nil {
		t.Fatalf("artifact missing: %v", err)
	}
	content := string(data)

	if !strings.HasPrefix(content, "Page 4 - Confidence: 83.4%") {
		t.Errorf("unexpected header: %q", strings.SplitN(content, "\n", 2)[0])
	}
	if !strings.Contains(content, "LOW CONFIDENCE WORDS (may need review):") {
		t.Errorf("annex header missing:\n%s", content)
	}
	if !strings.Contains(content, "'soda' (71.2%)") {
		t.Errorf("flagged word missing:\n%s", content)
	}
	if strings.Contains(content, NoConfidenceWordsMarker) {
		t.Errorf("none marker written despite flagged words:\n%s", content)
	}
}

func TestWritePageArtifactNoneMarker(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, testLogger())

	page := PageRecord{PageNumber: 1, Text: "Shortbread", Confidence: 97.1, WordCount: 1}
	if err := writer.WritePageArtifact(page, true); err != nil {
		t.Fatalf("WritePageArtifact failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "page_001_ocr.txt"))
	if !strings.Contains(string(data), NoConfidenceWordsMarker) {
		t.Errorf("expected explicit none marker:\n%s", data)
	}
}

func TestWritePageArtifactWithoutAnnex(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, testLogger())

	// The kraken backend has no word-level scores, so no annex is written
	page := PageRecord{PageNumber: 2, Text: "Gingerbread"}
	if err := writer.WritePageArtifact(page, false); err != nil {
		t.Fatalf("WritePageArtifact failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(dir, "page_002_ocr.txt"))
	if strings.Contains(string(data), "LOW CONFIDENCE WORDS") {
		t.Errorf("annex written for backend without word scores:\n%s", data)
	}
}

func TestParsePageArtifact(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantText string
		wantFlag bool
	}{
		{
			name: "flagged words",
			content: "Page 4 - Confidence: 83.4%\n" +
				"==================================================\n" +
				"2 cups flour\n1 tsp soda\n\n" +
				"==================================================\n" +
				"LOW CONFIDENCE WORDS (may need review):\n" +
				"  'soda' (71.2%)\n",
			wantText: "2 cups flour\n1 tsp soda",
			wantFlag: true,
		},
		{
			name: "none marker does not flag",
			content: "Page 1 - Confidence: 97.1%\n" +
				"==================================================\n" +
				"Shortbread\n\n" +
				"==================================================\n" +
				"LOW CONFIDENCE WORDS (may need review):\n" +
				"  None - all words have good confidence!\n",
			wantText: "Shortbread",
			wantFlag: false,
		},
		{
			name: "no annex section",
			content: "Page 2 - Confidence: 0.0%\n" +
				"==================================================\n" +
				"Gingerbread\n\n" +
				"==================================================\n",
			wantText: "Gingerbread",
			wantFlag: false,
		},
		{
			name: "empty text section",
			content: "Page 3 - Confidence: 0.0%\n" +
				"==================================================\n" +
				"\n\n" +
				"==================================================\n" +
				"LOW CONFIDENCE WORDS (may need review):\n" +
				"  None - all words have good confidence!\n",
			wantText: "",
			wantFlag: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			artifact := ParsePageArtifact(strings.NewReader(tc.content))
			if artifact.Text != tc.wantText {
				t.Errorf("text = %q, want %q", artifact.Text, tc.wantText)
			}
			if artifact.HasLowConfidenceWords != tc.wantFlag {
				t.Errorf("HasLowConfidenceWords = %v, want %v", artifact.HasLowConfidenceWords, tc.wantFlag)
			}
		})
	}
}

func TestArtifactWriteParseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, testLogger())

	page := PageRecord{
		PageNumber:         7,
		Text:               "Mix well and bake\nat 350 degrees",
		Confidence:         76.0,
		LowConfidenceWords: []Word{{Text: "degrees", Confidence: 64.0}},
	}
	if err := writer.WritePageArtifact(page, true); err != nil {
		t.Fatalf("WritePageArtifact failed: %v", err)
	}

	artifact, ok := LoadPageArtifact(dir, 7)
	if !ok {
		t.Fatalf("artifact not found")
	}
	if artifact.Text != page.Text {
		t.Errorf("text = %q, want %q", artifact.Text, page.Text)
	}
	if !artifact.HasLowConfidenceWords {
		t.Errorf("expected low-confidence flag after round trip")
	}
}

func TestWriteCombined(t *testing.T) {
	dir := t.TempDir()
	writer := NewWriter(dir, testLogger())

	doc := BuildDocument("book.pdf", "kraken", []PageRecord{
		{PageNumber: 1, Text: "Scones"},
		{PageNumber: 2, Text: "   "},
		{PageNumber: 3, HasError: true, ErrorDetail: "segmentation fault"},
	})
	doc.RecognitionModel = "McCATMuS_nfd_nofix_V1.mlmodel"

	if err := writer.WriteCombined(doc); err != nil {
		t.Fatalf("WriteCombined failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, CombinedTextName))
	if err != nil {
		t.Fatalf("combined artifact missing: %v", err)
	}
	content := string(data)

	for _, want := range []string{
		"Source PDF: book.pdf",
		"Total Pages: 3",
		"Successful Pages: 2",
		"PAGE 1",
		"Scones",
		"[No text detected on this page]",
		"[OCR Error: segmentation fault]",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("combined artifact missing %q:\n%s", want, content)
		}
	}
}

func TestFindSummary(t *testing.T) {
	t.Run("summary by stem", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "book_summary.json")
		os.WriteFile(path, []byte("{}"), 0o644)

		got, err := FindSummary(dir)
		if err != nil {
			t.Fatalf("FindSummary failed: %v", err)
		}
		if got != path {
			t.Errorf("found %s, want %s", got, path)
		}
	})

	t.Run("legacy name", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "processing_results.json")
		os.WriteFile(path, []byte("{}"), 0o644)

		got, err := FindSummary(dir)
		if err != nil {
			t.Fatalf("FindSummary failed: %v", err)
		}
		if got != path {
			t.Errorf("found %s, want %s", got, path)
		}
	})

	t.Run("missing", func(t *testing.T) {
		_, err := FindSummary(t.TempDir())
		if !digerrors.HasCode(err, digerrors.ErrorResultsNotFound) {
			t.Errorf("expected RESULTS_NOT_FOUND, got %v", err)
		}
	})
}

func TestLoadSummaryMissingFile(t *testing.T) {
	_, err := LoadSummary(filepath.Join(t.TempDir(), "nope_summary.json"))
	if !digerrors.HasCode(err, digerrors.ErrorResultsNotFound) {
		t.Errorf("expected RESULTS_NOT_FOUND, got %v", err)
	}
}

func TestLoadSummaryRejectsInconsistentFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad_summary.json")
	os.WriteFile(path, []byte(`{"pdf_name":"b.pdf","total_pages":2,"successful_pages":1,"failed_pages":0,"pages":[{"page_number":1}]}`), 0o644)

	if _, err := LoadSummary(path); err == nil {
		t.Errorf("expected error for inconsistent summary")
	}
}
