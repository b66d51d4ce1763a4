package results

import (
	"reflect"
	"testing"
)

func threePageDoc() *Document {
	return BuildDocument("book.pdf", "textract", []PageRecord{
		{PageNumber: 1, Text: "Scones", Confidence: 92, WordCount: 1},
		{PageNumber: 2, Text: "Stew", Confidence: 65, WordCount: 1,
			LowConfidenceWords: []Word{{Text: "Stew", Confidence: 61.5}}},
		{PageNumber: 3, HasError: true, ErrorDetail: "backend timeout"},
	})
}

func TestBuildDocumentCounts(t *testing.T) {
	doc := threePageDoc()

	if doc.TotalPages != 3 {
		t.Errorf("expected total_pages 3, got %d", doc.TotalPages)
	}
	if doc.SuccessfulPages != 2 {
		t.Errorf("expected 2 successful pages, got %d", doc.SuccessfulPages)
	}
	if doc.FailedPages != 1 {
		t.Errorf("expected 1 failed page, got %d", doc.FailedPages)
	}
	if err := doc.Validate(); err != nil {
		t.Errorf("document should validate, got %v", err)
	}
}

func TestValidateRejectsInconsistentDocuments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"total mismatch", func(d *Document) { d.TotalPages = 5 }},
		{"gap in page numbers", func(d *Document) { d.Pages[1].PageNumber = 4 }},
		{"zero-based numbering", func(d *Document) {
			for i := range d.Pages {
				d.Pages[i].PageNumber = i
			}
		}},
		{"count mismatch", func(d *Document) { d.FailedPages = 2 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := threePageDoc()
			tc.mutate(doc)
			if err := doc.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestSuccessfulAndFailedPartition(t *testing.T) {
	doc := threePageDoc()

	successful := doc.Successful()
	failed := doc.Failed()

	if len(successful) != 2 || len(failed) != 1 {
		t.Fatalf("expected 2 successful / 1 failed, got %d/%d", len(successful), len(failed))
	}
	if successful[0].PageNumber != 1 || successful[1].PageNumber != 2 {
		t.Errorf("successful pages out of order: %v", successful)
	}
	if failed[0].PageNumber != 3 {
		t.Errorf("expected failed page 3, got %d", failed[0].PageNumber)
	}
}

func TestMeanConfidence(t *testing.T) {
	doc := threePageDoc()

	// Error pages are excluded from the mean
	want := (92.0 + 65.0) / 2
	if got := doc.MeanConfidence(); got != want {
		t.Errorf("expected mean confidence %v, got %v", want, got)
	}

	empty := BuildDocument("book.pdf", "textract", nil)
	if got := empty.MeanConfidence(); got != 0 {
		t.Errorf("expected 0 mean for empty document, got %v", got)
	}

	allFailed := BuildDocument("book.pdf", "textract", []PageRecord{
		{PageNumber: 1, HasError: true},
	})
	if got := allFailed.MeanConfidence(); got != 0 {
		t.Errorf("expected 0 mean when every page failed, got %v", got)
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	dir := t.TempDir()
	logger := testLogger()
	writer := NewWriter(dir, logger)

	doc := threePageDoc()
	doc.SegmentationModel = "blla.mlmodel"
	doc.RecognitionModel = "McCATMuS_nfd_nofix_V1.mlmodel"

	path, err := writer.WriteSummary(doc, "book")
	if err != nil {
		t.Fatalf("WriteSummary failed: %v", err)
	}

	loaded, err := LoadSummary(path)
	if err != nil {
		t.Fatalf("LoadSummary failed: %v", err)
	}

	if !reflect.DeepEqual(doc, loaded) {
		t.Errorf("round-tripped document differs:\n got %+v\nwant %+v", loaded, doc)
	}
}

func TestWriteSummaryRejectsInvalidDocument(t *testing.T) {
	writer := NewWriter(t.TempDir(), testLogger())

	doc := threePageDoc()
	doc.TotalPages = 99

	if _, err := writer.WriteSummary(doc, "book"); err == nil {
		t.Errorf("expected error persisting inconsistent document")
	}
}
