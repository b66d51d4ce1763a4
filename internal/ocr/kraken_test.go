package ocr

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/annsrecipes/digitizer/internal/logging"
)

// writeStubKraken installs a shell script standing in for the kraken binary.
// The script logs its argv and behaves per the body it is given.
func writeStubKraken(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "kraken")
	script := "#!/bin/sh\necho \"$@\" > \"" + filepath.Join(dir, "argv.txt") + "\"\n" + body
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write stub: %v", err)
	}
	return path
}

func TestKrakenRecognizeSuccess(t *testing.T) {
	dir := t.TempDir()
	scratch := t.TempDir()

	// The stub writes recognized text to the second positional argument,
	// the output path kraken receives after -i <image>
	bin := writeStubKraken(t, dir, `printf 'Buttermilk Biscuits\n2 cups flour\n' > "$3"`+"\n")
	engine := NewKrakenEngine(bin, "blla.mlmodel", "McCATMuS_nfd_nofix_V1.mlmodel", scratch, logging.NewLogger("test"))

	res, err := engine.Recognize(context.Background(), Input{PageNumber: 5, ImagePath: "/tmp/page-005.png"})
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}

	if res.Text != "Buttermilk Biscuits\n2 cups flour" {
		t.Errorf("unexpected text %q", res.Text)
	}
	if res.Confidence != 0 {
		t.Errorf("kraken provides no scores, expected confidence 0, got %v", res.Confidence)
	}
	if res.HasWordConfidence {
		t.Errorf("kraken results must not claim word confidence")
	}
	if res.WordCount() != 4 {
		t.Errorf("expected whitespace word count 4, got %d", res.WordCount())
	}

	argv, err := os.ReadFile(filepath.Join(dir, "argv.txt"))
	if err != nil {
		t.Fatalf("stub did not record argv: %v", err)
	}
	want := "-i /tmp/page-005.png " + filepath.Join(scratch, "page_005_kraken.txt") +
		" segment -bl -i blla.mlmodel ocr -m McCATMuS_nfd_nofix_V1.mlmodel"
	if got := strings.TrimSpace(string(argv)); got != want {
		t.Errorf("argv = %q, want %q", got, want)
	}
}

func TestKrakenRecognizeFailureCapturesStderr(t *testing.T) {
	dir := t.TempDir()
	bin := writeStubKraken(t, dir, "echo 'no baseline model' >&2\nexit 1\n")
	engine := NewKrakenEngine(bin, "blla.mlmodel", "rec.mlmodel", t.TempDir(), logging.NewLogger("test"))

	_, err := engine.Recognize(context.Background(), Input{PageNumber: 2, ImagePath: "/tmp/page-002.png"})
	if err == nil {
		t.Fatalf("expected error for nonzero exit")
	}
	if !strings.Contains(err.Error(), "no baseline model") {
		t.Errorf("stderr diagnostics missing from error: %v", err)
	}
	if !strings.Contains(err.Error(), "page 2") {
		t.Errorf("page number missing from error: %v", err)
	}
}

func TestKrakenRecognizeMissingOutputIsEmptyPage(t *testing.T) {
	dir := t.TempDir()
	// Exit zero without producing the output file: treated as a blank page
	bin := writeStubKraken(t, dir, "exit 0\n")
	engine := NewKrakenEngine(bin, "blla.mlmodel", "rec.mlmodel", t.TempDir(), logging.NewLogger("test"))

	res, err := engine.Recognize(context.Background(), Input{PageNumber: 3, ImagePath: "/tmp/page-003.png"})
	if err != nil {
		t.Fatalf("expected empty result, got error: %v", err)
	}
	if res.Text != "" {
		t.Errorf("expected empty text, got %q", res.Text)
	}
}

func TestKrakenRecognizeRequiresImagePath(t *testing.T) {
	engine := NewKrakenEngine("kraken", "seg", "rec", t.TempDir(), logging.NewLogger("test"))

	if _, err := engine.Recognize(context.Background(), Input{PageNumber: 1, PNG: []byte("x")}); err == nil {
		t.Errorf("expected error when no on-disk image is provided")
	}
}

func TestKrakenAvailable(t *testing.T) {
	dir := t.TempDir()
	bin := writeStubKraken(t, dir, "exit 0\n")

	if err := NewKrakenEngine(bin, "seg", "rec", dir, logging.NewLogger("test")).Available(); err != nil {
		t.Errorf("expected stub binary to be found: %v", err)
	}
	missing := filepath.Join(dir, "not-kraken")
	if err := NewKrakenEngine(missing, "seg", "rec", dir, logging.NewLogger("test")).Available(); err == nil {
		t.Errorf("expected lookup error for missing binary")
	}
}
