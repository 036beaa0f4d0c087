// Package ocr extracts text from PDF statements via external tooling.
package ocr

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// PdfToText extracts text from PDFs using the pdftotext CLI tool.
type PdfToText struct {
	binPath string
}

// NewPdfToText creates a PdfToText extractor. If binPath is empty, "pdftotext" is used.
func NewPdfToText(binPath string) *PdfToText {
	if binPath == "" {
		binPath = "pdftotext"
	}
	return &PdfToText{binPath: binPath}
}

// ExtractText runs pdftotext -layout on the given PDF and returns stdout.
// The -layout flag preserves column alignment, which the statement parsers
// rely on to split fields.
func (p *PdfToText) ExtractText(ctx context.Context, pdfPath string) (string, error) {
	cmd := exec.CommandContext(ctx, p.binPath, "-layout", pdfPath, "-")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", eris.Wrapf(err, "ocr: pdftotext failed for %s: %s", pdfPath, stderr.String())
	}

	return stdout.String(), nil
}

// ExtractTextBytes writes the PDF to a temp file and extracts its text.
// Statement uploads arrive as byte slices, not paths.
func (p *PdfToText) ExtractTextBytes(ctx context.Context, pdf []byte) (string, error) {
	tmp, err := os.CreateTemp("", "statement-*.pdf")
	if err != nil {
		return "", eris.Wrap(err, "ocr: create temp pdf")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return "", eris.Wrapf(err, "ocr: write temp pdf %s", filepath.Base(tmp.Name()))
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrap(err, "ocr: close temp pdf")
	}

	return p.ExtractText(ctx, tmp.Name())
}
