package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nguyenthenguyen/docx"
)

const (
	// MinExtractedTextLength is the minimum text length required for successful PDF extraction
	MinExtractedTextLength = 50
	// BinarySampleSize is the number of bytes to sample for binary detection
	BinarySampleSize = 1000
	// BinaryThreshold is the proportion of non-printable characters that indicates binary data
	BinaryThreshold = 0.3
)

// ErrUnsupportedType is returned for file extensions that cannot be read
var ErrUnsupportedType = errors.New("unsupported file type")

// SupportedExtensions lists the document types ExtractText accepts
var SupportedExtensions = []string{".txt", ".md", ".pdf", ".docx"}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:cr/>`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
	markup       = bluemonday.StrictPolicy()
)

// ExtractText returns the plain text of an uploaded petition document
func ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	var (
		text string
		err  error
	)
	switch ext {
	case ".txt", ".md":
		text, err = extractPlain(data)
	case ".pdf":
		text, err = extractPDF(ctx, data)
	case ".docx":
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedType, ext, strings.Join(SupportedExtensions, ", "))
	}
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(text), nil
}

// extractPlain accepts UTF-8 text and rejects binary content renamed to .txt
func extractPlain(data []byte) (string, error) {
	content := string(data)
	if IsBinaryData(content) {
		return "", fmt.Errorf("file appears to be binary, not plain text")
	}
	if !utf8.ValidString(content) {
		content = strings.ToValidUTF8(content, "�")
	}
	return content, nil
}

// extractPDF extracts text from PDF using pdftotext (if available) or returns error
func extractPDF(ctx context.Context, data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "judica-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write temporary file: %w", err)
	}

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", tmp.Name(), "-")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("PDF extraction requires 'pdftotext' (install poppler-utils): %w", err)
	}

	text := string(output)
	if len(strings.TrimSpace(text)) < MinExtractedTextLength {
		return "", fmt.Errorf("extracted text is too short (scanned or image-only PDF?)")
	}

	return text, nil
}

// extractDOCX reads word/document.xml and strips its markup, keeping
// paragraph breaks
func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer r.Close()

	return docxXMLToText(r.Editable().GetContent()), nil
}

// docxXMLToText converts WordprocessingML body XML into plain text
func docxXMLToText(xml string) string {
	withBreaks := paragraphEnd.ReplaceAllString(xml, "\n")
	text := html.UnescapeString(markup.Sanitize(withBreaks))

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
}

// IsBinaryData checks if content appears to be binary (PDF/ZIP markers)
func IsBinaryData(content string) bool {
	if len(content) == 0 {
		return false
	}

	if strings.HasPrefix(content, "%PDF-") {
		return true
	}

	// ZIP magic number (DOCX files)
	if len(content) >= 2 && content[:2] == "PK" {
		return true
	}

	sampleSize := min(BinarySampleSize, len(content))
	nonPrintable := 0
	for i := 0; i < sampleSize; i++ {
		ch := content[i]
		if ch < 32 && ch != '\n' && ch != '\r' && ch != '\t' {
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(sampleSize) > BinaryThreshold
}
