package services

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/unidoc/unipdf/v3/common/license"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Load .env file from the current directory
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}
	err := license.SetMeteredKey(os.Getenv("UNIDOC_LICENSE_KEY"))
	if err != nil {
		fmt.Printf("ERROR: Failed to set Unidoc license key: %v. PDF processing will fail.\n", err)
	}
}

// fallbackEncodings is the ordered list of single-byte encodings tried when
// a text file is not valid UTF-8.
var fallbackEncodings = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// IsSupportedFilename reports whether the filename's extension is one of the
// supported text-bearing formats.
func IsSupportedFilename(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt", ".md", ".pdf":
		return true
	default:
		return false
	}
}

// ExtractText returns the plain text of an uploaded file based on its
// extension. It returns ErrUnsupportedFormat for unknown extensions and
// ErrEmptyContent when extraction yields no usable text.
func ExtractText(content []byte, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".txt", ".md":
		return decodeText(content)
	case ".pdf":
		return extractTextFromPDF(content)
	default:
		return "", fmt.Errorf("%w (got %q)", ErrUnsupportedFormat, ext)
	}
}

// decodeText decodes a plain-text file, falling back through a list of
// legacy encodings when the bytes are not valid UTF-8.
func decodeText(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	for _, enc := range fallbackEncodings {
		decoded, err := enc.NewDecoder().Bytes(content)
		if err != nil {
			continue
		}
		return string(decoded), nil
	}
	return "", fmt.Errorf("could not decode text file with any known encoding")
}

// extractTextFromPDF walks the PDF page by page. A page that fails extraction
// is logged and skipped; the whole document fails only when no page yields
// any text.
func extractTextFromPDF(content []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get PDF page count: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			log.Printf("EXTRACTOR WARN: Could not load page %d: %v", i, err)
			continue
		}
		ex, err := extractor.New(page)
		if err != nil {
			log.Printf("EXTRACTOR WARN: Could not create extractor for page %d: %v", i, err)
			continue
		}
		text, err := ex.ExtractText()
		if err != nil {
			log.Printf("EXTRACTOR WARN: Could not extract text from page %d: %v", i, err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n\n") // Add space between pages
	}

	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: no text could be extracted from PDF", ErrEmptyContent)
	}
	return sb.String(), nil
}
