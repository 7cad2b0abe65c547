package upload

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"whitecarrot/internal/errors"
	"whitecarrot/internal/matching"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// inspect opens the body of an upload and returns any text it carries.
// Images must sniff as the declared format; legacy .doc files are stored
// as-is.
func inspect(ext string, data []byte) (string, error) {
	switch ext {
	case "pdf":
		return pdfText(data)
	case "docx":
		return docxText(data)
	case "jpg", "jpeg":
		return "", sniff(data, "image/jpeg")
	case "png":
		return "", sniff(data, "image/png")
	default:
		return "", nil
	}
}

var runBreaks = strings.NewReplacer("</w:t>", "</w:t> ", "</w:p>", "</w:p>\n")

func corrupt(kind string, cause error) error {
	return errors.NewValidationError(errors.ErrCodeUploadCorrupt, fmt.Sprintf("The uploaded %s could not be read", kind), cause)
}

func pdfText(data []byte) (text string, err error) {
	// the parser panics on some truncated cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text, err = "", corrupt("PDF", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", corrupt("PDF", err)
	}
	if reader.NumPage() == 0 {
		return "", corrupt("PDF", fmt.Errorf("document has no pages"))
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", corrupt("DOCX", err)
	}
	defer doc.Close()

	// the editable content is the raw document XML; keep runs apart
	content := runBreaks.Replace(doc.Editable().GetContent())
	return matching.PlainText(content), nil
}

func sniff(data []byte, want string) error {
	if got := http.DetectContentType(data); got != want {
		return corrupt("image", fmt.Errorf("content sniffed as %s", got))
	}
	return nil
}

func detectSkills(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return matching.FindSkills(text)
}
