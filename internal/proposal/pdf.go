package proposal

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ErrUnreadable indicates the input bytes could not be decoded as a PDF.
// Callers treat this as recoverable: the workflow proceeds with empty
// extracted fields and a human is notified.
var ErrUnreadable = errors.New("document is not a readable PDF")

// ExtractText renders a PDF to plain text for anchor-based parsing.
func ExtractText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	return buf.String(), nil
}

// Extract renders the document to text and parses it in one step.
func Extract(data []byte) (Details, error) {
	text, err := ExtractText(data)
	if err != nil {
		return Details{}, err
	}
	return Parse(text), nil
}

// PageCount returns the document's page count.
func PageCount(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return count, nil
}

// DiagramPage extracts a single page as a standalone PDF. ArcSite proposals
// carry the site drawing on the first page; the onboarding flow attaches it
// to the field-service customer separately from the full contract.
func DiagramPage(data []byte, page int) ([]byte, error) {
	var out bytes.Buffer

	err := api.Trim(
		bytes.NewReader(data),
		&out,
		[]string{strconv.Itoa(page)},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("extract page %d: %w", page, err)
	}

	return out.Bytes(), nil
}
