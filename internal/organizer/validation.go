package organizer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"curator/internal/services"
)

var pdfMagic = []byte("%PDF-")

// ValidateDocument checks that path starts with the PDF signature.
func ValidateDocument(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrValidation, "organizer", "validate document", path, err)
	}
	defer f.Close()

	header := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(f, header); err != nil {
		return services.Wrap(services.ErrValidation, "organizer", "validate document", fmt.Sprintf("%s is too short", path), nil)
	}
	if !bytes.Equal(header, pdfMagic) {
		return services.Wrap(services.ErrValidation, "organizer", "validate document", fmt.Sprintf("%s has no PDF header", path), nil)
	}
	return nil
}
