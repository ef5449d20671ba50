package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

// docxText reads the w:t runs of the main document part, one line per w:p.
func docxText(data []byte, maxText int) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	f, err := zr.Open(docxBody)
	if err != nil {
		return "", fmt.Errorf("%w: missing %s", ErrCorrupt, docxBody)
	}
	defer f.Close()

	var (
		b      = textBuffer{max: maxText}
		inText bool
	)

	dec := xml.NewDecoder(&capReader{r: f, n: partLimit(maxText)})
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if b.err != nil {
			return "", b.err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	if b.err != nil {
		return "", b.err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
