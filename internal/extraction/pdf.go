package extraction

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfText walks every page's content stream and collects the string
// operands of the text-showing operators. Fonts with custom encodings yield
// their raw codes; the engine only needs keyword-level fidelity.
func pdfText(data []byte, maxText int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %v", ErrCorrupt, r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	b := textBuffer{max: maxText}
	for page := 1; page <= ctx.PageCount; page++ {
		r, err := pdfcpu.ExtractPageContent(ctx, page)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrCorrupt, page, err)
		}
		if r == nil {
			continue
		}

		content, err := io.ReadAll(&capReader{r: r, n: partLimit(maxText)})
		if errors.Is(err, ErrTooLarge) {
			return "", fmt.Errorf("page %d: %w", page, err)
		}
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrCorrupt, page, err)
		}

		if page > 1 {
			b.WriteByte('\n')
		}
		if _, err := b.WriteString(contentText(content)); err != nil {
			return "", err
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// kerningGap is the TJ displacement, in thousandths of an em, treated as a
// word break.
const kerningGap = -200

// contentText interprets a content stream just far enough to recover text:
// string operands of Tj, TJ, ' and ", with line breaks on T*, Td, TD, ET.
func contentText(stream []byte) string {
	var (
		b        strings.Builder
		operands []operand
		s        = scanner{src: stream}
	)

	newline := func() {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		if tok.kind != kindOperator {
			operands = append(operands, tok)
			continue
		}

		switch tok.text {
		case "Tj":
			writeLast(&b, operands)
		case "'", "\"":
			newline()
			writeLast(&b, operands)
		case "TJ":
			if n := len(operands); n > 0 && operands[n-1].kind == kindArray {
				for _, el := range operands[n-1].items {
					switch {
					case el.kind == kindString:
						b.WriteString(el.text)
					case el.kind == kindNumber && el.num < kerningGap:
						b.WriteByte(' ')
					}
				}
			}
		case "T*", "Td", "TD", "ET":
			newline()
		}
		operands = operands[:0]
	}

	return strings.TrimSpace(b.String())
}

func writeLast(b *strings.Builder, operands []operand) {
	if n := len(operands); n > 0 && operands[n-1].kind == kindString {
		b.WriteString(operands[n-1].text)
	}
}
