package render

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

var (
	//go:embed fonts/DejaVuSans.ttf
	dejaVuSans []byte
	//go:embed fonts/DejaVuSans-Bold.ttf
	dejaVuSansBold []byte
)

// Fonts are the TrueType faces documents are set in. A nil face falls back
// to the bundled DejaVu Sans.
type Fonts struct {
	Regular []byte
	Bold    []byte
}

func (f Fonts) withDefaults() Fonts {
	if len(f.Regular) == 0 {
		f.Regular = dejaVuSans
	}
	if len(f.Bold) == 0 {
		f.Bold = dejaVuSansBold
	}
	return f
}

// LoadFonts reads TrueType faces from disk. Empty paths keep the bundled
// face for that style.
func LoadFonts(regularPath, boldPath string) (Fonts, error) {
	var fonts Fonts
	for _, face := range []struct {
		path string
		dst  *[]byte
	}{{regularPath, &fonts.Regular}, {boldPath, &fonts.Bold}} {
		if face.path == "" {
			continue
		}
		data, err := os.ReadFile(face.path)
		if err != nil {
			return Fonts{}, fmt.Errorf("read font: %w", err)
		}
		if err := checkFont(data); err != nil {
			return Fonts{}, fmt.Errorf("font %s: %w", face.path, err)
		}
		*face.dst = data
	}
	return fonts, nil
}

func checkFont(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse font: %v", r)
		}
	}()
	scratch := gofpdf.New("P", "mm", "A4", "")
	scratch.AddUTF8FontFromBytes(fontFamily, "", data)
	// gofpdf drops unparseable faces without an error; selecting one surfaces it.
	scratch.SetFont(fontFamily, "", 10)
	return scratch.Error()
}

// pdfText replaces runes outside the Basic Multilingual Plane, which the
// two-byte CID encoding cannot address.
func pdfText(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFFFF {
			return '\uFFFD'
		}
		return r
	}, s)
}
