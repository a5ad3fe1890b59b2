package render

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"
)

const (
	pageMargin = 12.0
	cellPad    = 1.5
	fontFamily = "body"
)

// documentEpoch stamps documents whose record carries no creation time.
var documentEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// AssetLoader resolves image references found in company settings.
type AssetLoader interface {
	Load(ref string) ([]byte, error)
}

type painter struct {
	pdf    *gofpdf.Fpdf
	assets AssetLoader
	log    zerolog.Logger
	width  float64
	bottom float64
}

// paint lays blocks out on pages of the given gofpdf size name. Output is a
// pure function of its inputs: the creation date comes from created and
// catalog entries are sorted. Text is set in embedded Unicode fonts.
func paint(blocks []block, size string, created time.Time, fonts Fonts, assets AssetLoader, log zerolog.Logger) ([]byte, error) {
	if created.IsZero() {
		created = documentEpoch
	}
	pdf := gofpdf.New("P", "mm", size, "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.SetCreationDate(created.UTC())
	pdf.SetCatalogSort(true)
	pdf.SetCreator("payslipgen", true)
	pdf.SetDrawColor(90, 90, 90)
	pdf.SetLineWidth(0.2)
	fonts = fonts.withDefaults()
	pdf.AddUTF8FontFromBytes(fontFamily, "", fonts.Regular)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", fonts.Bold)
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	p := &painter{
		pdf:    pdf,
		assets: assets,
		log:    log,
		width:  pageW - 2*pageMargin,
		bottom: pageH - pageMargin,
	}

	for _, b := range blocks {
		switch b.kind {
		case blockHeading, blockText:
			p.text(b)
		case blockTable:
			p.table(b.table)
		case blockImage:
			p.image(b.image)
		}
		if err := pdf.Error(); err != nil {
			return nil, fmt.Errorf("paint document: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	return buf.Bytes(), nil
}

func (p *painter) font(bold bool, size float64) {
	style := ""
	if bold {
		style = "B"
	}
	p.pdf.SetFont(fontFamily, style, size)
}

func (p *painter) text(b block) {
	p.font(b.bold, b.size)
	p.pdf.MultiCell(p.width, b.size*0.5, pdfText(b.text), "", b.align, false)
	if b.kind == blockHeading {
		p.pdf.Ln(1.5)
	} else {
		p.pdf.Ln(0.8)
	}
}

func (p *painter) table(t *table) {
	const size = 8.5
	lineHeight := size * 0.48

	var total float64
	for _, w := range t.widths {
		total += w
	}
	columns := make([]float64, len(t.widths))
	for i, w := range t.widths {
		columns[i] = p.width * w / total
	}

	for _, row := range t.rows {
		widths := make([]float64, len(row.cells))
		lines := make([][]string, len(row.cells))
		maxLines := 1
		col := 0
		for i, c := range row.cells {
			for k := 0; k < c.colspan; k++ {
				widths[i] += columns[col+k]
			}
			col += c.colspan
			p.font(c.bold, size)
			lines[i] = p.pdf.SplitText(pdfText(c.text), widths[i]-2*cellPad)
			maxLines = max(maxLines, len(lines[i]))
		}

		height := float64(maxLines)*lineHeight + 2*cellPad
		x, y := pageMargin, p.pdf.GetY()
		if y+height > p.bottom {
			p.pdf.AddPage()
			y = p.pdf.GetY()
		}
		for i, c := range row.cells {
			p.pdf.Rect(x, y, widths[i], height, "D")
			p.font(c.bold, size)
			for j, l := range lines[i] {
				p.pdf.SetXY(x+cellPad, y+cellPad+float64(j)*lineHeight)
				p.pdf.CellFormat(widths[i]-2*cellPad, lineHeight, l, "", 0, c.align, false, 0, "")
			}
			x += widths[i]
		}
		p.pdf.SetXY(pageMargin, y+height)
	}
	p.pdf.Ln(3)
}

// image draws a company asset. Assets that cannot be loaded or decoded are
// skipped so branding problems never fail a payslip.
func (p *painter) image(img *imageBlock) {
	if p.assets == nil || img.ref == "" {
		return
	}
	data, err := p.assets.Load(img.ref)
	if err != nil {
		p.log.Debug().Err(err).Str("ref", img.ref).Msg("payslip image skipped")
		return
	}
	kind, cfg, err := inspectImage(data)
	if err != nil {
		p.log.Debug().Err(err).Str("ref", img.ref).Msg("payslip image skipped")
		return
	}

	height := img.height
	width := height * float64(cfg.Width) / float64(cfg.Height)
	if width > p.width {
		width = p.width
		height = width * float64(cfg.Height) / float64(cfg.Width)
	}
	x, y := pageMargin, p.pdf.GetY()
	if img.align == "R" {
		x = pageMargin + p.width - width
	}
	if y+height > p.bottom {
		p.pdf.AddPage()
		y = p.pdf.GetY()
	}

	opts := gofpdf.ImageOptions{ImageType: kind}
	p.pdf.RegisterImageOptionsReader(img.ref, opts, bytes.NewReader(data))
	p.pdf.ImageOptions(img.ref, x, y, width, height, false, opts, 0, "")
	p.pdf.SetXY(pageMargin, y+height+2)
}

// ValidateImage reports whether data is an image the PDF writer can embed.
func ValidateImage(data []byte) error {
	_, _, err := inspectImage(data)
	return err
}

// inspectImage reports the gofpdf image type for data, rejecting formats and
// PNG variants the PDF writer cannot embed. The image is fully decoded and
// then registered on a throwaway document, because gofpdf panics on some
// truncated streams that still carry a valid header.
func inspectImage(data []byte) (string, image.Config, error) {
	var kind string
	switch mt := mimetype.Detect(data); {
	case mt.Is("image/png"):
		kind = "PNG"
		// IHDR: bit depth at offset 24, interlace method at 28.
		if len(data) < 29 || data[24] > 8 || data[28] != 0 {
			return "", image.Config{}, fmt.Errorf("unsupported png encoding")
		}
	case mt.Is("image/jpeg"):
		kind = "JPG"
	case mt.Is("image/gif"):
		kind = "GIF"
	default:
		return "", image.Config{}, fmt.Errorf("unsupported image type %s", mt.String())
	}
	decoded, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", image.Config{}, fmt.Errorf("decode image: %w", err)
	}
	bounds := decoded.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return "", image.Config{}, fmt.Errorf("empty image")
	}
	if err := embeddable(kind, data); err != nil {
		return "", image.Config{}, err
	}
	return kind, image.Config{ColorModel: decoded.ColorModel(), Width: bounds.Dx(), Height: bounds.Dy()}, nil
}

func embeddable(kind string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("embed image: %v", r)
		}
	}()
	scratch := gofpdf.New("P", "mm", "A4", "")
	scratch.RegisterImageOptionsReader("asset", gofpdf.ImageOptions{ImageType: kind}, bytes.NewReader(data))
	if err := scratch.Error(); err != nil {
		return fmt.Errorf("embed image: %w", err)
	}
	return nil
}
