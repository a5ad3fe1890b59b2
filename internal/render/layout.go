package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type blockKind int

const (
	blockHeading blockKind = iota
	blockText
	blockTable
	blockImage
)

type block struct {
	kind  blockKind
	text  string
	size  float64
	bold  bool
	align string
	table *table
	image *imageBlock
}

type table struct {
	widths []float64
	rows   []tableRow
}

type tableRow struct {
	cells []tableCell
}

type tableCell struct {
	text    string
	bold    bool
	align   string
	colspan int
}

type imageBlock struct {
	ref    string
	height float64
	align  string
}

// parseLayout turns payslip markup into an ordered list of paintable blocks.
// Elements outside the supported vocabulary are rejected.
func parseLayout(markup []byte) ([]block, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}
	root := doc.Find("article.payslip").First()
	if root.Length() == 0 {
		return nil, fmt.Errorf("parse markup: missing payslip root")
	}

	var (
		blocks  []block
		walkErr error
	)
	var walk func(s *goquery.Selection)
	walk = func(s *goquery.Selection) {
		s.Children().EachWithBreak(func(_ int, el *goquery.Selection) bool {
			switch goquery.NodeName(el) {
			case "header", "section", "footer":
				walk(el)
			case "h1":
				blocks = append(blocks, block{kind: blockHeading, text: cleanText(el), size: 15, bold: true, align: "C"})
			case "h2":
				blocks = append(blocks, block{kind: blockHeading, text: cleanText(el), size: 11, bold: true, align: "C"})
			case "p":
				blocks = append(blocks, textBlock(el))
			case "img":
				blocks = append(blocks, imgBlock(el))
			case "table":
				t, err := parseTable(el)
				if err != nil {
					walkErr = err
					return false
				}
				blocks = append(blocks, block{kind: blockTable, table: t})
			default:
				walkErr = fmt.Errorf("parse markup: unsupported element <%s>", goquery.NodeName(el))
				return false
			}
			return walkErr == nil
		})
	}
	walk(root)
	if walkErr != nil {
		return nil, walkErr
	}
	return blocks, nil
}

func textBlock(el *goquery.Selection) block {
	b := block{kind: blockText, text: cleanText(el), size: 9, align: "L"}
	if el.HasClass("center") {
		b.align = "C"
	}
	if el.HasClass("strong") {
		b.bold = true
	}
	if el.HasClass("small") {
		b.size = 7.5
	}
	return b
}

func imgBlock(el *goquery.Selection) block {
	img := &imageBlock{ref: el.AttrOr("src", ""), height: 15, align: "L"}
	if h, err := strconv.ParseFloat(el.AttrOr("data-height", ""), 64); err == nil && h > 0 {
		img.height = h
	}
	if strings.EqualFold(el.AttrOr("data-align", ""), "right") {
		img.align = "R"
	}
	return block{kind: blockImage, image: img}
}

func parseTable(el *goquery.Selection) (*table, error) {
	t := &table{}
	el.Find("colgroup col").Each(func(_ int, col *goquery.Selection) {
		w, err := strconv.ParseFloat(col.AttrOr("width", ""), 64)
		if err != nil || w <= 0 {
			w = 1
		}
		t.widths = append(t.widths, w)
	})

	el.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row tableRow
		footer := tr.ParentsFiltered("tfoot").Length() > 0
		tr.Children().Each(func(_ int, c *goquery.Selection) {
			cell := tableCell{text: cleanText(c), align: "L", colspan: 1}
			cell.bold = goquery.NodeName(c) == "th" || footer
			if c.HasClass("num") {
				cell.align = "R"
			}
			if span, err := strconv.Atoi(c.AttrOr("colspan", "1")); err == nil && span > 1 {
				cell.colspan = span
			}
			row.cells = append(row.cells, cell)
		})
		t.rows = append(t.rows, row)
	})

	if len(t.widths) == 0 && len(t.rows) > 0 {
		for range t.rows[0].cells {
			t.widths = append(t.widths, 1)
		}
	}
	for i, row := range t.rows {
		span := 0
		for _, c := range row.cells {
			span += c.colspan
		}
		if span != len(t.widths) {
			return nil, fmt.Errorf("parse markup: table row %d spans %d columns, want %d", i, span, len(t.widths))
		}
	}
	return t, nil
}

func cleanText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
