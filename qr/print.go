package qr

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/go-pdf/fpdf"
)

var printTemplate = template.Must(template.New("print").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Table QR codes</title>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.grid { display: grid; grid-template-columns: repeat(2, 1fr); gap: 20px; }
.card { border: 2px solid #333; border-radius: 10px; padding: 20px; text-align: center; page-break-inside: avoid; }
.card h2 { margin: 0 0 10px; font-size: 24px; }
.card img { width: 200px; height: 200px; }
.card p { font-size: 14px; color: #555; }
@media print { body { margin: 0; } }
</style>
</head>
<body>
<div class="grid">
{{- range .}}
<div class="card">
<h2>Table {{.Table}}</h2>
<img src="data:image/png;base64,{{.Base64}}" alt="QR code for table {{.Table}}">
<p>Scan to see the menu and order</p>
<p><small>{{.URL}}</small></p>
</div>
{{- end}}
</div>
</body>
</html>
`))

// PrintPage renders an HTML page with one card per table, ready to print.
func (g *Generator) PrintPage(numbers []int) ([]byte, error) {
	codes := make([]Code, 0, len(numbers))
	for _, n := range numbers {
		c, err := g.Code(n)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}
	var buf bytes.Buffer
	if err := printTemplate.Execute(&buf, codes); err != nil {
		return nil, fmt.Errorf("render print page: %w", err)
	}
	return buf.Bytes(), nil
}

// PrintPDF lays the codes out on A4 pages, two columns by three rows.
func (g *Generator) PrintPDF(numbers []int) ([]byte, error) {
	const (
		cols, rows = 2, 3
		cellW      = 95.0
		cellH      = 90.0
		marginX    = 10.0
		marginY    = 12.0
		imgSize    = 60.0
	)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Table QR codes", true)
	pdf.SetAutoPageBreak(false, 0)

	for i, n := range numbers {
		png, err := g.PNG(n)
		if err != nil {
			return nil, err
		}
		slot := i % (cols * rows)
		if slot == 0 {
			pdf.AddPage()
		}
		x := marginX + float64(slot%cols)*cellW
		y := marginY + float64(slot/cols)*cellH

		name := fmt.Sprintf("table-%d", n)
		pdf.RegisterImageOptionsReader(name, fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))

		pdf.SetDrawColor(51, 51, 51)
		pdf.Rect(x, y, cellW-5, cellH-5, "D")

		pdf.SetFont("Helvetica", "B", 16)
		pdf.SetXY(x, y+4)
		pdf.CellFormat(cellW-5, 8, fmt.Sprintf("Table %d", n), "", 0, "C", false, 0, "")

		pdf.ImageOptions(name, x+(cellW-5-imgSize)/2, y+14, imgSize, imgSize, false,
			fpdf.ImageOptions{ImageType: "PNG"}, 0, "")

		url, _ := g.MenuURL(n)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetXY(x, y+76)
		pdf.CellFormat(cellW-5, 5, url, "", 0, "C", false, 0, "")
	}
	if len(numbers) == 0 {
		pdf.AddPage()
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render print PDF: %w", err)
	}
	return buf.Bytes(), nil
}
