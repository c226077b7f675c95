package export

import (
	"io"

	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/filex"
	"github.com/go-pdf/fpdf"
)

const (
	pdfTitle  = "Temperature monitoring"
	rowHeight = 9.0
)

var (
	pdfColumns = []string{"Date", "Morning (°C)", "Evening (°C)", "Abdominal pain"}
	colWidths  = []float64{40, 50, 50, 50}
)

// WritePDF renders the table of rng as an A4 portrait page.
func WritePDF(w io.Writer, rng models.DateRange, m models.RecordMapping) error {
	return renderPDF(rng, m).Output(w)
}

func SavePDF(path string, rng models.DateRange, m models.RecordMapping) error {
	return filex.WriteAtomic(path, func(w io.Writer) error {
		return WritePDF(w, rng, m)
	})
}

func renderPDF(rng models.DateRange, m models.RecordMapping) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(pdfTitle, true)
	pdf.AddPage()

	// core fonts are cp1252; the degree sign needs translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0x33, 0x33, 0x33)
	pdf.CellFormat(0, 12, pdfTitle, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0x66, 0x66, 0x66)
	pdf.CellFormat(0, 8, "Period: "+rng.String(), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetDrawColor(0, 0, 0)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(0x4a, 0x69, 0xbd)
	pdf.SetTextColor(0xff, 0xff, 0xff)
	for i, col := range pdfColumns {
		pdf.CellFormat(colWidths[i], rowHeight+1, tr(col), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(0, 0, 0)
	pdf.SetFillColor(0xf8, 0xf9, 0xfa)
	for i, row := range rng.Rows(m) {
		striped := i%2 == 0
		for j, cell := range pdfCells(row) {
			pdf.CellFormat(colWidths[j], rowHeight, cell, "1", 0, "C", striped, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf
}

func pdfCells(row models.Row) []string {
	return []string{row.Label, orDash(row.MorningTemp), orDash(row.EveningTemp), yesNo(row.Pain)}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
