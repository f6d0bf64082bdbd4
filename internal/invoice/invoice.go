// Package invoice renders order invoices as A4 PDF documents.
package invoice

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/dejobratic/shopkart/internal/apperrors"
)

const (
	margin     = 40.0
	lineHeight = 18.0
	dateLayout = "02 Jan 2006"
	footerNote = "This is a computer generated invoice. No signature required."
	noAddress  = "Address no longer available"
)

// ErrTotalMismatch means the item snapshot no longer adds up to the stored order total.
var ErrTotalMismatch = apperrors.New(apperrors.ErrInvalidState, "invoice items do not add up to the order total")

// Document is everything printed on an invoice.
type Document struct {
	Brand        string
	OrderID      string
	Date         time.Time
	Customer     string
	AddressLines []string
	Items        []Line
	TotalCents   int64
}

type Line struct {
	Name           string
	Quantity       int
	UnitPriceCents int64
}

func (l Line) TotalCents() int64 {
	return int64(l.Quantity) * l.UnitPriceCents
}

type Renderer struct {
	compress bool
}

type Option func(*Renderer)

// WithCompression toggles stream compression; uncompressed output is easier to inspect.
func WithCompression(enabled bool) Option {
	return func(r *Renderer) { r.compress = enabled }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{compress: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render lays out doc. The grand total is recomputed from the lines and must equal doc.TotalCents.
func (r *Renderer) Render(doc Document) ([]byte, error) {
	var total int64
	for _, line := range doc.Items {
		total += line.TotalCents()
	}
	if total != doc.TotalCents {
		return nil, fmt.Errorf("%w: items %d, order %d", ErrTotalMismatch, total, doc.TotalCents)
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetCompression(r.compress)
	// Core fonts are cp1252; every user-supplied string goes through tr before it is drawn.
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+lineHeight)
	pdf.SetTitle(doc.Brand+" invoice "+doc.OrderID, true)
	pdf.SetCreator(doc.Brand, true)
	pdf.SetCreationDate(doc.Date)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, "Page "+strconv.Itoa(pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*margin

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(contentWidth, 26, tr(doc.Brand+" - Tax Invoice"), "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(contentWidth, lineHeight, "Invoice Date: "+doc.Date.Format(dateLayout), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, tr("Order ID: #"+doc.OrderID), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentWidth, lineHeight, tr("Customer: "+doc.Customer), "", 1, "L", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentWidth, lineHeight, "Shipping Address", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	addressLines := doc.AddressLines
	if len(addressLines) == 0 {
		addressLines = []string{noAddress}
	}
	for _, l := range addressLines {
		pdf.CellFormat(contentWidth, lineHeight-4, tr(l), "", 1, "L", false, 0, "")
	}
	pdf.Ln(12)

	widths := []float64{contentWidth * 0.46, contentWidth * 0.12, contentWidth * 0.21, contentWidth * 0.21}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, header := range []string{"Item", "Qty", "Price", "Total"} {
		align := "R"
		if i == 0 {
			align = "L"
		}
		pdf.CellFormat(widths[i], lineHeight+2, header, "1", 0, align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range doc.Items {
		pdf.CellFormat(widths[0], lineHeight, tr(line.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], lineHeight, strconv.Itoa(line.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], lineHeight, FormatAmount(line.UnitPriceCents), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], lineHeight, FormatAmount(line.TotalCents()), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentWidth, lineHeight+4, "Total Amount: "+FormatAmount(total), "", 1, "R", false, 0, "")

	pdf.Ln(24)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(contentWidth, lineHeight, footerNote, "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// FormatAmount prints minor units as "Rs. 1,234.50".
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}

	whole := strconv.FormatInt(cents/100, 10)
	for i := len(whole) - 3; i > 0; i -= 3 {
		whole = whole[:i] + "," + whole[i:]
	}
	return fmt.Sprintf("%sRs. %s.%02d", sign, whole, cents%100)
}
