package bill

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// Restaurant letterhead constants printed on every invoice.
const (
	restaurantName    = "DELICIOUS BITES"
	restaurantTagline = "FLAVORS YOU'LL REMEMBER"
	restaurantAddr1   = "123 Foodie Street, Gourmet City"
	restaurantAddr2   = "Maharashtra, India - 400001"
	restaurantPhone   = "Phone: +91 98765 43210"
	restaurantGSTIN   = "GSTIN: 27AAAAA0000A1Z5"
	restaurantFSSAI   = "FSSAI: 12345678901234"
	restaurantSite    = "Visit us again at www.deliciousbites.com"
)

// RenderInvoicePDF writes the tax invoice for a bill as an A4 PDF. The layout
// matches the printed bill diners already know: slate header band, two detail
// columns, a striped item table, tax summary rows and a grand-total band.
func RenderInvoicePDF(w io.Writer, b Bill) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	// Header band, slate 800.
	pdf.SetFillColor(30, 41, 59)
	pdf.Rect(0, 0, 210, 40, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 28)
	pdf.Text(15, 25, restaurantName)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Text(15, 32, restaurantTagline)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.Text(150, 25, "TAX INVOICE")

	// Detail columns.
	pdf.SetTextColor(0, 0, 0)
	y := 55.0
	leftX := 15.0
	rightX := 130.0

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(leftX, y, "RESTAURANT DETAILS")
	pdf.SetFont("Helvetica", "", 9)
	for i, line := range []string{restaurantAddr1, restaurantAddr2, restaurantPhone, restaurantGSTIN, restaurantFSSAI} {
		pdf.Text(leftX, y+6+float64(i)*5, line)
	}
	leftBottom := y + 6 + 4*5

	pdf.SetFont("Helvetica", "B", 10)
	pdf.Text(rightX, y, "BILL DETAILS")
	pdf.SetFont("Helvetica", "", 9)
	details := []string{
		fmt.Sprintf("Table No: #%d", b.TableNumber),
		fmt.Sprintf("Customer: %s", b.CustomerName),
		fmt.Sprintf("Bill No: %s", b.InvoiceNumber),
		fmt.Sprintf("Date & Time: %s", b.InvoiceDate.Format("02/01/2006, 3:04:05 pm")),
	}
	for i, line := range details {
		pdf.Text(rightX, y+6+float64(i)*5, line)
	}

	y = leftBottom + 15

	// Item table header, slate 100 with slate 300 rules.
	pdf.SetFillColor(241, 245, 249)
	pdf.Rect(15, y, 180, 10, "F")
	pdf.SetDrawColor(203, 213, 225)
	pdf.Line(15, y, 195, y)
	pdf.Line(15, y+10, 195, y+10)

	pdf.SetFont("Helvetica", "B", 9)
	headerY := y + 6.5
	pdf.Text(20, headerY, "Item Name")
	pdf.Text(90, headerY, "Portion")
	textRight(pdf, 125, headerY, "Qty")
	textRight(pdf, 145, headerY, "Rate")
	textRight(pdf, 185, headerY, "Amount")
	y += 10

	pdf.SetFont("Helvetica", "", 9)
	for i, item := range b.Items {
		if y > 250 {
			pdf.AddPage()
			y = 20
		}
		if i%2 != 0 {
			pdf.SetFillColor(248, 250, 252)
			pdf.Rect(15, y, 180, 8, "F")
		}

		name := item.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		portion := item.Portion
		if portion == "" {
			portion = "Full"
		}
		pdf.Text(20, y+5.5, name)
		pdf.Text(90, y+5.5, portion)
		textRight(pdf, 125, y+5.5, fmt.Sprintf("%d", item.Quantity))
		textRight(pdf, 145, y+5.5, fmt.Sprintf("Rs. %.2f", item.Price))
		textRight(pdf, 185, y+5.5, fmt.Sprintf("Rs. %.2f", item.Price*float64(item.Quantity)))
		y += 8
	}

	pdf.Line(15, y, 195, y)
	y += 10

	// Tax summary.
	summaryX := 130.0
	pdf.SetFont("Helvetica", "", 9)
	rows := []struct {
		label string
		value float64
	}{
		{"Subtotal:", b.Subtotal},
		{"CGST (2.5%):", b.CGST},
		{"SGST (2.5%):", b.SGST},
		{"Service Charge (5%):", b.ServiceCharge},
	}
	for _, row := range rows {
		pdf.Text(summaryX, y, row.label)
		textRight(pdf, 185, y, fmt.Sprintf("Rs. %.2f", row.value))
		y += 6
	}
	y += 4

	// Grand total band.
	pdf.SetFillColor(30, 41, 59)
	pdf.Rect(summaryX-5, y-6, 70, 12, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Text(summaryX, y+2, "GRAND TOTAL:")
	textRight(pdf, 185, y+2, fmt.Sprintf("Rs. %.2f", b.GrandTotal))

	// Footer, slate 500.
	y = 260
	pdf.SetTextColor(100, 116, 139)
	pdf.SetFont("Helvetica", "", 9)
	textCenter(pdf, 105, y, "Thank you for dining with us!")
	textCenter(pdf, 105, y+5, restaurantSite)

	pdf.SetDrawColor(203, 213, 225)
	pdf.Rect(95, y+10, 20, 20, "D")
	pdf.SetFont("Helvetica", "", 7)
	textCenter(pdf, 105, y+22, "QR FEEDBACK")

	return pdf.Output(w)
}

func textRight(pdf *fpdf.Fpdf, x, y float64, s string) {
	pdf.Text(x-pdf.GetStringWidth(s), y, s)
}

func textCenter(pdf *fpdf.Fpdf, x, y float64, s string) {
	pdf.Text(x-pdf.GetStringWidth(s)/2, y, s)
}
