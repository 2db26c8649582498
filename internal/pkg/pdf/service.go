// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"

	"github.com/your-org/food-delivery-backend/internal/config"
	"github.com/your-org/food-delivery-backend/internal/domain/order"
	"github.com/your-org/food-delivery-backend/internal/pkg/money"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
	tmpl   *template.Template
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	funcs := template.FuncMap{
		"money": money.Format,
		"upper": strings.ToUpper,
	}

	return &Service{
		config: cfg,
		tmpl:   template.Must(template.New("receipt").Funcs(funcs).Parse(receiptTemplate)),
	}
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	StoreName     string
	ReceiptNumber string
	IssuedAt      string
	Order         *order.Order
	StatusLabel   string
}

// GenerateReceipt renders an order receipt as PDF
func (s *Service) GenerateReceipt(o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderReceiptHTML(o, time.Now())
	if err != nil {
		return nil, err
	}

	// Convert HTML to PDF
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA5)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(8)
	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// RenderReceiptHTML renders the receipt markup the PDF is built from
func (s *Service) RenderReceiptHTML(o *order.Order, issuedAt time.Time) (string, error) {
	data := ReceiptData{
		StoreName:     s.config.App.Name,
		ReceiptNumber: receiptNumber(o),
		IssuedAt:      issuedAt.Format("January 2, 2006 3:04 PM"),
		Order:         o,
		StatusLabel:   o.Status.Label(),
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// receiptNumber formats e.g. RCPT-20240501-1A2B3C4D
func receiptNumber(o *order.Order) string {
	short := o.ID
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("RCPT-%s-%s", o.CreatedAt.Format("20060102"), strings.ToUpper(short))
}

// Receipt HTML template
const receiptTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Receipt {{.ReceiptNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { border-bottom: 2px solid #eee; padding-bottom: 12px; margin-bottom: 20px; }
        .title { font-size: 24px; font-weight: bold; color: #ea580c; }
        .section-title { font-size: 14px; font-weight: bold; margin: 16px 0 6px; color: #374151; }
        .items-table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        .items-table th, .items-table td { border-bottom: 1px solid #eee; padding: 8px 4px; text-align: left; }
        .items-table .num { text-align: right; }
        .totals td { padding: 4px; }
        .totals .amount { text-align: right; width: 100px; }
        .total-row { font-size: 16px; font-weight: bold; border-top: 2px solid #333; }
        .footer { margin-top: 30px; text-align: center; color: #666; font-size: 11px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="title">{{.StoreName}}</div>
        <p><strong>Receipt #:</strong> {{.ReceiptNumber}}</p>
        <p><strong>Issued:</strong> {{.IssuedAt}}</p>
        <p><strong>Order placed:</strong> {{.Order.CreatedAt.Format "January 2, 2006 3:04 PM"}}</p>
        <p><strong>Status:</strong> {{.StatusLabel}}</p>
    </div>

    <div class="section-title">{{.Order.RestaurantName}}</div>
    <table class="items-table">
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Order.Items}}
            <tr>
                <td>{{.Name}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money .Price}}</td>
                <td class="num">{{money .Total}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <table class="totals">
        <tr><td>Subtotal</td><td class="amount">{{money .Order.SubtotalAmount}}</td></tr>
        {{if gt .Order.DiscountAmount 0}}
        <tr><td>Discount{{if .Order.PromoCode}} ({{.Order.PromoCode}}){{end}}</td><td class="amount">-{{money .Order.DiscountAmount}}</td></tr>
        {{end}}
        <tr><td>Delivery fee</td><td class="amount">{{money .Order.DeliveryFee}}</td></tr>
        <tr class="total-row"><td>Total</td><td class="amount">{{money .Order.TotalAmount}}</td></tr>
    </table>

    <div class="section-title">Delivered to</div>
    <p>{{.Order.DeliveryAddress.StreetAddress}}{{if .Order.DeliveryAddress.Apartment}}, {{.Order.DeliveryAddress.Apartment}}{{end}}</p>
    <p>{{.Order.DeliveryAddress.City}}, {{.Order.DeliveryAddress.State}} {{.Order.DeliveryAddress.ZipCode}}</p>
    <p><strong>Payment:</strong> {{upper (printf "%s" .Order.PaymentMethod)}}</p>
    {{if .Order.DriverName}}<p><strong>Driver:</strong> {{.Order.DriverName}}</p>{{end}}

    <div class="footer">
        <p>Thank you for ordering with {{.StoreName}}!</p>
    </div>
</body>
</html>
`
