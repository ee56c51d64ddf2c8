// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/MuhammadAwais984/storefront/internal/domain/order"
	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
	tmpl   *template.Template
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	if cfg.Invoice.WkhtmltopdfBin != "" {
		wkhtmltopdf.SetPath(cfg.Invoice.WkhtmltopdfBin)
	}
	return &Service{
		config: cfg,
		tmpl:   template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

// InvoiceData represents the data passed to the invoice template
type InvoiceData struct {
	InvoiceNumber string
	InvoiceDate   string
	OrderDate     string
	Order         *order.Order
	CustomerName  string
	CustomerEmail string
	Lines         []InvoiceLine
	Total         string
	Company       CompanyInfo
}

// InvoiceLine is a preformatted order item
type InvoiceLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

// GenerateInvoice renders the invoice and converts it to PDF with
// wkhtmltopdf. The binary must be installed on the host.
func (s *Service) GenerateInvoice(ctx context.Context, o *order.Order) (*bytes.Buffer, error) {
	htmlContent, err := s.RenderInvoiceHTML(o)
	if err != nil {
		return nil, err
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Title.Set(fmt.Sprintf("Invoice %s", o.OrderNumber))

	page := wkhtmltopdf.NewPageReader(bytes.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)
	pdfg.AddPage(page)

	if err := pdfg.CreateContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// RenderInvoiceHTML renders the invoice as a standalone HTML document
func (s *Service) RenderInvoiceHTML(o *order.Order) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, s.invoiceData(o)); err != nil {
		return nil, fmt.Errorf("failed to render invoice: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *Service) invoiceData(o *order.Order) InvoiceData {
	data := InvoiceData{
		InvoiceNumber: fmt.Sprintf("INV-%s", o.OrderNumber),
		InvoiceDate:   time.Now().Format("January 2, 2006"),
		OrderDate:     o.CreatedAt.Format("January 2, 2006"),
		Order:         o,
		Total:         o.TotalPrice.StringFixed(2),
		Company: CompanyInfo{
			Name:    s.config.Invoice.CompanyName,
			Address: s.config.Invoice.CompanyAddress,
			Phone:   s.config.Invoice.CompanyPhone,
			Email:   s.config.Invoice.CompanyEmail,
		},
	}
	if o.Customer != nil {
		data.CustomerName = o.Customer.Name
		data.CustomerEmail = o.Customer.Email
	}
	for _, item := range o.Items {
		data.Lines = append(data.Lines, InvoiceLine{
			Name:      item.ProductName,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice.StringFixed(2),
			LineTotal: item.LineTotal.StringFixed(2),
		})
	}
	return data
}

const invoiceTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Invoice {{.InvoiceNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { border-bottom: 2px solid #eee; padding-bottom: 20px; margin-bottom: 30px; }
        .company-info h1 { margin: 0; color: #2c3e50; }
        .meta { float: right; text-align: right; }
        .bill-to { margin-bottom: 30px; }
        table.items { width: 100%; border-collapse: collapse; margin-bottom: 30px; }
        table.items th { background: #f8f9fa; text-align: left; padding: 10px; border-bottom: 2px solid #dee2e6; }
        table.items td { padding: 10px; border-bottom: 1px solid #dee2e6; }
        .num { text-align: right; }
        .total-row td { font-weight: bold; font-size: 16px; border-top: 2px solid #333; }
        .status { display: inline-block; padding: 2px 8px; border: 1px solid #999; border-radius: 3px; font-size: 12px; }
        .footer { margin-top: 50px; text-align: center; color: #666; font-size: 12px; }
    </style>
</head>
<body>
    <div class="header">
        <div class="meta">
            <h2>INVOICE</h2>
            <p><strong>{{.InvoiceNumber}}</strong></p>
            <p>Invoice date: {{.InvoiceDate}}</p>
            <p>Order date: {{.OrderDate}}</p>
            <p><span class="status">{{.Order.Status}}</span></p>
        </div>
        <div class="company-info">
            <h1>{{.Company.Name}}</h1>
            {{if .Company.Address}}<p>{{.Company.Address}}</p>{{end}}
            {{if .Company.Email}}<p>{{.Company.Email}}</p>{{end}}
            {{if .Company.Phone}}<p>{{.Company.Phone}}</p>{{end}}
        </div>
    </div>

    <div class="bill-to">
        <h3>Bill To</h3>
        {{if .CustomerName}}<p>{{.CustomerName}}</p>{{end}}
        {{if .CustomerEmail}}<p>{{.CustomerEmail}}</p>{{end}}
        <p>{{.Order.Address}}</p>
    </div>

    <table class="items">
        <thead>
            <tr><th>Item</th><th class="num">Qty</th><th class="num">Unit Price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
            {{range .Lines}}
            <tr><td>{{.Name}}</td><td class="num">{{.Quantity}}</td><td class="num">{{.UnitPrice}}</td><td class="num">{{.LineTotal}}</td></tr>
            {{end}}
            <tr class="total-row"><td colspan="3" class="num">Total:</td><td class="num">{{.Total}}</td></tr>
        </tbody>
    </table>

    <div class="footer">
        <p>Thank you for your business!</p>
        {{if .Company.Email}}<p>Questions about this invoice? Contact us at {{.Company.Email}}</p>{{end}}
    </div>
</body>
</html>
`
