package email

import (
	"fmt"
	"html/template"
)

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>{{.SiteName}}</title></head>
<body style="font-family: Arial, sans-serif; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
<h2>{{.SiteName}}</h2>
<p>Hello {{if .UserName}}{{.UserName}}{{else}}there{{end}},</p>
{{template "content" .}}
<p style="color: #888; font-size: 12px;">&copy; {{.Year}} {{.SiteName}}</p>
</div>
</body>
</html>{{end}}`

var emailTemplates = map[string]string{
	"order_confirmation": `{{define "content"}}
<p>Thank you for your order <strong>{{.OrderNumber}}</strong> placed on {{.OrderDate}}.</p>
<table style="width: 100%; border-collapse: collapse;">
<tr><th align="left">Item</th><th align="right">Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
{{range .Items}}<tr><td>{{.Name}}</td><td align="right">{{.Quantity}}</td><td align="right">{{.Price}}</td><td align="right">{{.Total}}</td></tr>
{{end}}</table>
<p><strong>Order total: {{.OrderTotal}}</strong></p>
<p>Delivering to: {{.Address}}</p>
{{if .GuestToken}}<p>Your order reference is <code>{{.GuestToken}}</code>. Keep it to track or cancel this order{{if .TrackURL}} at <a href="{{.TrackURL}}">{{.TrackURL}}</a>{{end}}.</p>{{end}}
{{end}}`,
	"order_status_update": `{{define "content"}}
<p>Your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>
<p>{{.StatusMessage}}</p>
{{end}}`,
}

func parseTemplates() (map[string]*template.Template, error) {
	out := make(map[string]*template.Template, len(emailTemplates))
	for name, body := range emailTemplates {
		tmpl, err := template.New(name).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("failed to parse email layout: %w", err)
		}
		if _, err := tmpl.Parse(body); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		out[name] = tmpl.Lookup("layout")
	}
	return out, nil
}
