package receipts

import (
	"bytes"
	"html/template"
)

// templateData feeds the receipt HTML. QRDataURI is a base64 PNG data URI
// so the rendered document is self-contained.
type templateData struct {
	ReceiptNumber    string
	ReceiptID        string
	PropertyName     string
	RoomName         string
	GuestName        string
	PayerEmail       string
	PaymentReference string
	AmountDisplay    string
	IssuedAt         string
	VerifyURL        string
	QRDataURI        template.URL
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #1a1a1a; margin: 48px; }
  .header { display: flex; justify-content: space-between; align-items: flex-start; border-bottom: 3px solid #0a6847; padding-bottom: 16px; }
  .brand { font-size: 28px; font-weight: 700; color: #0a6847; }
  .meta { text-align: right; font-size: 13px; color: #555; }
  h1 { font-size: 20px; margin: 32px 0 8px; }
  table { width: 100%; border-collapse: collapse; margin-top: 16px; }
  td { padding: 8px 0; font-size: 14px; border-bottom: 1px solid #eee; }
  td.label { color: #777; width: 40%; }
  .amount { font-size: 24px; font-weight: 700; color: #0a6847; margin-top: 24px; }
  .verify { margin-top: 40px; display: flex; align-items: center; gap: 16px; }
  .verify img { width: 120px; height: 120px; }
  .verify p { font-size: 12px; color: #777; max-width: 280px; }
  .footer { margin-top: 48px; font-size: 11px; color: #999; border-top: 1px solid #eee; padding-top: 12px; }
</style>
</head>
<body>
  <div class="header">
    <div class="brand">Makao</div>
    <div class="meta">
      Receipt No. {{.ReceiptNumber}}<br>
      {{.IssuedAt}}
    </div>
  </div>

  <h1>Payment Receipt</h1>
  <table>
    {{if .GuestName}}<tr><td class="label">Received from</td><td>{{.GuestName}}</td></tr>{{end}}
    {{if .PayerEmail}}<tr><td class="label">Email</td><td>{{.PayerEmail}}</td></tr>{{end}}
    {{if .PropertyName}}<tr><td class="label">Property</td><td>{{.PropertyName}}</td></tr>{{end}}
    {{if .RoomName}}<tr><td class="label">Room</td><td>{{.RoomName}}</td></tr>{{end}}
    <tr><td class="label">Payment reference</td><td>{{.PaymentReference}}</td></tr>
    <tr><td class="label">Receipt ID</td><td>{{.ReceiptID}}</td></tr>
  </table>

  <div class="amount">{{.AmountDisplay}}</div>

  <div class="verify">
    <img src="{{.QRDataURI}}" alt="verification QR">
    <p>Scan to confirm this receipt is genuine, or visit<br>{{.VerifyURL}}</p>
  </div>

  <div class="footer">
    Generated by Makao. This document is tamper-evident: the QR code and the
    verification link above resolve to the stored record.
  </div>
</body>
</html>
`))

// renderReceiptHTML fills the receipt template.
func renderReceiptHTML(data templateData) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
