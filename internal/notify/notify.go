// Package notify renders transactional emails and receipts for the store.
package notify

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	texttemplate "text/template"
	"time"

	"stockdesk/internal/domain"

	"github.com/shopspring/decimal"
)

//go:embed templates/*
var templateFS embed.FS

var ErrUnknownOrderStatus = errors.New("unknown order status")

// OrderStatus is the fulfilment state an order email reports.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var statusCopy = map[OrderStatus]struct{ subject, headline string }{
	OrderPending:    {"We received your order #%s", "We have received your order and will confirm it shortly."},
	OrderConfirmed:  {"Your order #%s is confirmed", "Your order has been confirmed and is being prepared."},
	OrderProcessing: {"Your order #%s is being processed", "Your order is being packed by our team."},
	OrderShipped:    {"Your order #%s has shipped", "Good news, your order is on its way."},
	OrderDelivered:  {"Your order #%s was delivered", "Your order has been delivered. Enjoy!"},
	OrderCancelled:  {"Your order #%s was cancelled", "Your order has been cancelled. Any payment taken will be refunded."},
}

const (
	DefaultPrimaryColor = "#1f2937"
	DefaultAccentColor  = "#f59e0b"
)

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Branding colours used by every template.
type Branding struct {
	PrimaryColor string `json:"primaryColor"`
	AccentColor  string `json:"accentColor"`
}

// Store identifies the sender.
type Store struct {
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl,omitempty"`
}

// OrderLine is one purchased line.
type OrderLine struct {
	Name      string          `json:"name" validate:"required"`
	Variant   string          `json:"variant,omitempty"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Total is quantity times unit price.
func (l OrderLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Order struct {
	Number         string          `json:"number" validate:"required"`
	CustomerName   string          `json:"customerName"`
	CustomerEmail  string          `json:"customerEmail,omitempty" validate:"omitempty,email"`
	Status         OrderStatus     `json:"status"`
	TrackingNumber string          `json:"trackingNumber,omitempty"`
	Lines          []OrderLine     `json:"lines" validate:"required,min=1,dive"`
	Discount       decimal.Decimal `json:"discount"`
	Tax            decimal.Decimal `json:"tax"`
	PlacedAt       time.Time       `json:"placedAt"`
}

// Subtotal sums the line totals.
func (o Order) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

// Total is subtotal minus discount plus tax.
func (o Order) Total() decimal.Decimal {
	return o.Subtotal().Sub(o.Discount).Add(o.Tax)
}

// Sale is the point-of-sale payment for an order.
type Sale struct {
	ReceiptNumber string          `json:"receiptNumber" validate:"required"`
	PaymentMethod string          `json:"paymentMethod"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
	Cashier       string          `json:"cashier,omitempty"`
	SoldAt        time.Time       `json:"soldAt"`
}

// Change is what the customer gets back; never negative.
func (s Sale) Change(o Order) decimal.Decimal {
	c := s.AmountPaid.Sub(o.Total())
	if c.IsNegative() {
		return decimal.Zero
	}
	return c
}

// Email is a rendered message.
type Email struct {
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

type brandView struct {
	PrimaryColor template.CSS
	AccentColor  template.CSS
}

func (b Branding) view() brandView {
	v := brandView{PrimaryColor: DefaultPrimaryColor, AccentColor: DefaultAccentColor}
	if hexColor.MatchString(b.PrimaryColor) {
		v.PrimaryColor = template.CSS(b.PrimaryColor)
	}
	if hexColor.MatchString(b.AccentColor) {
		v.AccentColor = template.CSS(b.AccentColor)
	}
	return v
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("January 2, 2006")
}

func formatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// Renderer holds the parsed email and receipt templates.
type Renderer struct {
	html *template.Template
	text *texttemplate.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcs := map[string]any{
		"money":          money,
		"formatDate":     formatDate,
		"formatDateTime": formatDateTime,
	}
	html, err := template.New("notify").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html templates: %w", err)
	}
	text, err := texttemplate.New("notify").Funcs(funcs).ParseFS(templateFS, "templates/*.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text templates: %w", err)
	}
	return &Renderer{html: html, text: text}, nil
}

type orderView struct {
	Number         string
	CustomerName   string
	Status         string
	TrackingNumber string
	Lines          []lineView
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Tax            decimal.Decimal
	Total          decimal.Decimal
	PlacedAt       time.Time
}

type saleView struct {
	ReceiptNumber string
	PaymentMethod string
	AmountPaid    decimal.Decimal
	Change        decimal.Decimal
	Cashier       string
	SoldAt        time.Time
}

type lineView struct {
	Name      string
	Variant   string
	Quantity  int
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

func newOrderView(o Order) orderView {
	v := orderView{
		Number:         o.Number,
		CustomerName:   o.CustomerName,
		Status:         string(o.Status),
		TrackingNumber: o.TrackingNumber,
		Subtotal:       o.Subtotal(),
		Discount:       o.Discount,
		Tax:            o.Tax,
		Total:          o.Total(),
		PlacedAt:       o.PlacedAt,
	}
	for _, l := range o.Lines {
		v.Lines = append(v.Lines, lineView{Name: l.Name, Variant: l.Variant, Quantity: l.Quantity, UnitPrice: l.UnitPrice, Total: l.Total()})
	}
	return v
}

// OrderStatusEmail renders the customer notification for the order's current status.
func (r *Renderer) OrderStatusEmail(o Order, store Store, b Branding) (Email, error) {
	msg, ok := statusCopy[OrderStatus(strings.ToLower(string(o.Status)))]
	if !ok {
		return Email{}, fmt.Errorf("%w: %q", ErrUnknownOrderStatus, o.Status)
	}
	o.Status = OrderStatus(strings.ToLower(string(o.Status)))

	subject := fmt.Sprintf(msg.subject, o.Number)
	data := map[string]any{
		"Subject":  subject,
		"Headline": msg.headline,
		"Order":    newOrderView(o),
		"Store":    store,
		"Branding": b.view(),
	}
	return r.render("order_status", subject, data)
}

// LowStockEmail renders the restock alert for lines at or below their reorder level.
func (r *Renderer) LowStockEmail(item *domain.Item, lines []domain.StockLine, store Store, b Branding) (Email, error) {
	subject := fmt.Sprintf("Low stock: %s", item.ProductName)
	data := map[string]any{
		"Subject":  subject,
		"Item":     item,
		"Lines":    lines,
		"Store":    store,
		"Branding": b.view(),
	}
	return r.render("low_stock", subject, data)
}

// ReceiptHTML renders the printable receipt that is converted to PDF.
func (r *Renderer) ReceiptHTML(o Order, s Sale, store Store, b Branding) (string, error) {
	if s.PaymentMethod == "" {
		s.PaymentMethod = "cash"
	}
	data := map[string]any{
		"Order": newOrderView(o),
		"Sale": saleView{
			ReceiptNumber: s.ReceiptNumber,
			PaymentMethod: s.PaymentMethod,
			AmountPaid:    s.AmountPaid,
			Change:        s.Change(o),
			Cashier:       s.Cashier,
			SoldAt:        s.SoldAt,
		},
		"Store":    store,
		"Branding": b.view(),
	}
	var buf bytes.Buffer
	if err := r.html.ExecuteTemplate(&buf, "receipt.html", data); err != nil {
		return "", fmt.Errorf("failed to render receipt: %w", err)
	}
	return buf.String(), nil
}

func (r *Renderer) render(name, subject string, data map[string]any) (Email, error) {
	var html, text bytes.Buffer
	if err := r.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Email{}, fmt.Errorf("failed to render %s html: %w", name, err)
	}
	if err := r.text.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return Email{}, fmt.Errorf("failed to render %s text: %w", name, err)
	}
	return Email{Subject: subject, HTML: html.String(), Text: text.String()}, nil
}
