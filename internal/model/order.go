package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OrderRecord is one order as it lands in the destination sheet.
type OrderRecord struct {
	OrderDate   string
	OrderNumber string
	Name        string
	Phone       string
	WhatsApp    string
	Governorate string
	Area        string
	Address     string
	Plan        string
	Quantity    string
	Total       string
	ProductName string
	Status      string
	Source      string
	Notes       string
	Assignee    string
}

func (r OrderRecord) Details() string {
	return fmt.Sprintf("%s - طلب رقم %s", r.Plan, r.OrderNumber)
}

// QuantityCell sends numeric quantities as JSON numbers and anything else verbatim.
func (r OrderRecord) QuantityCell() any {
	if isJSONNumber(r.Quantity) {
		return json.Number(r.Quantity)
	}
	return r.Quantity
}

func isJSONNumber(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	if s[0] != '-' && (s[0] < '0' || s[0] > '9') {
		return false
	}
	return json.Valid([]byte(s))
}

type Column struct {
	Letter string
	Header string
	Value  func(r OrderRecord) any
}

func blank(OrderRecord) any { return "" }

// OrderColumnsV1 is the A..R layout of the orders sheet.
var OrderColumnsV1 = []Column{
	{"A", "تاريخ الطلب", func(r OrderRecord) any { return r.OrderDate }},
	{"B", "الاسم", func(r OrderRecord) any { return r.Name }},
	{"C", "رقم الهاتف", func(r OrderRecord) any { return r.Phone }},
	{"D", "رقم الواتس", func(r OrderRecord) any { return r.WhatsApp }},
	{"E", "المحافظة", func(r OrderRecord) any { return r.Governorate }},
	{"F", "المنطقة", func(r OrderRecord) any { return r.Area }},
	{"G", "العنوان", func(r OrderRecord) any { return r.Address }},
	{"H", "تفاصيل الطلب", func(r OrderRecord) any { return r.Details() }},
	{"I", "الكمية", func(r OrderRecord) any { return r.QuantityCell() }},
	{"J", "توتال السعر شامل الشحن", func(r OrderRecord) any { return r.Total }},
	{"K", "اسم المنتج", func(r OrderRecord) any { return r.ProductName }},
	{"L", "الحالة", func(r OrderRecord) any { return r.Status }},
	{"M", "ملاحظات", func(r OrderRecord) any { return r.Notes }},
	{"N", "المصدر", func(r OrderRecord) any { return r.Source }},
	{"O", "ارسال واتس اب", blank},
	{"P", "Lead ID", func(r OrderRecord) any { return r.OrderNumber }},
	{"Q", "المسؤول", func(r OrderRecord) any { return r.Assignee }},
	{"R", "TikTok Lead ID", blank},
}

const OrderLayoutV1 = "v1"

// RowLayout maps an OrderRecord onto sheet columns in a fixed order.
type RowLayout struct {
	version string
	columns []Column
}

// NewRowLayout fails when the columns are not contiguous from A or do not
// match the destination width.
func NewRowLayout(version string, columns []Column, width int) (*RowLayout, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("row layout %s: no columns", version)
	}
	if len(columns) > 26 {
		return nil, fmt.Errorf("row layout %s: %d columns exceed range A:Z", version, len(columns))
	}
	if len(columns) != width {
		return nil, fmt.Errorf("row layout %s: has %d columns, sheet expects %d", version, len(columns), width)
	}
	for i, col := range columns {
		want := string(rune('A' + i))
		if col.Letter != want {
			return nil, fmt.Errorf("row layout %s: column %d is %q, want %q", version, i, col.Letter, want)
		}
		if col.Value == nil {
			return nil, fmt.Errorf("row layout %s: column %s has no value func", version, col.Letter)
		}
	}
	return &RowLayout{version: version, columns: columns}, nil
}

func (l *RowLayout) Version() string { return l.version }

func (l *RowLayout) Width() int { return len(l.columns) }

func (l *RowLayout) Row(r OrderRecord) []any {
	row := make([]any, len(l.columns))
	for i, col := range l.columns {
		row[i] = col.Value(r)
	}
	return row
}
