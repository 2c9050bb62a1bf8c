package enum

import "strings"

// EventKind identifies an outbound sale notification
type EventKind int

const (
	EventSaleCreated EventKind = iota
	EventSaleModified
	EventSaleCancelled
	EventSaleItemCancelled
)

var eventKindNames = [...]string{"SaleCreated", "SaleModified", "SaleCancelled", "SaleItemCancelled"}

func (k EventKind) String() string {
	if int(k) < 0 || int(k) >= len(eventKindNames) {
		return "Unknown"
	}
	return eventKindNames[k]
}

// Slug is the snake_case form used in topic names, e.g. "sale_item_cancelled".
func (k EventKind) Slug() string {
	name := k.String()
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// EnvKey is the upper-case form used in configuration keys.
func (k EventKind) EnvKey() string {
	return strings.ToUpper(k.Slug())
}

// EventKinds lists every kind in declaration order
func EventKinds() []EventKind {
	return []EventKind{EventSaleCreated, EventSaleModified, EventSaleCancelled, EventSaleItemCancelled}
}
