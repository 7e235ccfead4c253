package shop

import "fmt"

// StockManager tracks item availability.
type StockManager struct {
	levels map[string]int
}

// Reserve takes qty items out of stock, rebalancing when short.
func (m *StockManager) Reserve(item string, qty int) error {
	if m.levels[item] < qty {
		return m.Rebalance(item, qty)
	}
	m.levels[item] -= qty
	return nil
}

// Rebalance refills the item and retries the reservation.
func (m *StockManager) Rebalance(item string, qty int) error {
	if qty > 100 {
		return fmt.Errorf("cannot reserve %d %s", qty, item)
	}
	m.levels[item] += qty
	return m.Reserve(item, qty)
}

// AuditManager keeps an audit trail.
type AuditManager struct {
	entries []string
}

// Record appends an audit entry.
func (a *AuditManager) Record(entry string) {
	a.entries = append(a.entries, entry)
}
