package shop

import "example.com/sampleapp/payment"

// OrderService creates orders.
type OrderService interface {
	// Create persists the order and returns its id.
	Create(o Order) (int64, error)
}

// OrderServiceImpl charges the customer before saving.
type OrderServiceImpl struct {
	repo     *OrderRepository
	stock    *StockManager
	payments *payment.PaymentApi
}

// Create reserves stock, charges the customer and saves the order.
func (s *OrderServiceImpl) Create(o Order) (int64, error) {
	if err := s.stock.Reserve(o.Item, o.Qty); err != nil {
		return 0, err
	}
	s.payments.Charge(o.Customer, o.Amount)
	return s.repo.Save(o)
}

// CachedOrderServiceImpl serves repeated orders from memory.
type CachedOrderServiceImpl struct {
	next  OrderService
	cache map[string]int64
}

func (s *CachedOrderServiceImpl) Create(o Order) (int64, error) {
	if id, ok := s.cache[o.Customer+o.Item]; ok {
		return id, nil
	}
	return s.next.Create(o)
}
