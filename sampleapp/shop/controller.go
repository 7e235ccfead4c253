package shop

import (
	"errors"
	"fmt"

	"example.com/sampleapp/payment"
)

// OrderController receives orders from the outside world.
type OrderController struct {
	svc   OrderService
	utils StringUtils
	audit *AuditManager
}

// NewOrderController wires the default services.
func NewOrderController() *OrderController {
	repo := &OrderRepository{rows: map[int64]Order{}}
	stock := &StockManager{levels: map[string]int{"book": 10}}
	svc := &OrderServiceImpl{repo: repo, stock: stock, payments: &payment.PaymentApi{Endpoint: "sandbox"}}
	return &OrderController{svc: svc, audit: &AuditManager{}}
}

// Place validates and submits an order.
func (c *OrderController) Place(o Order) (int64, error) {
	o.Customer = c.utils.Normalize(o.Customer)
	if o.Qty <= 0 {
		return 0, errors.New("empty order")
	}
	id, err := c.svc.Create(o)
	if err != nil {
		return 0, err
	}
	c.audit.Record(fmt.Sprintf("order %d", id))
	return id, nil
}
