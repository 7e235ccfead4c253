// Package payment talks to the payment provider.
package payment

import "strings"

// PaymentApi is the client of the payment provider.
type PaymentApi struct {
	Endpoint string
}

// Charge bills the customer and returns the transaction reference.
func (a *PaymentApi) Charge(customer string, amount int64) string {
	return strings.ToUpper(customer) + "-" + a.Endpoint
}
