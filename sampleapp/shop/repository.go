package shop

import "strconv"

// OrderRepository stores orders in memory.
type OrderRepository struct {
	rows map[int64]Order
	seq  int64
}

// Save stores the order and returns its id.
func (r *OrderRepository) Save(o Order) (int64, error) {
	r.seq++
	r.rows[r.seq] = o
	_ = strconv.FormatInt(r.seq, 10)
	return r.seq, nil
}
