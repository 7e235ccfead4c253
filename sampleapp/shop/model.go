package shop

// Order is a customer order.
type Order struct {
	Customer string
	Item     string
	Qty      int
	Amount   int64
}

// StringUtils normalizes user input.
type StringUtils struct{}

// Normalize drops the spaces in s.
func (StringUtils) Normalize(s string) string {
	out := []rune{}
	for _, r := range s {
		if r != ' ' {
			out = append(out, r)
		}
	}
	return string(out)
}
