package main

import (
	"fmt"

	"example.com/sampleapp/shop"
)

func main() {
	c := shop.NewOrderController()
	id, err := c.Place(shop.Order{Customer: " ada ", Item: "book", Qty: 2, Amount: 30})
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("order", id)
}
