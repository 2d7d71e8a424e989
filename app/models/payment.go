package models

import "time"

// Payment records one successful checkout. Payments are append-only and an
// order has at most one.
type Payment struct {
	ID            string    `bson:"_id"            json:"id"`
	OrderID       string    `bson:"order_id"       json:"order_id"`
	ProductID     string    `bson:"product_id"     json:"product_id"`
	CustomerUID   string    `bson:"customer_uid"   json:"customer_uid"`
	TransactionID string    `bson:"transaction_id" json:"transaction_id"`
	Amount        int64     `bson:"amount"         json:"amount"`
	Currency      string    `bson:"currency"       json:"currency"`
	CreatedAt     time.Time `bson:"created_at"     json:"created_at"`
}
