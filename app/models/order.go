package models

import "time"

// ProductSnapshot is the product as it looked when the order was placed.
type ProductSnapshot struct {
	ID        string  `bson:"id"         json:"id"`
	Name      string  `bson:"name"       json:"name"`
	Price     float64 `bson:"price"      json:"price"`
	SellerUID string  `bson:"seller_uid" json:"seller_uid"`
}

// Order is owned by CustomerUID. OrderStatus is false while pending and
// becomes true once, when its payment is finalized.
type Order struct {
	ID          string          `bson:"_id"          json:"id"`
	CustomerUID string          `bson:"customer_uid" json:"customer_uid"`
	Product     ProductSnapshot `bson:"product"      json:"product"`
	OrderStatus bool            `bson:"order_status" json:"order_status"`
	PaymentID   string          `bson:"payment_id"   json:"payment_id,omitempty"`
	CreatedAt   time.Time       `bson:"created_at"   json:"created_at"`
}
