package models

import "time"

// Product is a listing owned by one seller. SellerUID never changes after
// creation and OrderStatus flips to true exactly once, when a payment for it
// is finalized.
type Product struct {
	ID            string    `bson:"_id"            json:"id"`
	SellerUID     string    `bson:"seller_uid"     json:"seller_uid"`
	CategoryID    string    `bson:"category_id"    json:"category_id"`
	Name          string    `bson:"name"           json:"name"`
	Image         string    `bson:"image"          json:"image,omitempty"`
	Condition     string    `bson:"condition"      json:"condition,omitempty"`
	Location      string    `bson:"location"       json:"location,omitempty"`
	ResellPrice   float64   `bson:"resell_price"   json:"resell_price"`
	OriginalPrice float64   `bson:"original_price" json:"original_price,omitempty"`
	Reported      bool      `bson:"reported"       json:"reported"`
	ReportCount   int       `bson:"report_count"   json:"report_count"`
	Promote       bool      `bson:"promote"        json:"promote"`
	OrderStatus   bool      `bson:"order_status"   json:"order_status"`
	SoldOrderID   string    `bson:"sold_order_id"  json:"sold_order_id,omitempty"`
	CreatedAt     time.Time `bson:"created_at"     json:"created_at"`
}

// Snapshot captures the terms a buyer ordered at.
func (p *Product) Snapshot() ProductSnapshot {
	return ProductSnapshot{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.ResellPrice,
		SellerUID: p.SellerUID,
	}
}
