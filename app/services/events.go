package services

// Event names fired on the bus. The Kafka sink publishes them as the
// "event" header.
const (
	EventUserRegistered   = "user.registered"
	EventUserDeleted      = "user.deleted"
	EventSellerVerified   = "seller.verified"
	EventProductCreated   = "product.created"
	EventProductReported  = "product.reported"
	EventProductSold      = "product.sold"
	EventOrderCreated     = "order.created"
	EventPaymentFinalized = "payment.finalized"
	EventPaymentConflict  = "payment.conflict"
)
