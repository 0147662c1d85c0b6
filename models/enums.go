package models

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

type OrderType string

const (
	OrderTypeOnline OrderType = "Online"
	OrderTypePOS    OrderType = "POS"
)

type CustomerStatus string

const (
	CustomerStatusNew     CustomerStatus = "New"
	CustomerStatusRegular CustomerStatus = "Regular"
	CustomerStatusVIP     CustomerStatus = "VIP"
)

func (s CustomerStatus) IsValid() bool {
	switch s {
	case CustomerStatusNew, CustomerStatusRegular, CustomerStatusVIP:
		return true
	}
	return false
}

type RewardsTransactionType string

const (
	RewardsTransactionTypeEarned   RewardsTransactionType = "earned"
	RewardsTransactionTypeRedeemed RewardsTransactionType = "redeemed"
)
