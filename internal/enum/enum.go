package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusPending        = "pending"
	OrderStatusPreparing      = "preparing"
	OrderStatusReady          = "ready"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCompleted      = "completed"
	OrderStatusCancelled      = "cancelled"
)

const (
	PaymentStatusUnpaid          = "unpaid"
	PaymentStatusWaitingPayment  = "waiting_payment"
	PaymentStatusForVerification = "for_verification"
	PaymentStatusPaid            = "paid"
	PaymentStatusRejected        = "rejected"
)

// ── Fixed vocabularies (CHECK constrained in DB) ──

const (
	UserRoleStaff    = "STAFF"
	UserRoleCustomer = "CUSTOMER"
)

const (
	DeliveryTypeDelivery = "delivery"
	DeliveryTypePickup   = "pickup"
)

const (
	PaymentMethodCreditCard   = "credit_card"
	PaymentMethodGCash        = "gcash"
	PaymentMethodBankTransfer = "bank_transfer"
	PaymentMethodCash         = "cash"
	PaymentMethodOverCounter  = "over_counter"
)

// ── Configurable labels (no DB constraint) ──

const (
	CategoryChicken = "chicken"
	CategoryPork    = "pork"
	CategoryBurger  = "burger"
	CategoryFries   = "fries"
	CategoryDrinks  = "drinks"
)

const (
	NotificationTypeOrder = "order"
	NotificationTypeStock = "stock"
)

const (
	ActivityCategoryAccount = "account"
	ActivityCategoryOrder   = "order"
	ActivityCategoryMenu    = "menu"
)
