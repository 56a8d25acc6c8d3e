package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID             uuid.UUID
	Email          string
	HashedPassword string
	Name           string
	Phone          pgtype.Text
	Address        pgtype.Text
	Role           string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	Category    string
	Available   bool
	Stock       int32
	IsFeatured  bool
	ImageURL    pgtype.Text
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Cart struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	IsActive   bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CartLine struct {
	ID            uuid.UUID
	CartID        uuid.UUID
	MenuItemID    uuid.UUID
	Quantity      int32
	UnitPrice     pgtype.Numeric
	Customization []byte
	AddedAt       time.Time
}

type Order struct {
	ID            uuid.UUID
	OrderNo       int64
	CustomerID    uuid.UUID
	CustomerName  string
	ContactNumber string
	Subtotal      pgtype.Numeric
	DeliveryFee   pgtype.Numeric
	TotalAmount   pgtype.Numeric
	DeliveryType  string
	Address       pgtype.Text
	Note          pgtype.Text
	PaymentMethod string
	PaymentStatus string
	PaymentProof  pgtype.Text
	Status        string
	Rating        pgtype.Int4
	Review        pgtype.Text
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type OrderLine struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	MenuItemID    uuid.UUID
	ItemName      string
	Quantity      int32
	UnitPrice     pgtype.Numeric
	Customization []byte
}

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Message   string
	Type      string
	Read      bool
	CreatedAt time.Time
}

type ActivityLog struct {
	ID          uuid.UUID
	UserID      pgtype.UUID
	UserRole    string
	Category    string
	Action      string
	Description pgtype.Text
	OrderID     pgtype.UUID
	MenuItemID  pgtype.UUID
	CreatedAt   time.Time
}
