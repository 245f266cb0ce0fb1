package types

import "strings"

// ShippingAddress is the delivery snapshot stored on an order.
type ShippingAddress struct {
	FirstName  string `json:"firstName" validate:"required,max=100" gorm:"column:first_name"`
	LastName   string `json:"lastName" validate:"required,max=100" gorm:"column:last_name"`
	Address    string `json:"address" validate:"required,max=255" gorm:"column:address"`
	City       string `json:"city" validate:"required,max=100" gorm:"column:city"`
	PostalCode string `json:"postalCode" validate:"required,max=20" gorm:"column:postal_code"`
	Country    string `json:"country" validate:"required,max=100" gorm:"column:country"`
	Email      string `json:"email" validate:"required,email,max=255" gorm:"column:email"`
	Phone      string `json:"phone,omitempty" validate:"omitempty,max=30" gorm:"column:phone"`
}

// FullName joins first and last name.
func (a ShippingAddress) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
