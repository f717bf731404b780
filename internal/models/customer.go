package models

import "time"

// Customer is a repair-shop client. Customers can log into a restricted
// portal, so they carry their own credentials next to the contact data.
type Customer struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `gorm:"size:100;not null" json:"name"`

	// Portal login
	Username     string `gorm:"size:20;uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"size:60;not null" json:"-"`

	// Contact
	Phone    string `gorm:"size:20;not null" json:"phone"`
	PhoneAlt string `gorm:"size:20" json:"phone_alt,omitempty"`

	// Fiscal identity (pessoa física ou jurídica)
	Kind string `gorm:"size:20" json:"kind,omitempty"`
	CPF  string `gorm:"size:20" json:"cpf,omitempty"`
	CNPJ string `gorm:"size:20" json:"cnpj,omitempty"`

	// Address
	CEP        string `gorm:"size:10" json:"cep,omitempty"`
	Street     string `gorm:"size:150" json:"street,omitempty"`
	Number     string `gorm:"size:10" json:"number,omitempty"`
	Complement string `gorm:"size:100" json:"complement,omitempty"`
	District   string `gorm:"size:100" json:"district,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	State      string `gorm:"size:10" json:"state,omitempty"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	WorkOrders []WorkOrder `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"work_orders,omitempty"`
	Quotes     []Quote     `gorm:"foreignKey:CustomerID;constraint:OnDelete:CASCADE" json:"quotes,omitempty"`
}

// FullAddress renders the postal address as display lines, skipping empty parts.
func (c Customer) FullAddress() string {
	line1 := c.Street
	if line1 != "" && c.Number != "" {
		line1 += ", " + c.Number
	}
	if c.Complement != "" {
		if line1 != "" {
			line1 += " - "
		}
		line1 += c.Complement
	}
	out := line1
	line2 := c.District
	if c.City != "" {
		if line2 != "" {
			line2 += " - "
		}
		line2 += c.City
	}
	if c.State != "" {
		if line2 != "" {
			line2 += "/"
		}
		line2 += c.State
	}
	if line2 != "" {
		if out != "" {
			out += "\n"
		}
		out += line2
	}
	if c.CEP != "" {
		if out != "" {
			out += "\n"
		}
		out += "CEP " + c.CEP
	}
	return out
}
