package menu

import (
	"time"

	"github.com/google/uuid"
)

// Menu categories shown as ordered sections in the diner app.
const (
	CategoryStarter     = "starter"
	CategoryIndianBread = "indian-bread"
	CategoryRice        = "rice"
	CategoryDal         = "dal"
	CategoryRaita       = "raita"
	CategoryNoodles     = "noodles"
	CategoryIceCream    = "ice-cream"
)

// Categories lists valid categories in display order.
var Categories = []string{
	CategoryStarter,
	CategoryIndianBread,
	CategoryRice,
	CategoryDal,
	CategoryRaita,
	CategoryNoodles,
	CategoryIceCream,
}

// Price carries the full and half portion prices. Items sold in one size set
// NoPortion on the parent and the same amount in both fields.
type Price struct {
	Full float64 `json:"full" bson:"full"`
	Half float64 `json:"half" bson:"half"`
}

// MenuItem is a dish on the catalog. English fields are required; the mr_
// pair carries the Marathi translation and the diner app falls back to the
// English value when it is empty.
type MenuItem struct {
	ID            uuid.UUID `json:"id" bson:"_id"`
	Name          string    `json:"name" bson:"name"`
	MrName        string    `json:"mr_name,omitempty" bson:"mr_name,omitempty"`
	Description   string    `json:"description,omitempty" bson:"description,omitempty"`
	MrDescription string    `json:"mr_description,omitempty" bson:"mr_description,omitempty"`
	Price         Price     `json:"price" bson:"price"`
	FoodType      string    `json:"foodType,omitempty" bson:"foodType,omitempty"`
	SpiceLevel    string    `json:"spiceLevel,omitempty" bson:"spiceLevel,omitempty"`
	Image         string    `json:"image,omitempty" bson:"image,omitempty"`
	NoPortion     bool      `json:"noPortion" bson:"noPortion"`
	Category      string    `json:"category" bson:"category"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (m *MenuItem) GetID() uuid.UUID {
	return m.ID
}

func (m *MenuItem) ResourceType() string {
	return "menu/item"
}

// EnsureID generates a new UUID if ID is nil.
func (m *MenuItem) EnsureID() {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
}

// BeforeCreate sets up the menu item before creation.
func (m *MenuItem) BeforeCreate() {
	m.EnsureID()
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Image == "" {
		m.Image = "/images/default.jpg"
	}
}

// BeforeUpdate updates the timestamp.
func (m *MenuItem) BeforeUpdate() {
	m.UpdatedAt = time.Now()
}

// DisplayPrice resolves the price for a portion choice.
func (m *MenuItem) DisplayPrice(portion string) float64 {
	if m.NoPortion || portion != "Half" {
		return m.Price.Full
	}
	return m.Price.Half
}
