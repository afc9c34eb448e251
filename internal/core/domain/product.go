package domain

import "github.com/shopspring/decimal"

// ProductServer - товар в том виде, в котором его отдает магазин.
// Price == nil означает "бесценный" товар, который нельзя положить в корзину.
type ProductServer struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price"`
}

// Product - товар для отображения.
// Selected подсвечивает товары, которые уже лежат в корзине; наверх он не уходит.
type Product struct {
	ProductServer
	Selected *bool `json:"selected,omitempty"`
}

func NewProduct(p ProductServer) Product {
	return Product{ProductServer: p}
}

func (p ProductServer) ForSale() bool {
	return p.Price != nil
}

// PriceDecimal возвращает цену как decimal; для бесценных товаров - ноль.
func (p ProductServer) PriceDecimal() decimal.Decimal {
	if p.Price == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(*p.Price)
}

func (p Product) IsSelected() bool {
	return p.Selected != nil && *p.Selected
}

func (p *Product) SetSelected(v bool) {
	if !v {
		p.Selected = nil
		return
	}
	selected := true
	p.Selected = &selected
}

// Price - удобный конструктор для тестов и маппинга.
func Price(v float64) *float64 {
	return &v
}
