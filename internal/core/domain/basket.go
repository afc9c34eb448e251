package domain

import "github.com/shopspring/decimal"

// BasketItem - позиция корзины. Quantity >= 1 гарантирует сервис корзины.
type BasketItem struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal - цена позиции (price × quantity).
func (i BasketItem) LineTotal() decimal.Decimal {
	return i.PriceDecimal().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// BasketTotal суммирует позиции без потерь точности на float.
func BasketTotal(items []BasketItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// BasketChangedPayload уходит подписчикам basket:change.
type BasketChangedPayload struct {
	Items []BasketItem `json:"items"`
	Count int          `json:"count"`
	Total float64      `json:"total"`
}
