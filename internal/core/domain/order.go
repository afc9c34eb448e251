package domain

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
)

// PaymentMethod - способ оплаты: онлайн картой или наличными при получении.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "card"
	PaymentCash PaymentMethod = "cash"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentCard:
		return PaymentCard, nil
	case PaymentCash:
		return PaymentCash, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidPayment, s)
	}
}

// OrderFormData - данные, которые пользователь вводит при оформлении.
type OrderFormData struct {
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	Address string        `json:"address"`
	Payment PaymentMethod `json:"payment"`
}

const minPhoneDigits = 10

// Validate возвращает *ValidationError со всеми ошибками сразу или nil.
func (f OrderFormData) Validate() error {
	errs := make(map[string]string)

	if _, err := ParsePaymentMethod(string(f.Payment)); err != nil {
		errs["payment"] = "Выберите способ оплаты"
	}
	if strings.TrimSpace(f.Address) == "" {
		errs["address"] = "Необходимо указать адрес"
	}

	email := strings.TrimSpace(f.Email)
	if email == "" {
		errs["email"] = "Необходимо указать email"
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs["email"] = "Некорректный email"
	}

	phone := strings.TrimSpace(f.Phone)
	if phone == "" {
		errs["phone"] = "Необходимо указать телефон"
	} else if !isPhone(phone) {
		errs["phone"] = "Некорректный телефон"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func isPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune("+()- ", r):
		default:
			return false
		}
	}
	return digits >= minPhoneDigits
}

// FormValidationPayload уходит подписчикам form:validate.
type FormValidationPayload struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors,omitempty"`
}

// OrderServer - заказ в формате магазина.
// Items повторяет id столько раз, сколько штук в корзине: у магазина нет поля количества.
type OrderServer struct {
	Payment PaymentMethod `json:"payment"`
	Email   string        `json:"email"`
	Phone   string        `json:"phone"`
	Address string        `json:"address"`
	Items   []string      `json:"items"`
	Total   float64       `json:"total"`
}

// NewOrderServer собирает заказ из формы и корзины.
func NewOrderServer(form OrderFormData, items []BasketItem) (OrderServer, error) {
	if len(items) == 0 {
		return OrderServer{}, ErrBasketEmpty
	}
	if err := form.Validate(); err != nil {
		return OrderServer{}, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		if !item.ForSale() {
			return OrderServer{}, fmt.Errorf("%w: %s", ErrProductNotForSale, item.ID)
		}
		for i := 0; i < item.Quantity; i++ {
			ids = append(ids, item.ID)
		}
	}

	return OrderServer{
		Payment: form.Payment,
		Email:   strings.TrimSpace(form.Email),
		Phone:   strings.TrimSpace(form.Phone),
		Address: strings.TrimSpace(form.Address),
		Items:   ids,
		Total:   BasketTotal(items).InexactFloat64(),
	}, nil
}

// OrderResult - ответ магазина на успешный заказ.
type OrderResult struct {
	ID    string  `json:"id"`
	Total float64 `json:"total"`
}

// PlacedOrder - заказ, сохраненный у нас после подтверждения магазином.
type PlacedOrder struct {
	ID         string
	SessionID  string
	UpstreamID string
	Order      OrderServer
	Lines      []OrderLine
	CreatedAt  time.Time
}

type OrderLine struct {
	ProductID string
	Title     string
	Quantity  int
	Price     float64
}

func NewOrderLines(items []BasketItem) []OrderLine {
	lines := make([]OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, OrderLine{
			ProductID: item.ID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			Price:     item.PriceDecimal().InexactFloat64(),
		})
	}
	return lines
}

// PaginatedOrders - страница истории заказов сессии.
type PaginatedOrders struct {
	Orders       []PlacedOrder
	TotalCount   int64
	CurrentPage  int
	ItemsPerPage int
}
