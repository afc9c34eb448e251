package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() OrderFormData {
	return OrderFormData{
		Email:   "buyer@example.com",
		Phone:   "+7 (999) 123-45-67",
		Address: "Москва, ул. Пушкина, д. 1",
		Payment: PaymentCard,
	}
}

func TestParsePaymentMethod(t *testing.T) {
	tests := []struct {
		in      string
		want    PaymentMethod
		wantErr bool
	}{
		{in: "card", want: PaymentCard},
		{in: " CASH ", want: PaymentCash},
		{in: "online", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePaymentMethod(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPayment)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrderFormData_Validate(t *testing.T) {
	assert.NoError(t, validForm().Validate())

	err := OrderFormData{Email: "not-an-email", Phone: "12"}.Validate()
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Некорректный email", vErr.Fields["email"])
	assert.Equal(t, "Некорректный телефон", vErr.Fields["phone"])
	assert.Contains(t, vErr.Fields, "address")
	assert.Contains(t, vErr.Fields, "payment")
	assert.Contains(t, err.Error(), "address:")

	f := validForm()
	f.Phone = "+7 999 abc 45 67"
	require.Error(t, f.Validate())
}

func TestNewOrderServer_RepeatsIDsPerQuantity(t *testing.T) {
	items := []BasketItem{
		{Product: NewProduct(ProductServer{ID: "p1", Price: Price(100)}), Quantity: 3},
		{Product: NewProduct(ProductServer{ID: "p2", Price: Price(50)}), Quantity: 1},
	}

	order, err := NewOrderServer(validForm(), items)

	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p1", "p1", "p2"}, order.Items)
	assert.Equal(t, 350.0, order.Total)
	assert.Equal(t, PaymentCard, order.Payment)
}

func TestNewOrderServer_Errors(t *testing.T) {
	_, err := NewOrderServer(validForm(), nil)
	assert.ErrorIs(t, err, ErrBasketEmpty)

	_, err = NewOrderServer(OrderFormData{}, []BasketItem{{Product: NewProduct(ProductServer{ID: "p1", Price: Price(1)}), Quantity: 1}})
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))

	_, err = NewOrderServer(validForm(), []BasketItem{{Product: NewProduct(ProductServer{ID: "p3"}), Quantity: 1}})
	assert.ErrorIs(t, err, ErrProductNotForSale)
}

func TestNewOrderLines(t *testing.T) {
	lines := NewOrderLines([]BasketItem{{Product: NewProduct(ProductServer{ID: "p1", Title: "Widget", Price: Price(99.5)}), Quantity: 2}})
	require.Len(t, lines, 1)
	assert.Equal(t, OrderLine{ProductID: "p1", Title: "Widget", Quantity: 2, Price: 99.5}, lines[0])
}
