package view

import (
	"testing"

	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBus struct {
	names []domain.EventName
}

func (b *recordingBus) On(domain.EventName, port.EventCallback) port.Subscription {
	return port.Subscription{}
}
func (b *recordingBus) OnAll(func(domain.EventName, any)) port.Subscription {
	return port.Subscription{}
}
func (b *recordingBus) Off(port.Subscription) {}
func (b *recordingBus) Emit(name domain.EventName, _ any) error {
	b.names = append(b.names, name)
	return nil
}

func widget() domain.Product {
	return domain.NewProduct(domain.ProductServer{
		ID: "p1", Title: "Widget <b>", Category: "софт-скил", Image: "https://cdn.local/w.svg", Price: domain.Price(100),
	})
}

func TestCard_RenderEscapesAndReflectsSelection(t *testing.T) {
	c := NewContainer("card")
	p := widget()

	require.NoError(t, NewCard(c, p).Render())
	html := c.HTML()
	assert.Contains(t, html, "Widget &lt;b&gt;")
	assert.Contains(t, html, "card__category_soft")
	assert.Contains(t, html, "100 синапсов")
	assert.Contains(t, html, "В корзину")
	assert.NotContains(t, html, "disabled")

	p.SetSelected(true)
	require.NoError(t, NewCard(c, p).Render())
	assert.Contains(t, c.HTML(), "Удалить из корзины")
	assert.Contains(t, c.HTML(), "card_selected")
}

func TestCard_PricelessIsDisabled(t *testing.T) {
	c := NewContainer("card")

	require.NoError(t, NewCard(c, domain.NewProduct(domain.ProductServer{ID: "p9", Title: "Мамка-таймер", Category: "кнопка"})).Render())

	assert.Contains(t, c.HTML(), "Бесценно")
	assert.Contains(t, c.HTML(), "disabled")
	assert.Contains(t, c.HTML(), "card__category_button")
}

func TestComponent_DestroyClearsAndBlocksRender(t *testing.T) {
	c := NewContainer("card")
	card := NewCard(c, widget())
	require.NoError(t, card.Render())

	card.Destroy()

	assert.Empty(t, c.HTML())
	assert.ErrorIs(t, card.Render(), ErrDestroyed)
}

func TestBasket_Render(t *testing.T) {
	c := NewContainer("basket")
	items := []domain.BasketItem{
		{Product: widget(), Quantity: 3},
		{Product: domain.NewProduct(domain.ProductServer{ID: "p2", Title: "Gadget", Price: domain.Price(0.5)}), Quantity: 1},
	}

	require.NoError(t, NewBasket(c, items).Render())

	html := c.HTML()
	assert.Contains(t, html, "300.5 синапсов")
	assert.Contains(t, html, "× 3")
	assert.Contains(t, html, `basket__item-index">2<`)
	assert.NotContains(t, html, "disabled")
}

func TestBasket_EmptyDisablesOrder(t *testing.T) {
	c := NewContainer("basket")

	require.NoError(t, NewBasket(c, nil).Render())

	assert.Contains(t, c.HTML(), "Корзина пуста")
	assert.Contains(t, c.HTML(), "disabled")
	assert.Contains(t, c.HTML(), "0 синапсов")
}

func TestModal_OpenReplacesContentAndEmits(t *testing.T) {
	bus := &recordingBus{}
	c := NewContainer("modal-container")
	m := NewModal(c, bus)

	require.NoError(t, m.Open("<p>first</p>"))
	require.NoError(t, m.Open("<p>second</p>"))

	assert.True(t, m.IsOpen())
	assert.Equal(t, "<p>second</p>", m.Content())
	assert.Contains(t, c.HTML(), "modal_active")
	assert.Contains(t, c.HTML(), "<p>second</p>")
	assert.NotContains(t, c.HTML(), "first")

	require.NoError(t, m.Close())
	assert.False(t, m.IsOpen())
	assert.NotContains(t, c.HTML(), "modal_active")

	assert.Equal(t, []domain.EventName{domain.EventModalOpen, domain.EventModalOpen, domain.EventModalClose}, bus.names)
}

func TestModal_WithoutBus(t *testing.T) {
	m := NewModal(NewContainer("modal"), nil)
	require.NoError(t, m.Open("x"))
	require.NoError(t, m.Render())
	m.Destroy()
	assert.ErrorIs(t, m.Render(), ErrDestroyed)
}

func TestViews(t *testing.T) {
	v := Views()
	c := v.NewContainer("x")
	assert.Equal(t, "x", c.ID())
	require.NoError(t, v.Card(c, widget()).Render())
	assert.NotEmpty(t, c.HTML())
}
