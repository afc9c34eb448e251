package view

import (
	"html/template"

	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"
)

type cardData struct {
	domain.Product
	InBasket bool
	Buyable  bool
}

// Card - карточка товара (в каталоге и в превью).
type Card struct {
	container port.Container
	product   domain.Product
	destroyed bool
}

func NewCard(container port.Container, product domain.Product) port.Component {
	return &Card{container: container, product: product}
}

func (c *Card) Render() error {
	if c.destroyed {
		return ErrDestroyed
	}
	html, err := render("card", cardData{
		Product:  c.product,
		InBasket: c.product.IsSelected(),
		Buyable:  c.product.ForSale(),
	})
	if err != nil {
		return err
	}
	c.container.Replace(html)
	return nil
}

func (c *Card) Destroy() {
	c.destroyed = true
	c.container.Clear()
}

type basketData struct {
	Items []domain.BasketItem
	Total float64
}

// Basket - список позиций корзины с итогом.
type Basket struct {
	container port.Container
	items     []domain.BasketItem
	destroyed bool
}

func NewBasket(container port.Container, items []domain.BasketItem) port.Component {
	copied := make([]domain.BasketItem, len(items))
	copy(copied, items)
	return &Basket{container: container, items: copied}
}

func (b *Basket) Render() error {
	if b.destroyed {
		return ErrDestroyed
	}
	html, err := render("basket", basketData{
		Items: b.items,
		Total: domain.BasketTotal(b.items).InexactFloat64(),
	})
	if err != nil {
		return err
	}
	b.container.Replace(html)
	return nil
}

func (b *Basket) Destroy() {
	b.destroyed = true
	b.container.Clear()
}

type modalData struct {
	ID      string
	Open    bool
	Content template.HTML
}

// Modal - единственное модальное окно. Content вставляется как готовая
// разметка: туда попадает только вывод других компонентов.
type Modal struct {
	container port.Container
	events    port.EventsPort
	open      bool
	content   string
	destroyed bool
}

func NewModal(container port.Container, events port.EventsPort) port.ModalComponent {
	return &Modal{container: container, events: events}
}

func (m *Modal) Open(content string) error {
	m.content = content
	m.open = true
	if err := m.Render(); err != nil {
		return err
	}
	return m.emit(domain.EventModalOpen)
}

func (m *Modal) Close() error {
	m.content = ""
	m.open = false
	if err := m.Render(); err != nil {
		return err
	}
	return m.emit(domain.EventModalClose)
}

func (m *Modal) Render() error {
	if m.destroyed {
		return ErrDestroyed
	}
	html, err := render("modal", modalData{
		ID:      m.container.ID(),
		Open:    m.open,
		Content: template.HTML(m.content),
	})
	if err != nil {
		return err
	}
	m.container.Replace(html)
	return nil
}

func (m *Modal) Destroy() {
	m.destroyed = true
	m.open = false
	m.content = ""
	m.container.Clear()
}

func (m *Modal) IsOpen() bool {
	return m.open
}

func (m *Modal) Content() string {
	return m.content
}

func (m *Modal) emit(name domain.EventName) error {
	if m.events == nil {
		return nil
	}
	return m.events.Emit(name, domain.ModalPayload{ContainerID: m.container.ID()})
}

// Views собирает конструкторы для внедрения в use case.
func Views() port.Views {
	return port.Views{
		NewContainer: NewContainer,
		Card:         NewCard,
		Basket:       NewBasket,
		Modal:        NewModal,
	}
}
