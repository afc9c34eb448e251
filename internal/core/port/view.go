package port

import "web-larek/internal/core/domain"

// Container - внешний дескриптор элемента, в который рисует компонент.
type Container interface {
	ID() string
	Replace(html string)
	HTML() string
	Clear()
}

// Component не умеет обновляться на месте: его уничтожают и создают заново.
type Component interface {
	Render() error
	Destroy()
}

// ModalServicePort - одно модальное окно без стека: повторный Open заменяет содержимое.
type ModalServicePort interface {
	Open(content string) error
	Close() error
	Render() error
}

type ModalComponent interface {
	ModalServicePort
	Component
	IsOpen() bool
	Content() string
}

type CardConstructor func(container Container, product domain.Product) Component

type BasketConstructor func(container Container, items []domain.BasketItem) Component

// ModalConstructor: events может быть nil, тогда modal:open и modal:close не отправляются.
type ModalConstructor func(container Container, events EventsPort) ModalComponent

// Views - набор конструкторов, которые внедряются в слой use case.
type Views struct {
	NewContainer func(id string) Container
	Card         CardConstructor
	Basket       BasketConstructor
	Modal        ModalConstructor
}
