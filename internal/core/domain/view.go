package domain

// PreviewView - открытая карточка товара и разметка модального окна с ней.
type PreviewView struct {
	Product   Product `json:"product"`
	ModalHTML string  `json:"modal_html"`
}

// BasketView - содержимое корзины вместе с отрисованным фрагментом.
type BasketView struct {
	Items []BasketItem `json:"items"`
	Count int          `json:"count"`
	Total float64      `json:"total"`
	HTML  string       `json:"html"`
}

// ModalView - текущее состояние модального окна сессии.
type ModalView struct {
	Open bool   `json:"open"`
	HTML string `json:"html"`
}
