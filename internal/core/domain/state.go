package domain

// AppState - состояние витрины одной сессии.
// Order и Preview независимо друг от друга могут отсутствовать (nil).
// CheckoutID выдается при начале оформления и становится id оформленного
// заказа; по нему повторная отправка узнает уже созданный заказ.
type AppState struct {
	Catalog    []Product      `json:"catalog"`
	Basket     []BasketItem   `json:"basket"`
	Order      *OrderFormData `json:"order"`
	Preview    *string        `json:"preview"`
	CheckoutID string         `json:"checkout_id,omitempty"`
}

func NewAppState() *AppState {
	return &AppState{
		Catalog: []Product{},
		Basket:  []BasketItem{},
	}
}

// Normalize заменяет nil-срезы пустыми (после JSON или ручной сборки).
func (s *AppState) Normalize() {
	if s.Catalog == nil {
		s.Catalog = []Product{}
	}
	if s.Basket == nil {
		s.Basket = []BasketItem{}
	}
}

// FindProduct ищет товар в каталоге.
func (s *AppState) FindProduct(id string) (Product, bool) {
	for _, p := range s.Catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// SetCatalog заменяет каталог, сохраняя отметки корзины.
// Превью, которое больше не ссылается на товар каталога, сбрасывается.
func (s *AppState) SetCatalog(products []ProductServer) {
	catalog := make([]Product, 0, len(products))
	for _, p := range products {
		catalog = append(catalog, NewProduct(p))
	}
	s.Catalog = catalog
	s.SyncSelection()

	if s.Preview != nil {
		if _, ok := s.FindProduct(*s.Preview); !ok {
			s.Preview = nil
		}
	}
}

// SetPreview открывает карточку товара; id обязан быть в каталоге.
func (s *AppState) SetPreview(id string) error {
	if _, ok := s.FindProduct(id); !ok {
		return ErrProductNotFound
	}
	s.Preview = &id
	return nil
}

func (s *AppState) ClearPreview() {
	s.Preview = nil
}

func (s *AppState) PreviewProduct() (Product, bool) {
	if s.Preview == nil {
		return Product{}, false
	}
	return s.FindProduct(*s.Preview)
}

// SyncSelection выставляет Selected товарам каталога, которые лежат в корзине.
func (s *AppState) SyncSelection() {
	inBasket := make(map[string]struct{}, len(s.Basket))
	for _, item := range s.Basket {
		inBasket[item.ID] = struct{}{}
	}
	for i := range s.Catalog {
		_, ok := inBasket[s.Catalog[i].ID]
		s.Catalog[i].SetSelected(ok)
	}
}

// ResetOrder очищает корзину и форму после успешного заказа.
func (s *AppState) ResetOrder() {
	s.Basket = []BasketItem{}
	s.Order = nil
	s.Preview = nil
	s.CheckoutID = ""
	s.SyncSelection()
}
