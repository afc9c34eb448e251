package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventVocabulary(t *testing.T) {
	for _, name := range []EventName{
		EventCatalogLoaded, EventCardClick, EventCardAdd, EventBasketChange, EventBasketOpen,
		EventBasketItemRemove, EventBasketItemUpdate, EventOrderStart, EventFormSubmit,
		EventFormValidate, EventOrderSuccess, EventModalOpen, EventModalClose, EventAll,
	} {
		assert.True(t, IsKnownEventName(name), name)
	}
	assert.False(t, IsKnownEventName("basket:explode"))
}

func TestRegisterEventName(t *testing.T) {
	const custom EventName = "test:custom-registered"

	assert.NoError(t, RegisterEventName(custom))

	assert.True(t, IsKnownEventName(custom))
	assert.Contains(t, KnownEventNames(), custom)
	assert.ErrorIs(t, RegisterEventName(""), ErrUnknownEvent)
}
