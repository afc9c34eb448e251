package contracts

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromPath(t *testing.T) {
	assert.Equal(t, "OrderCreatedEvent/1.0.0", keyFromPath("events/order-created/v1.json"))
	assert.Equal(t, "CatalogUpdatedEvent/2.0.0", keyFromPath("events/catalog-updated/v2.json"))
	assert.Empty(t, keyFromPath("events/flat.json"))
}

func TestDefaultRegistry(t *testing.T) {
	r := MustDefault()

	assert.Equal(t, []string{"CatalogUpdatedEvent/1.0.0", "OrderCreatedEvent/1.0.0"}, r.Keys())
}

func TestValidateEvent_OrderCreated(t *testing.T) {
	r := MustDefault()
	valid := `{
		"event_id": "8b0c7f3e-3f55-4c58-9d3a-0b8f6f6b2a11",
		"order_id": "1f4c1f0e-1a2b-4c3d-8e9f-0a1b2c3d4e5f",
		"upstream_id": "28c57cb4-3002-4445-8aa1-2a06a5055ae5",
		"session_id": "s1",
		"payment": "card",
		"email": "buyer@example.com",
		"phone": "+71234567890",
		"address": "Moscow",
		"total": 300,
		"items": [{"product_id": "p1", "title": "Widget", "quantity": 3, "price": 100}],
		"created_at": "2026-10-19T10:00:00Z"
	}`

	require.NoError(t, r.ValidateEvent(OrderCreatedEventType, EventVersionV1, []byte(valid)))

	err := r.ValidateEvent(OrderCreatedEventType, EventVersionV1, []byte(`{"event_id":"x"}`))
	assert.ErrorContains(t, err, "JSON schema validation failed")

	err = r.ValidateEvent(OrderCreatedEventType, EventVersionV1, []byte(`not json`))
	assert.ErrorContains(t, err, "not a valid JSON")

	err = r.ValidateEvent(OrderCreatedEventType, "9.0.0", []byte(valid))
	assert.ErrorContains(t, err, "not found")
}

func TestValidateEvent_CatalogUpdated(t *testing.T) {
	r := MustDefault()

	ok := `{"event_id":"8b0c7f3e-3f55-4c58-9d3a-0b8f6f6b2a11","product_ids":["p1"],"updated_at":"2026-10-19T10:00:00Z"}`
	require.NoError(t, r.ValidateEvent(CatalogUpdatedEventType, EventVersionV1, []byte(ok)))

	bad := `{"event_id":"8b0c7f3e-3f55-4c58-9d3a-0b8f6f6b2a11","updated_at":"yesterday"}`
	assert.Error(t, r.ValidateEvent(CatalogUpdatedEventType, EventVersionV1, []byte(bad)))
}

func TestNewRegistry_BrokenSchema(t *testing.T) {
	fsys := fstest.MapFS{
		"events/broken/v1.json": &fstest.MapFile{Data: []byte(`{"type": 12}`)},
	}

	_, err := NewRegistry(fsys)

	assert.Error(t, err)
}
