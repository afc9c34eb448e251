package port

import (
	"context"
	"encoding/json"
	"net/http"

	"web-larek/internal/core/domain"
)

// APIPort - клиент API магазина, говорящий конвертами {success, result, error}.
// Ошибки прикладного уровня возвращаются в конверте; error означает,
// что запрос не удалось даже собрать.
type APIPort interface {
	Get(ctx context.Context, uri string) (*domain.APIResponse[json.RawMessage], error)
	Post(ctx context.Context, uri string, data any) (*domain.APIResponse[json.RawMessage], error)
	HandleResponse(resp *http.Response) *domain.APIResponse[json.RawMessage]
}
