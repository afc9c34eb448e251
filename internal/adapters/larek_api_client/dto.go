package larek_api_client

import "encoding/json"

// envelopeHead распознает ответ, уже обернутый в {success, result, error}.
type envelopeHead struct {
	Success *bool           `json:"success"`
	Result  json.RawMessage `json:"result"`
	Error   string          `json:"error"`
}

// errorBody - тело ошибки магазина, например {"error": "NotFound"}.
type errorBody struct {
	Error string `json:"error"`
}
