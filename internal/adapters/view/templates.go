// Package view рисует компоненты витрины в HTML-фрагменты на сервере.
package view

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templatesFS embed.FS

// ErrDestroyed возвращает Render уничтоженного компонента.
var ErrDestroyed = errors.New("component is destroyed")

var categoryClasses = map[string]string{
	"софт-скил":      "soft",
	"хард-скил":      "hard",
	"другое":         "other",
	"дополнительное": "additional",
	"кнопка":         "button",
}

func categoryClass(category string) string {
	if c, ok := categoryClasses[category]; ok {
		return c
	}
	return "other"
}

func synapses(total float64) string {
	return decimal.NewFromFloat(total).String() + " синапсов"
}

func price(p *float64) string {
	if p == nil {
		return "Бесценно"
	}
	return synapses(*p)
}

var templates = template.Must(template.New("view").Funcs(template.FuncMap{
	"categoryClass": categoryClass,
	"price":         price,
	"synapses":      synapses,
	"inc":           func(i int) int { return i + 1 },
}).ParseFS(templatesFS, "templates/*.html"))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
