package contracts

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"web-larek/schemas"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	OrderCreatedEventType   = "OrderCreatedEvent"
	CatalogUpdatedEventType = "CatalogUpdatedEvent"
	EventVersionV1          = "1.0.0"
)

// Registry хранит скомпилированные схемы событий по ключу "<Тип>/<версия>".
type Registry struct {
	schemas map[string]*jsonschema.Schema
}

// NewRegistry компилирует все схемы из events/**/v<N>.json.
func NewRegistry(fsys fs.FS) (*Registry, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	var paths []string
	// Сначала добавляем все схемы как ресурсы, чтобы работали $ref между ними
	err := fs.WalkDir(fsys, "events", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		file, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer file.Close()
		if err := compiler.AddResource(path, file); err != nil {
			return fmt.Errorf("add schema resource %s: %w", path, err)
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk schemas: %w", err)
	}

	r := &Registry{schemas: make(map[string]*jsonschema.Schema, len(paths))}
	for _, path := range paths {
		key := keyFromPath(path)
		if key == "" {
			return nil, fmt.Errorf("unexpected schema path %q", path)
		}
		schema, err := compiler.Compile(path)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", path, err)
		}
		r.schemas[key] = schema
	}
	return r, nil
}

// MustDefault собирает реестр из встроенных схем; ошибка здесь - ошибка сборки.
func MustDefault() *Registry {
	r, err := NewRegistry(schemas.SchemasFS)
	if err != nil {
		panic(err)
	}
	return r
}

// keyFromPath превращает "events/order-created/v1.json" в "OrderCreatedEvent/1.0.0".
func keyFromPath(path string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(path, "events/"), ".json")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || !strings.HasPrefix(parts[1], "v") {
		return ""
	}

	caser := cases.Title(language.English)
	var name strings.Builder
	for _, p := range strings.Split(parts[0], "-") {
		name.WriteString(caser.String(p))
	}
	name.WriteString("Event")

	return fmt.Sprintf("%s/%s.0.0", name.String(), strings.TrimPrefix(parts[1], "v"))
}

// Keys - зарегистрированные ключи, отсортированные.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateEvent проверяет тело сообщения по схеме его типа и версии.
func (r *Registry) ValidateEvent(eventType, eventVersion string, body []byte) error {
	key := eventType + "/" + eventVersion
	schema, ok := r.schemas[key]
	if !ok {
		return fmt.Errorf("schema for event '%s' version '%s' not found", eventType, eventVersion)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("message body is not a valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}
