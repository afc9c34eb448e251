package events

import (
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitter_OnAndEmit(t *testing.T) {
	e := New()
	var got []any
	e.On("basket:change", func(p any) { got = append(got, p) })
	e.On("card:add", func(p any) { t.Fatal("wrong subscriber called") })

	n := e.Emit("basket:change", 42)

	assert.Equal(t, 1, n)
	assert.Equal(t, []any{42}, got)
}

func TestEmitter_RegistrationOrder(t *testing.T) {
	e := New()
	var order []string
	e.On("x", func(any) { order = append(order, "first") })
	e.OnAll(func(Event) { order = append(order, "all") })
	e.OnPattern(regexp.MustCompile(`^x$`), func(any) { order = append(order, "pattern") })
	e.On("x", func(any) { order = append(order, "last") })

	e.Emit("x", nil)

	assert.Equal(t, []string{"first", "all", "pattern", "last"}, order)
}

func TestEmitter_PatternSubscription(t *testing.T) {
	e := New()
	var names []string
	e.OnPattern(regexp.MustCompile(`^basket:`), func(p any) { names = append(names, p.(string)) })

	e.Emit("basket:open", "basket:open")
	e.Emit("basket:item:remove", "basket:item:remove")
	e.Emit("modal:open", "modal:open")

	assert.Equal(t, []string{"basket:open", "basket:item:remove"}, names)
}

func TestEmitter_Off(t *testing.T) {
	e := New()
	calls := 0
	sub := e.On("a", func(any) { calls++ })
	e.On("a", func(any) { calls += 10 })

	e.Off(sub)
	e.Off(sub) // повторный вызов безопасен
	e.Emit("a", nil)

	assert.Equal(t, 10, calls)
	assert.Equal(t, 1, e.Len())
}

func TestEmitter_OnAllReceivesNames(t *testing.T) {
	e := New()
	var events []Event
	e.OnAll(func(ev Event) { events = append(events, ev) })

	e.Emit("modal:open", "p1")
	e.Emit("modal:close", nil)

	require.Len(t, events, 2)
	assert.Equal(t, Event{Name: "modal:open", Payload: "p1"}, events[0])
	assert.Equal(t, "modal:close", events[1].Name)
}

func TestEmitter_OffAll(t *testing.T) {
	e := New()
	e.On("a", func(any) { t.Fatal("should be removed") })
	e.OnAll(func(Event) { t.Fatal("should be removed") })

	e.OffAll()

	assert.Zero(t, e.Emit("a", nil))
	assert.Zero(t, e.Len())
}

func TestEmitter_Trigger(t *testing.T) {
	e := New()
	var got any
	e.On("card:click", func(p any) { got = p })

	t.Run("merges map payload with context", func(t *testing.T) {
		e.Trigger("card:click", map[string]any{"source": "catalog"})(map[string]any{"id": "p1", "source": "x"})
		assert.Equal(t, map[string]any{"id": "p1", "source": "catalog"}, got)
	})

	t.Run("wraps scalar payload", func(t *testing.T) {
		e.Trigger("card:click", map[string]any{"source": "catalog"})("p2")
		assert.Equal(t, map[string]any{"data": "p2", "source": "catalog"}, got)
	})

	t.Run("passes payload through without context", func(t *testing.T) {
		e.Trigger("card:click", nil)("p3")
		assert.Equal(t, "p3", got)
	})
}

func TestEmitter_CallbackMaySubscribeDuringEmit(t *testing.T) {
	e := New()
	e.On("a", func(any) {
		e.On("a", func(any) {})
	})

	assert.NotPanics(t, func() { e.Emit("a", nil) })
	assert.Equal(t, 2, e.Len())
}

func TestEmitter_ConcurrentUse(t *testing.T) {
	e := New()
	var mu sync.Mutex
	total := 0
	e.On("tick", func(any) {
		mu.Lock()
		total++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := e.On("other", func(any) {})
			e.Emit("tick", nil)
			e.Off(sub)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, total)
	assert.Equal(t, 1, e.Len())
}
