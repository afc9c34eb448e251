package notifier

import (
	"context"
	"testing"
	"time"

	"web-larek/internal/contextkeys"
	"web-larek/internal/core/domain"
	"web-larek/internal/core/port"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(t *testing.T) *SSENotifier {
	t.Helper()
	n := NewSSENotifier(contextkeys.NoopLogger())
	t.Cleanup(n.Close)
	return n
}

func receive(t *testing.T, ch ClientChannel) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return ""
	}
}

func TestSSENotifier_DeliversToAllTabsOfSession(t *testing.T) {
	n := newTestNotifier(t)
	tab1 := n.AddClient("s1")
	tab2 := n.AddClient("s1")
	other := n.AddClient("s2")

	n.Notify(context.Background(), port.SessionEvent{
		SessionID: "s1",
		Name:      domain.EventBasketChange,
		Payload:   domain.BasketChangedPayload{Items: []domain.BasketItem{}, Count: 0, Total: 0},
	})

	want := "event: basket:change\ndata: {\"items\":[],\"count\":0,\"total\":0}\n\n"
	assert.Equal(t, want, receive(t, tab1))
	assert.Equal(t, want, receive(t, tab2))
	select {
	case <-other:
		t.Fatal("event leaked to another session")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSSENotifier_RemoveClient(t *testing.T) {
	n := newTestNotifier(t)
	tab1 := n.AddClient("s1")
	tab2 := n.AddClient("s1")

	n.RemoveClient("s1", tab1)
	assert.Equal(t, 1, n.ClientCount("s1"))

	n.RemoveClient("s1", tab2)
	assert.Zero(t, n.ClientCount("s1"))

	n.RemoveClient("unknown", tab2)
}

func TestSSENotifier_NotifyAfterCloseDoesNotBlock(t *testing.T) {
	n := NewSSENotifier(contextkeys.NoopLogger())
	n.Close()
	n.Close()

	done := make(chan struct{})
	go func() {
		n.Notify(context.Background(), port.SessionEvent{SessionID: "s1", Name: domain.EventModalClose})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked after Close")
	}
}

func TestFormatSSE(t *testing.T) {
	msg, err := FormatSSE("order:success", domain.OrderResult{ID: "o1", Total: 10})
	require.NoError(t, err)
	assert.Equal(t, "event: order:success\ndata: {\"id\":\"o1\",\"total\":10}\n\n", string(msg))

	_, err = FormatSSE("x", make(chan int))
	assert.Error(t, err)
}
