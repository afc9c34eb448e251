// Package events is a small in-process publish/subscribe broker.
//
// Subscribers are invoked synchronously, in registration order, outside the
// emitter's lock, so a callback may subscribe, unsubscribe or emit again.
package events

import (
	"regexp"
	"sync"
)

// Subscriber receives the payload of an emitted event.
type Subscriber func(payload any)

// Event is what wildcard subscribers receive.
type Event struct {
	Name    string
	Payload any
}

// Subscription identifies one registration; Go funcs are not comparable,
// so Off works on the handle returned by On/OnPattern/OnAll.
type Subscription struct {
	id uint64
}

type subscription struct {
	id      uint64
	name    string
	pattern *regexp.Regexp
	all     bool
	cb      Subscriber
	allCb   func(Event)
}

func (s subscription) matches(name string) bool {
	switch {
	case s.all:
		return true
	case s.pattern != nil:
		return s.pattern.MatchString(name)
	default:
		return s.name == name
	}
}

// Emitter is safe for concurrent use.
type Emitter struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) add(s subscription) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	s.id = e.nextID
	e.subs = append(e.subs, s)
	return Subscription{id: s.id}
}

// On subscribes cb to the exact event name.
func (e *Emitter) On(name string, cb Subscriber) Subscription {
	return e.add(subscription{name: name, cb: cb})
}

// OnPattern subscribes cb to every event whose name matches re.
func (e *Emitter) OnPattern(re *regexp.Regexp, cb Subscriber) Subscription {
	return e.add(subscription{pattern: re, cb: cb})
}

// OnAll subscribes cb to every event.
func (e *Emitter) OnAll(cb func(Event)) Subscription {
	return e.add(subscription{all: true, allCb: cb})
}

// Off removes a single registration. Unknown handles are ignored.
func (e *Emitter) Off(sub Subscription) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.subs {
		if s.id == sub.id {
			e.subs = append(e.subs[:i:i], e.subs[i+1:]...)
			return
		}
	}
}

// OffAll drops every registration.
func (e *Emitter) OffAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = nil
}

// Emit delivers payload to the matching subscribers and reports how many were called.
func (e *Emitter) Emit(name string, payload any) int {
	e.mu.RLock()
	snapshot := make([]subscription, len(e.subs))
	copy(snapshot, e.subs)
	e.mu.RUnlock()

	called := 0
	for _, s := range snapshot {
		if !s.matches(name) {
			continue
		}
		called++
		if s.all {
			s.allCb(Event{Name: name, Payload: payload})
			continue
		}
		s.cb(payload)
	}
	return called
}

// Len reports the number of active registrations.
func (e *Emitter) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.subs)
}

// Trigger returns a Subscriber that re-emits under name with context merged in.
// Map payloads are merged key by key (context wins); any other payload is
// placed under the "data" key when context is not empty.
func (e *Emitter) Trigger(name string, context map[string]any) Subscriber {
	return func(payload any) {
		if len(context) == 0 {
			e.Emit(name, payload)
			return
		}
		merged := make(map[string]any, len(context)+1)
		switch p := payload.(type) {
		case map[string]any:
			for k, v := range p {
				merged[k] = v
			}
		case nil:
		default:
			merged["data"] = p
		}
		for k, v := range context {
			merged[k] = v
		}
		e.Emit(name, merged)
	}
}
