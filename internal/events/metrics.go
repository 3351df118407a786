package events

import (
	"sync"
)

// basicEventMetrics collects in-memory counters for the event bus
type basicEventMetrics struct {
	mu             sync.RWMutex
	totalEvents    int64
	eventsByType   map[string]int64
	eventsBySource map[string]int64
	subscriptions  int
}

// NewBasicEventMetrics creates an in-memory metrics collector
func NewBasicEventMetrics() EventMetrics {
	return &basicEventMetrics{
		eventsByType:   make(map[string]int64),
		eventsBySource: make(map[string]int64),
	}
}

func (m *basicEventMetrics) RecordEvent(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalEvents++
	m.eventsByType[string(event.Type)]++
	m.eventsBySource[event.Source]++
}

func (m *basicEventMetrics) RecordSubscription(subscription *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions++
}

func (m *basicEventMetrics) RecordUnsubscription(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscriptions > 0 {
		m.subscriptions--
	}
}

func (m *basicEventMetrics) GetMetrics() EventStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byType := make(map[string]int64, len(m.eventsByType))
	for k, v := range m.eventsByType {
		byType[k] = v
	}
	bySource := make(map[string]int64, len(m.eventsBySource))
	for k, v := range m.eventsBySource {
		bySource[k] = v
	}

	return EventStats{
		TotalEvents:         m.totalEvents,
		EventsByType:        byType,
		EventsBySource:      bySource,
		ActiveSubscriptions: m.subscriptions,
	}
}
