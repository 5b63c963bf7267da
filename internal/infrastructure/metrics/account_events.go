package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
)

// AccountEventCounter counts account lifecycle events by type.
type AccountEventCounter struct {
	events *prometheus.CounterVec
}

var _ ports.AccountEventRecorder = (*AccountEventCounter)(nil)

// NewAccountEventCounter creates the counter and registers it with reg.
func NewAccountEventCounter(reg prometheus.Registerer) (*AccountEventCounter, error) {
	events := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "account_events_total",
			Help: "The total number of account lifecycle events by type",
		},
		[]string{"event"},
	)
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &AccountEventCounter{events: events}, nil
}

func (c *AccountEventCounter) Record(event ports.AccountEvent) {
	c.events.WithLabelValues(string(event)).Inc()
}
