package alert

import (
	"time"

	"github.com/chaoslab/control-plane/pkg/log"
	"github.com/chaoslab/control-plane/pkg/types"
	"github.com/sirupsen/logrus"
)

// Event is a severity-tagged alert delivered to the notification channel
type Event struct {
	RunID     string
	Severity  types.Severity
	Message   string
	Actions   []string
	Timestamp time.Time
}

// Notifier receives alert events, fire-and-forget
type Notifier interface {
	Notify(event Event)
}

// LogNotifier writes alerts to the process log. It stands in for a real
// paging or chat integration.
type LogNotifier struct{}

func (LogNotifier) Notify(event Event) {
	log.ErrorWithValues("[Alert]: "+event.Message, logrus.Fields{
		"Run ID":   event.RunID,
		"Severity": event.Severity,
		"Actions":  event.Actions,
	})
}
