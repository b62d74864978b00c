package runtime

import (
	"log/slog"

	"github.com/risor-io/risor/object"
)

// mustProxy wraps object.NewProxy, returning an error object on failure.
func mustProxy(v any) object.Object {
	p, err := object.NewProxy(v)
	if err != nil {
		return object.Errorf("proxy error: %v", err)
	}
	return p
}

// stringList converts names to a Risor list. Always non-nil so scripts can
// call len() on it.
func stringList(names []string) *object.List {
	items := make([]object.Object, 0, len(names))
	for _, name := range names {
		items = append(items, object.NewString(name))
	}
	return object.NewList(items)
}

// logObject provides log.Info/Warn/Error methods for Risor scripts, routed
// to slog with the unit's path attached.
type logObject struct {
	logger *slog.Logger
	path   string
}

func (l *logObject) Info(msg string) {
	l.logger.Info(msg, "source", "hook", "path", l.path)
}

func (l *logObject) Warn(msg string) {
	l.logger.Warn(msg, "source", "hook", "path", l.path)
}

func (l *logObject) Error(msg string) {
	l.logger.Error(msg, "source", "hook", "path", l.path)
}
