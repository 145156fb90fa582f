package roll

import "go.uber.org/zap"

// LoggedSource wraps a Source and logs every draw at debug level, keeping a
// full roll audit trail for replay analysis.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource creates a LoggedSource drawing from src and logging to
// logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Roll draws from the wrapped source and logs the value.
//
// Postcondition: Returns exactly the wrapped source's draw.
func (l *LoggedSource) Roll() int {
	v := l.src.Roll()
	l.logger.Debug("combat roll", zap.Int("roll", v))
	return v
}
