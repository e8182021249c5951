// Package tradelog records categorized trading events (entries, exits,
// filters, signals) independently of operational logging. Recording is
// fire-and-forget: a failing sink must never affect engine control flow.
package tradelog

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/meridian-lab/meridian-trading/internal/logger"
)

// Category classifies a trade log entry.
type Category string

const (
	CategorySystem      Category = "system"
	CategorySignal      Category = "signal"
	CategoryEntry       Category = "entry"
	CategoryExit        Category = "exit"
	CategoryFilter      Category = "filter"
	CategoryTrade       Category = "trade"
	CategoryPerformance Category = "performance"
	CategoryAnalysis    Category = "analysis"
)

// Level is the severity of a trade log entry.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Entry is a single categorized trading event.
type Entry struct {
	// Timestamp is when the event was recorded.
	Timestamp time.Time
	// Category classifies the event.
	Category Category
	// Level is the severity of the event.
	Level Level
	// Symbol is the instrument the event relates to, if any.
	Symbol string
	// Message is the event text.
	Message string
	// Fields contains optional structured key-value data.
	Fields map[string]string
}

// TradeLog is the interface for recording trade events.
type TradeLog interface {
	// Record stores a trade log entry. Implementations must not return
	// errors to callers; sink failures are swallowed.
	Record(entry Entry)
	// Entries retrieves the stored entries, oldest first.
	Entries() []Entry
}

// maxEntries bounds the in-memory store; older entries are evicted.
// Deeper history lives in the external log sink only.
const maxEntries = 1000

// MemoryTradeLog keeps recent entries in memory and mirrors them to the
// operational logger.
type MemoryTradeLog struct {
	mu      sync.Mutex
	entries []Entry
	log     *logger.Logger
}

// NewMemoryTradeLog creates a MemoryTradeLog mirroring to the given logger.
func NewMemoryTradeLog(log *logger.Logger) *MemoryTradeLog {
	return &MemoryTradeLog{
		entries: make([]Entry, 0, 64),
		log:     log,
	}
}

// Record implements TradeLog.
func (m *MemoryTradeLog) Record(entry Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	m.mu.Lock()
	m.entries = append(m.entries, entry)
	if len(m.entries) > maxEntries {
		m.entries = m.entries[len(m.entries)-maxEntries:]
	}
	m.mu.Unlock()

	if m.log == nil {
		return
	}

	fields := []zap.Field{
		zap.String("category", string(entry.Category)),
		zap.String("symbol", entry.Symbol),
	}
	for k, v := range entry.Fields {
		fields = append(fields, zap.String(k, v))
	}

	switch entry.Level {
	case LevelError:
		m.log.Error(entry.Message, fields...)
	case LevelWarning:
		m.log.Warn(entry.Message, fields...)
	default:
		m.log.Info(entry.Message, fields...)
	}
}

// Entries implements TradeLog.
func (m *MemoryTradeLog) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)

	return out
}

// Verify MemoryTradeLog implements the TradeLog interface.
var _ TradeLog = (*MemoryTradeLog)(nil)
