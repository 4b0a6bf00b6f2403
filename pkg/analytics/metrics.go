// pkg/analytics/metrics.go
package analytics

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/David-Botos/datawizard/pkg/report"
)

// Session actions
const (
	ActionSessionStarted = "Session Started"
	ActionFileUploaded   = "File Uploaded"
	ActionFileProcessed  = "File Processed"
	ActionSearch         = "Catalog Search"
	ActionDetailOpened   = "Project Opened"
)

// Action is one entry in a session's trail
type Action struct {
	Name      string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

// SessionMetrics tracks the activity of a single session
type SessionMetrics struct {
	SessionID string    `json:"session_id"`
	StartTime time.Time `json:"start_time"`
	Actions   []Action  `json:"actions"`
}

// collectors are the Prometheus views of the usage counters
type collectors struct {
	files          prometheus.Counter
	rows           prometheus.Counter
	cleaningOps    prometheus.Counter
	sessions       prometheus.Counter
	actions        *prometheus.CounterVec
	errors         *prometheus.CounterVec
	activeSessions prometheus.Gauge
}

func newCollectors(reg prometheus.Registerer) *collectors {
	factory := promauto.With(reg)
	return &collectors{
		files: factory.NewCounter(prometheus.CounterOpts{
			Name: "datawizard_files_processed_total", Help: "Uploaded files cleaned.",
		}),
		rows: factory.NewCounter(prometheus.CounterOpts{
			Name: "datawizard_rows_processed_total", Help: "Rows read from uploaded files.",
		}),
		cleaningOps: factory.NewCounter(prometheus.CounterOpts{
			Name: "datawizard_cleaning_operations_total", Help: "Cleaning log lines produced.",
		}),
		sessions: factory.NewCounter(prometheus.CounterOpts{
			Name: "datawizard_sessions_started_total", Help: "Distinct sessions seen.",
		}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "datawizard_session_actions_total", Help: "Session actions by name.",
		}, []string{"action"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "datawizard_errors_total", Help: "Interaction errors by category.",
		}, []string{"category"}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "datawizard_sessions_tracked", Help: "Sessions currently held in the usage tracker.",
		}),
	}
}

// Metrics tracks process-wide usage of the service
type Metrics struct {
	mu                 sync.Mutex
	logger             *zap.Logger
	StartTime          time.Time
	FilesProcessed     int
	TotalRowsProcessed int64
	TotalCleaningOps   int
	Sessions           map[string]*SessionMetrics
	ErrorCounts        map[report.ErrorCategory]int
	prom               *collectors
}

// NewMetrics creates a usage tracker; reg may be nil to skip Prometheus registration
func NewMetrics(logger *zap.Logger, reg prometheus.Registerer) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Metrics{
		logger:      logger.Named("analytics"),
		StartTime:   time.Now(),
		Sessions:    make(map[string]*SessionMetrics),
		ErrorCounts: make(map[report.ErrorCategory]int),
		prom:        newCollectors(reg),
	}
}

// StartSession registers a session the first time it is seen
func (m *Metrics) StartSession(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startSessionLocked(sessionID)
}

func (m *Metrics) startSessionLocked(sessionID string) *SessionMetrics {
	if sm, ok := m.Sessions[sessionID]; ok {
		return sm
	}

	now := time.Now()
	sm := &SessionMetrics{
		SessionID: sessionID,
		StartTime: now,
		Actions:   []Action{{Name: ActionSessionStarted, Timestamp: now}},
	}
	m.Sessions[sessionID] = sm
	m.prom.sessions.Inc()
	m.prom.activeSessions.Set(float64(len(m.Sessions)))

	m.logger.Info("Started session",
		zap.String("session_id", sessionID),
		zap.Time("startTime", now))
	return sm
}

// TrackAction appends an action to the session trail
func (m *Metrics) TrackAction(sessionID, action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackActionLocked(sessionID, action)
}

func (m *Metrics) trackActionLocked(sessionID, action string) {
	sm := m.startSessionLocked(sessionID)
	sm.Actions = append(sm.Actions, Action{Name: action, Timestamp: time.Now()})
	m.prom.actions.WithLabelValues(action).Inc()
}

// RecordFileProcessed counts a cleaned upload and its rows
func (m *Metrics) RecordFileProcessed(sessionID string, rows int, cleaningOps int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FilesProcessed++
	m.TotalRowsProcessed += int64(rows)
	m.TotalCleaningOps += cleaningOps
	m.prom.files.Inc()
	m.prom.rows.Add(float64(rows))
	m.prom.cleaningOps.Add(float64(cleaningOps))
	m.trackActionLocked(sessionID, ActionFileProcessed)

	m.logger.Info("File processed",
		zap.String("session_id", sessionID),
		zap.Int("rows", rows),
		zap.Int("cleaningOps", cleaningOps))
}

// RecordErrors counts every record collected by an interaction's handler
func (m *Metrics) RecordErrors(records []report.ErrorRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range records {
		m.ErrorCounts[record.Category]++
		m.prom.errors.WithLabelValues(record.Category.String()).Inc()
	}
}

// Forget drops the trail of an expired session; it still counts as a user
func (m *Metrics) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sm, ok := m.Sessions[sessionID]; ok {
		sm.Actions = nil
	}
}

// Trail returns a copy of the session's actions
func (m *Metrics) Trail(sessionID string) []Action {
	m.mu.Lock()
	defer m.mu.Unlock()

	sm, ok := m.Sessions[sessionID]
	if !ok {
		return nil
	}
	actions := make([]Action, len(sm.Actions))
	copy(actions, sm.Actions)
	return actions
}

// Summary is a point-in-time snapshot of the usage counters
type Summary struct {
	FilesProcessed     int            `json:"files_processed"`
	TotalRowsProcessed int64          `json:"total_rows_processed"`
	TotalCleaningOps   int            `json:"total_cleaning_ops"`
	UniqueUsers        int            `json:"unique_users"`
	Uptime             string         `json:"uptime"`
	Errors             map[string]int `json:"errors,omitempty"`
}

// Summary snapshots the counters
func (m *Metrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	errs := make(map[string]int, len(m.ErrorCounts))
	for category, count := range m.ErrorCounts {
		errs[category.String()] = count
	}

	return Summary{
		FilesProcessed:     m.FilesProcessed,
		TotalRowsProcessed: m.TotalRowsProcessed,
		TotalCleaningOps:   m.TotalCleaningOps,
		UniqueUsers:        len(m.Sessions),
		Uptime:             formatDuration(time.Since(m.StartTime)),
		Errors:             errs,
	}
}

// GenerateReport creates a plain text usage report
func (m *Metrics) GenerateReport() string {
	s := m.Summary()

	report := fmt.Sprintf(`
Usage Report
============
Uptime:                  %s
Unique Users:            %d
Files Processed:         %d
Total Rows Cleaned:      %d
Total Cleaning Ops:      %d
`,
		s.Uptime,
		s.UniqueUsers,
		s.FilesProcessed,
		s.TotalRowsProcessed,
		s.TotalCleaningOps,
	)

	if len(s.Errors) > 0 {
		report += "\nError Distribution\n-----------------\n"
		categories := make([]string, 0, len(s.Errors))
		for category := range s.Errors {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		for _, category := range categories {
			report += fmt.Sprintf("- %s: %d\n", category, s.Errors[category])
		}
	}

	return report
}

// formatDuration formats a duration to a human-readable string
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
