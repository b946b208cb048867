package scorm

import (
	"log"
	"math"
	"strconv"
	"sync"
	"time"
)

// SessionState is the RTE session lifecycle. Once terminated a session is
// dead: content must be relaunched through a fresh session to run again.
type SessionState int

const (
	StateNotInitialized SessionState = iota
	StateRunning
	StateTerminated
)

// DefaultCommitDelay is how long after the last write the debounced commit
// fires. Shortening it trades commit traffic for a smaller data-loss window
// when a frame disappears without terminating.
const DefaultCommitDelay = 5 * time.Second

// CommitFunc persists a snapshot of the element table. Failures are logged
// by the session and never surfaced to content.
type CommitFunc func(elements map[string]string) error

// SessionConfig configures one runtime session for one content frame
type SessionConfig struct {
	Version     Version
	LearnerID   string
	LearnerName string
	// InitialData is the raw element table from a previous attempt commit;
	// a non-empty suspend_data in it makes the session resume
	InitialData map[string]string
	CommitDelay time.Duration
	Commit      CommitFunc
	// OnProgress fires on lesson/completion status writes with a 0-100 value
	OnProgress func(progress int, status string)
	// OnComplete fires at Terminate when the attempt ended completed or passed
	OnComplete func(status string, score *float64)
}

// Session emulates a compliant RTE host for exactly one dialect. Content
// calls the function table synchronously; every method returns immediately
// and network persistence happens on the debounce timer or on explicit
// Commit/Terminate.
type Session struct {
	mu       sync.Mutex
	cfg      SessionConfig
	state    SessionState
	lastErr  string
	elements map[string]string
	timer    *time.Timer
	lastCall time.Time
}

// NewSession builds a session in the NotInitialized state
func NewSession(cfg SessionConfig) *Session {
	if cfg.CommitDelay <= 0 {
		cfg.CommitDelay = DefaultCommitDelay
	}
	elements := make(map[string]string, len(cfg.InitialData))
	for k, v := range cfg.InitialData {
		elements[k] = v
	}
	return &Session{
		cfg:      cfg,
		state:    StateNotInitialized,
		lastErr:  ErrNone,
		elements: elements,
		lastCall: time.Now(),
	}
}

// Initialize transitions NotInitialized -> Running and seeds the read-only
// identity elements. A second call in any state fails with 103.
func (s *Session) Initialize(_ string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCall = time.Now()

	if s.state != StateNotInitialized {
		s.lastErr = ErrAlreadyInitialized
		return "false"
	}
	s.state = StateRunning
	s.lastErr = ErrNone

	keys := keysFor(s.cfg.Version)
	s.elements[keys.learnerID] = s.cfg.LearnerID
	s.elements[keys.learnerName] = s.cfg.LearnerName
	if s.elements[keys.lessonStatus] == "" {
		s.elements[keys.lessonStatus] = "not attempted"
	}
	// entry is derived, never settable by content: only a prior suspend
	// blob makes this a resumed attempt
	if s.elements["cmi.suspend_data"] != "" {
		s.elements[keys.entry] = "resume"
	} else {
		s.elements[keys.entry] = "ab-initio"
	}
	return "true"
}

// Terminate flushes the element table, fires the completion callback when
// the attempt ended completed or passed, and kills the session for good.
func (s *Session) Terminate(_ string) string {
	s.mu.Lock()
	s.lastCall = time.Now()

	switch s.state {
	case StateNotInitialized:
		s.lastErr = ErrTerminateBeforeInit
		s.mu.Unlock()
		return "false"
	case StateTerminated:
		s.lastErr = ErrTerminateAfterTerm
		s.mu.Unlock()
		return "false"
	}

	s.stopTimerLocked()
	s.state = StateTerminated
	s.lastErr = ErrNone

	keys := keysFor(s.cfg.Version)
	status := s.elements[keys.lessonStatus]
	score := parseFloat(s.elements[keys.scoreRaw])
	snapshot := s.snapshotLocked()
	onComplete := s.cfg.OnComplete
	s.mu.Unlock()

	s.commit(snapshot)

	if (status == "completed" || status == "passed") && onComplete != nil {
		if score != nil && (*score < 0 || *score > 100) {
			score = nil
		}
		onComplete(status, score)
	}
	return "true"
}

// GetValue answers from the element table, then from synthesized defaults
// for the well-known elements, then with an empty string and no error.
func (s *Session) GetValue(element string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCall = time.Now()

	switch s.state {
	case StateNotInitialized:
		s.lastErr = ErrGetBeforeInit
		return ""
	case StateTerminated:
		s.lastErr = ErrGetAfterTerm
		return ""
	}
	s.lastErr = ErrNone

	// Collection counts always reflect what the content actually declared;
	// a stored _count value never shadows the scan
	if prefix, ok := countPrefix(element); ok {
		return strconv.Itoa(collectionCount(prefix, s.elements))
	}
	if v, ok := s.elements[element]; ok {
		return v
	}
	if v, ok := defaultValue(element); ok {
		return v
	}
	return ""
}

// SetValue stores the value and schedules the debounced commit. Read-only
// elements are rejected with 404 and nothing is mutated.
func (s *Session) SetValue(element, value string) string {
	s.mu.Lock()
	s.lastCall = time.Now()

	switch s.state {
	case StateNotInitialized:
		s.lastErr = ErrSetBeforeInit
		s.mu.Unlock()
		return "false"
	case StateTerminated:
		s.lastErr = ErrSetAfterTerm
		s.mu.Unlock()
		return "false"
	}

	if IsReadOnly(element) {
		s.lastErr = ErrReadOnly
		s.mu.Unlock()
		return "false"
	}

	s.elements[element] = value
	s.lastErr = ErrNone
	s.scheduleCommitLocked()

	var onProgress func(int, string)
	progress := 0
	if isStatusElement(element) && s.cfg.OnProgress != nil {
		onProgress = s.cfg.OnProgress
		progress = s.progressForLocked(value)
	}
	s.mu.Unlock()

	if onProgress != nil {
		onProgress(progress, value)
	}
	return "true"
}

// Commit forces an immediate flush. Transport failures are a host concern:
// they get logged and content still sees "true".
func (s *Session) Commit(_ string) string {
	s.mu.Lock()
	s.lastCall = time.Now()

	switch s.state {
	case StateNotInitialized:
		s.lastErr = ErrCommitBeforeInit
		s.mu.Unlock()
		return "false"
	case StateTerminated:
		s.lastErr = ErrCommitAfterTerm
		s.mu.Unlock()
		return "false"
	}

	s.stopTimerLocked()
	s.lastErr = ErrNone
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.commit(snapshot)
	return "true"
}

// GetLastError is answerable in every state
func (s *Session) GetLastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// GetErrorString resolves an error code, in every state
func (s *Session) GetErrorString(code string) string {
	return ErrorString(code)
}

// GetDiagnostic resolves an error code, in every state
func (s *Session) GetDiagnostic(code string) string {
	return ErrorString(code)
}

// SCORM 1.2 aliases. The older dialect names the same eight semantics
// differently; these forward untouched.

func (s *Session) LMSInitialize(param string) string        { return s.Initialize(param) }
func (s *Session) LMSFinish(param string) string            { return s.Terminate(param) }
func (s *Session) LMSGetValue(element string) string        { return s.GetValue(element) }
func (s *Session) LMSSetValue(element, value string) string { return s.SetValue(element, value) }
func (s *Session) LMSCommit(param string) string            { return s.Commit(param) }
func (s *Session) LMSGetLastError() string                  { return s.GetLastError() }
func (s *Session) LMSGetErrorString(code string) string     { return s.GetErrorString(code) }
func (s *Session) LMSGetDiagnostic(code string) string      { return s.GetDiagnostic(code) }

// State returns the current lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastCallAt is when content last invoked any method; the reaper uses it to
// find abandoned frames
func (s *Session) LastCallAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastCall
}

// Elements returns a copy of the raw element table
func (s *Session) Elements() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Close cancels any pending debounce timer. Call when the hosting view goes
// away so a dead session cannot fire a late commit.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

// Flush commits the current element table immediately if the session is
// running. Used by the reaper before tearing a session down.
func (s *Session) Flush() {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.commit(snapshot)
}

// progressForLocked maps a status write to the 0-100 progress reported to
// the host UI. Incomplete content with a progress measure gets it scaled up.
func (s *Session) progressForLocked(status string) int {
	switch status {
	case "completed", "passed":
		return 100
	case "incomplete":
		if pm := parseFloat(s.elements["cmi.progress_measure"]); pm != nil {
			return int(math.Round(*pm * 100))
		}
		return 50
	default:
		return 0
	}
}

// scheduleCommitLocked resets the single debounce timer: at most one commit
// is ever pending per session.
func (s *Session) scheduleCommitLocked() {
	if s.cfg.Commit == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.cfg.CommitDelay, func() {
		s.mu.Lock()
		if s.state != StateRunning {
			s.mu.Unlock()
			return
		}
		snapshot := s.snapshotLocked()
		s.mu.Unlock()
		s.commit(snapshot)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) snapshotLocked() map[string]string {
	snapshot := make(map[string]string, len(s.elements))
	for k, v := range s.elements {
		snapshot[k] = v
	}
	return snapshot
}

func (s *Session) commit(snapshot map[string]string) {
	if s.cfg.Commit == nil {
		return
	}
	if err := s.cfg.Commit(snapshot); err != nil {
		log.Printf("[SCORM] commit failed: %v", err)
	}
}
