package scorm

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitRecorder captures committed snapshots so tests can assert on what the
// session flushed and when.
type commitRecorder struct {
	mu        sync.Mutex
	snapshots []map[string]string
	err       error
}

func (r *commitRecorder) commit(elements map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, elements)
	return r.err
}

func (r *commitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *commitRecorder) last() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func newTestSession(version Version, rec *commitRecorder) *Session {
	cfg := SessionConfig{
		Version:     version,
		LearnerID:   "42",
		LearnerName: "Jane Dupont",
		CommitDelay: 20 * time.Millisecond,
	}
	if rec != nil {
		cfg.Commit = rec.commit
	}
	return NewSession(cfg)
}

func TestInitializeSeedsIdentity(t *testing.T) {
	s := newTestSession(Scorm12, nil)

	assert.Equal(t, "true", s.Initialize(""))
	assert.Equal(t, ErrNone, s.GetLastError())
	assert.Equal(t, StateRunning, s.State())

	assert.Equal(t, "42", s.GetValue("cmi.core.student_id"))
	assert.Equal(t, "Jane Dupont", s.GetValue("cmi.core.student_name"))
	assert.Equal(t, "not attempted", s.GetValue("cmi.core.lesson_status"))
	assert.Equal(t, "ab-initio", s.GetValue("cmi.core.entry"))
}

func TestInitializeTwiceFails(t *testing.T) {
	s := newTestSession(Scorm12, nil)

	require.Equal(t, "true", s.Initialize(""))
	assert.Equal(t, "false", s.Initialize(""))
	assert.Equal(t, ErrAlreadyInitialized, s.GetLastError())
	// The session stays usable after the failed call
	assert.Equal(t, StateRunning, s.State())
	assert.Equal(t, "true", s.SetValue("cmi.core.lesson_location", "page-3"))
}

func TestResumeEntryFromSuspendData(t *testing.T) {
	s := NewSession(SessionConfig{
		Version:     Scorm2004,
		LearnerID:   "7",
		InitialData: map[string]string{"cmi.suspend_data": "bookmark=page-9"},
	})
	require.Equal(t, "true", s.Initialize(""))
	assert.Equal(t, "resume", s.GetValue("cmi.entry"))
	assert.Equal(t, "bookmark=page-9", s.GetValue("cmi.suspend_data"))
}

func TestGetValueBeforeInitialize(t *testing.T) {
	s := newTestSession(Scorm12, nil)
	assert.Equal(t, "", s.GetValue("cmi.core.lesson_status"))
	assert.Equal(t, ErrGetBeforeInit, s.GetLastError())
}

func TestSetValueBeforeInitialize(t *testing.T) {
	s := newTestSession(Scorm12, nil)
	assert.Equal(t, "false", s.SetValue("cmi.core.lesson_status", "completed"))
	assert.Equal(t, ErrSetBeforeInit, s.GetLastError())
}

func TestSetValueReadOnlyRejected(t *testing.T) {
	s := newTestSession(Scorm12, nil)
	require.Equal(t, "true", s.Initialize(""))

	assert.Equal(t, "false", s.SetValue("cmi.core.student_id", "evil"))
	assert.Equal(t, ErrReadOnly, s.GetLastError())
	// The stored value is untouched
	assert.Equal(t, "42", s.GetValue("cmi.core.student_id"))
	assert.Equal(t, ErrNone, s.GetLastError())
}

func TestGetValueClearsLastError(t *testing.T) {
	s := newTestSession(Scorm12, nil)
	require.Equal(t, "true", s.Initialize(""))
	require.Equal(t, "false", s.SetValue("cmi.core.entry", "resume"))
	require.Equal(t, ErrReadOnly, s.GetLastError())

	s.GetValue("cmi.core.lesson_status")
	assert.Equal(t, ErrNone, s.GetLastError())
}

func TestGetValueDefaults(t *testing.T) {
	s := newTestSession(Scorm12, nil)
	require.Equal(t, "true", s.Initialize(""))

	assert.Equal(t, "credit", s.GetValue("cmi.core.credit"))
	assert.Equal(t, "normal", s.GetValue("cmi.core.lesson_mode"))
	assert.Equal(t, "raw,min,max", s.GetValue("cmi.core.score._children"))
	// Unknown elements read as empty with no error
	assert.Equal(t, "", s.GetValue("cmi.core.score.raw"))
	assert.Equal(t, ErrNone, s.GetLastError())
	assert.Equal(t, "", s.GetValue("cmi.launch_data"))
	assert.Equal(t, ErrNone, s.GetLastError())
}

func TestInteractionCountScan(t *testing.T) {
	s := newTestSession(Scorm2004, nil)
	require.Equal(t, "true", s.Initialize(""))

	assert.Equal(t, "0", s.GetValue("cmi.interactions._count"))

	s.SetValue("cmi.interactions.0.id", "q1")
	s.SetValue("cmi.interactions.0.result", "correct")
	s.SetValue("cmi.interactions.1.id", "q2")
	// Index 3 is stray: the scan ends at the first missing id (index 2)
	s.SetValue("cmi.interactions.3.id", "q4")

	assert.Equal(t, "2", s.GetValue("cmi.interactions._count"))
	assert.Equal(t, "0", s.GetValue("cmi.objectives._count"))
}

func TestCountWriteNeverShadowsScan(t *testing.T) {
	s := newTestSession(Scorm2004, nil)
	require.Equal(t, "true", s.Initialize(""))

	// A content-written _count is tolerated but the scan stays authoritative
	s.SetValue("cmi.interactions._count", "5")
	assert.Equal(t, "0", s.GetValue("cmi.interactions._count"))

	s.SetValue("cmi.interactions.0.id", "q1")
	assert.Equal(t, "1", s.GetValue("cmi.interactions._count"))
}

func TestCommitDebounce(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(Scorm12, rec)
	require.Equal(t, "true", s.Initialize(""))

	s.SetValue("cmi.core.lesson_location", "page-1")
	s.SetValue("cmi.core.lesson_location", "page-2")
	s.SetValue("cmi.core.lesson_location", "page-3")

	// Nothing flushes before the delay elapses
	assert.Equal(t, 0, rec.count())

	assert.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "page-3", rec.last()["cmi.core.lesson_location"])

	// A single burst produces exactly one commit
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestExplicitCommitFlushesImmediately(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(Scorm12, rec)
	require.Equal(t, "true", s.Initialize(""))

	s.SetValue("cmi.core.lesson_status", "incomplete")
	assert.Equal(t, "true", s.Commit(""))
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "incomplete", rec.last()["cmi.core.lesson_status"])

	// The pending debounce was cancelled by the explicit flush
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestCommitFailureNotSurfacedToContent(t *testing.T) {
	rec := &commitRecorder{err: errors.New("backend down")}
	s := newTestSession(Scorm12, rec)
	require.Equal(t, "true", s.Initialize(""))

	s.SetValue("cmi.core.lesson_status", "completed")
	assert.Equal(t, "true", s.Commit(""))
	assert.Equal(t, ErrNone, s.GetLastError())
}

func TestCommitOutsideRunning(t *testing.T) {
	s := newTestSession(Scorm12, nil)
	assert.Equal(t, "false", s.Commit(""))
	assert.Equal(t, ErrCommitBeforeInit, s.GetLastError())

	require.Equal(t, "true", s.Initialize(""))
	require.Equal(t, "true", s.Terminate(""))
	assert.Equal(t, "false", s.Commit(""))
	assert.Equal(t, ErrCommitAfterTerm, s.GetLastError())
}

func TestTerminateFlushesAndKillsSession(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(Scorm12, rec)
	require.Equal(t, "true", s.Initialize(""))
	s.SetValue("cmi.core.lesson_status", "completed")

	assert.Equal(t, "true", s.Terminate(""))
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, StateTerminated, s.State())

	// Terminated is terminal: every subsequent call fails
	assert.Equal(t, "false", s.Terminate(""))
	assert.Equal(t, ErrTerminateAfterTerm, s.GetLastError())
	assert.Equal(t, "", s.GetValue("cmi.core.lesson_status"))
	assert.Equal(t, ErrGetAfterTerm, s.GetLastError())
	assert.Equal(t, "false", s.SetValue("cmi.core.exit", "suspend"))
	assert.Equal(t, ErrSetAfterTerm, s.GetLastError())
	assert.Equal(t, "false", s.Initialize(""))
	assert.Equal(t, ErrAlreadyInitialized, s.GetLastError())

	// No late debounce fires after termination
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestTerminateBeforeInitialize(t *testing.T) {
	s := newTestSession(Scorm12, nil)
	assert.Equal(t, "false", s.Terminate(""))
	assert.Equal(t, ErrTerminateBeforeInit, s.GetLastError())
}

func TestOnCompleteCallback(t *testing.T) {
	var gotStatus string
	var gotScore *float64
	s := NewSession(SessionConfig{
		Version:   Scorm12,
		LearnerID: "42",
		OnComplete: func(status string, score *float64) {
			gotStatus = status
			gotScore = score
		},
	})
	require.Equal(t, "true", s.Initialize(""))
	s.SetValue("cmi.core.lesson_status", "passed")
	s.SetValue("cmi.core.score.raw", "88")
	require.Equal(t, "true", s.Terminate(""))

	assert.Equal(t, "passed", gotStatus)
	require.NotNil(t, gotScore)
	assert.Equal(t, 88.0, *gotScore)
}

func TestOnCompleteDropsOutOfRangeScore(t *testing.T) {
	var gotScore *float64
	called := false
	s := NewSession(SessionConfig{
		Version:   Scorm12,
		LearnerID: "42",
		OnComplete: func(_ string, score *float64) {
			called = true
			gotScore = score
		},
	})
	require.Equal(t, "true", s.Initialize(""))
	s.SetValue("cmi.core.lesson_status", "completed")
	s.SetValue("cmi.core.score.raw", "250")
	require.Equal(t, "true", s.Terminate(""))

	assert.True(t, called)
	assert.Nil(t, gotScore)
}

func TestOnCompleteSkippedForIncomplete(t *testing.T) {
	called := false
	s := NewSession(SessionConfig{
		Version:    Scorm12,
		LearnerID:  "42",
		OnComplete: func(string, *float64) { called = true },
	})
	require.Equal(t, "true", s.Initialize(""))
	s.SetValue("cmi.core.lesson_status", "incomplete")
	require.Equal(t, "true", s.Terminate(""))
	assert.False(t, called)
}

func TestOnProgressCallback(t *testing.T) {
	type progressEvent struct {
		progress int
		status   string
	}
	var events []progressEvent
	s := NewSession(SessionConfig{
		Version:   Scorm2004,
		LearnerID: "42",
		OnProgress: func(progress int, status string) {
			events = append(events, progressEvent{progress, status})
		},
	})
	require.Equal(t, "true", s.Initialize(""))

	s.SetValue("cmi.completion_status", "incomplete")
	s.SetValue("cmi.progress_measure", "0.75")
	s.SetValue("cmi.completion_status", "incomplete")
	s.SetValue("cmi.completion_status", "completed")
	// Non-status writes never fire the callback
	s.SetValue("cmi.location", "page-12")

	require.Len(t, events, 3)
	assert.Equal(t, progressEvent{50, "incomplete"}, events[0])
	assert.Equal(t, progressEvent{75, "incomplete"}, events[1])
	assert.Equal(t, progressEvent{100, "completed"}, events[2])
}

func TestErrorStringsAnswerableInAnyState(t *testing.T) {
	s := newTestSession(Scorm12, nil)
	assert.Equal(t, "No Error", s.GetErrorString("0"))
	assert.Equal(t, "Data Model Element Is Read Only", s.GetDiagnostic("404"))
	assert.Equal(t, "Unknown Error", s.GetErrorString("999"))

	require.Equal(t, "true", s.Initialize(""))
	require.Equal(t, "true", s.Terminate(""))
	assert.Equal(t, "Termination After Termination", s.GetErrorString("113"))
}

func TestLMSAliases(t *testing.T) {
	s := newTestSession(Scorm12, nil)

	assert.Equal(t, "true", s.LMSInitialize(""))
	assert.Equal(t, "true", s.LMSSetValue("cmi.core.lesson_status", "browsed"))
	assert.Equal(t, "browsed", s.LMSGetValue("cmi.core.lesson_status"))
	assert.Equal(t, "true", s.LMSCommit(""))
	assert.Equal(t, "0", s.LMSGetLastError())
	assert.Equal(t, "No Error", s.LMSGetErrorString("0"))
	assert.Equal(t, "General Exception", s.LMSGetDiagnostic("101"))
	assert.Equal(t, "true", s.LMSFinish(""))
	assert.Equal(t, StateTerminated, s.State())
}

func TestFlushOnlyWhenRunning(t *testing.T) {
	rec := &commitRecorder{}
	s := newTestSession(Scorm12, rec)

	s.Flush()
	assert.Equal(t, 0, rec.count())

	require.Equal(t, "true", s.Initialize(""))
	s.SetValue("cmi.core.lesson_location", "page-5")
	s.Flush()
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, "page-5", rec.last()["cmi.core.lesson_location"])
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry()

	id, s := reg.Install(SessionConfig{Version: Scorm12, LearnerID: "42"})
	require.NotEmpty(t, id)
	require.NotNil(t, s)
	assert.Equal(t, 1, reg.Len())
	assert.Same(t, s, reg.Lookup(id))

	// Installs never collide
	id2, _ := reg.Install(SessionConfig{Version: Scorm12, LearnerID: "43"})
	assert.NotEqual(t, id, id2)

	reg.Uninstall(id)
	assert.Nil(t, reg.Lookup(id))
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryReapIdle(t *testing.T) {
	rec := &commitRecorder{}
	reg := NewRegistry()

	_, stale := reg.Install(SessionConfig{
		Version:   Scorm12,
		LearnerID: "42",
		Commit:    rec.commit,
	})
	require.Equal(t, "true", stale.Initialize(""))
	stale.SetValue("cmi.core.lesson_status", "incomplete")

	// A zero cutoff makes every session count as abandoned
	time.Sleep(5 * time.Millisecond)
	reaped := reg.ReapIdle(0)

	assert.Equal(t, 1, reaped)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, StateTerminated, stale.State())
	// Reaping flushed the pending data through Terminate
	require.GreaterOrEqual(t, rec.count(), 1)
	assert.Equal(t, "incomplete", rec.last()["cmi.core.lesson_status"])
}
