package report

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/core/observability/log"
)

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimSpace(buf.String()), "\n")
}

func TestResultLines(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, log.Nop())
	label := Label{Success: "Ball fell", Failure: "Ball did not fall"}

	s := r.Run("Gravity", func() error {
		assert.True(t, r.Result(label, true))
		assert.False(t, r.Result(label, false))
		r.Info("z was 12")
		return nil
	})

	assert.False(t, s.Passed)
	assert.Equal(t, 1, s.Successes)
	assert.Equal(t, []string{"Ball did not fall"}, s.Failures)
	out := lines(&buf)
	assert.Contains(t, out, "SUCCESS: Ball fell")
	assert.Contains(t, out, "FAILURE: Ball did not fall")
	assert.Contains(t, out, "INFO: z was 12")
	assert.Equal(t, "INFO: Test started: Gravity", out[0])
	assert.Contains(t, out[len(out)-1], "finished: failed")
}

func TestCriticalResultAbortsOnlyTheTest(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, log.Nop())
	reached := false

	s := r.Run("Setup", func() error {
		r.CriticalResult(Label{"level loaded", "level failed to load"}, true)
		r.CriticalResult(Label{"entity found", "entity not found"}, false, "looked for Ball")
		reached = true
		return nil
	})
	assert.False(t, reached)
	assert.False(t, s.Passed)
	assert.Equal(t, []string{"entity not found"}, s.Failures)
	assert.Contains(t, buf.String(), "INFO: looked for Ball\n")

	s = r.Run("Next", func() error {
		r.Success("runs after an aborted test")
		return nil
	})
	assert.True(t, s.Passed)
	assert.Equal(t, 1, s.Successes)
}

func TestRunCatchesPanicsAndErrors(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, log.Nop())

	s := r.Run("Panics", func() error { panic("index out of range") })
	assert.False(t, s.Passed)
	require.Len(t, s.Failures, 1)
	assert.Contains(t, s.Failures[0], "index out of range")

	s = r.Run("Errors", func() error { return errors.New("bus not found") })
	assert.False(t, s.Passed)
	assert.Contains(t, s.Failures[0], "bus not found")

	s = r.Run("Aborts", func() error {
		r.Abort("gave up")
		return nil
	})
	assert.Equal(t, []string{"gave up"}, s.Failures)
}

func TestFailureTokenIsScrubbed(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, log.Nop())
	r.Run("Scrub", func() error {
		r.Info("FAILURE is only for failure lines")
		r.Success("no FAILURE here")
		r.Failure("inner FAILURE token")
		return nil
	})
	for _, l := range lines(&buf) {
		if strings.HasPrefix(l, FailurePrefix) {
			assert.Equal(t, 1, strings.Count(l, "FAILURE"), l)
			continue
		}
		assert.NotContains(t, l, "FAILURE")
	}
}

func TestInfoVector3(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf, log.Nop())
	r.InfoVector3(models.Vec3(3, 4, 0), "velocity", true)
	r.InfoVector3(models.Vec3(1, 2, 3), "position", false)
	out := lines(&buf)
	assert.Equal(t, "INFO: velocity "+models.FormatVector3(models.Vec3(3, 4, 0))+" magnitude: 5", out[0])
	assert.NotContains(t, out[1], "magnitude")
}

func TestSyncWriterSharedAcrossReporters(t *testing.T) {
	var buf bytes.Buffer
	w := SyncWriter(&buf)
	assert.Same(t, w, SyncWriter(w))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := New(w, log.Nop())
			for j := 0; j < 50; j++ {
				r.Success("parallel")
			}
		}()
	}
	wg.Wait()
	out := lines(&buf)
	assert.Len(t, out, 400)
	for _, l := range out {
		assert.Equal(t, "SUCCESS: parallel", l)
	}
}
