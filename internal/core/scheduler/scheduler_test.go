package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_RejectsBadSpec(t *testing.T) {
	s := New(nil)
	err := s.Add(Job{Name: "bad", Spec: "every day", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestJobRunsAndSurvivesPanic(t *testing.T) {
	s := New(nil)
	var runs atomic.Int32
	require.NoError(t, s.Add(Job{Name: "tick", Spec: "* * * * * *", Run: func(context.Context) error {
		if runs.Add(1) == 1 {
			panic("boom")
		}
		return nil
	}}))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 100*time.Millisecond)
}
