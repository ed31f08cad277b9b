package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryRunsJob(t *testing.T) {
	log, _ := test.NewNullLogger()
	s := New(log)

	var runs atomic.Int32
	require.NoError(t, s.Every("sweep", time.Second, func() { runs.Add(1) }))
	assert.Len(t, s.cron.Entries(), 1)

	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return runs.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestEveryRejectsNonPositiveInterval(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Every("bad", 0, func() {}))
	assert.Empty(t, s.cron.Entries())
}

func TestCronValidatesSpec(t *testing.T) {
	s := New(nil)
	assert.Error(t, s.Cron("report", "not a spec", func(context.Context) error { return nil }))
	require.NoError(t, s.Cron("report", "0 21 * * *", func(context.Context) error { return nil }))
	assert.Len(t, s.cron.Entries(), 1)
}

func TestCronLogsJobErrors(t *testing.T) {
	log, hook := test.NewNullLogger()
	s := New(log)

	require.NoError(t, s.Cron("report", "@every 1s", func(context.Context) error { return errors.New("boom") }))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Data["job"] == "report" && e.Message == "❌ scheduled job failed" {
				return true
			}
		}
		return false
	}, 3*time.Second, 50*time.Millisecond)
}
