package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"task-manager-bot/internal/logger"
)

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("08:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 8 * * *", spec)

	for _, bad := range []string{"8", "24:00", "12:60", "ab:cd"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}

func TestSchedulerRegistersJobs(t *testing.T) {
	s := NewSchedulerService(time.UTC, logger.Nop())
	noop := func(context.Context) error { return nil }

	_, err := s.ScheduleDaily("reminders", "08:00", noop)
	require.NoError(t, err)
	_, err = s.ScheduleInterval("sweep", time.Minute, noop)
	require.NoError(t, err)
	_, err = s.ScheduleInterval("bad", 0, noop)
	require.Error(t, err)

	assert.Equal(t, 2, s.Entries())
}

func TestSchedulerRunsJobs(t *testing.T) {
	s := NewSchedulerService(time.UTC, logger.Nop())
	ran := make(chan struct{}, 1)
	_, err := s.ScheduleInterval("tick", time.Second, func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, err)

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}
