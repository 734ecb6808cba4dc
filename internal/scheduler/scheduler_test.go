package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type countingTask struct {
	name     string
	interval time.Duration
	runs     atomic.Int32
	err      error
}

func (c *countingTask) Run(ctx context.Context) error {
	c.runs.Add(1)
	return c.err
}

func (c *countingTask) Interval() time.Duration { return c.interval }
func (c *countingTask) Name() string            { return c.name }

func TestScheduler_RunsOnStartAndOnInterval(t *testing.T) {
	task := &countingTask{name: "fast", interval: 10 * time.Millisecond}
	failing := &countingTask{name: "failing", interval: 10 * time.Millisecond, err: errors.New("boom")}

	s := New(context.Background())
	s.AddTask(task)
	s.AddTask(failing)
	s.Start()

	assert.Eventually(t, func() bool { return task.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return failing.runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	stopped := task.runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, stopped, task.runs.Load())
}

func TestScheduler_SkipsTasksWithoutInterval(t *testing.T) {
	task := &countingTask{name: "never"}

	s := New(context.Background())
	s.AddTask(task)
	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), task.runs.Load())
}
