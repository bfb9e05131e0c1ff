// Package scheduler holds registered periodic tasks (interval, callback) so
// "every N ticks" checks live in one deterministic, registration-ordered
// place instead of scattered modular-arithmetic checks across components.
package scheduler

// Task is one periodic callback, run every Interval ticks.
type Task struct {
	Name     string
	Interval uint64
	Fn       func(tick uint64)
}

// Scheduler holds a fixed, registration-order list of periodic tasks.
type Scheduler struct {
	tasks []Task
}

// New creates an empty scheduler.
func New() *Scheduler {
	return &Scheduler{}
}

// Register adds a periodic task. Interval == 0 disables the task (it never
// fires) — the off-by-default form used for optional periodic hooks.
func (s *Scheduler) Register(name string, interval uint64, fn func(tick uint64)) {
	s.tasks = append(s.tasks, Task{Name: name, Interval: interval, Fn: fn})
}

// Due reports whether the given task's interval divides tick, with interval
// 0 always being not-due.
func Due(tick, interval uint64) bool {
	if interval == 0 {
		return false
	}
	return tick%interval == 0
}

// RunDue invokes every registered task whose interval divides tick, in
// registration order, so tasks fire deterministically across runs.
func (s *Scheduler) RunDue(tick uint64) {
	for _, t := range s.tasks {
		if Due(tick, t.Interval) {
			t.Fn(tick)
		}
	}
}
