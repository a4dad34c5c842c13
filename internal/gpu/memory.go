//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
)

// ErrMemoryBudgetExceeded is returned when a frame's buffers would exceed
// the engine's memory budget.
var ErrMemoryBudgetExceeded = errors.New("gpu: memory budget exceeded")

// Memory budget limits.
const (
	// DefaultMaxMemoryMB is the default budget for frame buffers (512 MB).
	DefaultMaxMemoryMB = 512

	// MinMemoryMB is the smallest accepted budget (16 MB).
	MinMemoryMB = 16
)

// MemoryStats describes frame buffer usage against the budget.
type MemoryStats struct {
	TotalBytes     uint64
	UsedBytes      uint64
	AvailableBytes uint64

	// Frames is the number of live frame backends.
	Frames int

	// Rejected counts allocations refused for lack of budget.
	Rejected uint64

	// Utilization is UsedBytes / TotalBytes.
	Utilization float64
}

func (s MemoryStats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, %d frames, %d rejected]",
		s.Utilization*100,
		s.UsedBytes/(1024*1024),
		s.TotalBytes/(1024*1024),
		s.Frames,
		s.Rejected)
}

// frameFootprint is the device memory a frame backend of size bytes
// allocates: upload, front, back and staging buffers plus the uniform block.
func frameFootprint(size uint64) uint64 {
	return 4*size + uniformSize
}

// memoryBudget accounts device memory held by frame backends. Frames are
// owned by processors, so nothing is evicted; allocations past the budget
// are refused.
type memoryBudget struct {
	mu       sync.Mutex
	total    uint64
	used     uint64
	frames   int
	rejected uint64
}

func newMemoryBudget(megabytes int) *memoryBudget {
	m := &memoryBudget{}
	m.setBudget(megabytes)
	return m
}

// setBudget changes the limit. Values below MinMemoryMB are raised to it.
// Live frames are kept even when they exceed the new limit.
func (m *memoryBudget) setBudget(megabytes int) {
	megabytes = max(megabytes, MinMemoryMB)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = uint64(megabytes) * 1024 * 1024 //nolint:gosec // positive after max
}

func (m *memoryBudget) reserve(n uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n > m.total || m.used > m.total-n {
		m.rejected++
		return fmt.Errorf("%w: need %d bytes, %d of %d in use",
			ErrMemoryBudgetExceeded, n, m.used, m.total)
	}
	m.used += n
	m.frames++
	return nil
}

func (m *memoryBudget) release(n uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used -= min(n, m.used)
	if m.frames > 0 {
		m.frames--
	}
}

func (m *memoryBudget) stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := MemoryStats{
		TotalBytes: m.total,
		UsedBytes:  m.used,
		Frames:     m.frames,
		Rejected:   m.rejected,
	}
	if m.used < m.total {
		s.AvailableBytes = m.total - m.used
	}
	if m.total > 0 {
		s.Utilization = float64(m.used) / float64(m.total)
	}
	return s
}
