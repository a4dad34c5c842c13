//go:build !nogpu

package gpu

import (
	"bytes"
	"errors"
	"testing"
	"time"
	"unsafe"

	"github.com/gogpu/wgpu/hal"
)

// stepQueue completes one submission index per poll.
type stepQueue struct{ polls uint64 }

func (q *stepQueue) PollCompleted() uint64 {
	q.polls++
	return q.polls
}

// stuckQueue never completes anything.
type stuckQueue struct{}

func (stuckQueue) PollCompleted() uint64 { return 0 }

func TestWaitSubmission(t *testing.T) {
	q := &stepQueue{}
	if err := waitSubmission(q, 3, time.Second); err != nil {
		t.Fatalf("waitSubmission() = %v", err)
	}
	if q.polls != 3 {
		t.Errorf("polls = %d, want 3", q.polls)
	}

	if err := waitSubmission(stuckQueue{}, 0, 0); err != nil {
		t.Errorf("index 0 is complete before any poll, got %v", err)
	}
}

func TestWaitSubmissionTimeout(t *testing.T) {
	start := time.Now()
	err := waitSubmission(stuckQueue{}, 1, 5*time.Millisecond)
	if !errors.Is(err, ErrGPUTimeout) {
		t.Fatalf("waitSubmission() = %v, want ErrGPUTimeout", err)
	}
	if time.Since(start) > time.Second {
		t.Errorf("timeout took %v", time.Since(start))
	}
}

// memMapper maps a Go slice as if it were host-visible device memory.
type memMapper struct {
	mem      []byte
	mapErr   error
	unmapErr error
	mapped   int
	unmapped int
}

func (m *memMapper) MapBuffer(_ hal.Buffer, offset, size uint64) (hal.BufferMapping, error) {
	if m.mapErr != nil {
		return hal.BufferMapping{}, m.mapErr
	}
	if offset+size > uint64(len(m.mem)) {
		return hal.BufferMapping{}, hal.ErrInvalidMapRange
	}
	m.mapped++
	return hal.BufferMapping{Ptr: unsafe.Pointer(&m.mem[offset]), IsCoherent: true}, nil
}

func (m *memMapper) UnmapBuffer(hal.Buffer) error {
	m.unmapped++
	return m.unmapErr
}

func TestReadMapped(t *testing.T) {
	m := &memMapper{mem: []byte{10, 20, 30, 255, 40, 50, 60, 255}}
	dst := make([]byte, 8)
	if err := readMapped(m, nil, dst); err != nil {
		t.Fatalf("readMapped() = %v", err)
	}
	if !bytes.Equal(dst, m.mem) {
		t.Errorf("dst = %v, want %v", dst, m.mem)
	}
	if m.mapped != 1 || m.unmapped != 1 {
		t.Errorf("map/unmap = %d/%d, want 1/1", m.mapped, m.unmapped)
	}
}

func TestReadMappedErrors(t *testing.T) {
	mapErr := errors.New("device lost")
	unmapErr := errors.New("unmap failed")
	tests := []struct {
		name   string
		mapper *memMapper
		dst    int
		want   error
	}{
		{"map fails", &memMapper{mem: make([]byte, 4), mapErr: mapErr}, 4, mapErr},
		{"range too large", &memMapper{mem: make([]byte, 4)}, 8, hal.ErrInvalidMapRange},
		{"unmap fails", &memMapper{mem: make([]byte, 4), unmapErr: unmapErr}, 4, unmapErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := readMapped(tt.mapper, nil, make([]byte, tt.dst))
			if !errors.Is(err, tt.want) {
				t.Errorf("readMapped() = %v, want %v", err, tt.want)
			}
		})
	}
}
