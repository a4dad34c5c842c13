package pixfx

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// mockEngine is a configurable Engine for loader tests. Its backends run
// the CPU kernels but report the engine's kind.
type mockEngine struct {
	name    string
	kind    BackendKind
	initErr error
	panics  bool
	gate    chan struct{} // when non-nil, Init blocks until it is closed

	inits  *atomic.Int32
	closed atomic.Bool
	logger atomic.Pointer[slog.Logger]
}

func (m *mockEngine) Name() string      { return m.name }
func (m *mockEngine) Kind() BackendKind { return m.kind }

func (m *mockEngine) Init(ctx context.Context) error {
	if m.inits != nil {
		m.inits.Add(1)
	}
	if m.gate != nil {
		<-m.gate
	}
	if m.panics {
		panic("driver exploded")
	}
	return m.initErr
}

func (m *mockEngine) NewBackend(width, height int) (Backend, error) {
	fb, err := NewFallbackEngine().NewBackend(width, height)
	if err != nil {
		return nil, err
	}
	return kindBackend{Backend: fb, kind: m.kind}, nil
}

func (m *mockEngine) Close() { m.closed.Store(true) }

func (m *mockEngine) SetLogger(l *slog.Logger) { m.logger.Store(l) }

type kindBackend struct {
	Backend
	kind BackendKind
}

func (b kindBackend) Kind() BackendKind { return b.kind }

// nativeFactory returns a factory producing fresh native mocks built
// from proto, counting Init calls in counter.
func nativeFactory(proto *mockEngine, counter *atomic.Int32, last *atomic.Pointer[mockEngine]) EngineFactory {
	return func() Engine {
		m := &mockEngine{
			name:    proto.name,
			kind:    KindNative,
			initErr: proto.initErr,
			panics:  proto.panics,
			gate:    proto.gate,
			inits:   counter,
		}
		if m.name == "" {
			m.name = "mock-native"
		}
		if last != nil {
			last.Store(m)
		}
		return m
	}
}
