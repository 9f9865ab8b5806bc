package supervisor

import (
	"context"
	"io"
	"time"

	"github.com/logfinder/gatewayproxy/internal/execution/worker"
	"github.com/stretchr/testify/mock"
)

type mockWorker[I, O any] struct {
	mock.Mock
}

var _ worker.Worker[any, any] = (*mockWorker[any, any])(nil)

func newMockWorker[I, O any](t interface {
	mock.TestingT
	Cleanup(func())
}) *mockWorker[I, O] {
	m := &mockWorker[I, O]{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockWorker[I, O]) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockWorker[I, O]) Terminate() error {
	return m.Called().Error(0)
}

func (m *mockWorker[I, O]) Kill() error {
	return m.Called().Error(0)
}

func (m *mockWorker[I, O]) Send(ctx context.Context, data I, config worker.SendConfig) (O, error) {
	args := m.Called(ctx, data, config)
	res, _ := args.Get(0).(O)
	return res, args.Error(1)
}

func (m *mockWorker[I, O]) DuplexPipe() (io.ReadWriteCloser, error) {
	args := m.Called()
	pipe, _ := args.Get(0).(io.ReadWriteCloser)
	return pipe, args.Error(1)
}

func (m *mockWorker[I, O]) Wait(ctx context.Context) (worker.ExitEvent, error) {
	args := m.Called(ctx)
	return args.Get(0).(worker.ExitEvent), args.Error(1)
}

func (m *mockWorker[I, O]) WaitFor(ctx context.Context, timeout time.Duration) (worker.ExitEvent, error) {
	args := m.Called(ctx, timeout)
	return args.Get(0).(worker.ExitEvent), args.Error(1)
}

func (m *mockWorker[I, O]) Pid() int {
	return m.Called().Int(0)
}

type mockAdapter[I, O any] struct {
	mock.Mock
}

var _ Adapter[any, any] = (*mockAdapter[any, any])(nil)

func newMockAdapter[I, O any](t interface {
	mock.TestingT
	Cleanup(func())
}) *mockAdapter[I, O] {
	m := &mockAdapter[I, O]{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockAdapter[I, O]) Start(ctx context.Context, config worker.StartConfig) error {
	return m.Called(ctx, config).Error(0)
}

func (m *mockAdapter[I, O]) Send(ctx context.Context, data I, config SendConfig) (O, error) {
	args := m.Called(ctx, data, config)
	res, _ := args.Get(0).(O)
	return res, args.Error(1)
}

func (m *mockAdapter[I, O]) Stop(config worker.StopConfig) (ReleaseFunc, error) {
	args := m.Called(config)
	release, _ := args.Get(0).(ReleaseFunc)
	return release, args.Error(1)
}
