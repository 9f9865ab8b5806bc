package dispatcher_test

import (
	"context"

	"github.com/logfinder/gatewayproxy/internal/execution/supervisor"
	"github.com/stretchr/testify/mock"
)

type mockSupervisor struct {
	mock.Mock
}

var _ supervisor.Supervisor[string, string] = (*mockSupervisor)(nil)

func newMockSupervisor(t interface {
	mock.TestingT
	Cleanup(func())
}) *mockSupervisor {
	m := &mockSupervisor{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockSupervisor) Start(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockSupervisor) Send(ctx context.Context, data string) (*supervisor.Result[string], error) {
	args := m.Called(ctx, data)
	res, _ := args.Get(0).(*supervisor.Result[string])
	return res, args.Error(1)
}

func (m *mockSupervisor) Suspend(ctx context.Context) (supervisor.WaitFunc, error) {
	args := m.Called(ctx)
	wait, _ := args.Get(0).(supervisor.WaitFunc)
	return wait, args.Error(1)
}

func (m *mockSupervisor) Shutdown(ctx context.Context) (supervisor.WaitFunc, error) {
	args := m.Called(ctx)
	wait, _ := args.Get(0).(supervisor.WaitFunc)
	return wait, args.Error(1)
}
