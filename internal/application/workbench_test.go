package app

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"freshscan/internal/domain/entity"
	"freshscan/internal/infrastructure/storage"
)

func TestCaptureService_ActiveFollowsSelectedModule(t *testing.T) {
	users := NewUserService(storage.NewMemoryUserRepository())
	svc := NewCaptureService(users, testDeps(t, newFakeCamera(), &fakeUploader{}), nil)
	ctx := context.Background()

	c, err := svc.Active(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.ModuleLabel, c.Module().ID)

	_, err = users.SelectModule(ctx, 1, 10, entity.ModuleBrand)
	require.NoError(t, err)

	c, err = svc.Active(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, entity.ModuleBrand, c.Module().ID)
	require.Same(t, c, mustController(t, svc.Workbench(1, 10), entity.ModuleBrand))
}

func TestCaptureService_CameraHandOffBetweenOperators(t *testing.T) {
	cam := newFakeCamera()
	var mu sync.Mutex
	var got []OperatorEvent
	svc := NewCaptureService(NewUserService(storage.NewMemoryUserRepository()), testDeps(t, cam, &fakeUploader{}), nil)
	svc.SetEventHandler(func(ev OperatorEvent) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	ctx := context.Background()

	first := mustController(t, svc.Workbench(1, 10), entity.ModuleFreshness)
	second := mustController(t, svc.Workbench(2, 20), entity.ModuleFreshness)

	require.NoError(t, first.StartCapture(ctx))
	require.NoError(t, second.StartCapture(ctx))

	require.Equal(t, entity.StateIdle, first.View().State)
	require.Equal(t, entity.StateStreaming, second.View().State)
	require.Equal(t, 1, cam.openStreams())

	mu.Lock()
	var handoff *OperatorEvent
	for i := range got {
		if got[i].Reason == ReasonHandoff {
			handoff = &got[i]
		}
	}
	mu.Unlock()
	require.NotNil(t, handoff)
	require.Equal(t, int64(1), handoff.UserID)
	require.Equal(t, int64(10), handoff.ChatID)
	require.Equal(t, "user-1/freshness", handoff.Owner)
}

func TestCaptureService_CloseReleasesDevice(t *testing.T) {
	cam := newFakeCamera()
	deps := testDeps(t, cam, &fakeUploader{})
	svc := NewCaptureService(NewUserService(storage.NewMemoryUserRepository()), deps, nil)
	ctx := context.Background()

	c := mustController(t, svc.Workbench(3, 30), entity.ModuleLabel)
	require.NoError(t, c.StartCapture(ctx))

	svc.Close()

	require.Equal(t, entity.StateIdle, c.View().State)
	require.Zero(t, cam.openStreams())
	require.Equal(t, SessionState{}, deps.Session.State())

	err := c.StartCapture(ctx)
	require.ErrorIs(t, err, ErrSessionClosed)
	require.Equal(t, entity.StateError, c.View().State)
}

func TestWorkbench_ViewsInRegistryOrder(t *testing.T) {
	w := NewWorkbench("user-9", testDeps(t, newFakeCamera(), &fakeUploader{}), nil)

	views := w.Views()
	require.Len(t, views, len(entity.Modules()))
	for i, m := range entity.Modules() {
		require.Equal(t, m.ID, views[i].Module.ID)
		require.Equal(t, entity.StateIdle, views[i].State)
	}

	_, err := w.Controller("weather")
	require.Error(t, err)
}

func mustController(t *testing.T, w *Workbench, id entity.ModuleID) *ModuleController {
	t.Helper()
	c, err := w.Controller(id)
	require.NoError(t, err)
	return c
}
