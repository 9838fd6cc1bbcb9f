//go:build !gocv

package camera

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"freshscan/internal/domain/entity"
)

func TestGoCVCameraStub_DeviceUnavailable(t *testing.T) {
	cam := NewGoCVCamera(DefaultConfig(), nil)
	stream, err := cam.Open(context.Background())
	require.Nil(t, stream)
	require.ErrorIs(t, err, entity.ErrDeviceUnavailable)
}
