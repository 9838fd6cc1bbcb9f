package camera

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
	require.NoError(t, Config{Device: "/dev/video2", Width: 1280, Height: 720}.Validate())

	require.Error(t, Config{}.Validate())
	require.Error(t, Config{Device: "0", Width: 640}.Validate())
	require.Error(t, Config{Device: "0", Width: -1, Height: -1}.Validate())
}
