package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModules_Registry(t *testing.T) {
	mods := Modules()
	require.Len(t, mods, 4)

	paths := map[ModuleID]string{}
	for _, m := range mods {
		paths[m.ID] = m.EndpointPath
	}
	require.Equal(t, "/label-extraction", paths[ModuleLabel])
	require.Equal(t, "/expiry-extraction", paths[ModuleExpiry])
	require.Equal(t, "/freshness-prediction", paths[ModuleFreshness])
	require.Equal(t, "/brand-recognition", paths[ModuleBrand])

	// копия не должна менять таблицу
	mods[0].EndpointPath = "/changed"
	m, err := LookupModule(ModuleLabel)
	require.NoError(t, err)
	require.Equal(t, "/label-extraction", m.EndpointPath)
}

func TestModule_ResizeBound(t *testing.T) {
	m, err := LookupModule(ModuleFreshness)
	require.NoError(t, err)
	w, h, ok := m.ResizeBound()
	require.True(t, ok)
	require.Equal(t, 224, w)
	require.Equal(t, 224, h)

	m, err = LookupModule(ModuleExpiry)
	require.NoError(t, err)
	_, _, ok = m.ResizeBound()
	require.False(t, ok)

	_, err = LookupModule("unknown")
	require.Error(t, err)
}

func TestErrorKind(t *testing.T) {
	require.Equal(t, "NetworkError", ErrorKind(&NetworkError{Endpoint: "/x", Err: ErrNoImage}))
	require.Equal(t, "ServerError", ErrorKind(&ServerError{StatusCode: 500, Detail: "boom"}))
	require.Equal(t, "DeviceUnavailable", ErrorKind(ErrDeviceUnavailable))
	require.Equal(t, "MalformedResponse", ErrorKind(ErrMalformedResponse))
	require.Equal(t, "", ErrorKind(nil))
}
