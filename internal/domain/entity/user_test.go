package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUser_DefaultModule(t *testing.T) {
	u := NewUser(1, 10)
	require.Equal(t, ModuleLabel, u.ActiveModule)
	require.Equal(t, int64(1), u.ID)
	require.Equal(t, int64(10), u.ChatID)

	u.SelectModule(ModuleBrand)
	require.Equal(t, ModuleBrand, u.ActiveModule)
}
