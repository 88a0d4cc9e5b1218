package app

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateDBPropagatesErrors(t *testing.T) {
	a := newTestApplication(t)

	sqlDB, err := a.DB().DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	require.Error(t, a.MigrateDB(false))
}
