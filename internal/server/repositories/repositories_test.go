package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/fitkeeper/internal/common"
	"github.com/dmitrijs2005/fitkeeper/internal/server/config"
	"github.com/dmitrijs2005/fitkeeper/internal/server/models"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{config.DriverMemory, false},
		{config.DriverMongo, false},
		{config.DriverPostgres, false},
		{"sqlite", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.LoadDefaults()
			cfg.StoreDriver = tt.driver

			m, err := Open(cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, m.Users)
			assert.NotNil(t, m.Memberships)
			// nothing was dialed, so there is nothing to close
			assert.NoError(t, m.Close())
		})
	}
}

func TestMemoryManager_UniqueIndexes(t *testing.T) {
	m := NewMemoryManager()
	ctx := context.Background()

	require.NoError(t, m.Users.Create(ctx, &models.User{Username: "alice"}))
	err := m.Users.Create(ctx, &models.User{Username: "alice"})
	assert.Equal(t, common.KindDuplicateEntry, common.KindOf(err))

	require.NoError(t, m.Memberships.Create(ctx, &models.Membership{UserID: "u1", Level: "gold"}))
	err = m.Memberships.Create(ctx, &models.Membership{UserID: "u1", Level: "silver"})
	assert.Equal(t, common.KindDuplicateEntry, common.KindOf(err))
}

func TestSchemas_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range Schemas() {
		assert.False(t, seen[s.Name], s.Name)
		seen[s.Name] = true
	}
	assert.Len(t, seen, 8)
}
