package migrations

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	all := All()
	require.Len(t, all, 4)

	ids := make([]string, 0, len(all))
	seen := make(map[string]bool)
	for _, m := range all {
		assert.False(t, seen[m.ID], "duplicate migration %s", m.ID)
		seen[m.ID] = true
		assert.NotNil(t, m.Migrate, m.ID)
		assert.NotNil(t, m.Rollback, m.ID)
		ids = append(ids, m.ID)
	}

	assert.True(t, sort.StringsAreSorted(ids), "migrations must run in id order: %v", ids)
	assert.Equal(t, "000001_create_accounts_table", ids[0])
}
