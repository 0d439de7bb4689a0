package customers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/retaildesk/retaildesk-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:customers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Customer{}))
	return db
}

func strPtr(v string) *string { return &v }

func TestSearchMatchesNameEmailPhone(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seed := []models.Customer{
		{Name: "Alice Johnson", Email: strPtr("alice@example.com"), Phone: strPtr("555-0100")},
		{Name: "Bob Smith", Email: strPtr("bob@example.com"), Phone: strPtr("555-0101")},
		{Name: "Carol Davis", Email: strPtr("carol@shop.io"), Phone: strPtr("777-0102")},
	}
	for i := range seed {
		require.NoError(t, repo.Create(ctx, &seed[i]))
	}

	byName, err := repo.Search(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Alice Johnson", byName[0].Name)

	byEmail, err := repo.Search(ctx, "shop.io")
	require.NoError(t, err)
	require.Len(t, byEmail, 1)
	assert.Equal(t, "Carol Davis", byEmail[0].Name)

	byPhone, err := repo.Search(ctx, "555-01")
	require.NoError(t, err)
	assert.Len(t, byPhone, 2)
}

func TestSearchEmptyTermListsAll(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for _, name := range []string{"Zed", "Amy", "Mia"} {
		require.NoError(t, repo.Create(ctx, &models.Customer{Name: name}))
	}

	results, err := repo.Search(ctx, "  ")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "Amy", results[0].Name, "results must be ordered by name")
}

func TestFindByEmailOrPhone(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	existing := models.Customer{Name: "Dana", Email: strPtr("dana@example.com"), Phone: strPtr("555-0200")}
	require.NoError(t, repo.Create(ctx, &existing))

	byEmail, err := repo.FindByEmailOrPhone(ctx, "dana@example.com", "")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, existing.ID, byEmail.ID)

	byPhone, err := repo.FindByEmailOrPhone(ctx, "", "555-0200")
	require.NoError(t, err)
	require.NotNil(t, byPhone)
	assert.Equal(t, existing.ID, byPhone.ID)

	missing, err := repo.FindByEmailOrPhone(ctx, "nobody@example.com", "000")
	require.NoError(t, err)
	assert.Nil(t, missing)

	none, err := repo.FindByEmailOrPhone(ctx, "", "")
	require.NoError(t, err)
	assert.Nil(t, none)
}
