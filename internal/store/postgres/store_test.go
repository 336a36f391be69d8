package postgres

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gbbo-crawler/internal/store"
)

func mockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	s, err := NewWithPool(mock)
	require.NoError(t, err)
	return s, mock
}

func TestNewWithPoolRequiresPool(t *testing.T) {
	t.Parallel()

	_, err := NewWithPool(nil)
	require.Error(t, err)
}

func TestEnsureBakerReturnsSurvivingID(t *testing.T) {
	t.Parallel()

	s, mock := mockStore(t)
	season := 7

	mock.ExpectExec("INSERT INTO bakers").
		WithArgs("Prue Leith", "/img/prue.jpg", &season).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery("SELECT id FROM bakers").
		WithArgs("Prue Leith", "/img/prue.jpg").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))

	id, err := s.EnsureBaker(context.Background(), store.Baker{
		Name:   "Prue Leith",
		Img:    "/img/prue.jpg",
		Season: &season,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBakerByNameMissingIsNotAnError(t *testing.T) {
	t.Parallel()

	s, mock := mockStore(t)

	mock.ExpectQuery("SELECT id, name, img, season FROM bakers").
		WithArgs("Nobody").
		WillReturnError(pgx.ErrNoRows)

	b, err := s.BakerByName(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.Nil(t, b)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBakerByFuzzyName(t *testing.T) {
	t.Parallel()

	s, mock := mockStore(t)

	mock.ExpectQuery("SELECT id, name, img, season FROM bakers").
		WithArgs("Paul").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "img", "season"}).
			AddRow(int64(9), "Paul Hollywood", "/img/paul.jpg", (*int)(nil)))

	b, err := s.BakerByFuzzyName(context.Background(), "Paul")
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, int64(9), b.ID)
	assert.Equal(t, "Paul Hollywood", b.Name)
	assert.Nil(t, b.Season)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertRecipeUpdatesInPlace(t *testing.T) {
	t.Parallel()

	s, mock := mockStore(t)
	difficulty, minutes := 2, 90
	bakerID := int64(3)

	mock.ExpectQuery("INSERT INTO recipes").
		WithArgs("School Cake", "https://example.test/recipes/school-cake/",
			"/img/school-cake.jpg", &difficulty, &minutes, &bakerID).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(42)))

	id, err := s.UpsertRecipe(context.Background(), store.Recipe{
		Title:      "School Cake",
		Link:       "https://example.test/recipes/school-cake/",
		Img:        "/img/school-cake.jpg",
		Difficulty: &difficulty,
		Time:       &minutes,
		BakerID:    &bakerID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecipeIDByLink(t *testing.T) {
	t.Parallel()

	s, mock := mockStore(t)

	mock.ExpectQuery("SELECT id FROM recipes").
		WithArgs("https://example.test/recipes/one/").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
	mock.ExpectQuery("SELECT id FROM recipes").
		WithArgs("https://example.test/recipes/gone/").
		WillReturnError(pgx.ErrNoRows)

	id, err := s.RecipeIDByLink(context.Background(), "https://example.test/recipes/one/")
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	id, err = s.RecipeIDByLink(context.Background(), "https://example.test/recipes/gone/")
	require.NoError(t, err)
	assert.Zero(t, id, "a missing recipe is reported as id 0, not an error")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureTagAndLink(t *testing.T) {
	t.Parallel()

	s, mock := mockStore(t)

	mock.ExpectExec("INSERT INTO diets").
		WithArgs("Vegetarian").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("SELECT id FROM diets").
		WithArgs("Vegetarian").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(5)))
	mock.ExpectExec("INSERT INTO recipe_diets").
		WithArgs(int64(42), int64(5)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	tagID, err := s.EnsureTag(context.Background(), store.TagDiet, "Vegetarian")
	require.NoError(t, err)
	assert.Equal(t, int64(5), tagID)

	require.NoError(t, s.LinkRecipeTag(context.Background(), store.TagDiet, 42, tagID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTagOperationsRejectUnknownKind(t *testing.T) {
	t.Parallel()

	s, mock := mockStore(t)

	_, err := s.EnsureTag(context.Background(), store.TagKind("flavour"), "Sweet")
	require.Error(t, err)
	require.Error(t, s.LinkRecipeTag(context.Background(), store.TagKind("flavour"), 1, 2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSchema(t *testing.T) {
	t.Parallel()

	s, mock := mockStore(t)

	for range dropStatements {
		mock.ExpectExec("DROP TABLE IF EXISTS").
			WillReturnResult(pgxmock.NewResult("DROP", 0))
	}
	for range createStatements {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS").
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
	}

	require.NoError(t, s.CreateSchema(context.Background(), true))
	require.NoError(t, mock.ExpectationsWereMet())
}
