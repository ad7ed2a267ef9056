package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacobstr/crusher/internal/types"
)

func TestCampgroundRepository_List_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCampgroundRepository(db)

	rows := newMockRows([][]any{
		{"232450", "KALALOCH", "Kalaloch", []string{"olympic"}, "US/Pacific"},
		{"232447", "UPPER_PINES", "Upper Pines", []string{"yosemite", "yosemite-valley"}, "US/Pacific"},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	campgrounds, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, campgrounds, 2)

	assert.Equal(t, "232450", campgrounds[0].ID)
	assert.Equal(t, "Kalaloch", campgrounds[0].ShortName)
	assert.Equal(t, []string{"yosemite", "yosemite-valley"}, campgrounds[1].Tags)
	assert.Equal(t, "US/Pacific", campgrounds[1].Timezone)

	db.AssertExpectations(t)
}

func TestCampgroundRepository_List_QueryError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCampgroundRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := repo.List(context.Background())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestCampgroundRepository_ByTag_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCampgroundRepository(db)

	rows := newMockRows([][]any{
		{"232447", "UPPER_PINES", "Upper Pines", []string{"yosemite", "yosemite-valley"}, "US/Pacific"},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any{"yosemite"}).
		Return(rows, nil)

	campgrounds, err := repo.ByTag(context.Background(), "yosemite")
	require.NoError(t, err)
	require.Len(t, campgrounds, 1)
	assert.Equal(t, "Upper Pines", campgrounds[0].ShortName)

	db.AssertExpectations(t)
}

func TestCampgroundRepository_ByTag_UnknownTagEmpty(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCampgroundRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(nil), nil)

	campgrounds, err := repo.ByTag(context.Background(), "narnia")
	require.NoError(t, err)
	assert.Empty(t, campgrounds)
}

func TestCampgroundRepository_Tags_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCampgroundRepository(db)

	rows := newMockRows([][]any{
		{"olympic"},
		{"yosemite"},
		{"yosemite-valley"},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	tags, err := repo.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"olympic", "yosemite", "yosemite-valley"}, tags)
}

func TestCampgroundRepository_Tags_RowsError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewCampgroundRepository(db)

	rows := newMockRows(nil)
	rows.errVal = errors.New("broken stream")
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	_, err := repo.Tags(context.Background())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}
