package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacobstr/crusher/internal/types"
)

func newCampgroundRouter(directory types.CampgroundDirectory) *chi.Mux {
	r := chi.NewRouter()
	NewCampgroundHandler(directory, nil).RegisterRoutes(r)
	return r
}

func TestCampgroundHandler_List(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("List", mock.Anything).Return([]types.Campground{
		{ID: "232447", Name: "UPPER_PINES", ShortName: "Upper Pines", Tags: []string{"yosemite"}},
	}, nil)

	w := doJSON(t, newCampgroundRouter(directory), http.MethodGet, "/meta/campgrounds", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []types.Campground `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Upper Pines", body.Data[0].ShortName)
	directory.AssertNotCalled(t, "ByTag")
}

func TestCampgroundHandler_List_TagFilter(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("ByTag", mock.Anything, "olympic").Return([]types.Campground{
		{ID: "232450", ShortName: "Kalaloch", Tags: []string{"olympic"}},
	}, nil)

	w := doJSON(t, newCampgroundRouter(directory), http.MethodGet, "/meta/campgrounds?tag=olympic", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Kalaloch")
	directory.AssertExpectations(t)
}

func TestCampgroundHandler_List_UnknownTagEmptyArray(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("ByTag", mock.Anything, "narnia").Return(nil, nil)

	w := doJSON(t, newCampgroundRouter(directory), http.MethodGet, "/meta/campgrounds?tag=narnia", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestCampgroundHandler_List_DBError(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("List", mock.Anything).
		Return(nil, types.NewAppError(types.ErrCodeInternalDB, "query failed", errors.New("connection refused")))

	w := doJSON(t, newCampgroundRouter(directory), http.MethodGet, "/meta/campgrounds", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCampgroundHandler_Tags(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("Tags", mock.Anything).Return([]string{"olympic", "yosemite"}, nil)

	w := doJSON(t, newCampgroundRouter(directory), http.MethodGet, "/meta/tags", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, []string{"olympic", "yosemite"}, body.Data)
}

func TestCampgroundHandler_Tags_Empty(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("Tags", mock.Anything).Return(nil, nil)

	w := doJSON(t, newCampgroundRouter(directory), http.MethodGet, "/meta/tags", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}
