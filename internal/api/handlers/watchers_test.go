package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacobstr/crusher/internal/notifications"
	"github.com/jacobstr/crusher/internal/types"
	"github.com/jacobstr/crusher/internal/watchers"
)

// --- Mock WatcherService ---

type mockWatcherService struct {
	mock.Mock
}

func (m *mockWatcherService) List(ctx context.Context) ([]types.Watcher, error) {
	args := m.Called(ctx)
	if list := args.Get(0); list != nil {
		return list.([]types.Watcher), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWatcherService) Get(ctx context.Context, watcherID string) (*types.Watcher, error) {
	args := m.Called(ctx, watcherID)
	if w := args.Get(0); w != nil {
		return w.(*types.Watcher), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWatcherService) Create(ctx context.Context, input watchers.CreateInput) (*types.Watcher, error) {
	args := m.Called(ctx, input)
	if w := args.Get(0); w != nil {
		return w.(*types.Watcher), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWatcherService) Cancel(ctx context.Context, watcherID string) error {
	return m.Called(ctx, watcherID).Error(0)
}

func (m *mockWatcherService) SetSilenced(ctx context.Context, watcherID string, silenced bool) (*types.Watcher, error) {
	args := m.Called(ctx, watcherID, silenced)
	if w := args.Get(0); w != nil {
		return w.(*types.Watcher), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockWatcherService) ApplyResults(ctx context.Context, watcherID string, results []types.Result) (*types.Watcher, notifications.Decision, error) {
	args := m.Called(ctx, watcherID, results)
	if w := args.Get(0); w != nil {
		return w.(*types.Watcher), args.Get(1).(notifications.Decision), args.Error(2)
	}
	return nil, args.Get(1).(notifications.Decision), args.Error(2)
}

// --- Helpers ---

func newWatcherRouter(service WatcherService) *chi.Mux {
	r := chi.NewRouter()
	NewWatcherHandler(service, nil).RegisterRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func sampleWatcher(id string) *types.Watcher {
	return &types.Watcher{
		ID:            id,
		UserID:        "U123",
		CampgroundTag: "yosemite",
		Start:         "14/07/26",
		Length:        2,
	}
}

// --- Tests ---

func TestWatcherHandler_List(t *testing.T) {
	service := new(mockWatcherService)
	service.On("List", mock.Anything).Return([]types.Watcher{*sampleWatcher("w-1")}, nil)

	w := doJSON(t, newWatcherRouter(service), http.MethodGet, "/watchers/", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data []types.Watcher `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "w-1", body.Data[0].ID)
}

func TestWatcherHandler_List_EmptyIsArray(t *testing.T) {
	service := new(mockWatcherService)
	service.On("List", mock.Anything).Return(nil, nil)

	w := doJSON(t, newWatcherRouter(service), http.MethodGet, "/watchers/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"data":[]`)
}

func TestWatcherHandler_Get_NotFound(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Get", mock.Anything, "missing").
		Return(nil, types.NewAppError(types.ErrCodeNotFoundWatcher, "watcher not found", nil))

	w := doJSON(t, newWatcherRouter(service), http.MethodGet, "/watchers/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), string(types.ErrCodeNotFoundWatcher))
}

func TestWatcherHandler_Create_Success(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Create", mock.Anything, watchers.CreateInput{
		UserID:        "U123",
		CampgroundTag: "yosemite",
		Start:         "14/07/26",
		Length:        2,
	}).Return(sampleWatcher("w-1"), nil)

	body := `{"user_id":"U123","campground_tag":"yosemite","start":"14/07/26","length":2}`
	w := doJSON(t, newWatcherRouter(service), http.MethodPost, "/watchers/", body)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"w-1"`)
	service.AssertExpectations(t)
}

func TestWatcherHandler_Create_BadJSON(t *testing.T) {
	service := new(mockWatcherService)

	w := doJSON(t, newWatcherRouter(service), http.MethodPost, "/watchers/", `{"user_id":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	service.AssertNotCalled(t, "Create")
}

func TestWatcherHandler_Create_ValidationError(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Create", mock.Anything, mock.Anything).
		Return(nil, types.NewAppError(types.ErrCodeValidationInvalidDate, "bad date", nil))

	body := `{"user_id":"U123","campground_tag":"yosemite","start":"nope","length":2}`
	w := doJSON(t, newWatcherRouter(service), http.MethodPost, "/watchers/", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWatcherHandler_Delete(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Cancel", mock.Anything, "w-1").Return(nil)

	w := doJSON(t, newWatcherRouter(service), http.MethodPost, "/watchers/w-1/delete", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cancelled")
	service.AssertExpectations(t)
}

func TestWatcherHandler_SilenceUnsilence(t *testing.T) {
	service := new(mockWatcherService)
	silenced := sampleWatcher("w-1")
	silenced.Silenced = true
	service.On("SetSilenced", mock.Anything, "w-1", true).Return(silenced, nil)
	service.On("SetSilenced", mock.Anything, "w-1", false).Return(sampleWatcher("w-1"), nil)

	router := newWatcherRouter(service)

	w := doJSON(t, router, http.MethodPost, "/watchers/w-1/silence", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"silenced":true`)

	w = doJSON(t, router, http.MethodPost, "/watchers/w-1/unsilence", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"silenced":false`)
	service.AssertExpectations(t)
}

func TestWatcherHandler_IngestResults(t *testing.T) {
	service := new(mockWatcherService)
	updated := sampleWatcher("w-1")
	updated.Results = []types.Result{{Campsite: "043", Fraction: 1}}
	service.On("ApplyResults", mock.Anything, "w-1", mock.MatchedBy(func(results []types.Result) bool {
		return len(results) == 1 && results[0].Campsite == "043"
	})).Return(updated, notifications.Decision{Notify: true, Reason: "results changed"}, nil)

	body := `{"results":[{"date":"14/07/26","campground":{"id":"232447"},"campsite":"043","fraction":1,"url":"https://example.test"}]}`
	w := doJSON(t, newWatcherRouter(service), http.MethodPost, "/watchers/w-1/results", body)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data IngestResultsResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.True(t, resp.Data.Notified)
	assert.Equal(t, "results changed", resp.Data.Reason)
	require.NotNil(t, resp.Data.Watcher)
	assert.Equal(t, "w-1", resp.Data.Watcher.ID)
	service.AssertExpectations(t)
}

func TestWatcherHandler_IngestResults_NotFound(t *testing.T) {
	service := new(mockWatcherService)
	service.On("ApplyResults", mock.Anything, "missing", mock.Anything).
		Return(nil, notifications.Decision{}, types.NewAppError(types.ErrCodeNotFoundWatcher, "watcher not found", nil))

	w := doJSON(t, newWatcherRouter(service), http.MethodPost, "/watchers/missing/results", `{"results":[]}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
