package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jacobstr/crusher/internal/notifications/slack"
	"github.com/jacobstr/crusher/internal/types"
	"github.com/jacobstr/crusher/internal/watchers"
)

// --- Mock CampgroundDirectory ---

type mockDirectory struct {
	mock.Mock
}

func (m *mockDirectory) List(ctx context.Context) ([]types.Campground, error) {
	args := m.Called(ctx)
	if list := args.Get(0); list != nil {
		return list.([]types.Campground), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) ByTag(ctx context.Context, tag string) ([]types.Campground, error) {
	args := m.Called(ctx, tag)
	if list := args.Get(0); list != nil {
		return list.([]types.Campground), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDirectory) Tags(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if tags := args.Get(0); tags != nil {
		return tags.([]string), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Helpers ---

func newSlackRouter(service WatcherService, directory types.CampgroundDirectory) *chi.Mux {
	r := chi.NewRouter()
	NewSlackHandler(service, directory, nil).RegisterRoutes(r)
	return r
}

func postCommand(t *testing.T, router http.Handler, userID, text string) slashResponse {
	t.Helper()
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("text", text)

	req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp slashResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func postAction(t *testing.T, router http.Handler, payload string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{}
	form.Set("payload", payload)

	req := httptest.NewRequest(http.MethodPost, "/slack/actions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func actionJSON(name, value string) string {
	return `{"callback_id":"` + slack.CallbackWatcherManage + `","actions":[{"name":"` + name + `","value":"` + value + `"}]}`
}

// --- Command tests ---

func TestCommands_EmptyTextShowsHelp(t *testing.T) {
	resp := postCommand(t, newSlackRouter(new(mockWatcherService), new(mockDirectory)), "U123", "")

	assert.Equal(t, "ephemeral", resp.ResponseType)
	assert.Contains(t, resp.Text, "I need a subcommand!")
	assert.Contains(t, resp.Text, "/crush watch")
}

func TestCommands_Help(t *testing.T) {
	resp := postCommand(t, newSlackRouter(new(mockWatcherService), new(mockDirectory)), "U123", "help")

	assert.Equal(t, "ephemeral", resp.ResponseType)
	assert.Contains(t, resp.Text, "/crush campgrounds")
}

func TestCommands_UnknownSubcommand(t *testing.T) {
	resp := postCommand(t, newSlackRouter(new(mockWatcherService), new(mockDirectory)), "U123", "dance")

	assert.Equal(t, "I haven't been implemented yet!", resp.Text)
}

func TestCommands_Watch_Success(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Create", mock.Anything, watchers.CreateInput{
		UserID:        "U123",
		CampgroundTag: "yosemite",
		Start:         "14/07/26",
		Length:        2,
	}).Return(&types.Watcher{ID: "w-1", UserID: "U123", CampgroundTag: "yosemite"}, nil)

	resp := postCommand(t, newSlackRouter(service, new(mockDirectory)), "U123", "watch yosemite 14/07/26 2")

	assert.Equal(t, "Thanks <@U123>, I've registered your reservation request for *yosemite*.", resp.Text)
	service.AssertExpectations(t)
}

func TestCommands_Watch_WrongArgCount(t *testing.T) {
	service := new(mockWatcherService)
	resp := postCommand(t, newSlackRouter(service, new(mockDirectory)), "U123", "watch yosemite")

	assert.Equal(t, "Please use a format like `tuolumne DD/MM/YY <length>`.", resp.Text)
	service.AssertNotCalled(t, "Create")
}

func TestCommands_Watch_NonNumericLength(t *testing.T) {
	resp := postCommand(t, newSlackRouter(new(mockWatcherService), new(mockDirectory)), "U123", "watch yosemite 14/07/26 two")

	assert.Contains(t, resp.Text, "whole number of nights")
}

func TestCommands_Watch_BadDate(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Create", mock.Anything, mock.Anything).
		Return(nil, types.NewAppError(types.ErrCodeValidationInvalidDate, "bad date", nil))

	resp := postCommand(t, newSlackRouter(service, new(mockDirectory)), "U123", "watch yosemite 2026-07-14 2")

	assert.Equal(t, "Could not parse your date, please use a DD/MM/YY format.", resp.Text)
}

func TestCommands_Watch_UnknownTag(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Create", mock.Anything, mock.Anything).
		Return(nil, types.NewAppError(types.ErrCodeValidationUnknownTag, "unknown camping area", nil).
			WithDetails(map[string]any{"known_tags": []string{"olympic", "yosemite"}}))

	resp := postCommand(t, newSlackRouter(service, new(mockDirectory)), "U123", "watch narnia 14/07/26 2")

	assert.Equal(t, "Unknown camping area, please select one of olympic, yosemite", resp.Text)
}

func TestCommands_List_Empty(t *testing.T) {
	service := new(mockWatcherService)
	service.On("List", mock.Anything).Return(nil, nil)

	resp := postCommand(t, newSlackRouter(service, new(mockDirectory)), "U123", "list")

	assert.Equal(t, "in_channel", resp.ResponseType)
	assert.Equal(t, "No active watchers at the moment!", resp.Text)
}

func TestCommands_List_ActiveWatchers(t *testing.T) {
	service := new(mockWatcherService)
	service.On("List", mock.Anything).Return([]types.Watcher{
		{ID: "w-1", UserID: "U123", CampgroundTag: "yosemite", Start: "14/07/26", Length: 2},
	}, nil)

	resp := postCommand(t, newSlackRouter(service, new(mockDirectory)), "U123", "list")

	assert.Equal(t, "in_channel", resp.ResponseType)
	require.Len(t, resp.Attachments, 1)
	assert.Contains(t, resp.Attachments[0].Text, "<@U123> is looking in *yosemite*")
}

func TestCommands_List_ServiceError(t *testing.T) {
	service := new(mockWatcherService)
	service.On("List", mock.Anything).Return(nil, errors.New("database exploded"))

	resp := postCommand(t, newSlackRouter(service, new(mockDirectory)), "U123", "list")

	assert.Equal(t, "ephemeral", resp.ResponseType)
	assert.Contains(t, resp.Text, "couldn't look up")
}

func TestCommands_Campgrounds(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("List", mock.Anything).Return([]types.Campground{
		{ID: "232447", ShortName: "Upper Pines", Tags: []string{"yosemite"}},
		{ID: "232450", ShortName: "Kalaloch", Tags: []string{"olympic"}},
	}, nil)

	resp := postCommand(t, newSlackRouter(new(mockWatcherService), directory), "U123", "campgrounds")

	assert.Equal(t, "Campgrounds", resp.Text)
	assert.Len(t, resp.Attachments, 2)
}

func TestCommands_Campgrounds_TagFilterNoMatch(t *testing.T) {
	directory := new(mockDirectory)
	directory.On("List", mock.Anything).Return([]types.Campground{
		{ID: "232447", ShortName: "Upper Pines", Tags: []string{"yosemite"}},
	}, nil)

	resp := postCommand(t, newSlackRouter(new(mockWatcherService), directory), "U123", "campgrounds narnia")

	assert.Equal(t, "No campgrounds match the given tags.", resp.Text)
}

// --- Action tests ---

func TestActions_Cancel(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Cancel", mock.Anything, "w-1").Return(nil)
	service.On("List", mock.Anything).Return(nil, nil)

	w := postAction(t, newSlackRouter(service, new(mockDirectory)), actionJSON("cancel", "w-1"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp slashResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "No active watchers at the moment!", resp.Text)
	service.AssertExpectations(t)
}

func TestActions_Results(t *testing.T) {
	service := new(mockWatcherService)
	service.On("Get", mock.Anything, "w-1").Return(&types.Watcher{
		ID: "w-1", UserID: "U123", CampgroundTag: "yosemite", Start: "14/07/26",
		Results: []types.Result{{Date: "14/07/26", Campsite: "043", Fraction: 1}},
	}, nil)

	w := postAction(t, newSlackRouter(service, new(mockDirectory)), actionJSON("results", "w-1"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp slashResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Results for yosemite on 14/07/26", resp.Text)
	require.Len(t, resp.Attachments, 1)
}

func TestActions_SilenceAndUnsilence(t *testing.T) {
	service := new(mockWatcherService)
	service.On("SetSilenced", mock.Anything, "w-1", true).
		Return(&types.Watcher{ID: "w-1", UserID: "U123", Silenced: true}, nil)
	service.On("SetSilenced", mock.Anything, "w-1", false).
		Return(&types.Watcher{ID: "w-1", UserID: "U123"}, nil)

	router := newSlackRouter(service, new(mockDirectory))

	w := postAction(t, router, actionJSON("silence", "w-1"))
	var resp slashResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Silenced watcher, will no longer message <@U123>!", resp.Text)

	w = postAction(t, router, actionJSON("unsilence", "w-1"))
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Unsilenced watcher, will now message <@U123> with results!", resp.Text)
}

func TestActions_UnknownCallback(t *testing.T) {
	w := postAction(t, newSlackRouter(new(mockWatcherService), new(mockDirectory)),
		`{"callback_id":"something_else","actions":[{"name":"cancel","value":"w-1"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp slashResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "Sorry, I didn't get that!", resp.Text)
}

func TestActions_MalformedPayload(t *testing.T) {
	w := postAction(t, newSlackRouter(new(mockWatcherService), new(mockDirectory)), `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
