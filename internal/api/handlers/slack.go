package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jacobstr/crusher/internal/core"
	"github.com/jacobstr/crusher/internal/notifications/slack"
	"github.com/jacobstr/crusher/internal/types"
	"github.com/jacobstr/crusher/internal/watchers"
)

// helpText documents the slash command surface. Rendered inside a code block
// in ephemeral responses.
const helpText = `Commands:

/crush watch <campground-tag> <DD/MM/YY> <length>
-------------------------------------------------
Registers a new watcher for a reservation. This begins a periodic scraping
process against the recreation.gov website. When successful we'll send you a
slack message with results.

Campgrounds are selected according to the campground-tag you provide. The bot
will attempt to find sites within any campground that matches the tag.

To list campgrounds and their tags, use the campgrounds command.

/crush list
-----------
Lists active watchers for all reservations.

/crush campgrounds [tags...]
----------------------------
Lists known campgrounds, optionally filtered by those that match any of the
provided tags.

Syntax:
    - Square brackets, as in [param], denote optional parameters.
    - Angle brackets, as in <param>, denote required parameters.
    - Ellipsis, ... following a parameter denotes a space-separated list.`

// Slash response types.
const (
	responseEphemeral = "ephemeral"
	responseInChannel = "in_channel"
)

// slashResponse is the JSON body returned synchronously to a Slack slash
// command or interactive action.
type slashResponse struct {
	ResponseType string             `json:"response_type,omitempty"`
	Text         string             `json:"text,omitempty"`
	Attachments  []slack.Attachment `json:"attachments,omitempty"`
}

// actionPayload is the subset of the interactive-action callback we consume.
type actionPayload struct {
	CallbackID string `json:"callback_id"`
	Actions    []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"actions"`
}

// SlackHandler serves the Slack slash-command and interactive-action
// webhooks. All watcher mutations go through the watcher service so command
// traffic and API traffic share one write path.
type SlackHandler struct {
	service   WatcherService
	directory types.CampgroundDirectory
	logger    *slog.Logger
}

// NewSlackHandler creates a SlackHandler.
func NewSlackHandler(service WatcherService, directory types.CampgroundDirectory, logger *slog.Logger) *SlackHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackHandler{service: service, directory: directory, logger: logger}
}

// RegisterRoutes mounts the Slack webhook endpoints.
func (h *SlackHandler) RegisterRoutes(r chi.Router) {
	r.Route("/slack", func(r chi.Router) {
		r.Post("/commands", h.Commands)
		r.Post("/actions", h.Actions)
	})
}

// Commands handles POST /v1/slack/commands. Slack delivers slash commands as
// a form-encoded body; the response JSON is rendered back to the invoking
// user (ephemeral) or channel (in_channel).
func (h *SlackHandler) Commands(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationBadRequest,
			"malformed form body", err))
		return
	}

	text := strings.TrimSpace(r.PostFormValue("text"))
	if text == "" {
		h.respond(w, r, slashResponse{
			ResponseType: responseEphemeral,
			Text:         "I need a subcommand!\n```" + helpText + "```",
		})
		return
	}

	parts := strings.Fields(text)
	command, args := parts[0], parts[1:]

	switch command {
	case "watch":
		h.commandWatch(w, r, args)
	case "list":
		h.respond(w, r, h.listWatchersResponse(r.Context()))
	case "campgrounds":
		h.commandCampgrounds(w, r, args)
	case "help":
		h.respond(w, r, slashResponse{
			ResponseType: responseEphemeral,
			Text:         "```" + helpText + "```",
		})
	default:
		h.respond(w, r, slashResponse{
			ResponseType: responseEphemeral,
			Text:         "I haven't been implemented yet!",
		})
	}
}

func (h *SlackHandler) commandWatch(w http.ResponseWriter, r *http.Request, args []string) {
	if len(args) != 3 {
		h.respond(w, r, slashResponse{
			ResponseType: responseEphemeral,
			Text:         "Please use a format like `tuolumne DD/MM/YY <length>`.",
		})
		return
	}

	tag, start := args[0], args[1]
	length, err := strconv.Atoi(args[2])
	if err != nil {
		h.respond(w, r, slashResponse{
			ResponseType: responseEphemeral,
			Text:         "Could not parse the length of your stay, please use a whole number of nights.",
		})
		return
	}

	userID := r.PostFormValue("user_id")
	watcher, err := h.service.Create(r.Context(), watchers.CreateInput{
		UserID:        userID,
		CampgroundTag: tag,
		Start:         start,
		Length:        length,
	})
	if err != nil {
		h.respond(w, r, slashResponse{
			ResponseType: responseEphemeral,
			Text:         createFailureText(r.Context(), err),
		})
		return
	}

	h.respond(w, r, slashResponse{
		Text: "Thanks <@" + userID + ">, I've registered your reservation request for *" + watcher.CampgroundTag + "*.",
	})
}

// createFailureText maps watcher-creation errors onto the conversational
// replies the bot gives for bad input.
func createFailureText(_ context.Context, err error) string {
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		return "Something went wrong registering your watcher, please try again."
	}
	switch appErr.Code {
	case types.ErrCodeValidationInvalidDate:
		return "Could not parse your date, please use a DD/MM/YY format."
	case types.ErrCodeValidationInvalidLength:
		return "The length of your stay must be at least one night."
	case types.ErrCodeValidationUnknownTag:
		if known, ok := appErr.Details["known_tags"].([]string); ok && len(known) > 0 {
			return "Unknown camping area, please select one of " + strings.Join(known, ", ")
		}
		return "Unknown camping area."
	default:
		return "Something went wrong registering your watcher, please try again."
	}
}

func (h *SlackHandler) commandCampgrounds(w http.ResponseWriter, r *http.Request, tags []string) {
	campgrounds, err := h.directory.List(r.Context())
	if err != nil {
		core.Error(w, r, err)
		return
	}

	attachments := slack.CampgroundAttachments(campgrounds, tags)
	if len(attachments) == 0 {
		h.respond(w, r, slashResponse{
			ResponseType: responseInChannel,
			Text:         "No campgrounds match the given tags.",
		})
		return
	}
	h.respond(w, r, slashResponse{
		ResponseType: responseInChannel,
		Text:         "Campgrounds",
		Attachments:  attachments,
	})
}

func (h *SlackHandler) listWatchersResponse(ctx context.Context) slashResponse {
	list, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "listing watchers for slack failed", "error", err)
		return slashResponse{
			ResponseType: responseEphemeral,
			Text:         "Sorry, I couldn't look up the active watchers.",
		}
	}
	if len(list) == 0 {
		return slashResponse{
			ResponseType: responseInChannel,
			Text:         "No active watchers at the moment!",
		}
	}
	return slashResponse{
		ResponseType: responseInChannel,
		Attachments:  slack.WatcherAttachments(list),
	}
}

// Actions handles POST /v1/slack/actions: the interactive button callbacks
// from the watcher-management attachments (cancel, silence, unsilence,
// show results).
func (h *SlackHandler) Actions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationBadRequest,
			"malformed form body", err))
		return
	}

	var payload actionPayload
	if err := json.Unmarshal([]byte(r.PostFormValue("payload")), &payload); err != nil {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationBadRequest,
			"malformed action payload", err))
		return
	}

	if payload.CallbackID != slack.CallbackWatcherManage || len(payload.Actions) == 0 {
		h.respond(w, r, slashResponse{Text: "Sorry, I didn't get that!"})
		return
	}

	action := payload.Actions[0]
	ctx := r.Context()

	switch action.Name {
	case "cancel":
		if err := h.service.Cancel(ctx, action.Value); err != nil {
			core.Error(w, r, err)
			return
		}
		h.respond(w, r, h.listWatchersResponse(ctx))

	case "results":
		watcher, err := h.service.Get(ctx, action.Value)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		h.respond(w, r, slashResponse{
			Text:        "Results for " + watcher.CampgroundTag + " on " + watcher.Start,
			Attachments: slack.ResultsAttachments(watcher.Results),
		})

	case "silence":
		watcher, err := h.service.SetSilenced(ctx, action.Value, true)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		h.respond(w, r, slashResponse{
			Text: "Silenced watcher, will no longer message <@" + watcher.UserID + ">!",
		})

	case "unsilence":
		watcher, err := h.service.SetSilenced(ctx, action.Value, false)
		if err != nil {
			core.Error(w, r, err)
			return
		}
		h.respond(w, r, slashResponse{
			Text: "Unsilenced watcher, will now message <@" + watcher.UserID + "> with results!",
		})

	default:
		h.respond(w, r, slashResponse{Text: "Sorry, I didn't get that!"})
	}
}

// respond writes a Slack-facing JSON body. Slash command responses are always
// HTTP 200; errors are conveyed in the message text.
func (h *SlackHandler) respond(w http.ResponseWriter, r *http.Request, resp slashResponse) {
	core.JSON(w, r, http.StatusOK, resp)
}
