package slack

import (
	"fmt"
	"strings"

	"github.com/jacobstr/crusher/internal/types"
)

// campgroundURL deep-links to the upstream page for a campground.
const campgroundURL = "https://www.recreation.gov/camping/campgrounds/%s"

const (
	colorFound   = "#36a64f"
	colorLooking = "#ccbd22"
)

// CallbackWatcherManage is the callback_id carried by watcher-management
// attachments; the interactive-actions handler dispatches on it.
const CallbackWatcherManage = "watcher_manage"

// ResultsAttachments renders a result set as one attachment per candidate
// site. A full-stay match gets the coveted unicorn.
func ResultsAttachments(results []types.Result) []Attachment {
	attachments := make([]Attachment, 0, len(results))
	for _, result := range results {
		what := "site"
		if result.Fraction == 1 {
			what = ":unicorn_face:"
		}
		attachments = append(attachments, Attachment{
			Fallback:   "Campsite result.",
			Color:      colorFound,
			MarkdownIn: []string{"text"},
			Title: fmt.Sprintf("Found a %s on %s at %s site %s for %.0f%% of requested stay.",
				what,
				result.Date,
				result.Campground.ShortName,
				result.Campsite,
				result.Fraction*100,
			),
			TitleLink: result.URL,
		})
	}
	return attachments
}

// WatcherAttachments renders the active-watcher listing with management
// buttons (show results, silence/unsilence, remove).
func WatcherAttachments(watchers []types.Watcher) []Attachment {
	attachments := make([]Attachment, 0, len(watchers))
	for _, w := range watchers {
		var text string
		color := colorLooking
		if len(w.Results) > 0 {
			text = fmt.Sprintf("<@%s> found sites in *%s* from %s for %d night(s).",
				w.UserID, w.CampgroundTag, w.Start, w.Length)
			color = colorFound
		} else {
			text = fmt.Sprintf("<@%s> is looking in *%s* from %s for %d night(s).",
				w.UserID, w.CampgroundTag, w.Start, w.Length)
		}

		actions := []Action{
			{
				Name:  "cancel",
				Text:  "Remove",
				Style: "danger",
				Type:  "button",
				Value: w.ID,
				Confirm: &Confirm{
					Title:       "Are you sure?",
					Text:        "This will cancel scraping for this reservation.",
					OkText:      "Yes",
					DismissText: "No",
				},
			},
		}

		if w.Silenced {
			actions = prependAction(actions, Action{
				Name: "unsilence", Text: "Unsilence", Type: "button", Value: w.ID,
			})
		} else {
			actions = prependAction(actions, Action{
				Name: "silence", Text: "Silence", Type: "button", Value: w.ID,
			})
		}

		if len(w.Results) > 0 {
			actions = prependAction(actions, Action{
				Name: "results", Text: "Show Results", Type: "button", Style: "primary", Value: w.ID,
			})
		}

		attachments = append(attachments, Attachment{
			Fallback:   "Active campsite watcher.",
			Color:      color,
			Text:       text,
			MarkdownIn: []string{"text", "pretext"},
			CallbackID: CallbackWatcherManage,
			Actions:    actions,
		})
	}
	return attachments
}

// CampgroundAttachments renders campground metadata, optionally filtered to
// those matching any of the given tags.
func CampgroundAttachments(campgrounds []types.Campground, tags []string) []Attachment {
	var attachments []Attachment
	for _, cg := range campgrounds {
		if len(tags) > 0 && !anyTagMatch(cg, tags) {
			continue
		}
		attachments = append(attachments, Attachment{
			Fallback:   "Campground metadata.",
			MarkdownIn: []string{"text"},
			Title:      cg.ShortName,
			TitleLink:  fmt.Sprintf(campgroundURL, cg.ID),
			Fields: []Field{
				{Title: "tags", Value: strings.Join(cg.Tags, ", "), Short: true},
			},
		})
	}
	return attachments
}

func anyTagMatch(cg types.Campground, tags []string) bool {
	for _, tag := range tags {
		if cg.HasTag(tag) {
			return true
		}
	}
	return false
}

func prependAction(actions []Action, a Action) []Action {
	return append([]Action{a}, actions...)
}
