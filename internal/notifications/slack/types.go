// Package slack implements the Slack Web API notification channel: posting
// result and watcher-management messages via chat.postMessage, and formatting
// the legacy-attachment payloads the bot uses for interactive buttons.
package slack

// Message is the chat.postMessage request body.
type Message struct {
	Channel     string       `json:"channel"`
	Username    string       `json:"username,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a Slack legacy message attachment. The bot uses attachments
// rather than Block Kit because interactive attachment actions (buttons with
// a callback_id) drive the watcher-management flow.
type Attachment struct {
	Fallback   string   `json:"fallback"`
	Color      string   `json:"color,omitempty"`
	Title      string   `json:"title,omitempty"`
	TitleLink  string   `json:"title_link,omitempty"`
	Text       string   `json:"text,omitempty"`
	MarkdownIn []string `json:"mrkdwn_in,omitempty"`
	CallbackID string   `json:"callback_id,omitempty"`
	Fields     []Field  `json:"fields,omitempty"`
	Actions    []Action `json:"actions,omitempty"`
}

// Field is a short key/value pair rendered in an attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Action is an interactive button attached to a message.
type Action struct {
	Name    string   `json:"name"`
	Text    string   `json:"text"`
	Type    string   `json:"type"`
	Value   string   `json:"value"`
	Style   string   `json:"style,omitempty"`
	Confirm *Confirm `json:"confirm,omitempty"`
}

// Confirm adds a confirmation dialog to an action.
type Confirm struct {
	Title       string `json:"title"`
	Text        string `json:"text"`
	OkText      string `json:"ok_text"`
	DismissText string `json:"dismiss_text"`
}

// apiResponse is the subset of the Slack Web API response we inspect.
// Slack reports soft failures as HTTP 200 with ok=false.
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}
