package search

import (
	"unicode/utf8"

	"dex-info-search/internal/resolver"
)

// Message identifies the text shown under a result list.
type Message int

const (
	MessageNone Message = iota
	MessageLoading
	MessageNoResults
	MessageWatchlistEmpty
	MessageSearchHint
)

// ErrorBanner is shown above both lists while the fetch is errored.
const ErrorBanner = "Error occurred, please try again"

var messageNames = map[Message]string{
	MessageNone:           "",
	MessageLoading:        "loading",
	MessageNoResults:      "no-results",
	MessageWatchlistEmpty: "watchlist-empty",
	MessageSearchHint:     "search-hint",
}

var messageText = map[Message]string{
	MessageNoResults:      "No results",
	MessageWatchlistEmpty: "Saved tokens will appear here",
	MessageSearchHint:     "Search liquidity pairs or tokens",
}

// String returns the wire identifier of the message.
func (m Message) String() string {
	return messageNames[m]
}

// Text returns the English text, empty for none and loading.
func (m Message) Text() string {
	return messageText[m]
}

// SlotInput describes one list for message selection.
type SlotInput struct {
	Mode      Mode
	Debounced string // settled query
	Items     int    // items after selection
	Loading   bool   // fetch pending, or watchlist data not loaded in watchlist mode
	Errored   bool   // last fetch failed
	MinChars  int    // shortest searchable query
}

// ListMessage picks the message for a list. Loading wins over an empty
// result, which wins over the short-query hint. A failed fetch suppresses
// the search-mode empty result so it never shows beside ErrorBanner.
func ListMessage(in SlotInput) Message {
	if in.Loading && in.Debounced != "" {
		return MessageLoading
	}

	if in.Mode == ModeWatchlist {
		if in.Items == 0 && !in.Loading {
			return MessageWatchlistEmpty
		}
		return MessageNone
	}

	short := utf8.RuneCountInString(in.Debounced) < in.MinChars
	if in.Items == 0 && !in.Loading && !short && !in.Errored {
		return MessageNoResults
	}
	if short {
		return MessageSearchHint
	}
	return MessageNone
}

// State is the fetch state of the lists.
type State int

const (
	StateIdle State = iota
	StatePending
	StateReady
	StateErrored
)

var stateNames = map[State]string{
	StateIdle:    "idle",
	StatePending: "pending",
	StateReady:   "ready",
	StateErrored: "errored",
}

// String returns the wire name of the state.
func (s State) String() string {
	return stateNames[s]
}

// FetchState derives the state from a tracker snapshot.
func FetchState(snap resolver.Snapshot) State {
	switch {
	case snap.Query == "":
		return StateIdle
	case snap.Loading:
		return StatePending
	case snap.Err != nil:
		return StateErrored
	default:
		return StateReady
	}
}
