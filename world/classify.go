package world

import "strings"

// Classification says whether a scenario needs the API client, a browser page, or both.
type Classification int

const (
	API Classification = iota
	UI
)

func (c Classification) String() string {
	if c == UI {
		return "ui"
	}
	return "api"
}

// Tags that select a classification explicitly.
const (
	TagUI  = "@ui"
	TagAPI = "@api"
)

// Classify decides from a scenario name alone. A name containing "ui" or "web", in any case,
// is UI. Every other name is API, whether or not it contains "api".
func Classify(name string) Classification {
	lower := strings.ToLower(name)
	if strings.Contains(lower, "ui") || strings.Contains(lower, "web") {
		return UI
	}
	return API
}

// ClassifyTags uses the @ui or @api tag when the scenario has one, and Classify(name)
// otherwise. If both tags are present @ui wins, since a browser session also allows API calls.
func ClassifyTags(name string, tags []string) Classification {
	hasAPI := false
	for _, tag := range tags {
		switch strings.ToLower(tag) {
		case TagUI:
			return UI
		case TagAPI:
			hasAPI = true
		}
	}
	if hasAPI {
		return API
	}
	return Classify(name)
}
