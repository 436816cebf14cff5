package domain

import "strings"

// NoTags is rendered in place of an empty tag list.
const NoTags = "none"

// CaptionResult is the outcome of a successful pipeline run.
type CaptionResult struct {
	Caption string
	Tags    []string
}

// TagsString joins the tags with ", " or returns NoTags when there are none.
func (r CaptionResult) TagsString() string {
	if len(r.Tags) == 0 {
		return NoTags
	}
	return strings.Join(r.Tags, ", ")
}
