package validation

import (
	"strings"
	"testing"

	"chirp/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestValidatePostDraft(t *testing.T) {
	t.Parallel()
	parent := uint(9)
	image := MediaDraft{URL: "https://cdn.example.test/a.png", Kind: models.MediaImage}

	tests := []struct {
		name    string
		draft   PostDraft
		wantErr bool
	}{
		{"original with body", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Body: "hi"}, false},
		{"original with only a hashtag", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Hashtags: []string{"go"}}, false},
		{"original with only media", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Media: []MediaDraft{image}}, false},
		{"empty original", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone}, true},
		{"original with parent", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Body: "hi", ParentID: &parent}, true},
		{"reply without parent", PostDraft{Kind: models.PostKindReply, Audience: models.AudienceEveryone, Body: "hi"}, true},
		{"empty reply", PostDraft{Kind: models.PostKindReply, Audience: models.AudienceEveryone, ParentID: &parent}, true},
		{"reshare", PostDraft{Kind: models.PostKindReshare, Audience: models.AudienceEveryone, ParentID: &parent}, false},
		{"reshare with body", PostDraft{Kind: models.PostKindReshare, Audience: models.AudienceEveryone, ParentID: &parent, Body: "x"}, true},
		{"empty quote", PostDraft{Kind: models.PostKindQuote, Audience: models.AudienceAuthorCircle, ParentID: &parent}, false},
		{"unknown kind", PostDraft{Kind: "TWEET", Audience: models.AudienceEveryone, Body: "hi"}, true},
		{"unknown audience", PostDraft{Kind: models.PostKindOriginal, Audience: "FRIENDS", Body: "hi"}, true},
		{"body at limit", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Body: strings.Repeat("é", MaxBodyRunes)}, false},
		{"body too long", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Body: strings.Repeat("a", MaxBodyRunes+1)}, true},
		{"zero mention", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Mentions: []uint{0}}, true},
		{"bad media kind", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Media: []MediaDraft{{URL: image.URL, Kind: "GIF"}}}, true},
		{"relative media url", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Media: []MediaDraft{{URL: "/a.png", Kind: models.MediaImage}}}, true},
		{"too much media", PostDraft{Kind: models.PostKindOriginal, Audience: models.AudienceEveryone, Media: []MediaDraft{image, image, image, image, image}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePostDraft(tt.draft)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMediaURL(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateMediaURL("http://cdn.example.test/v/master.m3u8"))
	assert.Error(t, ValidateMediaURL("ftp://cdn.example.test/a.png"))
	assert.Error(t, ValidateMediaURL("not a url"))
}
