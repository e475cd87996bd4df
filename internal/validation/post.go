// Package validation provides input validation utilities
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"unicode/utf8"

	"chirp/internal/models"
)

// Limits on authored posts.
const (
	MaxBodyRunes    = 280
	MaxHashtags     = 20
	MaxMentions     = 20
	MaxMediaPerPost = 4
)

// MediaDraft is an attachment as submitted by an author.
type MediaDraft struct {
	URL  string
	Kind models.MediaKind
}

// PostDraft is an unsaved post. Body is expected to be sanitised already.
type PostDraft struct {
	Kind     models.PostKind
	Audience models.Audience
	Body     string
	ParentID *uint
	Hashtags []string
	Mentions []uint
	Media    []MediaDraft
}

// ValidatePostDraft checks the structural rules every stored post must satisfy.
func ValidatePostDraft(d PostDraft) error {
	if !d.Kind.Valid() {
		return fmt.Errorf("kind must be one of ORIGINAL, RESHARE, REPLY, QUOTE")
	}
	if !d.Audience.Valid() {
		return fmt.Errorf("audience must be EVERYONE or AUTHOR_CIRCLE")
	}

	if d.Kind.IsChild() && d.ParentID == nil {
		return fmt.Errorf("%s posts need a parent_id", d.Kind)
	}
	if !d.Kind.IsChild() && d.ParentID != nil {
		return errors.New("original posts cannot have a parent_id")
	}

	if utf8.RuneCountInString(d.Body) > MaxBodyRunes {
		return fmt.Errorf("body must not exceed %d characters", MaxBodyRunes)
	}

	switch d.Kind {
	case models.PostKindReshare:
		if d.Body != "" || len(d.Hashtags) > 0 || len(d.Mentions) > 0 || len(d.Media) > 0 {
			return errors.New("reshares cannot carry a body, hashtags, mentions or media")
		}
	case models.PostKindOriginal, models.PostKindReply:
		if d.Body == "" && len(d.Hashtags) == 0 && len(d.Mentions) == 0 && len(d.Media) == 0 {
			return errors.New("post needs a body, a hashtag, a mention or media")
		}
	}

	if len(d.Hashtags) > MaxHashtags {
		return fmt.Errorf("at most %d hashtags are allowed", MaxHashtags)
	}
	if len(d.Mentions) > MaxMentions {
		return fmt.Errorf("at most %d mentions are allowed", MaxMentions)
	}
	for _, id := range d.Mentions {
		if id == 0 {
			return errors.New("mentions must reference users")
		}
	}

	if len(d.Media) > MaxMediaPerPost {
		return fmt.Errorf("at most %d media attachments are allowed", MaxMediaPerPost)
	}
	for _, m := range d.Media {
		if !m.Kind.Valid() {
			return fmt.Errorf("media kind must be IMAGE, VIDEO or HLS")
		}
		if err := ValidateMediaURL(m.URL); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMediaURL requires an absolute http(s) URL.
func ValidateMediaURL(raw string) error {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("media url must be an absolute http(s) URL")
	}
	return nil
}
