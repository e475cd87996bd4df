// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// Audience controls who may read a post.
type Audience string

const (
	AudienceEveryone     Audience = "EVERYONE"
	AudienceAuthorCircle Audience = "AUTHOR_CIRCLE"
)

// Valid reports whether a is a known audience.
func (a Audience) Valid() bool {
	return a == AudienceEveryone || a == AudienceAuthorCircle
}

// PostKind distinguishes originals from posts that hang off a parent.
type PostKind string

const (
	PostKindOriginal PostKind = "ORIGINAL"
	PostKindReshare  PostKind = "RESHARE"
	PostKindReply    PostKind = "REPLY"
	PostKindQuote    PostKind = "QUOTE"
)

// Valid reports whether k is a known kind.
func (k PostKind) Valid() bool {
	switch k {
	case PostKindOriginal, PostKindReshare, PostKindReply, PostKindQuote:
		return true
	}
	return false
}

// IsChild reports whether posts of this kind must reference a parent.
func (k PostKind) IsChild() bool {
	return k == PostKindReshare || k == PostKindReply || k == PostKindQuote
}

// MediaKind identifies the type of an attachment.
type MediaKind string

const (
	MediaImage MediaKind = "IMAGE"
	MediaVideo MediaKind = "VIDEO"
	MediaHLS   MediaKind = "HLS"
)

// MediaKinds lists every kind that counts as media for search filtering.
var MediaKinds = []MediaKind{MediaImage, MediaVideo, MediaHLS}

// Valid reports whether m is a known media kind.
func (m MediaKind) Valid() bool {
	return m == MediaImage || m == MediaVideo || m == MediaHLS
}

// Post is the stored record of a piece of content.
// Tags, mentions and media keep their author-supplied order through Position.
type Post struct {
	ID         uint          `gorm:"primaryKey;index:idx_posts_timeline,priority:2,sort:desc" json:"id"`
	AuthorID   uint          `gorm:"not null;index" json:"author_id"`
	Body       string        `gorm:"type:text;not null;default:''" json:"body"`
	Audience   Audience      `gorm:"type:varchar(20);not null;index" json:"audience"`
	ParentID   *uint         `gorm:"index:idx_posts_parent_kind,priority:1" json:"parent_id"`
	Kind       PostKind      `gorm:"type:varchar(20);not null;index:idx_posts_parent_kind,priority:2" json:"kind"`
	Media      []PostMedia   `gorm:"foreignKey:PostID" json:"-"`
	Tags       []PostTag     `gorm:"foreignKey:PostID" json:"-"`
	Mentions   []PostMention `gorm:"foreignKey:PostID" json:"-"`
	GuestViews int64         `gorm:"not null;default:0" json:"guest_views"`
	UserViews  int64         `gorm:"not null;default:0" json:"user_views"`
	CreatedAt  time.Time     `gorm:"index:idx_posts_timeline,priority:1,sort:desc" json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// PostMedia is one ordered attachment of a post.
type PostMedia struct {
	PostID   uint      `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Position int       `gorm:"primaryKey;autoIncrement:false" json:"-"`
	URL      string    `gorm:"not null" json:"url"`
	Kind     MediaKind `gorm:"type:varchar(10);not null;index" json:"kind"`
}

func (PostMedia) TableName() string { return "post_media" }

// PostTag links a post to a tag at a given position.
type PostTag struct {
	PostID   uint `gorm:"primaryKey;autoIncrement:false"`
	Position int  `gorm:"primaryKey;autoIncrement:false"`
	TagID    uint `gorm:"not null;index"`
}

// PostMention links a post to a mentioned user at a given position.
type PostMention struct {
	PostID   uint `gorm:"primaryKey;autoIncrement:false"`
	Position int  `gorm:"primaryKey;autoIncrement:false"`
	UserID   uint `gorm:"not null;index"`
}

// TagIDs returns the post's tag ids in author order.
func (p *Post) TagIDs() []uint {
	ids := make([]uint, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.TagID)
	}
	return ids
}

// MentionIDs returns the mentioned user ids in author order.
func (p *Post) MentionIDs() []uint {
	ids := make([]uint, 0, len(p.Mentions))
	for _, m := range p.Mentions {
		ids = append(ids, m.UserID)
	}
	return ids
}

// IsChild reports whether the post references a parent.
func (p *Post) IsChild() bool {
	return p.ParentID != nil
}

// ViewCounts is the authoritative counter state of one post.
type ViewCounts struct {
	PostID     uint      `json:"post_id"`
	GuestViews int64     `json:"guest_views"`
	UserViews  int64     `json:"user_views"`
	UpdatedAt  time.Time `json:"updated_at"`
}
