package models

import "time"

// TagView is a resolved hashtag as returned to clients.
type TagView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// MediaView is an attachment as returned to clients.
type MediaView struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// PostView is a post projected for a reader: references resolved, counts attached.
type PostView struct {
	ID            uint            `json:"id"`
	AuthorID      uint            `json:"author_id"`
	Author        *PublicProfile  `json:"author,omitempty"`
	Body          string          `json:"body"`
	Audience      Audience        `json:"audience"`
	ParentID      *uint           `json:"parent_id"`
	Kind          PostKind        `json:"kind"`
	Media         []MediaView     `json:"media"`
	Hashtags      []TagView       `json:"hashtags"`
	Mentions      []PublicProfile `json:"mentions"`
	GuestViews    int64           `json:"guest_views"`
	UserViews     int64           `json:"user_views"`
	LikeCount     int64           `json:"like_count"`
	BookmarkCount int64           `json:"bookmark_count"`
	ReshareCount  int64           `json:"reshare_count"`
	ReplyCount    int64           `json:"reply_count"`
	QuoteCount    int64           `json:"quote_count"`
	Liked         bool            `json:"liked"`
	Bookmarked    bool            `json:"bookmarked"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Page is one ordered page of post views plus the total number of matches.
type Page struct {
	Posts []PostView `json:"data"`
	Total int64      `json:"total"`
}

// EmptyPage returns a page with no posts and the given total.
func EmptyPage(total int64) *Page {
	return &Page{Posts: []PostView{}, Total: total}
}

// IDs returns the ids of the posts on the page in order.
func (p *Page) IDs() []uint {
	ids := make([]uint, 0, len(p.Posts))
	for _, v := range p.Posts {
		ids = append(ids, v.ID)
	}
	return ids
}
