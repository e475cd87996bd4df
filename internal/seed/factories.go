package seed

import (
	"fmt"
	"strings"

	"chirp/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

// GenerateOptions sizes a generated scenario. The same Seed yields the same scenario.
type GenerateOptions struct {
	Users int
	Posts int
	Seed  int64
}

var topics = []string{
	"golang", "postgres", "redis", "kafka", "devops", "cloud", "music", "movies",
	"books", "travel", "food", "fitness", "gaming", "art", "science", "startups",
}

// Generate builds a random but reproducible scenario: a follow mesh, small
// circles and a post stream mixing originals, replies, quotes and reshares.
func Generate(opts GenerateOptions) *Scenario {
	if opts.Users < 2 {
		opts.Users = 2
	}
	f := gofakeit.New(opts.Seed)

	sc := &Scenario{Users: make([]UserSpec, 0, opts.Users), Posts: make([]PostSpec, 0, opts.Posts)}
	handles := make([]string, 0, opts.Users)

	for i := 0; i < opts.Users; i++ {
		handle := fmt.Sprintf("%s%03d", sanitizeHandle(f.Username()), i)
		handles = append(handles, handle)

		verify := "verified"
		switch n := f.Number(1, 20); {
		case n == 1:
			verify = "banned"
		case n <= 3:
			verify = "unverified"
		}

		sc.Users = append(sc.Users, UserSpec{
			Handle: handle,
			Name:   f.Name(),
			Email:  handle + "@example.com",
			Verify: verify,
		})
	}

	for i := range sc.Users {
		for j, other := range handles {
			if i == j {
				continue
			}
			if f.Number(1, 100) <= 30 {
				sc.Users[i].Follows = append(sc.Users[i].Follows, other)
			}
			if f.Number(1, 100) <= 10 {
				sc.Users[i].Circle = append(sc.Users[i].Circle, other)
			}
		}
	}

	for i := 0; i < opts.Posts; i++ {
		author := handles[f.Number(0, len(handles)-1)]
		p := PostSpec{
			Key:    fmt.Sprintf("p%04d", i+1),
			Author: author,
			Body:   truncateRunes(f.Sentence(f.Number(4, 16)), 280),
		}

		if f.Number(1, 100) <= 15 {
			p.Audience = "circle"
		}
		for n := f.Number(0, 2); n > 0; n-- {
			p.Hashtags = append(p.Hashtags, topics[f.Number(0, len(topics)-1)])
		}
		if f.Number(1, 100) <= 25 {
			kind := string(models.MediaImage)
			if f.Bool() {
				kind = string(models.MediaVideo)
			}
			p.Media = append(p.Media, MediaSpec{
				URL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.UUID()),
				Kind: kind,
			})
		}
		if f.Number(1, 100) <= 10 {
			p.Mentions = append(p.Mentions, handles[f.Number(0, len(handles)-1)])
		}

		if i > 0 && f.Number(1, 100) <= 40 {
			p.Parent = sc.Posts[f.Number(0, i-1)].Key
			switch f.Number(1, 3) {
			case 1:
				p.Kind = string(models.PostKindReply)
			case 2:
				p.Kind = string(models.PostKindQuote)
			default:
				p.Kind = string(models.PostKindReshare)
				p.Body = ""
				p.Hashtags = nil
				p.Mentions = nil
				p.Media = nil
			}
		}

		for _, h := range handles {
			if h == author {
				continue
			}
			if f.Number(1, 100) <= 8 {
				p.Likes = append(p.Likes, h)
			}
			if f.Number(1, 100) <= 3 {
				p.Bookmarks = append(p.Bookmarks, h)
			}
		}

		sc.Posts = append(sc.Posts, p)
	}

	return sc
}

// sanitizeHandle keeps the characters usernames allow and a letter at the start.
func sanitizeHandle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || out[0] < 'a' {
		out = "user" + out
	}
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
