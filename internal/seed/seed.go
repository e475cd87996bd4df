package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chirp/internal/middleware"
	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/service"
	"chirp/internal/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is used for scenario users that do not set one.
const DefaultPassword = "Chirp-Seed-2024"

// Options configuration for the seeder
type Options struct {
	// SkipBcrypt stores DefaultPassword hashed at MinCost. Tests use it to stay fast.
	SkipBcrypt bool
	// Now anchors post timestamps; the last post is created one minute before it.
	Now time.Time
}

// Result maps scenario handles and keys to the stored rows.
type Result struct {
	Users map[string]*models.User
	Posts map[string]*models.Post
}

// Seeder applies scenarios to a database.
type Seeder struct {
	db   *gorm.DB
	opts Options
}

func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}
	return &Seeder{db: db, opts: opts}
}

// Apply stores sc in one transaction. Either every row is written or none.
func (s *Seeder) Apply(ctx context.Context, sc *Scenario) (*Result, error) {
	res := &Result{
		Users: make(map[string]*models.User, len(sc.Users)),
		Posts: make(map[string]*models.Post, len(sc.Posts)),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.createUsers(tx, sc.Users, res); err != nil {
			return err
		}
		if err := s.createEdges(tx, sc.Users, res); err != nil {
			return err
		}
		return s.createPosts(ctx, tx, sc.Posts, res)
	})
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "seed applied",
		slog.Int("users", len(res.Users)),
		slog.Int("posts", len(res.Posts)),
	)
	return res, nil
}

func (s *Seeder) hash(password string) (string, error) {
	cost := bcrypt.DefaultCost
	if s.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func (s *Seeder) createUsers(tx *gorm.DB, entries []UserSpec, res *Result) error {
	for _, entry := range entries {
		if err := validation.ValidateUsername(entry.Handle); err != nil {
			return fmt.Errorf("user %q: %w", entry.Handle, err)
		}
		if _, dup := res.Users[entry.Handle]; dup {
			return fmt.Errorf("user %q declared twice", entry.Handle)
		}

		email := entry.Email
		if email == "" {
			email = entry.Handle + "@chirp.local"
		}
		if err := validation.ValidateEmail(email); err != nil {
			return fmt.Errorf("user %q: %w", entry.Handle, err)
		}

		password := entry.Password
		if password == "" {
			password = DefaultPassword
		}
		if err := validation.ValidatePassword(password); err != nil {
			return fmt.Errorf("user %q: %w", entry.Handle, err)
		}
		hashed, err := s.hash(password)
		if err != nil {
			return err
		}

		verify, err := parseVerify(entry.Verify)
		if err != nil {
			return fmt.Errorf("user %q: %w", entry.Handle, err)
		}

		name := entry.Name
		if name == "" {
			name = entry.Handle
		}
		avatar := entry.Avatar
		if avatar == "" {
			avatar = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", entry.Handle)
		}

		user := &models.User{
			Name:     name,
			Username: entry.Handle,
			Email:    email,
			Password: hashed,
			Avatar:   avatar,
			Verify:   verify,
		}
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user %q: %w", entry.Handle, err)
		}
		res.Users[entry.Handle] = user
	}
	return nil
}

func (s *Seeder) createEdges(tx *gorm.DB, entries []UserSpec, res *Result) error {
	for _, entry := range entries {
		owner := res.Users[entry.Handle]

		for _, handle := range entry.Circle {
			member, err := lookupUser(res, handle)
			if err != nil {
				return fmt.Errorf("circle of %q: %w", entry.Handle, err)
			}
			if err := tx.Create(&models.CircleMember{OwnerID: owner.ID, MemberID: member.ID}).Error; err != nil {
				return err
			}
		}

		for _, handle := range entry.Follows {
			followed, err := lookupUser(res, handle)
			if err != nil {
				return fmt.Errorf("follows of %q: %w", entry.Handle, err)
			}
			if followed.ID == owner.ID {
				continue
			}
			if err := tx.Create(&models.Follow{FollowerID: owner.ID, FollowedID: followed.ID}).Error; err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Seeder) createPosts(ctx context.Context, tx *gorm.DB, entries []PostSpec, res *Result) error {
	tags := repository.NewTagRepository(tx, 0)
	clock := s.opts.Now.Add(-time.Duration(len(entries)+1) * time.Minute)

	for i, entry := range entries {
		key := entry.Key
		if key == "" {
			key = fmt.Sprintf("post-%d", i+1)
		}
		if _, dup := res.Posts[key]; dup {
			return fmt.Errorf("post %q declared twice", key)
		}

		author, err := lookupUser(res, entry.Author)
		if err != nil {
			return fmt.Errorf("post %q: %w", key, err)
		}

		var parentID *uint
		if entry.Parent != "" {
			parent, ok := res.Posts[entry.Parent]
			if !ok {
				return fmt.Errorf("post %q: parent %q must be declared earlier", key, entry.Parent)
			}
			id := parent.ID
			parentID = &id
		}

		mentions := make([]uint, 0, len(entry.Mentions))
		for _, handle := range entry.Mentions {
			u, err := lookupUser(res, handle)
			if err != nil {
				return fmt.Errorf("post %q: %w", key, err)
			}
			mentions = append(mentions, u.ID)
		}

		media := make([]validation.MediaDraft, 0, len(entry.Media))
		for _, m := range entry.Media {
			media = append(media, validation.MediaDraft{URL: m.URL, Kind: models.MediaKind(m.Kind)})
		}

		draft := validation.PostDraft{
			Kind:     parseKind(entry.Kind),
			Audience: parseAudience(entry.Audience),
			Body:     entry.Body,
			ParentID: parentID,
			Hashtags: entry.Hashtags,
			Mentions: mentions,
			Media:    media,
		}
		if err := validation.ValidatePostDraft(draft); err != nil {
			return fmt.Errorf("post %q: %w", key, err)
		}

		clock = clock.Add(time.Minute)
		post := &models.Post{
			AuthorID:  author.ID,
			Body:      draft.Body,
			Audience:  draft.Audience,
			Kind:      draft.Kind,
			ParentID:  parentID,
			CreatedAt: clock,
			UpdatedAt: clock,
		}

		if len(entry.Hashtags) > 0 {
			names, err := service.NormalizeTags(entry.Hashtags)
			if err != nil {
				return fmt.Errorf("post %q: %w", key, err)
			}
			resolved, err := tags.UpsertByNames(ctx, names)
			if err != nil {
				return fmt.Errorf("post %q: %w", key, err)
			}
			for pos, t := range resolved {
				post.Tags = append(post.Tags, models.PostTag{Position: pos, TagID: t.ID})
			}
		}
		for pos, id := range mentions {
			post.Mentions = append(post.Mentions, models.PostMention{Position: pos, UserID: id})
		}
		for pos, m := range media {
			post.Media = append(post.Media, models.PostMedia{Position: pos, URL: m.URL, Kind: m.Kind})
		}

		if err := tx.Create(post).Error; err != nil {
			return fmt.Errorf("create post %q: %w", key, err)
		}
		res.Posts[key] = post

		if err := createMarks(tx, res, key, post.ID, entry.Likes, func(postID, userID uint) any {
			return &models.Like{PostID: postID, UserID: userID}
		}); err != nil {
			return err
		}
		if err := createMarks(tx, res, key, post.ID, entry.Bookmarks, func(postID, userID uint) any {
			return &models.Bookmark{PostID: postID, UserID: userID}
		}); err != nil {
			return err
		}
	}
	return nil
}

func createMarks(tx *gorm.DB, res *Result, key string, postID uint, handles []string, row func(postID, userID uint) any) error {
	for _, handle := range handles {
		u, err := lookupUser(res, handle)
		if err != nil {
			return fmt.Errorf("post %q: %w", key, err)
		}
		if err := tx.Create(row(postID, u.ID)).Error; err != nil {
			return err
		}
	}
	return nil
}

func lookupUser(res *Result, handle string) (*models.User, error) {
	u, ok := res.Users[handle]
	if !ok {
		return nil, fmt.Errorf("unknown user %q", handle)
	}
	return u, nil
}
