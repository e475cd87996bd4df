package service

import "chirp/internal/models"

// CanView decides whether viewer may read post. author is the post's author, or nil
// when the account no longer exists.
//
// A false result with a nil error means the viewer is authenticated but outside the
// author's circle. Anonymous readers of circle posts get AUTHENTICATION_REQUIRED and
// circle posts of banned or missing authors get AUTHOR_UNAVAILABLE.
func CanView(viewer models.ViewerContext, post *models.Post, author *models.AuthorSnapshot) (bool, error) {
	if post.Audience == models.AudienceEveryone {
		return true, nil
	}
	if !viewer.Anonymous() && viewer.UserID == post.AuthorID {
		return true, nil
	}
	if post.Audience != models.AudienceAuthorCircle {
		return false, nil
	}
	if viewer.Anonymous() {
		return false, models.NewAuthenticationRequiredError("Sign in to view this post")
	}
	if author == nil || author.Banned() {
		return false, models.NewAuthorUnavailableError(post.AuthorID)
	}
	return author.InCircle(viewer.UserID), nil
}

// ensureVisible is CanView with the denial turned into FORBIDDEN.
func ensureVisible(viewer models.ViewerContext, post *models.Post, author *models.AuthorSnapshot) error {
	ok, err := CanView(viewer, post, author)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("This post is limited to the author's circle")
	}
	return nil
}
