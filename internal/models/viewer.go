package models

// ViewerContext identifies who is reading. A zero UserID is an anonymous guest.
type ViewerContext struct {
	UserID uint
	Verify VerifyStatus
}

// Guest returns the anonymous viewer.
func Guest() ViewerContext {
	return ViewerContext{}
}

// Anonymous reports whether no user is attached.
func (v ViewerContext) Anonymous() bool {
	return v.UserID == 0
}

// Verified reports whether the viewer is a verified account.
func (v ViewerContext) Verified() bool {
	return !v.Anonymous() && v.Verify == VerifyVerified
}

// AuthorSnapshot is the slice of an author needed for visibility decisions.
type AuthorSnapshot struct {
	ID     uint
	Verify VerifyStatus
	Circle map[uint]struct{}
}

// Banned reports whether the author account is banned.
func (a *AuthorSnapshot) Banned() bool {
	return a.Verify == VerifyBanned
}

// InCircle reports whether userID is a member of the author's circle.
func (a *AuthorSnapshot) InCircle(userID uint) bool {
	_, ok := a.Circle[userID]
	return ok
}
