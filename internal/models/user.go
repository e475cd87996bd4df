package models

import "time"

// VerifyStatus is the account verification state.
type VerifyStatus int

const (
	VerifyUnverified VerifyStatus = 0
	VerifyVerified   VerifyStatus = 1
	VerifyBanned     VerifyStatus = 2
)

func (s VerifyStatus) String() string {
	switch s {
	case VerifyVerified:
		return "verified"
	case VerifyBanned:
		return "banned"
	default:
		return "unverified"
	}
}

// User is an account. Only the PublicProfile projection is ever returned to other users.
type User struct {
	ID                  uint         `gorm:"primaryKey" json:"id"`
	Name                string       `gorm:"not null" json:"name"`
	Username            string       `gorm:"uniqueIndex;not null" json:"username"`
	Email               string       `gorm:"uniqueIndex;not null" json:"-"`
	Password            string       `gorm:"not null" json:"-"`
	Avatar              string       `json:"avatar"`
	Verify              VerifyStatus `gorm:"not null;default:0;index" json:"-"`
	EmailVerifyToken    string       `json:"-"`
	ForgotPasswordToken string       `json:"-"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// PublicProfile is the only user shape embedded in post views.
type PublicProfile struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Profile projects u to its public fields.
func (u *User) Profile() PublicProfile {
	return PublicProfile{ID: u.ID, Name: u.Name, Username: u.Username, Avatar: u.Avatar}
}

// CircleMember records that MemberID belongs to OwnerID's circle.
type CircleMember struct {
	OwnerID   uint      `gorm:"primaryKey;autoIncrement:false"`
	MemberID  uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow is a directed follow edge.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false" json:"follower_id"`
	FollowedID uint      `gorm:"primaryKey;autoIncrement:false;index" json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}
