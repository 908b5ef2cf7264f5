package models

import (
	"crypto/rand"
	"errors"
	"math/big"
	"time"

	"gorm.io/gorm"
)

// ErrInvitationExpired is returned when accepting an invitation past its
// expiry.
var ErrInvitationExpired = errors.New("this invitation has expired")

const (
	// InvitationTokenLength is the length of the opaque invite token.
	InvitationTokenLength = 32

	// InvitationTTL is how long a fresh invitation stays acceptable.
	InvitationTTL = 7 * 24 * time.Hour
)

// TeamInvitation is a pending, tokenized offer to join a team. The row
// existing means pending: accepting and rejecting both delete it, and
// "expired" is a derived condition on a still-present row.
//
// No soft delete, for the same reason as TeamMember: a rejected address
// must be invitable again.
type TeamInvitation struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	TeamID    uint      `gorm:"not null;index" json:"team_id"`
	Email     string    `gorm:"not null;index" json:"email"`
	Role      TeamRole  `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	Token     string    `gorm:"uniqueIndex;not null" json:"token"`
	InvitedBy uint      `gorm:"not null" json:"invited_by"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`

	// Relations
	Team    Team `json:"-"`
	Inviter User `gorm:"foreignKey:InvitedBy" json:"-"`
}

// BeforeCreate fills in the token and expiry when the caller did not
// supply them. Explicit values (seeders, tests) are kept as-is.
func (i *TeamInvitation) BeforeCreate(tx *gorm.DB) error {
	if i.Token == "" {
		token, err := generateInvitationToken(InvitationTokenLength)
		if err != nil {
			return err
		}
		i.Token = token
	}
	if i.ExpiresAt.IsZero() {
		i.ExpiresAt = timeNow().Add(InvitationTTL)
	}
	return nil
}

// IsExpired reports whether the invitation's expiry instant has passed.
func (i *TeamInvitation) IsExpired() bool {
	return i.ExpiresAt.Before(timeNow())
}

// Accept adds the user to the invitation's team with the invitation's
// role and deletes the invitation. Fails with ErrInvitationExpired on a
// stale invitation, leaving membership untouched.
func (i *TeamInvitation) Accept(db *gorm.DB, user *User) error {
	if i.IsExpired() {
		return ErrInvitationExpired
	}

	var team Team
	if err := db.First(&team, i.TeamID).Error; err != nil {
		return err
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if _, err := team.AddMember(tx, user, i.Role); err != nil {
			return err
		}
		return tx.Delete(i).Error
	})
}

// Reject deletes the invitation without side effects, expired or not.
func (i *TeamInvitation) Reject(db *gorm.DB) error {
	return db.Delete(i).Error
}

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

func generateInvitationToken(length int) (string, error) {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
