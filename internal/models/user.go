package models

import "time"

// User is an administrator account of the backend.
//
// AccessToken holds the single session token that is currently valid for the
// user. ResetOTP and ResetOTPExpires are set together by a forgot-password
// request and cleared together by a successful reset.
type User struct {
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	AccessToken     *string    `json:"access_token,omitempty"`
	ResetOTP        *string    `json:"reset_otp,omitempty"`
	ResetOTPExpires *time.Time `json:"reset_otp_expires,omitempty"`
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	PasswordHash    string     `json:"password_hash"`
}

// PublicUser is the projection of a user that is safe to return to clients.
type PublicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public returns the client-facing projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// HasSession reports whether token is the session token stored for the user.
func (u *User) HasSession(token string) bool {
	return u.AccessToken != nil && token != "" && *u.AccessToken == token
}

// SetSession replaces the stored session token.
func (u *User) SetSession(token string) {
	u.AccessToken = &token
}

// ClearSession drops the stored session token.
func (u *User) ClearSession() {
	u.AccessToken = nil
}

// SetResetOTP stores a one-time reset code together with its expiry.
func (u *User) SetResetOTP(code string, expires time.Time) {
	u.ResetOTP = &code
	u.ResetOTPExpires = &expires
}

// ClearResetOTP drops the one-time reset code and its expiry.
func (u *User) ClearResetOTP() {
	u.ResetOTP = nil
	u.ResetOTPExpires = nil
}
