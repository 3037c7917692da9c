package model

import "encoding/json"

// User is a registered account. The password hash is an argon2id
// encoded string; handlers must convert to a DTO before responding
// so it never leaks into API output.
type User struct {
	Username     string
	Email        string
	PasswordHash string
	Lang         string
}

// PayloadKind implements Payload.
func (u *User) PayloadKind() Kind { return KindUser }

// userJSON carries the hash on the wire for store persistence only.
type userJSON struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash,omitempty"`
	Lang         string `json:"lang,omitempty"`
}

// MarshalJSON includes the password hash so the store can persist it.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userJSON{
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Lang:         u.Lang,
	})
}

// UnmarshalJSON restores the hash from persisted form.
func (u *User) UnmarshalJSON(b []byte) error {
	var raw userJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	u.Username = raw.Username
	u.Email = raw.Email
	u.PasswordHash = raw.PasswordHash
	u.Lang = raw.Lang
	return nil
}
