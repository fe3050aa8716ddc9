package user

// User is a registered account. The password hash never leaves the server,
// it is excluded from JSON marshaling.
type User struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Author is the public user summary embedded in blog and comment payloads.
type Author struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u *User) AsAuthor() Author {
	return Author{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
	}
}
