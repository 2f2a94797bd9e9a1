package model

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
	Ctime        int64  `json:"createdAt"`
	Mtime        int64  `json:"updatedAt"`
}
