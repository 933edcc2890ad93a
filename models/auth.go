package models

type Credentials struct {
	Password string `json:"password"`
}
