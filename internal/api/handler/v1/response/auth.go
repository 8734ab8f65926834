package response

import "github.com/eventra-app/eventra-api/internal/domain"

type Auth struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}
