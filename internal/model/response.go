package model

type MessageResponse struct {
	Message string `json:"message"`
}

type AdminResponse struct {
	Message string     `json:"message"`
	User    PublicUser `json:"user"`
}
