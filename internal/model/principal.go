package model

type Principal struct {
	UserID int64
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}
