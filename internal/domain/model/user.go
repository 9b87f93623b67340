package model

import "time"

// User is an authenticated caller of the payment API.
type User struct {
	ID                 int64
	Login              string
	PasswordHash       string
	IsStaff            bool
	ExternalCustomerID *string
	CreatedAt          time.Time
}

// CustomerRef returns the stored card-gateway customer id or an empty string.
func (u *User) CustomerRef() string {
	if u == nil || u.ExternalCustomerID == nil {
		return ""
	}
	return *u.ExternalCustomerID
}
