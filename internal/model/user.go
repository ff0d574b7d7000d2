package model

// User is an entry in the backend's user directory
type User struct {
	Base
	Name  string `json:"name" db:"name"`
	Email string `json:"email" db:"email"`
	Phone string `json:"phone" db:"phone"`
}

// CreateUserRequest is the sign-up form
type CreateUserRequest struct {
	Name  string `json:"name" form:"name" validate:"required,min=2,max=50"`
	Email string `json:"email" form:"email" validate:"required,email"`
	Phone string `json:"phone" form:"phone" validate:"required,phone"`
}

// NewUser is a validated sign-up with the phone number in E.164 form
type NewUser struct {
	Name  string
	Email string
	Phone string
}
