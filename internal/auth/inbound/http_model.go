package inbound

import (
	"net/http"
	"time"
)

type SignupInitRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupInitResponse struct {
	Email string `json:"email"`
}

func (SignupInitResponse) Message() string {
	return "Verification code sent. Please check your email."
}

type SignupVerifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type SignupVerifyResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func (SignupVerifyResponse) Message() string {
	return "Account created successfully."
}

func (SignupVerifyResponse) StatusCode() int {
	return http.StatusCreated
}

type SignupResendRequest struct {
	Email string `json:"email"`
}

type SignupResendResponse struct {
	Email string `json:"email"`
}

func (SignupResendResponse) Message() string {
	return "A new verification code has been sent. Please check your email."
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID    int64  `json:"id,string"`
	Email string `json:"email"`
}

type ProfileResponse struct {
	ID        int64     `json:"id,string"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
