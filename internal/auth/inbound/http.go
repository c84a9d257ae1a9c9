package inbound

import (
	"context"

	"github.com/smartfin/smartauth/internal/auth/usecase"
	"github.com/smartfin/smartauth/internal/pkg/router"
)

type uc interface {
	SignupInit(ctx context.Context, in usecase.SignupInitInput) (*usecase.SignupInitOutput, error)
	SignupVerify(ctx context.Context, in usecase.SignupVerifyInput) (*usecase.SignupVerifyOutput, error)
	SignupResend(ctx context.Context, in usecase.SignupResendInput) (*usecase.SignupResendOutput, error)

	Login(ctx context.Context, in usecase.LoginInput) (*usecase.LoginOutput, error)
	Profile(ctx context.Context) (*usecase.ProfileOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	// Signup
	r.POST("/api/v1/auth/signup-init", end.SignupInit)
	r.POST("/api/v1/auth/verify-signup", end.SignupVerify)
	r.POST("/api/v1/auth/resend-otp", end.SignupResend)

	// Session
	r.POST("/api/v1/auth/login", end.Login)

	// Profile (need authenticated)
	r.GET("/api/v1/auth/profile", end.Profile)
}
