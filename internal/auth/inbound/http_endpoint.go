package inbound

import (
	"github.com/smartfin/smartauth/internal/auth/usecase"
	"github.com/smartfin/smartauth/internal/pkg/router"
)

// HTTPEndpoint exposes HTTP handlers for the signup and login workflows.
type HTTPEndpoint struct {
	uc uc
}

// SignupInit starts a signup by issuing a verification code to the email.
func (h *HTTPEndpoint) SignupInit(r *router.Request) (any, error) {
	var req SignupInitRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SignupInit(r.Context(), usecase.SignupInitInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return SignupInitResponse{Email: resp.Email}, nil
}

// SignupVerify checks the verification code and creates the account.
func (h *HTTPEndpoint) SignupVerify(r *router.Request) (any, error) {
	var req SignupVerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SignupVerify(r.Context(), usecase.SignupVerifyInput{
		Email: req.Email,
		Code:  req.Code,
	})
	if err != nil {
		return nil, err
	}

	return SignupVerifyResponse{
		Token: resp.AccessToken,
		User: UserResponse{
			ID:    resp.AccountID,
			Email: resp.Email,
		},
	}, nil
}

// SignupResend issues a fresh verification code for a pending signup.
func (h *HTTPEndpoint) SignupResend(r *router.Request) (any, error) {
	var req SignupResendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.SignupResend(r.Context(), usecase.SignupResendInput{Email: req.Email})
	if err != nil {
		return nil, err
	}

	return SignupResendResponse{Email: resp.Email}, nil
}

// Login authenticates an account and returns an access token.
func (h *HTTPEndpoint) Login(r *router.Request) (any, error) {
	var req LoginRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Login(r.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return nil, err
	}

	return LoginResponse{
		Token: resp.AccessToken,
		User: UserResponse{
			ID:    resp.AccountID,
			Email: resp.Email,
		},
	}, nil
}

// Profile returns the authenticated account.
func (h *HTTPEndpoint) Profile(r *router.Request) (any, error) {
	resp, err := h.uc.Profile(r.Context())
	if err != nil {
		return nil, err
	}

	return ProfileResponse{
		ID:        resp.ID,
		Email:     resp.Email,
		CreatedAt: resp.CreatedAt,
	}, nil
}
