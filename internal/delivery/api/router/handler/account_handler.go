// Package handler contains the HTTP handlers for the API.
package handler

import (
	"log/slog"
	"net/http"

	"credvault/internal/delivery/api/response"
	"credvault/internal/delivery/api/validator"
	domainerrors "credvault/internal/domain/errors"
	"credvault/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AccountHandlerParams holds dependencies for AccountHandler, injected by Fx.
type AccountHandlerParams struct {
	fx.In

	RegistrationUC usecase.RegistrationUsecase
	RotationUC     usecase.RotationUsecase
	Logger         *slog.Logger
}

// AccountHandler serves registration and password rotation.
type AccountHandler struct {
	registrationUC usecase.RegistrationUsecase
	rotationUC     usecase.RotationUsecase
	logger         *slog.Logger
}

// NewAccountHandler is the constructor for AccountHandler
func NewAccountHandler(params AccountHandlerParams) *AccountHandler {
	return &AccountHandler{
		registrationUC: params.RegistrationUC,
		rotationUC:     params.RotationUC,
		logger:         params.Logger,
	}
}

// RegisterRequest represents the request body for registering an account.
// Password content is left to the password policy, including the empty string.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents the request body for rotating a password
type ChangePasswordRequest struct {
	UserID          string `json:"user_id" validate:"required,uuid"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AccountResponse is the public view of an account
type AccountResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Message string          `json:"message"`
	Account AccountResponse `json:"account"`
}

// MessageResponse carries a confirmation message
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles account registration
func (h *AccountHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}

	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	output, err := h.registrationUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, RegisterResponse{
		Message: "User registered successfully",
		Account: AccountResponse{
			ID:    output.Account.ID,
			Email: output.Account.Email,
		},
	})
}

// ChangePassword handles password rotation
func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid change password input")
	}

	if err := c.Validate(&req); err != nil {
		return validationError(c, err)
	}

	// validated as a uuid above
	accountID, err := uuid.Parse(req.UserID)
	if err != nil {
		return validationError(c, err)
	}

	if err := h.rotationUC.ChangePassword(c.Request().Context(), &usecase.ChangePasswordInput{
		AccountID:       accountID,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, MessageResponse{
		Message: "Password changed successfully",
	})
}

func validationError(c echo.Context, err error) error {
	return response.BadRequestWithDetails(c,
		domainerrors.ErrValidationFailed.ErrorCode(),
		domainerrors.ErrValidationFailed.Message(),
		validator.Describe(err),
	)
}
