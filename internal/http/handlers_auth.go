package http

import (
	"net/http"

	"fintrack/internal/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := s.auths.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, User: toUserView(user)})
}

type loginRequest struct {
	Identifier string `json:"identifier"` // email or phone
	Password   string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, token, err := s.auths.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{Token: token, User: toUserView(user)})
}

type otpRequest struct {
	Identifier string `json:"identifier"`
}

func (s *Server) handleOTPRequest(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.auths.RequestOTP(r.Context(), req.Identifier); err != nil {
		writeError(w, r, err)
		return
	}

	// Same response whether or not the identifier exists.
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "code sent if the account exists"})
}

type otpVerifyRequest struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

func (s *Server) handleOTPVerify(w http.ResponseWriter, r *http.Request) {
	var req otpVerifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.auths.VerifyOTP(r.Context(), req.Identifier, req.Code); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}

type passwordResetRequest struct {
	Identifier  string `json:"identifier"`
	NewPassword string `json:"new_password"`
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.auths.ResetPassword(r.Context(), req.Identifier, req.NewPassword); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}
