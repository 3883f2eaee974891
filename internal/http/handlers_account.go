package http

import (
	"net/http"

	applog "dompet/internal/log"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}

	reg, err := s.svc.Accounts.Register(r.Context(), req.Email, req.FullName)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "User registered",
		applog.FieldUserID, reg.User.ID,
		applog.FieldGroupID, reg.Group.ID)

	NewJSONResponse().
		Status(http.StatusCreated).
		Set("user", reg.User).
		Set("profile", reg.Profile).
		Set("group", reg.Group).
		Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requirePathValue(r, "userId")
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	profile, err := s.svc.Profiles.Get(r.Context(), userID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("profile", profile).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := requirePathValue(r, "userId")
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	var req profileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}

	profile, err := s.svc.Profiles.Update(r.Context(), userID, req.patch())
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("profile", profile).Write(w)
}
