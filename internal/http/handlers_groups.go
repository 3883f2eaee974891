package http

import (
	"net/http"

	"dompet/internal/core"
	applog "dompet/internal/log"
)

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	createdBy, err := actorID(r, req.CreatedBy)
	if err != nil {
		ServiceError(w, r, core.NewValidationError("createdBy", "is required"))
		return
	}

	group, err := s.svc.Groups.Create(r.Context(), req.Name, req.Description, createdBy)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Set("group", group).Write(w)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	userID, err := actorID(r, "")
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	groups, err := s.svc.Groups.ListForUser(r.Context(), userID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("groups", groups).Write(w)
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := s.groupAndActor(w, r, "")
	if !ok {
		return
	}
	group, err := s.svc.Groups.Get(r.Context(), groupID, userID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("group", group).Write(w)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request) {
	var req groupUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	groupID, userID, ok := s.groupAndActor(w, r, req.UserID)
	if !ok {
		return
	}

	group, err := s.svc.Groups.Update(r.Context(), groupID, userID, req.patch())
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("group", group).Write(w)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := s.groupAndActor(w, r, "")
	if !ok {
		return
	}
	members, err := s.svc.Groups.ListMembers(r.Context(), groupID, userID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("members", members).Write(w)
}

func (s *Server) handleCreateInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteCreateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}
	groupID, err := requirePathValue(r, "groupId")
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	createdBy, err := actorID(r, req.CreatedBy)
	if err != nil {
		ServiceError(w, r, core.NewValidationError("createdBy", "is required"))
		return
	}

	role := core.Role(req.Role)
	if role == "" {
		role = core.RoleMember
	}
	issued, err := s.svc.Invites.Create(r.Context(), groupID, role, createdBy)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Invite issued",
		applog.FieldGroupID, groupID,
		applog.FieldUserID, createdBy,
		"role", role)

	NewJSONResponse().
		Set("token", issued.Token).
		Set("link", issued.Link).
		Set("expiresAt", issued.ExpiresAt).
		Write(w)
}

func (s *Server) handleListInvites(w http.ResponseWriter, r *http.Request) {
	groupID, userID, ok := s.groupAndActor(w, r, "")
	if !ok {
		return
	}
	invites, err := s.svc.Invites.ListPending(r.Context(), groupID, userID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Set("invites", invites).Write(w)
}

func (s *Server) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req inviteAcceptRequest
	if err := decodeJSON(w, r, &req); err != nil {
		ServiceError(w, r, err)
		return
	}

	res, err := s.svc.Invites.Accept(r.Context(), req.Token, req.UserID)
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Invite accepted",
		applog.FieldGroupID, res.GroupID,
		applog.FieldUserID, req.UserID,
		"already_member", res.AlreadyMember)

	NewJSONResponse().
		Set("groupId", res.GroupID).
		Set("role", res.Role).
		Set("alreadyMember", res.AlreadyMember).
		Set("message", res.Message()).
		Write(w)
}

// groupAndActor reads {groupId} and the acting user, writing the error response itself.
func (s *Server) groupAndActor(w http.ResponseWriter, r *http.Request, bodyUserID string) (groupID, userID string, ok bool) {
	groupID, err := requirePathValue(r, "groupId")
	if err != nil {
		ServiceError(w, r, err)
		return "", "", false
	}
	userID, err = actorID(r, bodyUserID)
	if err != nil {
		ServiceError(w, r, err)
		return "", "", false
	}
	return groupID, userID, true
}
