package controllers

import (
	"net/http"

	"github.com/splitbite/splitbite-backend/api/responses"
	"github.com/splitbite/splitbite-backend/api/validators"
	groupsvc "github.com/splitbite/splitbite-backend/internal/groups"
	"github.com/splitbite/splitbite-backend/pkg/logger"
)

type createGroupRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

func CreateGroup(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createGroupRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.Create(r.Context(), uid, payload.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

func GetGroup(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := uuidParam(r, "groupID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		group, err := svc.Get(r.Context(), uid, groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, group)
	}
}

func ListMyGroups(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		groups, err := svc.ListMine(r.Context(), uid)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, groups)
	}
}

func JoinGroup(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := uuidParam(r, "groupID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		membership, err := svc.Join(r.Context(), uid, groupID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, membership)
	}
}

func LeaveGroup(svc groupsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid, err := actingUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		groupID, err := uuidParam(r, "groupID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Leave(r.Context(), uid, groupID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "left"})
	}
}
