// Package api provides HTTP handlers for AgriChat endpoints.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cropgen/agrichat/internal/models"
	"github.com/cropgen/agrichat/internal/store"
	"github.com/go-chi/chi/v5"
)

func (s *Server) listFarmersHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.listFarmersHandler invoked")
	farmers, err := s.st.ListFarmers(r.Context())
	if err != nil {
		slog.Error("Server.listFarmersHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list farmers"))
		return
	}
	if farmers == nil {
		farmers = []models.Farmer{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(farmers))
}

func (s *Server) getFarmerHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("Server.getFarmerHandler invoked", "id", id)
	farmer, err := s.st.GetFarmer(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Farmer not found"))
		return
	}
	if err != nil {
		slog.Error("Server.getFarmerHandler failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch farmer"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(farmer))
}

func (s *Server) deleteFarmerHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("Server.deleteFarmerHandler invoked", "id", id)
	_, err := s.st.DeleteFarmer(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Farmer not found"))
		return
	}
	if err != nil {
		slog.Error("Server.deleteFarmerHandler failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete farmer"))
		return
	}
	slog.Info("Server.deleteFarmerHandler deleted farmer and chat", "id", id)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Farmer and their chat deleted successfully", nil))
}

func (s *Server) listOrganizationsHandler(w http.ResponseWriter, r *http.Request) {
	slog.Debug("Server.listOrganizationsHandler invoked")
	orgs, err := s.st.ListOrganizations(r.Context())
	if err != nil {
		slog.Error("Server.listOrganizationsHandler failed", "error", err)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to list organizations"))
		return
	}
	if orgs == nil {
		orgs = []models.Organization{}
	}
	writeJSONResponse(w, http.StatusOK, models.Success(orgs))
}

func (s *Server) getOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("Server.getOrganizationHandler invoked", "id", id)
	org, err := s.st.GetOrganization(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Organization not found"))
		return
	}
	if err != nil {
		slog.Error("Server.getOrganizationHandler failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch organization"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(org))
}

func (s *Server) deleteOrganizationHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	slog.Debug("Server.deleteOrganizationHandler invoked", "id", id)
	_, err := s.st.DeleteOrganization(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Organization not found"))
		return
	}
	if err != nil {
		slog.Error("Server.deleteOrganizationHandler failed", "error", err, "id", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete organization"))
		return
	}
	slog.Info("Server.deleteOrganizationHandler deleted organization and chat", "id", id)
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Organization and their chat deleted successfully", nil))
}

// subjectKindFromParam parses the userType path parameter.
func subjectKindFromParam(r *http.Request) (models.SubjectKind, bool) {
	kind := models.SubjectKind(chi.URLParam(r, "userType"))
	return kind, models.IsValidSubjectKind(kind)
}

// subjectExists checks whether the referenced Farmer/Organization record exists.
func (s *Server) subjectExists(r *http.Request, id string, kind models.SubjectKind) (bool, error) {
	var err error
	if kind == models.SubjectFarmer {
		_, err = s.st.GetFarmer(r.Context(), id)
	} else {
		_, err = s.st.GetOrganization(r.Context(), id)
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Server) getChatHandler(w http.ResponseWriter, r *http.Request) {
	kind, ok := subjectKindFromParam(r)
	id := chi.URLParam(r, "userId")
	slog.Debug("Server.getChatHandler invoked", "userType", kind, "userId", id)
	if !ok {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("userType must be Farmer or Organization"))
		return
	}

	chat, err := s.st.GetChat(r.Context(), id, kind)
	if errors.Is(err, store.ErrNotFound) {
		// No chat yet: distinguish a missing subject from an empty history.
		exists, checkErr := s.subjectExists(r, id, kind)
		if checkErr != nil {
			slog.Error("Server.getChatHandler subject lookup failed", "error", checkErr, "userId", id)
			writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch chat"))
			return
		}
		if !exists {
			writeJSONResponse(w, http.StatusNotFound, models.Error("User not found"))
			return
		}
		writeJSONResponse(w, http.StatusOK, models.Success(models.ChatHistory{
			SubjectID:   id,
			SubjectKind: kind,
			Messages:    []models.ChatMessage{},
		}))
		return
	}
	if err != nil {
		slog.Error("Server.getChatHandler failed", "error", err, "userId", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to fetch chat"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.Success(chat))
}

func (s *Server) deleteChatHandler(w http.ResponseWriter, r *http.Request) {
	kind, ok := subjectKindFromParam(r)
	id := chi.URLParam(r, "userId")
	slog.Debug("Server.deleteChatHandler invoked", "userType", kind, "userId", id)
	if !ok {
		writeJSONResponse(w, http.StatusBadRequest, models.Error("userType must be Farmer or Organization"))
		return
	}

	err := s.st.DeleteHistory(r.Context(), id, kind)
	if errors.Is(err, store.ErrNotFound) {
		writeJSONResponse(w, http.StatusNotFound, models.Error("Chat not found"))
		return
	}
	if err != nil {
		slog.Error("Server.deleteChatHandler failed", "error", err, "userId", id)
		writeJSONResponse(w, http.StatusInternalServerError, models.Error("Failed to delete chat"))
		return
	}
	writeJSONResponse(w, http.StatusOK, models.SuccessWithMessage("Chat deleted successfully", nil))
}
