package handler

import (
	"net/http"

	authhandler "lakeside/internal/auth/handler"
	"lakeside/internal/rooms/service"
	httputil "lakeside/pkg/http"
	"lakeside/pkg/logger"
	"lakeside/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type RoomHandler struct {
	service service.RoomService
	auth    *authhandler.Authenticator
	log     *logger.Logger
}

func NewRoomHandler(service service.RoomService, auth *authhandler.Authenticator, log *logger.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var room model.Room
	if err := httputil.DecodeJSON(r, &room); err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	created, err := h.service.Create(r.Context(), authhandler.PrincipalFromContext(r.Context()), &room)
	if err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *RoomHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	room, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	rooms, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetAll", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, rooms, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *RoomHandler) ListTypes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	types, err := h.service.ListTypes(r.Context())
	if err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListTypes", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, types); err != nil {
		h.log.Error("failed to write success response", "handler", "ListTypes", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.RoomUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	room, err := h.service.Update(r.Context(), authhandler.PrincipalFromContext(r.Context()), ps.ByName("id"), &update)
	if err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Update", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, room); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), authhandler.PrincipalFromContext(r.Context()), ps.ByName("id")); err != nil {
		if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Delete", "operation", "WriteRequestError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *RoomHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/rooms", h.GetAll)
	router.GET("/api/v1/rooms/types", h.ListTypes)
	router.GET("/api/v1/rooms/id/:id", h.GetByID)
	router.POST("/api/v1/rooms", h.auth.RequireRole(model.RoleAdmin, h.Create))
	router.PATCH("/api/v1/rooms/id/:id", h.auth.RequireRole(model.RoleStaff, h.Update))
	router.DELETE("/api/v1/rooms/id/:id", h.auth.RequireRole(model.RoleAdmin, h.Delete))
}
