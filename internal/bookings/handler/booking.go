package handler

import (
	"net/http"

	authhandler "lakeside/internal/auth/handler"
	"lakeside/internal/bookings/service"
	httputil "lakeside/pkg/http"
	"lakeside/pkg/logger"
	"lakeside/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	auth    *authhandler.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, auth *authhandler.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    auth,
		log:     log,
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	if writeErr := httputil.WriteRequestError(w, r, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteRequestError", "error", writeErr)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	booking, err := h.service.Book(r.Context(), authhandler.PrincipalFromContext(r.Context()), &req)
	if err != nil {
		h.writeError(w, r, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), authhandler.PrincipalFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.Cancel(r.Context(), authhandler.PrincipalFromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, r, "Cancel", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Cancel", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) ListForRoom(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var statuses []model.BookingStatus
	for _, s := range httputil.ExtractList(r, "status") {
		statuses = append(statuses, model.BookingStatus(s))
	}

	bookings, err := h.service.ListForRoom(r.Context(), authhandler.PrincipalFromContext(r.Context()), ps.ByName("id"), statuses)
	if err != nil {
		h.writeError(w, r, "ListForRoom", err)
		return
	}

	if err := httputil.WriteSuccess(w, bookings); err != nil {
		h.log.Error("failed to write success response", "handler", "ListForRoom", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.auth.RequireRole(model.RoleGuest, h.Create))
	router.GET("/api/v1/bookings/id/:id", h.auth.RequireRole(model.RoleGuest, h.GetByID))
	router.POST("/api/v1/bookings/id/:id/cancel", h.auth.RequireRole(model.RoleGuest, h.Cancel))
	router.GET("/api/v1/rooms/id/:id/bookings", h.auth.RequireRole(model.RoleStaff, h.ListForRoom))
}
