package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	autherrors "lakeside/internal/auth/errors"
	authhandler "lakeside/internal/auth/handler"
	"lakeside/internal/inventory/memory"
	"lakeside/internal/rooms/service"
	"lakeside/internal/rooms/validator"
	httputil "lakeside/pkg/http"
	"lakeside/pkg/logger"
	"lakeside/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockResolver struct{}

func (mockResolver) Resolve(header string) (*model.Principal, error) {
	switch header {
	case "Bearer admin":
		return &model.Principal{Subject: "root", Role: model.RoleAdmin}, nil
	case "Bearer staff":
		return &model.Principal{Subject: "frontdesk", Role: model.RoleStaff}, nil
	case "Bearer guest":
		return &model.Principal{Subject: "alice", Role: model.RoleGuest}, nil
	}
	return nil, autherrors.ErrMissingCredential
}

func newRouter() *httprouter.Router {
	log := logger.Discard()
	svc := service.NewRoomService(memory.NewStore(), validator.NewRoomValidator(), log)
	router := httprouter.New()
	NewRoomHandler(svc, authhandler.NewAuthenticator(mockResolver{}, log), log).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRoomRoutes(t *testing.T) {
	router := newRouter()

	if rec := do(router, http.MethodPost, "/api/v1/rooms", "", `{"room_type":"double","nightly_price":12000}`); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create status = %d", rec.Code)
	}
	if rec := do(router, http.MethodPost, "/api/v1/rooms", "staff", `{"room_type":"double","nightly_price":12000}`); rec.Code != http.StatusForbidden {
		t.Errorf("staff create status = %d", rec.Code)
	}

	rec := do(router, http.MethodPost, "/api/v1/rooms", "admin", `{"room_type":"Double","nightly_price":12000}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Data model.Room `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id := created.Data.ID

	rec = do(router, http.MethodPatch, "/api/v1/rooms/id/"+id, "staff", `{"nightly_price":13500}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("staff patch status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec := do(router, http.MethodPatch, "/api/v1/rooms/id/"+id, "guest", `{"nightly_price":1}`); rec.Code != http.StatusForbidden {
		t.Errorf("guest patch status = %d", rec.Code)
	}

	rec = do(router, http.MethodGet, "/api/v1/rooms/id/"+id, "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"nightly_price":13500`) {
		t.Errorf("public get = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(router, http.MethodGet, "/api/v1/rooms?limit=10", "", "")
	var page httputil.PaginatedResponse
	if err := json.NewDecoder(rec.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || page.TotalCount != 1 || page.Limit != 10 {
		t.Errorf("list = %d %+v", rec.Code, page)
	}

	rec = do(router, http.MethodGet, "/api/v1/rooms/types", "", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `["double"]`) {
		t.Errorf("types = %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(router, http.MethodGet, "/api/v1/rooms?limit=abc", "", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}

	if rec := do(router, http.MethodDelete, "/api/v1/rooms/id/"+id, "staff", ""); rec.Code != http.StatusForbidden {
		t.Errorf("staff delete status = %d", rec.Code)
	}
	if rec := do(router, http.MethodDelete, "/api/v1/rooms/id/"+id, "admin", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("admin delete status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if rec := do(router, http.MethodGet, "/api/v1/rooms/id/"+id, "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("get deleted status = %d", rec.Code)
	}
}
