package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/makkenzo/entitlement-service/internal/domain/cipherconfig"
	"github.com/makkenzo/entitlement-service/internal/handler/dto"
	"github.com/makkenzo/entitlement-service/internal/handler/middleware"
	"github.com/makkenzo/entitlement-service/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/admin/cards", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHENTICATED", decode(t, w)["code"])

	w = ts.do(t, http.MethodGet, "/admin/cards", nil, map[string]string{"Authorization": "Bearer garbage"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLoginSetsSessionCookie(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/admin/login", dto.AdminLoginRequest{Username: "admin", Password: "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodPost, "/admin/login", dto.AdminLoginRequest{Username: "admin", Password: adminPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decode(t, w)["access_token"].(string)
	require.NotEmpty(t, token)

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.Equal(t, token, session.Value)
	assert.True(t, session.HttpOnly)

	w = ts.do(t, http.MethodGet, "/admin/dashboard", nil, map[string]string{"Cookie": middleware.SessionCookie + "=" + token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(1), decode(t, w)["cipher_configs"])

	w = ts.do(t, http.MethodGet, "/admin/logout", nil, nil)
	assert.Equal(t, dto.CodeOK, code(t, w))
}

func TestAdminCardEndpoints(t *testing.T) {
	ts := newTestServer(t, withPageSize(2))

	t.Run("Empty listing", func(t *testing.T) {
		body := decode(t, ts.admin(t, http.MethodGet, "/admin/cards", nil))
		assert.Equal(t, float64(dto.CodeCardListEmpty), body["code"])
		assert.Equal(t, float64(1), body["totalPages"])
		assert.Empty(t, body["data"])
	})

	w := ts.admin(t, http.MethodPost, "/admin/cards", dto.IssueCardsRequest{Count: 3, Days: 7})
	body := decode(t, w)
	require.Equal(t, float64(dto.CodeOK), body["code"], w.Body.String())
	issued := body["data"].([]any)
	require.Len(t, issued, 3)
	first := issued[0].([]any)
	assert.Equal(t, float64(7), first[2])

	t.Run("Page past the end is clamped", func(t *testing.T) {
		body := decode(t, ts.admin(t, http.MethodGet, "/admin/cards?page=9", nil))
		assert.Equal(t, float64(dto.CodeOK), body["code"])
		assert.Equal(t, float64(2), body["page"])
		assert.Equal(t, float64(2), body["totalPages"])
		assert.Equal(t, float64(3), body["totalCount"])
		rows := body["data"].([]any)
		require.Len(t, rows, 1)
		assert.Equal(t, first[0], rows[0].([]any)[0], "oldest card is last")
	})

	t.Run("Search renders used as a string", func(t *testing.T) {
		body := decode(t, ts.admin(t, http.MethodGet, "/admin/cards/search?key="+first[0].(string), nil))
		assert.Equal(t, float64(dto.CodeOK), body["code"])
		assert.Equal(t, "false", body["data"].([]any)[3])

		assert.Equal(t, dto.CodeCardNotFound, code(t, ts.admin(t, http.MethodGet, "/admin/cards/search?key=nope", nil)))
	})

	t.Run("Delete", func(t *testing.T) {
		assert.Equal(t, dto.CodeOK, code(t, ts.admin(t, http.MethodDelete, "/admin/cards/"+first[0].(string), nil)))
		assert.Equal(t, dto.CodeCardNotFound, code(t, ts.admin(t, http.MethodDelete, "/admin/cards/"+first[0].(string), nil)))
	})

	t.Run("Issue validation", func(t *testing.T) {
		w := ts.admin(t, http.MethodPost, "/admin/cards", dto.IssueCardsRequest{Count: 0, Days: 7})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAdminLicenseEndpoints(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	assert.Equal(t, dto.CodeLicenseListEmpty, code(t, ts.admin(t, http.MethodGet, "/admin/licenses", nil)))

	w := ts.admin(t, http.MethodPost, "/admin/licenses", dto.CreateLicenseRequest{MachineCode: "MC-1", ExpireDate: "2025-01-01 00:00:00"})
	assert.Equal(t, "2025-01-01 00:00:00", decode(t, w)["expireDate"])
	assert.Equal(t, dto.CodeRegFailed, code(t, ts.admin(t, http.MethodPost, "/admin/licenses", dto.CreateLicenseRequest{MachineCode: "MC-2", ExpireDate: "tomorrow"})))
	assert.Equal(t, dto.CodeRegOversize, code(t, ts.admin(t, http.MethodPost, "/admin/licenses", dto.CreateLicenseRequest{MachineCode: strings.Repeat("机", 33)})))

	t.Run("Field updates", func(t *testing.T) {
		assert.Equal(t, dto.CodeOK, code(t, ts.admin(t, http.MethodPost, "/admin/licenses/expire", dto.UpdateExpireRequest{MachineCode: "MC-1", ExpireDate: "2026-01-01 00:00:00"})))
		assert.Equal(t, dto.CodeExpireUpdateFail, code(t, ts.admin(t, http.MethodPost, "/admin/licenses/expire", dto.UpdateExpireRequest{MachineCode: "MC-1", ExpireDate: "2026-1-1"})))
		assert.Equal(t, dto.CodeLicenseNotFound, code(t, ts.admin(t, http.MethodPost, "/admin/licenses/expire", dto.UpdateExpireRequest{MachineCode: "MC-X", ExpireDate: "2026-01-01 00:00:00"})))

		assert.Equal(t, dto.CodeOK, code(t, ts.admin(t, http.MethodPost, "/admin/licenses/remark", dto.UpdateRemarkRequest{MachineCode: "MC-1", Remark: "vip"})))
		assert.Equal(t, dto.CodeCategoryNotFound, code(t, ts.admin(t, http.MethodPost, "/admin/licenses/category", dto.UpdateCategoryRequest{MachineCode: "MC-1", Category: "pro"})))
		assert.Equal(t, dto.CodeCipherAssignFail, code(t, ts.admin(t, http.MethodPost, "/admin/licenses/cipher", dto.UpdateCipherRequest{MachineCode: "MC-1", ConfigID: "ghost"})))

		lic, err := ts.licenses.Find(ctx, "MC-1")
		require.NoError(t, err)
		assert.Equal(t, "2026-01-01 00:00:00", lic.ExpireDate)
		assert.Equal(t, "vip", lic.Remark)
		assert.Equal(t, cipherconfig.DefaultID, lic.CipherConfigID)
	})

	t.Run("Search and list rows", func(t *testing.T) {
		body := decode(t, ts.admin(t, http.MethodGet, "/admin/licenses/search?key=MC-1", nil))
		row := body["data"].([]any)
		assert.Equal(t, []any{"MC-1", "2026-01-01 00:00:00", "2024-05-01 12:00:00", "", "vip", "default"}, row)

		body = decode(t, ts.admin(t, http.MethodGet, "/admin/licenses", nil))
		assert.Equal(t, float64(1), body["totalCount"])

		w := ts.admin(t, http.MethodGet, "/admin/licenses/search", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		assert.Equal(t, dto.CodeOK, code(t, ts.admin(t, http.MethodDelete, "/admin/licenses/MC-1", nil)))
		assert.Equal(t, dto.CodeLicenseNotFound, code(t, ts.admin(t, http.MethodDelete, "/admin/licenses/MC-1", nil)))
	})
}

func TestAdminCategoryEndpoints(t *testing.T) {
	ctx := context.Background()
	ts := newTestServer(t)

	assert.Equal(t, dto.CodeOK, code(t, ts.admin(t, http.MethodPost, "/admin/categories", dto.CategoryRequest{Name: "pro"})))
	assert.Equal(t, dto.CodeCategoryExists, code(t, ts.admin(t, http.MethodPost, "/admin/categories", dto.CategoryRequest{Name: "pro"})))

	_, err := ts.licenses.Register(ctx, service.RegisterRequest{MachineCode: "MC-1", Category: "pro"})
	require.NoError(t, err)

	body := decode(t, ts.admin(t, http.MethodGet, "/admin/categories", nil))
	assert.Equal(t, []any{"pro"}, body["data"])

	assert.Equal(t, dto.CodeOK, code(t, ts.admin(t, http.MethodDelete, "/admin/categories/pro", nil)))
	assert.Equal(t, dto.CodeCategoryNotFound, code(t, ts.admin(t, http.MethodDelete, "/admin/categories/pro", nil)))

	lic, err := ts.licenses.Find(ctx, "MC-1")
	require.NoError(t, err)
	assert.Empty(t, lic.Category)
}

func TestAdminCipherConfigEndpoints(t *testing.T) {
	ts := newTestServer(t)

	w := ts.admin(t, http.MethodPost, "/admin/cipher-configs", nil)
	created := decode(t, w)
	require.Equal(t, float64(dto.CodeOK), created["code"], w.Body.String())
	id := created["config_id"].(string)

	w = ts.admin(t, http.MethodGet, "/admin/cipher-configs", nil)
	assert.NotContains(t, w.Body.String(), `"key"`)
	assert.NotContains(t, w.Body.String(), `"iv"`)
	assert.Len(t, decode(t, w)["data"], 2)

	assert.Equal(t, dto.CodeCipherProtected, code(t, ts.admin(t, http.MethodDelete, "/admin/cipher-configs/default", nil)))
	assert.Equal(t, dto.CodeOK, code(t, ts.admin(t, http.MethodDelete, "/admin/cipher-configs/"+id, nil)))
	assert.Equal(t, dto.CodeCipherDeleteFail, code(t, ts.admin(t, http.MethodDelete, "/admin/cipher-configs/"+id, nil)))
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
