package endpoints

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
	"github.com/Nixie-Tech-LLC/signage/internal/registration"
)

func (h *harness) register(clientID string) *registration.RegisterResult {
	h.t.Helper()
	res, err := h.devices.Register(context.Background(), clientID)
	require.NoError(h.t, err)
	return res
}

func TestDevices_RequiresAuthAndRole(t *testing.T) {
	h := newHarness(t)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/devices", nil, nil).Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/devices", &h.viewer, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/devices", &h.manager, nil).Code)

	res := h.register("C1")
	w := h.do(http.MethodPatch, "/api/devices/"+res.Identifier+"/approve", &h.manager, map[string]string{"code": res.Code})
	assert.Equal(t, http.StatusForbidden, w.Code, "only admins approve")
}

func TestDevices_ListAndUnapproved(t *testing.T) {
	h := newHarness(t)
	a := h.register("C1")
	h.register("C1")

	w := h.do(http.MethodPatch, "/api/devices/"+a.Identifier+"/approve", &h.admin, map[string]string{"code": a.Code})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	all := decode[[]model.Device](t, h.do(http.MethodGet, "/api/devices", &h.admin, nil))
	assert.Len(t, all, 2)

	pending := decode[[]model.Device](t, h.do(http.MethodGet, "/api/devices/unapproved", &h.admin, nil))
	require.Len(t, pending, 1)
	assert.Equal(t, "Display0002", pending[0].Identifier)
}

func TestDevices_Approve(t *testing.T) {
	h := newHarness(t)
	res := h.register("C1")
	path := "/api/devices/" + res.Identifier + "/approve"

	w := h.do(http.MethodPatch, path, &h.admin, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"code"}, fieldNames(decode[errorsBody](t, w)))

	wrong := "000000"
	if res.Code == wrong {
		wrong = "111111"
	}
	w = h.do(http.MethodPatch, path, &h.admin, map[string]string{"code": wrong})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodPatch, path, &h.admin, map[string]string{
		"code":       res.Code,
		"name":       "Lobby",
		"locationId": "HQ",
		"brand":      "Samsung",
		"macAddress": "aa:bb:cc",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[model.Device](t, w)
	assert.True(t, d.Approved)
	assert.Equal(t, "Lobby", d.Name)
	assert.Equal(t, "Samsung", d.Metadata.Brand)
	assert.Equal(t, "aa:bb:cc", d.Metadata.MACAddress)
	assert.NotContains(t, w.Body.String(), "code")

	w = h.do(http.MethodPatch, path, &h.admin, map[string]string{"code": res.Code})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(http.MethodPatch, "/api/devices/Display0099/approve", &h.admin, map[string]string{"code": "123456"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDevices_LicenseLimitEndToEnd(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 3; i++ {
		res := h.register("C1")
		w := h.do(http.MethodPatch, "/api/devices/"+res.Identifier+"/approve", &h.admin, map[string]string{"code": res.Code})
		require.Equal(t, http.StatusOK, w.Code)
	}

	_, err := h.devices.Register(context.Background(), "C1")
	assert.ErrorIs(t, err, registration.ErrLicenseLimitReached)
}

func TestDevices_DetailsAndDelete(t *testing.T) {
	h := newHarness(t)
	res := h.register("C1")

	w := h.do(http.MethodPatch, "/api/devices/"+res.Identifier+"/details", &h.admin, map[string]any{
		"name":       "Cafeteria",
		"locationId": "B2",
		"firmware":   "T-2024",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	d := decode[model.Device](t, w)
	assert.Equal(t, "Cafeteria", d.Name)
	assert.Equal(t, "T-2024", d.Metadata.Firmware)
	assert.False(t, d.Approved)

	w = h.do(http.MethodDelete, "/api/devices/"+res.Identifier, &h.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"msg":"Device removed"}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/devices/"+res.Identifier, &h.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound,
		h.do(http.MethodPatch, "/api/devices/"+res.Identifier+"/details", &h.admin, map[string]any{"name": "x"}).Code)
}
