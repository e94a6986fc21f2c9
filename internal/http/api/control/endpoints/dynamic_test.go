package endpoints

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

func TestDynamicContent_CRUDAndRefresh(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/dynamic-content", &h.manager, map[string]any{
		"title":          "headlines",
		"apiUrl":         h.upstream.URL + "/feed",
		"updateInterval": 10,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	c := decode[model.Content](t, w)
	assert.Equal(t, model.ContentDynamic, c.Type)
	assert.Nil(t, c.LastFetched)
	path := fmt.Sprintf("/api/dynamic-content/%d", c.ID)

	w = h.do(http.MethodPost, path+"/refresh", &h.manager, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	refreshed := decode[model.Content](t, w)
	assert.JSONEq(t, `{"headline":"fresh"}`, string(refreshed.Data))
	assert.NotNil(t, refreshed.LastFetched)

	w = h.do(http.MethodPut, path, &h.manager, map[string]any{
		"title": "news", "apiUrl": h.upstream.URL + "/feed", "updateInterval": 15,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.Content](t, w)
	assert.Equal(t, 15, *updated.UpdateInterval)
	assert.JSONEq(t, `{"headline":"fresh"}`, string(updated.Data), "fetched data survives edits")

	list := decode[[]model.Content](t, h.do(http.MethodGet, "/api/dynamic-content", &h.viewer, nil))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, path, &h.manager2, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, path, &h.manager, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, path, &h.viewer, nil).Code)
}

func TestDynamicContent_Validation(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/dynamic-content", &h.manager, map[string]any{
		"title": "x", "apiUrl": "not a url", "updateInterval": 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"apiUrl", "updateInterval"}, fieldNames(decode[errorsBody](t, w)))
}

func TestDynamicContent_OnlyDynamicItems(t *testing.T) {
	h := newHarness(t)
	page := h.createWebpage(&h.manager, "page")

	path := fmt.Sprintf("/api/dynamic-content/%d", page.ID)
	w := h.do(http.MethodGet, path, &h.viewer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Dynamic content not found"}`, w.Body.String())
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, path+"/refresh", &h.manager, nil).Code)
}

func TestDynamicContent_RefreshUpstreamFailure(t *testing.T) {
	h := newHarness(t)
	w := h.do(http.MethodPost, "/api/dynamic-content", &h.manager, map[string]any{
		"title": "broken", "apiUrl": h.upstream.URL + "/missing", "updateInterval": 5,
	})
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[model.Content](t, w)

	w = h.do(http.MethodPost, fmt.Sprintf("/api/dynamic-content/%d/refresh", c.ID), &h.manager, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestDynamicData_Weather(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodGet, "/api/dynamic-data/weather?city=Chicago", &h.viewer, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"location":{"name":"Chicago"}}`, w.Body.String())

	w = h.do(http.MethodGet, "/api/dynamic-data/weather", &h.viewer, nil)
	assert.JSONEq(t, `{"location":{"name":"London"}}`, w.Body.String())

	w = h.do(http.MethodGet, "/api/dynamic-data/stocks", &h.viewer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid data type"}`, w.Body.String())
}
