package endpoints

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/signage/internal/model"
)

func TestSchedules_CRUD(t *testing.T) {
	h := newHarness(t)
	a := h.createWebpage(&h.manager, "a")
	b := h.createWebpage(&h.manager, "b")

	w := h.do(http.MethodPost, "/api/schedule", &h.manager, map[string]any{
		"name":       "morning",
		"contentIds": []int{b.ID, a.ID},
		"rule":       "weather:rain",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	created := decode[model.Schedule](t, w)
	assert.Equal(t, []int64{int64(b.ID), int64(a.ID)}, []int64(created.ContentIDs))
	path := fmt.Sprintf("/api/schedule/%d", created.ID)

	got := decode[model.Schedule](t, h.do(http.MethodGet, path, &h.viewer, nil))
	require.Len(t, got.Contents, 2)
	assert.Equal(t, "b", got.Contents[0].Title, "content order is preserved")
	require.NotNil(t, got.Rule)
	assert.Equal(t, "weather:rain", *got.Rule)

	w = h.do(http.MethodPut, path, &h.manager, map[string]any{"name": "evening", "contentIds": []int{a.ID}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "evening", decode[model.Schedule](t, w).Name)

	list := decode[[]model.Schedule](t, h.do(http.MethodGet, "/api/schedule", &h.viewer, nil))
	require.Len(t, list, 1)
	assert.Len(t, list[0].Contents, 1)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, path, &h.viewer, nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, path, &h.manager, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, path, &h.viewer, nil).Code)
}

func TestSchedules_Validation(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/schedule", &h.manager, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.ElementsMatch(t, []string{"name", "contentIds"}, fieldNames(decode[errorsBody](t, w)))

	w = h.do(http.MethodPost, "/api/schedule", &h.manager, map[string]any{"name": "x", "contentIds": []int{42}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"contentIds"}, fieldNames(decode[errorsBody](t, w)))
}

func TestSchedules_SkipDeletedContent(t *testing.T) {
	h := newHarness(t)
	a := h.createWebpage(&h.manager, "a")
	b := h.createWebpage(&h.manager, "b")

	w := h.do(http.MethodPost, "/api/schedule", &h.manager, map[string]any{"name": "s", "contentIds": []int{a.ID, b.ID}})
	require.Equal(t, http.StatusOK, w.Code)
	created := decode[model.Schedule](t, w)

	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, fmt.Sprintf("/api/content/%d", a.ID), &h.manager, nil).Code)

	got := decode[model.Schedule](t, h.do(http.MethodGet, fmt.Sprintf("/api/schedule/%d", created.ID), &h.viewer, nil))
	assert.Len(t, got.ContentIDs, 2, "references are not cascaded")
	require.Len(t, got.Contents, 1)
	assert.Equal(t, b.ID, got.Contents[0].ID)
}
