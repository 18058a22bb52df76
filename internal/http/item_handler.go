package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"billing-tracker/internal/domain"
	"billing-tracker/internal/service"
)

const itemNotFoundMessage = "item not found or unauthorized"

// ItemHandler expone el CRUD de items del usuario autenticado.
type ItemHandler struct {
	logger *zap.Logger
	items  *service.ItemService
}

func NewItemHandler(logger *zap.Logger, items *service.ItemService) *ItemHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemHandler{logger: logger, items: items}
}

// List maneja GET /items.
func (h *ItemHandler) List(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	items, err := h.items.List(c.Request.Context(), sess)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create maneja POST /items.
func (h *ItemHandler) Create(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	req, ok := h.bindItemInput(c)
	if !ok {
		return
	}
	id, err := h.items.Create(c.Request.Context(), sess, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": id})
}

// Update maneja PUT /items/:id.
func (h *ItemHandler) Update(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := itemIDParam(c)
	if !ok {
		return
	}
	req, ok := h.bindItemInput(c)
	if !ok {
		return
	}
	if err := h.items.Update(c.Request.Context(), sess, id, req); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item updated successfully"})
}

// Delete maneja DELETE /items/:id.
func (h *ItemHandler) Delete(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	id, ok := itemIDParam(c)
	if !ok {
		return
	}
	if err := h.items.Delete(c.Request.Context(), sess, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted successfully"})
}

func (h *ItemHandler) session(c *gin.Context) (domain.Session, bool) {
	sess, ok := GetSession(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return domain.Session{}, false
	}
	return sess, true
}

// bindItemInput decodifica el payload. Un campo con tipo equivocado se
// reporta como ValidationError; el JSON ilegible como "invalid request".
func (h *ItemHandler) bindItemInput(c *gin.Context) (service.ItemInput, bool) {
	var req service.ItemInput
	err := c.ShouldBindJSON(&req)
	if err == nil {
		return req, true
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		h.writeError(c, &service.ValidationError{Field: typeErr.Field, Reason: typeReason(typeErr.Type)})
		return service.ItemInput{}, false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
	return service.ItemInput{}, false
}

func typeReason(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "has the wrong type"
	}
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "must be a number"
	case reflect.String:
		return "must be a string"
	default:
		return "has the wrong type"
	}
}

// itemIDParam trata un id no numerico como ruta inexistente.
func itemIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": itemNotFoundMessage})
		return 0, false
	}
	return id, true
}

func (h *ItemHandler) writeError(c *gin.Context, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item", "field": vErr.Field, "reason": vErr.Reason})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": itemNotFoundMessage})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
	default:
		h.logger.Error("item operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
