package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xlebussssshek/warehouse-bot/internal/core/service"
)

// HTTPHandler exposes a read-only view of the ledger. Chat commands remain
// the only write path.
type HTTPHandler struct {
	ledger *service.Ledger
}

func NewHTTPHandler(ledger *service.Ledger) *HTTPHandler {
	return &HTTPHandler{ledger: ledger}
}

func (h *HTTPHandler) Register(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/stock", h.listStock)
	r.GET("/api/stock/:code", h.getStock)
	r.GET("/api/history", h.listHistory)
}

type skuResponse struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

type transactionResponse struct {
	ID             int64  `json:"id"`
	SKUCode        string `json:"sku_code"`
	Kind           string `json:"kind"`
	QuantityDelta  *int   `json:"quantity_delta"`
	QuantityBefore *int   `json:"quantity_before"`
	QuantityAfter  *int   `json:"quantity_after"`
	ActorID        int64  `json:"actor_id"`
	Detail         string `json:"detail"`
	RecordedAt     string `json:"recorded_at"`
}

func (h *HTTPHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) listStock(c *gin.Context) {
	skus, err := h.ledger.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	out := make([]skuResponse, 0, len(skus))
	for _, sku := range skus {
		out = append(out, skuResponse{Code: sku.Code, Name: sku.Name, Quantity: sku.Quantity})
	}
	c.JSON(http.StatusOK, out)
}

func (h *HTTPHandler) getStock(c *gin.Context) {
	sku, err := h.ledger.GetSKU(c.Request.Context(), c.Param("code"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}
	if sku == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "sku not found"})
		return
	}
	c.JSON(http.StatusOK, skuResponse{Code: sku.Code, Name: sku.Name, Quantity: sku.Quantity})
}

func (h *HTTPHandler) listHistory(c *gin.Context) {
	records, err := h.ledger.ListHistory(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage failure"})
		return
	}

	out := make([]transactionResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, transactionResponse{
			ID:             rec.ID,
			SKUCode:        rec.SKUCode,
			Kind:           string(rec.Kind),
			QuantityDelta:  rec.QuantityDelta,
			QuantityBefore: rec.QuantityBefore,
			QuantityAfter:  rec.QuantityAfter,
			ActorID:        rec.ActorID,
			Detail:         rec.Detail,
			RecordedAt:     rec.RecordedAt.Format("2006-01-02 15:04:05"),
		})
	}
	c.JSON(http.StatusOK, out)
}
