package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/stock-ledger/internal/core/domain"
	"github.com/rl1809/stock-ledger/internal/core/service"
	"github.com/rl1809/stock-ledger/internal/port"
)

// Pinger is implemented by every storage adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HTTPHandler struct {
	stock         *service.StockService
	backups       *service.BackupService
	products      port.ProductRepository
	ledger        port.InventoryLedger
	store         Pinger
	retentionDays int
}

type MovementHTTPRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
	Type      string `json:"type"`
	Note      string `json:"note"`
}

type StockHTTPResponse struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}

type BackupStatusHTTPResponse struct {
	LastBackupDate *time.Time `json:"lastBackupDate"`
	ShouldBackup   bool       `json:"shouldBackup"`
}

func NewHTTPHandler(
	stock *service.StockService,
	backups *service.BackupService,
	products port.ProductRepository,
	ledger port.InventoryLedger,
	store Pinger,
	retentionDays int,
) *HTTPHandler {
	return &HTTPHandler{
		stock:         stock,
		backups:       backups,
		products:      products,
		ledger:        ledger,
		store:         store,
		retentionDays: retentionDays,
	}
}

// NewRouter builds the gin engine with the request id and access log middleware.
func NewRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), Logger())
	h.Register(r)
	return r
}

func (h *HTTPHandler) Register(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.GET("/products", h.ListProducts)
	api.POST("/products", h.CreateProduct)
	api.POST("/products/batch", h.BatchUpsertProducts)
	api.GET("/products/:id", h.GetProduct)
	api.PUT("/products/:id", h.PutProduct)
	api.DELETE("/products/:id", h.DeleteProduct)
	api.GET("/products/:id/stock", h.GetStock)
	api.GET("/products/:id/records", h.ProductRecords)
	api.POST("/products/:id/reconcile", h.Reconcile)
	api.POST("/reconcile", h.ReconcileAll)

	api.POST("/movements", h.RecordMovement)
	api.GET("/records", h.ListRecords)
	api.POST("/records/cleanup", h.CleanupRecords)

	api.GET("/backup", h.BackupStatus)
	api.POST("/backup", h.CreateBackup)
	api.POST("/backup/restore", h.RestoreBackup)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	if h.store != nil {
		if err := h.store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HTTPHandler) ListProducts(c *gin.Context) {
	q := service.ProductQuery{
		Search:   c.Query("q"),
		Category: c.Query("category"),
		Order:    service.SortNewest,
	}
	if c.Query("sort") == string(service.SortOldest) {
		q.Order = service.SortOldest
	}

	if withStock, _ := strconv.ParseBool(c.Query("with_stock")); withStock {
		products, err := h.stock.ListWithStock(c.Request.Context(), q)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
		return
	}

	products, err := h.stock.ListProducts(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *HTTPHandler) CreateProduct(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := h.stock.CreateProduct(c.Request.Context(), p); err != nil {
		writeError(c, err)
		return
	}
	h.respondProduct(c, http.StatusCreated, p.ID)
}

func (h *HTTPHandler) BatchUpsertProducts(c *gin.Context) {
	var batch []domain.Product
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	if err := h.stock.SaveProducts(c.Request.Context(), batch); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"upserted": len(batch)})
}

func (h *HTTPHandler) GetProduct(c *gin.Context) {
	h.respondProduct(c, http.StatusOK, c.Param("id"))
}

// PutProduct replaces an existing product, or inserts it with ?upsert=true.
func (h *HTTPHandler) PutProduct(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p.ID = c.Param("id")

	upsert, _ := strconv.ParseBool(c.Query("upsert"))
	if err := h.stock.SaveProduct(c.Request.Context(), p, upsert); err != nil {
		writeError(c, err)
		return
	}
	h.respondProduct(c, http.StatusOK, p.ID)
}

func (h *HTTPHandler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HTTPHandler) GetStock(c *gin.Context) {
	id := c.Param("id")
	stock, err := h.stock.GetStock(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, StockHTTPResponse{ProductID: id, Stock: stock})
}

func (h *HTTPHandler) ProductRecords(c *gin.Context) {
	records, err := h.stock.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *HTTPHandler) Reconcile(c *gin.Context) {
	id := c.Param("id")
	stock, err := h.stock.Reconcile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, StockHTTPResponse{ProductID: id, Stock: stock})
}

func (h *HTTPHandler) ReconcileAll(c *gin.Context) {
	fixed, err := h.stock.ReconcileAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reconciled": fixed})
}

func (h *HTTPHandler) RecordMovement(c *gin.Context) {
	var req MovementHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.ProductID == "" || req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId and quantity are required"})
		return
	}

	stock, err := h.stock.RecordMovement(c.Request.Context(), req.ProductID, *req.Quantity, domain.MovementType(req.Type), req.Note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, StockHTTPResponse{ProductID: req.ProductID, Stock: stock})
}

func (h *HTTPHandler) ListRecords(c *gin.Context) {
	records, err := h.ledger.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// CleanupRecords applies the retention policy, ?days overrides the configured one.
func (h *HTTPHandler) CleanupRecords(c *gin.Context) {
	days := h.retentionDays
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be an integer"})
			return
		}
		days = n
	}

	removed, err := h.ledger.Cleanup(c.Request.Context(), days)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed, "retentionDays": days})
}

func (h *HTTPHandler) BackupStatus(c *gin.Context) {
	ctx := c.Request.Context()
	last, ok, err := h.backups.LastBackupDate(ctx)
	if err != nil {
		writeError(c, err)
		return
	}
	due, err := h.backups.ShouldBackup(ctx)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := BackupStatusHTTPResponse{ShouldBackup: due}
	if ok {
		resp.LastBackupDate = &last
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) CreateBackup(c *gin.Context) {
	backup, err := h.backups.CreateBackup(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"timestamp": backup.Timestamp,
		"products":  len(backup.Products),
		"records":   len(backup.Records),
	})
}

func (h *HTTPHandler) RestoreBackup(c *gin.Context) {
	backup, err := h.backups.RestoreFromBackup(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp": backup.Timestamp,
		"products":  len(backup.Products),
		"records":   len(backup.Records),
	})
}

func (h *HTTPHandler) respondProduct(c *gin.Context, status int, id string) {
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(status, p)
}

func writeError(c *gin.Context, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError || errors.Is(err, domain.ErrStorageUnavailable) {
		rid, _ := c.Get("rid")
		log.Printf("[http] rid=%v %s %s: %v", rid, c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
