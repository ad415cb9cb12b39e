package relayserver

import (
	"fmt"
	"net/http"
	"time"

	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/printing"
	"ms-boxoffice/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxCopies = 10

// PrintRequest is the body RelayPrinter posts.
type PrintRequest struct {
	ID        string    `json:"id"`
	Reference string    `json:"reference" binding:"required"`
	Copies    int       `json:"copies" binding:"gte=0"`
	Payload   []byte    `json:"payload" binding:"required"`
	CreatedAt time.Time `json:"created_at"`
}

// RelayHandler accepts print jobs over HTTP and hands them to the printer
// attached to this machine.
type RelayHandler struct {
	printer printing.Printer
	target  string
	logger  *logger.Logger
}

func NewRelayHandler(printer printing.Printer, target string, log *logger.Logger) *RelayHandler {
	return &RelayHandler{printer: printer, target: target, logger: log}
}

// Router builds the gin engine serving POST /print and GET /health.
func (h *RelayHandler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/print", h.Print)
	r.GET("/health", h.Health)
	return r
}

func (h *RelayHandler) Print(c *gin.Context) {
	var req PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid print job", err.Error()))
		return
	}
	if req.Copies > maxCopies {
		c.JSON(http.StatusBadRequest, utils.ErrorResponse("Invalid print job",
			fmt.Sprintf("copies must be at most %d", maxCopies)))
		return
	}

	job := printing.NewJob(req.Reference, req.Copies, req.Payload)
	if req.ID != "" {
		job.ID = req.ID
	}
	if err := h.printer.Print(c.Request.Context(), job); err != nil {
		h.logger.Error("PRINT", fmt.Sprintf("%s on %s: %v", job.Reference, h.target, err))
		c.JSON(http.StatusBadGateway, utils.ErrorResponse("Printer unavailable", err.Error()))
		return
	}

	h.logger.LogPrint(job.Reference, fmt.Sprintf("%d copies printed on %s", job.Copies, h.target))
	c.JSON(http.StatusOK, utils.SuccessResponse("Printed", gin.H{"id": job.ID, "copies": job.Copies}))
}

func (h *RelayHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "printer": h.target})
}
