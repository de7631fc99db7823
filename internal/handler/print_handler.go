// internal/handler/print_handler.go
package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kiosk-client/internal/model"
	"kiosk-client/internal/utils"
)

// TicketPrinter is the print entry point behind the bridge
type TicketPrinter interface {
	PrintTicket(ctx context.Context, source model.PrintSource, payload string) model.PrintResult
}

// PrintHandler handles print requests from the kiosk page
type PrintHandler struct {
	printer TicketPrinter
	logger  *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(printer TicketPrinter, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		printer: printer,
		logger:  utils.NewServiceLogger(logger, "print-handler"),
	}
}

// PrintTicket prints a ticket
// @Summary Print a ticket
// @Description Print base64 encoded UTF-8 text followed by a paper cut. The outcome is reported in the body; failures to print still answer 200.
// @Tags Print
// @Accept json
// @Produce json
// @Param request body model.PrintRequest true "Ticket"
// @Success 200 {object} model.PrintResult "Print outcome"
// @Failure 400 {object} utils.APIResponse "Invalid request body"
// @Router /api/v1/print [post]
func (h *PrintHandler) PrintTicket(c *gin.Context) {
	var req model.PrintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result := h.printer.PrintTicket(c.Request.Context(), model.PrintSourceBridge, req.Data)
	if !result.Success {
		h.logger.Warn("Bridge print failed",
			zap.String("request_id", utils.GetRequestID(c)),
			zap.String("message", result.Message),
		)
	}

	c.JSON(http.StatusOK, result)
}
