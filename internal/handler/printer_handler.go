// internal/handler/printer_handler.go
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"kiosk-client/internal/model"
	"kiosk-client/internal/printer"
	"kiosk-client/internal/utils"
)

// PrinterDevice is the printer as seen by the bridge
type PrinterDevice interface {
	Snapshot() printer.Snapshot
	Initialize(ctx context.Context) error
	CheckPaperStatus(ctx context.Context) model.PaperLevel
}

// PrinterHandler exposes printer state and maintenance actions
type PrinterHandler struct {
	device PrinterDevice
	logger *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(device PrinterDevice, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		device: device,
		logger: utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// PaperStatusResponse is the result of a paper check
type PaperStatusResponse struct {
	PaperLevel model.PaperLevel `json:"paper_level"`
	Status     model.StatusKind `json:"status"`
}

// GetPrinter returns the printer state
// @Summary Get printer state
// @Description Current device state, paper level, error flag and last reported status
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=printer.Snapshot} "Printer state"
// @Router /api/v1/printer [get]
func (h *PrinterHandler) GetPrinter(c *gin.Context) {
	utils.SuccessResponse(c, http.StatusOK, "Printer state retrieved", h.device.Snapshot())
}

// InitializePrinter re-opens the printer
// @Summary Initialize printer
// @Description Close and re-open the printer, for instance after it was plugged in
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=printer.Snapshot} "Initialization attempted"
// @Failure 403 {object} utils.APIResponse "USB permission error, details hold the fix"
// @Failure 500 {object} utils.APIResponse "Unexpected failure"
// @Router /api/v1/printer/initialize [post]
func (h *PrinterHandler) InitializePrinter(c *gin.Context) {
	err := h.device.Initialize(c.Request.Context())

	var permErr *printer.PermissionError
	switch {
	case err == nil:
		snapshot := h.device.Snapshot()
		utils.SuccessResponse(c, http.StatusOK, "Printer initialization finished", snapshot)
	case errors.As(err, &permErr):
		h.logger.Error("Printer permission denied", zap.Error(err))
		utils.ErrorResponseWithDetails(c, http.StatusForbidden, "Printer access denied", permErr.Remediation)
	default:
		h.logger.Error("Printer initialization failed", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Printer initialization failed", err)
	}
}

// CheckPaper queries the paper sensor
// @Summary Check paper
// @Description Query the paper sensor now. An unanswered query reads as out of paper.
// @Tags Printer
// @Produce json
// @Success 200 {object} utils.APIResponse{data=PaperStatusResponse} "Paper level"
// @Router /api/v1/printer/paper-check [post]
func (h *PrinterHandler) CheckPaper(c *gin.Context) {
	level := h.device.CheckPaperStatus(c.Request.Context())

	utils.SuccessResponse(c, http.StatusOK, "Paper status retrieved", PaperStatusResponse{
		PaperLevel: level,
		Status:     level.StatusKind(),
	})
}
