package restapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"soltax/internal/entity"
	"soltax/internal/service"
)

// APIErrorResponse is the body returned for every non-2xx outcome.
type APIErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse reports service liveness and the upstream RPC endpoint in use.
type HealthResponse struct {
	Status      string `json:"status"`
	RPCEndpoint string `json:"rpcEndpoint"`
}

// ReportHandler handles HTTP requests for account reports.
type ReportHandler struct {
	reportSvc   service.ReportService
	rpcEndpoint string
	logger      *zap.Logger
}

// NewReportHandler creates a new instance of ReportHandler.
func NewReportHandler(reportSvc service.ReportService, rpcEndpoint string, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		reportSvc:   reportSvc,
		rpcEndpoint: rpcEndpoint,
		logger:      logger.Named("ReportHandler"),
	}
}

// GetTransactionsHandler serves the full account report for one address.
func (h *ReportHandler) GetTransactionsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := c.Param("accountId")

	report, err := h.reportSvc.GetAccountReport(ctx, accountID)
	if err != nil {
		h.writeError(c, accountID, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// HealthHandler reports liveness.
func (h *ReportHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:      "ok",
		RPCEndpoint: h.rpcEndpoint,
	})
}

func (h *ReportHandler) writeError(c *gin.Context, accountID string, err error) {
	switch entity.KindOf(err) {
	case entity.KindInvalidInput:
		c.JSON(http.StatusBadRequest, APIErrorResponse{Error: err.Error()})
	case entity.KindUpstreamUnavailable:
		h.logger.Warn("Upstream unavailable while building report",
			zap.String("accountId", accountID),
			zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, APIErrorResponse{
			Error:   "upstream RPC unavailable",
			Details: err.Error(),
		})
	default:
		h.logger.Error("Report request failed",
			zap.String("accountId", accountID),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, APIErrorResponse{Error: "internal error"})
	}
}
