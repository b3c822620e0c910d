// controllers/calculation_controller.go
package controllers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/investlink/commission_backend/middleware"
	"github.com/investlink/commission_backend/models"
	"github.com/investlink/commission_backend/repositories"
	"github.com/investlink/commission_backend/services"
	"github.com/investlink/commission_backend/utils"
	"github.com/investlink/commission_backend/websocket"
)

// CalculationController exposes the commission engine and the calculation
// ledger derived from it.
type CalculationController struct {
	calculator      *services.CommissionCalculator
	calculationRepo *repositories.CalculationRepository
	withdrawalRepo  *repositories.WithdrawalRepository
	hub             *websocket.Hub
	logger          *log.Logger
}

// NewCalculationController creates a new calculation controller
func NewCalculationController(calculator *services.CommissionCalculator, calculationRepo *repositories.CalculationRepository, withdrawalRepo *repositories.WithdrawalRepository, hub *websocket.Hub) *CalculationController {
	return &CalculationController{
		calculator:      calculator,
		calculationRepo: calculationRepo,
		withdrawalRepo:  withdrawalRepo,
		hub:             hub,
		logger:          log.Default(),
	}
}

// Calculate runs one commission calculation. Required parameters come from
// the query string; the optional JSON body carries performance metrics. The
// result is returned to the caller and a copy is logged to the caller's
// ledger for auditability.
func (cc *CalculationController) Calculate(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	structureID := c.QueryParam("structureId")
	if structureID == "" {
		return respondEngineError(c, models.NewValidationError("structureId", "structure id is required"))
	}

	if c.QueryParam("baseAmount") == "" {
		return respondEngineError(c, models.NewValidationError("baseAmount", "base amount is required"))
	}
	baseAmount, err := utils.ParseFloat(c.QueryParam("baseAmount"))
	if err != nil {
		return respondEngineError(c, models.NewValidationError("baseAmount", "base amount must be a number"))
	}

	volume, err := utils.ParseOptionalFloat(c.QueryParam("volume"))
	if err != nil {
		return respondEngineError(c, models.NewValidationError("volume", "volume must be a number"))
	}

	var metrics *models.PerformanceMetricsInput
	if c.Request().ContentLength > 0 {
		var m models.PerformanceMetricsInput
		if err := c.Bind(&m); err != nil {
			return respondEngineError(c, models.NewValidationError("metrics", "invalid performance metrics body"))
		}
		metrics = &m
	}

	calculation, err := cc.calculator.Calculate(ctx, services.CalculationInput{
		StructureID: structureID,
		BaseAmount:  baseAmount,
		Metrics:     metrics,
		Volume:      volume,
	})
	if err != nil {
		return respondEngineError(c, err)
	}

	calculation.CalculationID = uuid.New().String()

	// Ledger write failures must not take the result down with them; the
	// calculation itself is derived data the caller can always re-request.
	record := &models.CommissionRecord{
		StructureID: calculation.StructureID,
		Calculation: *calculation,
	}
	if agentID, err := agentObjectID(c); err == nil {
		record.AgentID = agentID
	}
	if err := cc.calculationRepo.Log(ctx, record); err != nil {
		cc.logger.Printf("Failed to log calculation %s: %v", calculation.CalculationID, err)
	}

	if cc.hub != nil {
		cc.hub.NotifyCalculationCompleted(calculation)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission calculated successfully",
		Data:    calculation,
	})
}

// GetCalculations returns the caller's logged calculations, newest first.
// An optional limit query parameter caps the page size.
func (cc *CalculationController) GetCalculations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agentID, err := agentObjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	var limit int64
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			return respondEngineError(c, models.NewValidationError("limit", "limit must be a non-negative integer"))
		}
	}

	records, err := cc.calculationRepo.ListByAgent(ctx, agentID, limit)
	if err != nil {
		cc.logger.Printf("Failed to list calculations for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve calculations",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Calculations retrieved successfully",
		Data: map[string]interface{}{
			"calculations": records,
			"count":        len(records),
		},
	})
}

// GetCalculationSummary aggregates the caller's earnings, settled and
// outstanding amounts, and withdrawal totals into one view.
func (cc *CalculationController) GetCalculationSummary(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agentID, err := agentObjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	totalEarned, count, err := cc.calculationRepo.TotalEarned(ctx, agentID)
	if err != nil {
		cc.logger.Printf("Failed to total earnings for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build summary",
		})
	}

	totalPaid, totalUnpaid, err := cc.calculationRepo.TotalsByPaidState(ctx, agentID)
	if err != nil {
		cc.logger.Printf("Failed to total paid state for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build summary",
		})
	}

	totalWithdrawn, totalPending, err := withdrawalTotals(ctx, cc.withdrawalRepo, agentID)
	if err != nil {
		cc.logger.Printf("Failed to total withdrawals for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to build summary",
		})
	}

	summary := models.CommissionSummary{
		TotalEarned:      totalEarned,
		TotalPaid:        totalPaid,
		TotalUnpaid:      totalUnpaid,
		TotalWithdrawn:   totalWithdrawn,
		TotalPending:     totalPending,
		AvailableBalance: totalEarned - totalWithdrawn - totalPending,
		CalculationCount: count,
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission summary retrieved successfully",
		Data:    summary,
	})
}

// GetBalance returns the caller's available commission balance.
func (cc *CalculationController) GetBalance(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agentID, err := agentObjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	totalEarned, _, err := cc.calculationRepo.TotalEarned(ctx, agentID)
	if err != nil {
		cc.logger.Printf("Failed to total earnings for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve balance",
		})
	}

	totalWithdrawn, totalPending, err := withdrawalTotals(ctx, cc.withdrawalRepo, agentID)
	if err != nil {
		cc.logger.Printf("Failed to total withdrawals for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve balance",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Balance retrieved successfully",
		Data: map[string]interface{}{
			"totalEarned":      totalEarned,
			"totalWithdrawn":   totalWithdrawn,
			"totalPending":     totalPending,
			"availableBalance": totalEarned - totalWithdrawn - totalPending,
		},
	})
}

// withdrawalTotals reports how much of an agent's earnings are already
// withdrawn and how much sits reserved in pending requests.
func withdrawalTotals(ctx context.Context, repo *repositories.WithdrawalRepository, agentID primitive.ObjectID) (withdrawn, pending float64, err error) {
	withdrawn, err = repo.TotalByStatus(ctx, agentID, models.WithdrawalStatusApproved)
	if err != nil {
		return 0, 0, err
	}
	pending, err = repo.TotalByStatus(ctx, agentID, models.WithdrawalStatusPending)
	if err != nil {
		return 0, 0, err
	}
	return withdrawn, pending, nil
}

// agentObjectID resolves the authenticated caller to a document id. The
// env-configured admin carries a non-hex subject and fails the conversion.
func agentObjectID(c echo.Context) (primitive.ObjectID, error) {
	userID := middleware.GetUserIDFromToken(c)
	if userID == "" {
		return primitive.NilObjectID, errors.New("no user in token")
	}
	return primitive.ObjectIDFromHex(userID)
}

// respondEngineError maps the calculation error taxonomy onto HTTP statuses:
// ValidationError 400, StructureNotFound 404, InactiveStructure 409,
// ConfigurationError 500.
func respondEngineError(c echo.Context, err error) error {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: validationErr.Error(),
			Data:    validationErr,
		})
	}

	if errors.Is(err, models.ErrStructureNotFound) {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Commission structure not found",
		})
	}

	if errors.Is(err, models.ErrInactiveStructure) {
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: "Commission structure has been deactivated",
		})
	}

	var configErr *models.ConfigurationError
	if errors.As(err, &configErr) {
		log.Printf("Structure configuration error: %v", configErr)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Commission structure configuration is invalid",
		})
	}

	log.Printf("Calculation error: %v", err)
	return c.JSON(http.StatusInternalServerError, models.Response{
		Status:  http.StatusInternalServerError,
		Message: "Failed to calculate commission",
	})
}
