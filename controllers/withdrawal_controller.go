// controllers/withdrawal_controller.go
package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/gomail.v2"

	"github.com/investlink/commission_backend/middleware"
	"github.com/investlink/commission_backend/models"
	"github.com/investlink/commission_backend/repositories"
	"github.com/investlink/commission_backend/services"
	"github.com/investlink/commission_backend/websocket"
)

// minWithdrawalAmount is the smallest commission payout the finance team
// will disburse.
const minWithdrawalAmount = 10.0

// WithdrawalController handles agent withdrawal requests and their admin
// processing, including the disbursement through the external payout
// processor.
type WithdrawalController struct {
	withdrawalRepo  *repositories.WithdrawalRepository
	calculationRepo *repositories.CalculationRepository
	adminRepo       *repositories.AdminRepository
	payoutService   *services.PayoutService
	hub             *websocket.Hub
	logger          *log.Logger
}

// NewWithdrawalController creates a new withdrawal controller
func NewWithdrawalController(withdrawalRepo *repositories.WithdrawalRepository, calculationRepo *repositories.CalculationRepository, adminRepo *repositories.AdminRepository, payoutService *services.PayoutService, hub *websocket.Hub) *WithdrawalController {
	return &WithdrawalController{
		withdrawalRepo:  withdrawalRepo,
		calculationRepo: calculationRepo,
		adminRepo:       adminRepo,
		payoutService:   payoutService,
		hub:             hub,
		logger:          log.Default(),
	}
}

// RequestWithdrawal records a pending withdrawal against the caller's
// available balance and notifies the finance inbox.
func (wc *WithdrawalController) RequestWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agentID, err := agentObjectID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.WithdrawalRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Withdrawal amount must be greater than zero",
		})
	}

	if req.Amount < minWithdrawalAmount {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Minimum withdrawal amount is $%.2f", minWithdrawalAmount),
		})
	}

	totalEarned, _, err := wc.calculationRepo.TotalEarned(ctx, agentID)
	if err != nil {
		wc.logger.Printf("Failed to total earnings for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check balance",
		})
	}
	totalWithdrawn, totalPending, err := withdrawalTotals(ctx, wc.withdrawalRepo, agentID)
	if err != nil {
		wc.logger.Printf("Failed to total withdrawals for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to check balance",
		})
	}

	availableBalance := totalEarned - totalWithdrawn - totalPending
	if req.Amount > availableBalance {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("Withdrawal amount $%.2f exceeds available balance $%.2f", req.Amount, availableBalance),
		})
	}

	withdrawal := &models.Withdrawal{
		UserID:    agentID,
		Reference: uuid.New().String(),
		Amount:    req.Amount,
		UserNote:  req.UserNote,
	}
	if err := wc.withdrawalRepo.Create(ctx, withdrawal); err != nil {
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to create withdrawal request",
		})
	}

	// Notify the finance inbox; a mail failure never blocks the request
	userNoteText := ""
	if req.UserNote != "" {
		userNoteText = fmt.Sprintf("\nAgent Note: %s", req.UserNote)
	}
	body := fmt.Sprintf("A new commission withdrawal request has been submitted.\n\nAgent ID: %s\nAmount: $%.2f\nReference: %s\nRequested At: %s%s\n\nPlease review and approve or reject this request.",
		agentID.Hex(),
		req.Amount,
		withdrawal.Reference,
		withdrawal.CreatedAt.Format("2006-01-02 15:04:05"),
		userNoteText)
	if err := wc.sendAdminNotificationEmail("New Commission Withdrawal Request", body); err != nil {
		wc.logger.Printf("Failed to send admin notification email for withdrawal request: %v", err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Withdrawal request submitted successfully",
		Data:    withdrawal,
	})
}

// GetWithdrawals returns the caller's withdrawal history with totals.
func (wc *WithdrawalController) GetWithdrawals(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	agentID, err := agentObjectID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	withdrawals, err := wc.withdrawalRepo.ListByUser(ctx, agentID)
	if err != nil {
		wc.logger.Printf("Failed to list withdrawals for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve withdrawals",
		})
	}

	totalWithdrawn, totalPending, err := withdrawalTotals(ctx, wc.withdrawalRepo, agentID)
	if err != nil {
		wc.logger.Printf("Failed to total withdrawals for %s: %v", agentID.Hex(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve withdrawals",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawals retrieved successfully",
		Data: map[string]interface{}{
			"withdrawals":    withdrawals,
			"totalWithdrawn": totalWithdrawn,
			"totalPending":   totalPending,
			"count":          len(withdrawals),
		},
	})
}

// ListWithdrawalRequests returns the admin review queue, optionally filtered
// by status. Admin-gated.
func (wc *WithdrawalController) ListWithdrawalRequests(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	status := c.QueryParam("status")
	if status == "" {
		status = models.WithdrawalStatusPending
	}
	if status == "all" {
		status = ""
	}

	withdrawals, err := wc.withdrawalRepo.ListByStatus(ctx, status)
	if err != nil {
		wc.logger.Printf("Failed to list withdrawal requests: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve withdrawal requests",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Withdrawal requests retrieved successfully",
		Data: map[string]interface{}{
			"withdrawals": withdrawals,
			"count":       len(withdrawals),
		},
	})
}

// ProcessWithdrawal approves or rejects a pending withdrawal. Admin-gated.
// Approval pushes the disbursement through the payout processor and marks
// the covered commission records as paid.
func (wc *WithdrawalController) ProcessWithdrawal(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	claims := middleware.GetUserFromToken(c)
	if claims == nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Invalid token",
		})
	}

	withdrawalID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal ID format",
		})
	}

	adminID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid admin ID",
		})
	}

	var req models.WithdrawalProcessRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Status must be either approved or rejected",
		})
	}

	withdrawal, err := wc.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal request not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find withdrawal request",
		})
	}

	if withdrawal.Status != models.WithdrawalStatusPending {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Withdrawal request is already processed",
		})
	}

	var payoutID int64
	if req.Status == models.WithdrawalStatusApproved {
		payoutID, err = wc.disburse(withdrawal)
		if err != nil {
			wc.logger.Printf("Payout failed for withdrawal %s: %v", withdrawal.ID.Hex(), err)
			return c.JSON(http.StatusBadGateway, models.Response{
				Status:  http.StatusBadGateway,
				Message: "Payout processor rejected the transfer: " + err.Error(),
			})
		}
	}

	updated, err := wc.withdrawalRepo.Process(ctx, withdrawalID, adminID, req.Status, req.AdminNote, payoutID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Withdrawal request is already processed",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to update withdrawal request",
		})
	}

	if req.Status == models.WithdrawalStatusApproved {
		// Settlement metadata; the balance itself is derived from the ledgers
		if err := wc.calculationRepo.MarkPaid(ctx, withdrawal.UserID, withdrawal.Amount); err != nil {
			wc.logger.Printf("Failed to mark commissions paid for %s: %v", withdrawal.UserID.Hex(), err)
		}
	}

	wc.notifyAgent(ctx, updated)

	if wc.hub != nil {
		// The agent may not be connected; that is fine
		_ = wc.hub.NotifyWithdrawalProcessed(updated.UserID, updated)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: fmt.Sprintf("Withdrawal request %s successfully", req.Status),
		Data:    updated,
	})
}

// GetPayoutStatus queries the payout processor for the state of an approved
// withdrawal's transfer. Admin-gated.
func (wc *WithdrawalController) GetPayoutStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	withdrawalID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid withdrawal ID format",
		})
	}

	withdrawal, err := wc.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return c.JSON(http.StatusNotFound, models.Response{
				Status:  http.StatusNotFound,
				Message: "Withdrawal request not found",
			})
		}
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to find withdrawal request",
		})
	}

	if withdrawal.PayoutID == 0 {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "No payout has been initiated for this withdrawal",
		})
	}

	status, err := wc.payoutService.GetPayoutStatus("USD", withdrawal.PayoutID)
	if err != nil {
		wc.logger.Printf("Payout status lookup failed for withdrawal %s: %v", withdrawal.ID.Hex(), err)
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to retrieve payout status from processor",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Payout status retrieved successfully",
		Data: map[string]interface{}{
			"withdrawalId": withdrawal.ID.Hex(),
			"payoutId":     withdrawal.PayoutID,
			"payoutStatus": status,
		},
	})
}

// disburse checks the processor balance and pushes the transfer. Returns the
// processor transaction id.
func (wc *WithdrawalController) disburse(withdrawal *models.Withdrawal) (int64, error) {
	balance, err := wc.payoutService.GetBalance()
	if err != nil {
		return 0, fmt.Errorf("failed to get processor balance: %w", err)
	}
	if balance < withdrawal.Amount {
		return 0, fmt.Errorf("insufficient processor balance $%.2f for payout $%.2f", balance, withdrawal.Amount)
	}

	amount := withdrawal.Amount
	return wc.payoutService.SendPayout(models.PayoutRequest{
		Amount:    &amount,
		Currency:  "USD",
		Reference: withdrawal.Reference,
	})
}

// notifyAgent emails the requesting agent about the decision. Failures are
// logged and swallowed.
func (wc *WithdrawalController) notifyAgent(ctx context.Context, withdrawal *models.Withdrawal) {
	agent, err := wc.adminRepo.FindByID(ctx, withdrawal.UserID)
	if err != nil || agent.Email == "" {
		return
	}

	name := agent.FullName
	if name == "" {
		name = agent.Email
	}

	processedAt := time.Now()
	if withdrawal.ProcessedAt != nil {
		processedAt = *withdrawal.ProcessedAt
	}

	var subject, body string
	if withdrawal.Status == models.WithdrawalStatusApproved {
		subject = "Commission Withdrawal Approved"
		body = fmt.Sprintf("Dear %s,\n\nYour commission withdrawal request has been approved.\n\nAmount: $%.2f\nReference: %s\nProcessed At: %s\n\nThe funds are on their way through your payout method.",
			name, withdrawal.Amount, withdrawal.Reference, processedAt.Format("2006-01-02 15:04:05"))
	} else {
		reason := withdrawal.AdminNote
		if reason == "" {
			reason = "No reason provided"
		}
		subject = "Commission Withdrawal Rejected"
		body = fmt.Sprintf("Dear %s,\n\nYour commission withdrawal request has been rejected.\n\nAmount: $%.2f\nReference: %s\nReason: %s\n\nThe reserved amount has been returned to your available balance.",
			name, withdrawal.Amount, withdrawal.Reference, reason)
	}

	if err := wc.sendNotificationEmail(agent.Email, subject, body); err != nil {
		wc.logger.Printf("Failed to send withdrawal notification email: %v", err)
	}
}

// sendAdminNotificationEmail notifies the finance inbox configured in
// ADMIN_EMAIL.
func (wc *WithdrawalController) sendAdminNotificationEmail(subject, body string) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		log.Println("Admin email not configured for notifications")
		return fmt.Errorf("admin email not configured")
	}
	return wc.sendNotificationEmail(adminEmail, subject, body)
}

// sendNotificationEmail sends a plain-text email through the configured SMTP
// relay.
func (wc *WithdrawalController) sendNotificationEmail(to, subject, body string) error {
	smtpHost := os.Getenv("SMTP_HOST")
	smtpUser := os.Getenv("SMTP_USER")
	smtpPass := os.Getenv("SMTP_PASS")
	fromEmail := os.Getenv("FROM_EMAIL")

	// Use FROM_EMAIL as sender, if not available, fall back to SMTP_USER
	senderEmail := fromEmail
	if senderEmail == "" {
		senderEmail = smtpUser
	}

	if smtpHost == "" || smtpUser == "" || smtpPass == "" || senderEmail == "" {
		log.Println("SMTP configuration is incomplete for notifications")
		return fmt.Errorf("SMTP configuration is incomplete: check SMTP_HOST, SMTP_USER, SMTP_PASS, and FROM_EMAIL")
	}

	smtpPortStr := os.Getenv("SMTP_PORT")
	smtpPort := 2525 // Default port
	if smtpPortStr != "" {
		if portNum, err := strconv.Atoi(smtpPortStr); err == nil && portNum > 0 {
			smtpPort = portNum
		}
	}

	m := gomail.NewMessage()
	m.SetHeader("From", senderEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPass)
	return d.DialAndSend(m)
}
