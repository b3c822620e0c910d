package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/investlink/commission_backend/models"
)

// PayoutService handles interactions with the payout processor API that
// disburses approved commission withdrawals.
type PayoutService struct {
	baseURL    string
	channel    string
	secret     string
	websiteURL string
	isTesting  bool
}

// NewPayoutService creates a new payout service instance
func NewPayoutService() *PayoutService {
	// Default to production unless PAYOUT_ENV is set to "testing"
	payoutEnv := os.Getenv("PAYOUT_ENV")
	isTesting := payoutEnv == "testing"

	baseURL := os.Getenv("PAYOUT_BASE_URL")
	if baseURL == "" {
		baseURL = "https://payouts.sandbox.investlink.io/api/"
	}

	// Get credentials from environment variables
	channel := os.Getenv("PAYOUT_CHANNEL")
	secret := os.Getenv("PAYOUT_SECRET")
	websiteURL := os.Getenv("PAYOUT_WEBSITE_URL")

	if channel == "" || secret == "" || websiteURL == "" {
		log.Printf("WARNING: payout processor credentials not fully configured:")
		if channel == "" {
			log.Printf("  - PAYOUT_CHANNEL is missing")
		}
		if secret == "" {
			log.Printf("  - PAYOUT_SECRET is missing")
		}
		if websiteURL == "" {
			log.Printf("  - PAYOUT_WEBSITE_URL is missing")
		}
		log.Printf("Please set these environment variables for withdrawal disbursement to work")
	} else {
		log.Printf("Payout Service Configuration:")
		log.Printf("  Environment: %s", map[bool]string{true: "testing", false: "production"}[isTesting])
		log.Printf("  Base URL: %s", baseURL)
		log.Printf("  Channel: %s", channel)
		log.Printf("  Website URL: %s", websiteURL)
		log.Printf("  Secret: [CONFIGURED]")
	}

	return &PayoutService{
		baseURL:    baseURL,
		channel:    channel,
		secret:     secret,
		websiteURL: websiteURL,
		isTesting:  isTesting,
	}
}

// getHeaders returns the standard headers required for payout API requests
func (s *PayoutService) getHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"channel":      s.channel,
		"secret":       s.secret,
		"websiteurl":   s.websiteURL,
	}
}

// makeRequest performs an HTTP request to the payout processor API
func (s *PayoutService) makeRequest(method, endpoint string, payload interface{}) (*models.PayoutResponse, error) {
	url := s.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if s.channel == "" || s.secret == "" || s.websiteURL == "" {
		return nil, fmt.Errorf("missing payout credentials. Please set PAYOUT_CHANNEL, PAYOUT_SECRET, and PAYOUT_WEBSITE_URL environment variables")
	}

	headers := s.getHeaders()

	// Log request details (only in testing or with debug enabled)
	if s.isTesting || os.Getenv("PAYOUT_DEBUG") == "true" {
		log.Printf("Payout API Request:")
		log.Printf("  URL: %s", url)
		log.Printf("  Method: %s", method)
		for key, value := range headers {
			if key == "secret" {
				log.Printf("  %s: [HIDDEN]", key)
			} else {
				log.Printf("  %s: %s", key, value)
			}
		}
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if s.isTesting || os.Getenv("PAYOUT_DEBUG") == "true" {
		log.Printf("Payout API Response: %s", string(respBody))
	}

	var payoutResp models.PayoutResponse
	if err := json.Unmarshal(respBody, &payoutResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w\nResponse body: %s", err, string(respBody))
	}

	if !payoutResp.Status {
		code := "unknown"
		if payoutResp.Code != nil {
			if codeStr, ok := payoutResp.Code.(string); ok {
				code = codeStr
			} else {
				code = fmt.Sprintf("%v", payoutResp.Code)
			}
		}

		// Extract dialog message for better error reporting
		errorMsg := ""
		if payoutResp.Dialog != nil {
			if dialogMap, ok := payoutResp.Dialog.(map[string]interface{}); ok {
				if msg, ok := dialogMap["message"].(string); ok {
					errorMsg = fmt.Sprintf("payout API error: %s - %s", code, msg)
				}
			}
		}
		if errorMsg == "" {
			errorMsg = fmt.Sprintf("payout API error: %s", code)
		}

		log.Printf("Payout API Error Details: Code=%s, Dialog=%v", code, payoutResp.Dialog)

		return &payoutResp, fmt.Errorf("%s", errorMsg)
	}

	return &payoutResp, nil
}

// GetBalance retrieves the real balance of the disbursement account
func (s *PayoutService) GetBalance() (float64, error) {
	resp, err := s.makeRequest("GET", "payment/account/balance", nil)
	if err != nil {
		return 0, err
	}

	if balanceDetails, ok := resp.Data["balanceDetails"].(map[string]interface{}); ok {
		if balance, ok := balanceDetails["balance"].(float64); ok {
			return balance, nil
		}
	}

	return 0, fmt.Errorf("failed to parse balance from response")
}

// SendPayout pushes an approved withdrawal to the processor and returns the
// processor transaction id for reconciliation.
func (s *PayoutService) SendPayout(req models.PayoutRequest) (int64, error) {
	resp, err := s.makeRequest("POST", "payment/payout", req)
	if err != nil {
		return 0, err
	}

	if transactionID, ok := resp.Data["transactionId"].(float64); ok {
		return int64(transactionID), nil
	}

	return 0, fmt.Errorf("failed to parse transaction id from response")
}

// GetPayoutStatus returns the status of a disbursement transaction
func (s *PayoutService) GetPayoutStatus(currency string, externalID int64) (string, error) {
	payload := models.PayoutRequest{
		Currency:   currency,
		ExternalID: &externalID,
	}

	resp, err := s.makeRequest("POST", "payment/payout/status", payload)
	if err != nil {
		return "", err
	}

	status := ""
	if s, ok := resp.Data["payoutStatus"].(string); ok {
		status = s
	}
	return status, nil
}
