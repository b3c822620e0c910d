// controllers/campaign_controller.go
package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/labstack/echo/v4"

	"github.com/investlink/commission_backend/models"
	"github.com/investlink/commission_backend/repositories"
	"github.com/investlink/commission_backend/utils"
)

// CampaignController surfaces the campaign programs attached to commission
// structures and their shareable QR codes.
type CampaignController struct {
	structureRepo *repositories.StructureRepository
	logger        *log.Logger
}

// NewCampaignController creates a new campaign controller
func NewCampaignController(structureRepo *repositories.StructureRepository) *CampaignController {
	return &CampaignController{
		structureRepo: structureRepo,
		logger:        log.Default(),
	}
}

// GetActiveCampaigns lists the structures whose campaign window covers the
// current instant.
func (cac *CampaignController) GetActiveCampaigns(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	structures, err := cac.structureRepo.List(ctx, false)
	if err != nil {
		cac.logger.Printf("Failed to list structures: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve campaigns",
		})
	}

	now := time.Now()
	campaigns := []map[string]interface{}{}
	for i := range structures {
		s := &structures[i]
		if !s.HasActiveCampaign(now) {
			continue
		}
		campaigns = append(campaigns, map[string]interface{}{
			"structureId": s.StructureID,
			"name":        s.Name,
			"campaign":    s.CampaignRules,
			"shareLink":   campaignShareLink(s.CampaignRules.ShareCode),
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Active campaigns retrieved successfully",
		Data: map[string]interface{}{
			"campaigns": campaigns,
			"count":     len(campaigns),
		},
	})
}

// GetCampaignQRCode returns a scannable share QR for a structure's campaign.
// Structures created before share codes existed get one backfilled here.
func (cac *CampaignController) GetCampaignQRCode(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	structure, err := cac.structureRepo.GetByStructureID(ctx, c.Param("structureId"))
	if err != nil {
		return respondEngineError(c, err)
	}

	if structure.CampaignRules == nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Structure has no campaign",
		})
	}

	shareCode := structure.CampaignRules.ShareCode
	if shareCode == "" {
		shareCode, err = utils.GenerateCampaignShareCode()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.Response{
				Status:  http.StatusInternalServerError,
				Message: "Failed to generate share code",
			})
		}
		if err := cac.structureRepo.SetCampaignShareCode(ctx, structure.StructureID, shareCode); err != nil {
			cac.logger.Printf("Failed to store share code for %s: %v", structure.StructureID, err)
		}
	}

	qrCodeBase64, err := generateShareQRCode(shareCode)
	if err != nil {
		cac.logger.Printf("Failed to generate QR code for %s: %v", structure.StructureID, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "QR code generated successfully",
		Data: map[string]interface{}{
			"qrCode":      qrCodeBase64,
			"shareCode":   shareCode,
			"shareLink":   campaignShareLink(shareCode),
			"campaignId":  structure.CampaignRules.CampaignID,
			"structureId": structure.StructureID,
		},
	})
}

// generateShareQRCode creates a QR code image for a campaign share code
func generateShareQRCode(shareCode string) (string, error) {
	content := campaignShareLink(shareCode)

	qrCode, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", err
	}

	// Scale the QR code to a reasonable size (300x300 pixels)
	qrCode, err = barcode.Scale(qrCode, 300, 300)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = png.Encode(&buf, qrCode)
	if err != nil {
		return "", err
	}

	// Convert to base64 for embedding in responses
	base64QR := base64.StdEncoding.EncodeToString(buf.Bytes())
	return "data:image/png;base64," + base64QR, nil
}

func campaignShareLink(shareCode string) string {
	return fmt.Sprintf("https://app.investlink.io/join?campaign=%s", shareCode)
}
