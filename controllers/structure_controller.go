// controllers/structure_controller.go
package controllers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/investlink/commission_backend/models"
	"github.com/investlink/commission_backend/repositories"
	"github.com/investlink/commission_backend/utils"
	"github.com/investlink/commission_backend/websocket"
)

// StructureController manages the commission structure configuration that
// every calculation reads from.
type StructureController struct {
	structureRepo *repositories.StructureRepository
	hub           *websocket.Hub
	logger        *log.Logger
}

// NewStructureController creates a new structure controller
func NewStructureController(structureRepo *repositories.StructureRepository, hub *websocket.Hub) *StructureController {
	return &StructureController{
		structureRepo: structureRepo,
		hub:           hub,
		logger:        log.Default(),
	}
}

// CreateStructure stores a new commission structure. Admin-gated. A campaign
// without a share code gets one issued here so agents can distribute it
// immediately.
func (sc *StructureController) CreateStructure(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var req models.CommissionStructureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid structure data: " + err.Error(),
		})
	}
	if err := req.Validate(); err != nil {
		return respondEngineError(c, err)
	}

	structure := req.ToStructure()
	if structure.CampaignRules != nil && structure.CampaignRules.ShareCode == "" {
		code, err := utils.GenerateCampaignShareCode()
		if err != nil {
			sc.logger.Printf("Failed to generate campaign share code: %v", err)
		} else {
			structure.CampaignRules.ShareCode = code
		}
	}

	if agentID, err := agentObjectID(c); err == nil {
		structure.CreatedBy = agentID
	}

	if err := sc.structureRepo.Create(ctx, &structure); err != nil {
		return respondEngineError(c, err)
	}

	if sc.hub != nil {
		sc.hub.NotifyStructureUpdated(&structure)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Commission structure created successfully",
		Data:    structure,
	})
}

// GetStructure returns a single structure by its structureId.
func (sc *StructureController) GetStructure(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	structure, err := sc.structureRepo.GetByStructureID(ctx, c.Param("structureId"))
	if err != nil {
		return respondEngineError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission structure retrieved successfully",
		Data:    structure,
	})
}

// UpdateStructure rewrites a structure's configuration in place. Admin-gated.
// The structureId in the path wins over whatever the body carries.
func (sc *StructureController) UpdateStructure(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	structureID := c.Param("structureId")

	var req models.CommissionStructureRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	req.StructureID = structureID

	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid structure data: " + err.Error(),
		})
	}
	if err := req.Validate(); err != nil {
		return respondEngineError(c, err)
	}

	structure := req.ToStructure()
	if structure.CampaignRules != nil && structure.CampaignRules.ShareCode == "" {
		code, err := utils.GenerateCampaignShareCode()
		if err != nil {
			sc.logger.Printf("Failed to generate campaign share code: %v", err)
		} else {
			structure.CampaignRules.ShareCode = code
		}
	}

	updated, err := sc.structureRepo.Update(ctx, structureID, &structure)
	if err != nil {
		return respondEngineError(c, err)
	}

	if sc.hub != nil {
		sc.hub.NotifyStructureUpdated(updated)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission structure updated successfully",
		Data:    updated,
	})
}

// ListStructures returns all structures. Inactive ones are included only
// when includeInactive=true.
func (sc *StructureController) ListStructures(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	includeInactive := c.QueryParam("includeInactive") == "true"

	structures, err := sc.structureRepo.List(ctx, includeInactive)
	if err != nil {
		sc.logger.Printf("Failed to list structures: %v", err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to retrieve commission structures",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission structures retrieved successfully",
		Data: map[string]interface{}{
			"structures": structures,
			"count":      len(structures),
		},
	})
}

// DeactivateStructure soft-deletes a structure. Admin-gated. The document is
// kept so logged calculations stay explainable; new calculations against it
// are rejected.
func (sc *StructureController) DeactivateStructure(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updated, err := sc.structureRepo.SetActive(ctx, c.Param("structureId"), false)
	if err != nil {
		return respondEngineError(c, err)
	}

	if sc.hub != nil {
		sc.hub.NotifyStructureUpdated(updated)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission structure deactivated successfully",
		Data:    updated,
	})
}

// ActivateStructure re-enables a deactivated structure. Admin-gated.
func (sc *StructureController) ActivateStructure(c echo.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	updated, err := sc.structureRepo.SetActive(ctx, c.Param("structureId"), true)
	if err != nil {
		return respondEngineError(c, err)
	}

	if sc.hub != nil {
		sc.hub.NotifyStructureUpdated(updated)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Commission structure activated successfully",
		Data:    updated,
	})
}
