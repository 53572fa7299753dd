package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"battery-sizing/internal/api/models"
	"battery-sizing/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BatteryHandler handles battery-related requests
type BatteryHandler struct {
	batteryDir string
	log        *zap.Logger
}

// NewBatteryHandler creates a new battery handler
func NewBatteryHandler(deps Deps) *BatteryHandler {
	dir := deps.BatteryDir
	// Convert to absolute path for reliability
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &BatteryHandler{batteryDir: dir, log: deps.logger()}
}

// ListBatteries handles GET /api/v1/batteries. Presets are listed with the
// defaults filled in for keys they leave out.
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	entries, err := os.ReadDir(h.batteryDir)
	if err != nil {
		h.log.Warn("read battery directory", zap.String("dir", h.batteryDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	defaults := config.Defaults().Battery
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(h.batteryDir, entry.Name())
		preset, err := config.LoadBatteryFile(path)
		if err != nil {
			h.log.Warn("skip battery preset", zap.String("file", path), zap.Error(err))
			continue
		}
		b := config.MergeBattery(defaults, preset)

		// "lfp_cabinet.yaml" -> "lfp_cabinet", the value battery_file takes.
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		name := b.Name
		if name == "" {
			name = id
		}
		batteries = append(batteries, models.BatteryInfo{
			ID:   id,
			Name: name,
			File: path,
			Specs: models.BatterySpecs{
				CostPerKWh:          b.CostPerKWh,
				ChargePowerRatio:    b.ChargePowerRatio,
				DischargePowerRatio: b.DischargePowerRatio,
				ChargeEfficiency:    b.ChargeEfficiency,
				DischargeEfficiency: b.DischargeEfficiency,
				MinSOC:              b.MinSOC,
				MaxSOC:              b.MaxSOC,
				MaxCapacityKWh:      b.MaxCapacityKWh,
			},
		})
	}

	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}
