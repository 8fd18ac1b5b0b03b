package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"
)

type LogOptions struct {
	UserID      uint
	UserName    string
	EntityType  string
	EntityID    uint
	Action      models.AuditAction
	Description string
	Before      any
	After       any
}

func WriteLog(opts LogOptions) error {
	// jsonb columns reject the empty string, use JSON null instead
	beforeStr := "null"
	afterStr := "null"

	if opts.Before != nil {
		if b, err := json.Marshal(opts.Before); err == nil {
			beforeStr = string(b)
		}
	}
	if opts.After != nil {
		if b, err := json.Marshal(opts.After); err == nil {
			afterStr = string(b)
		}
	}

	log := models.AuditLog{
		UserID:      opts.UserID,
		UserName:    opts.UserName,
		EntityType:  opts.EntityType,
		EntityID:    opts.EntityID,
		Action:      opts.Action,
		Description: opts.Description,
		BeforeData:  beforeStr,
		AfterData:   afterStr,
		Undone:      false,
		IsUndone:    false,
	}

	if err := database.DB.Create(&log).Error; err != nil {
		return fmt.Errorf("could not write audit log: %w", err)
	}

	return nil
}

// UndoLog reverts the change a log row describes. Only self-contained
// entities can be undone; stock movements are refused because reverting
// the row would leave the item quantity out of sync.
func UndoLog(logID uint, userID uint, userName string) error {
	var log models.AuditLog
	if err := database.DB.First(&log, "id = ?", logID).Error; err != nil {
		return fmt.Errorf("log not found: %w", err)
	}

	if log.IsUndone {
		return fmt.Errorf("this change has already been undone")
	}

	switch log.Action {
	case models.AuditActionCreate:
		if err := deleteEntity(log.EntityType, log.EntityID); err != nil {
			return fmt.Errorf("could not delete entity: %w", err)
		}

	case models.AuditActionUpdate:
		if err := restoreEntity(log.EntityType, log.EntityID, log.BeforeData); err != nil {
			return fmt.Errorf("could not restore entity: %w", err)
		}

	case models.AuditActionDelete:
		if err := recreateEntity(log.EntityType, log.AfterData); err != nil {
			return fmt.Errorf("could not recreate entity: %w", err)
		}

	default:
		return fmt.Errorf("this action cannot be undone")
	}

	now := time.Now()
	log.IsUndone = true
	log.UndoneBy = &userID
	log.UndoneAt = &now

	if err := database.DB.Save(&log).Error; err != nil {
		return fmt.Errorf("could not update log: %w", err)
	}

	undoLog := models.AuditLog{
		UserID:      userID,
		UserName:    userName,
		EntityType:  log.EntityType,
		EntityID:    log.EntityID,
		Action:      models.AuditActionUndo,
		Description: fmt.Sprintf("Undone: %s", log.Description),
		BeforeData:  log.AfterData,
		AfterData:   log.BeforeData,
		Undone:      true,
		IsUndone:    false,
	}

	if err := database.DB.Create(&undoLog).Error; err != nil {
		return fmt.Errorf("could not write undo log: %w", err)
	}

	return nil
}

func deleteEntity(entityType string, entityID uint) error {
	switch entityType {
	case "cashbox_entry":
		return database.DB.Delete(&models.CashboxEntry{}, "id = ?", entityID).Error
	case "pricing_override":
		return database.DB.Delete(&models.PricingOverride{}, "id = ?", entityID).Error
	case "commission_payout":
		return database.DB.Delete(&models.CommissionPayout{}, "id = ?", entityID).Error
	case "stock_movement":
		return fmt.Errorf("stock movements cannot be undone, record a compensating movement instead")
	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}

func recreateEntity(entityType string, dataJSON string) error {
	switch entityType {
	case "cashbox_entry":
		var entry models.CashboxEntry
		if err := json.Unmarshal([]byte(dataJSON), &entry); err != nil {
			return err
		}
		entry.ID = 0
		return database.DB.Create(&entry).Error

	case "pricing_override":
		var override models.PricingOverride
		if err := json.Unmarshal([]byte(dataJSON), &override); err != nil {
			return err
		}
		override.ID = 0
		return database.DB.Create(&override).Error

	case "commission_payout":
		var payout models.CommissionPayout
		if err := json.Unmarshal([]byte(dataJSON), &payout); err != nil {
			return err
		}
		payout.ID = 0
		return database.DB.Create(&payout).Error

	case "stock_movement":
		return fmt.Errorf("stock movements cannot be undone, record a compensating movement instead")

	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}

func restoreEntity(entityType string, entityID uint, dataJSON string) error {
	switch entityType {
	case "cashbox_entry":
		var entry models.CashboxEntry
		if err := json.Unmarshal([]byte(dataJSON), &entry); err != nil {
			return err
		}
		return database.DB.Model(&models.CashboxEntry{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"date":        entry.Date,
			"category_id": entry.CategoryID,
			"direction":   entry.Direction,
			"currency":    entry.Currency,
			"amount":      entry.Amount,
			"note":        entry.Note,
		}).Error

	case "pricing_override":
		var override models.PricingOverride
		if err := json.Unmarshal([]byte(dataJSON), &override); err != nil {
			return err
		}
		return database.DB.Model(&models.PricingOverride{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"date":        override.Date,
			"person_type": override.PersonType,
			"menu_code":   override.MenuCode,
			"price":       override.Price,
		}).Error

	case "commission_payout":
		var payout models.CommissionPayout
		if err := json.Unmarshal([]byte(dataJSON), &payout); err != nil {
			return err
		}
		return database.DB.Model(&models.CommissionPayout{}).Where("id = ?", entityID).Updates(map[string]interface{}{
			"partner_id": payout.PartnerID,
			"date":       payout.Date,
			"amount":     payout.Amount,
			"note":       payout.Note,
		}).Error

	case "stock_movement":
		return fmt.Errorf("stock movements cannot be undone, record a compensating movement instead")

	default:
		return fmt.Errorf("unknown entity type: %s", entityType)
	}
}
