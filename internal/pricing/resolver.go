package pricing

import (
	"errors"
	"time"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"gorm.io/gorm"
)

var ErrNoPrice = errors.New("no price configured for this person type and menu")

// Resolve returns the per-person CZK price for a visit date. A date
// override wins over the default; a missing default is an error so a
// reservation can never be priced silently at zero.
func Resolve(date time.Time, personType models.PersonType, menuCode string) (float64, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	var override models.PricingOverride
	err := database.DB.
		Where("date = ? AND person_type = ? AND menu_code = ?", day, personType, menuCode).
		First(&override).Error
	if err == nil {
		return override.Price, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	var def models.PricingDefault
	err = database.DB.
		Where("person_type = ? AND menu_code = ?", personType, menuCode).
		First(&def).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNoPrice
		}
		return 0, err
	}

	return def.Price, nil
}
