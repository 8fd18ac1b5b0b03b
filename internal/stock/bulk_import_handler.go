package stock

import (
	"fmt"
	"strconv"
	"strings"

	"folklore-backend/internal/database"
	"folklore-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

type ImportRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Errors  []ImportRowError `json:"errors"`
}

// parseQuantity accepts both "12.5" and "12,5".
func parseQuantity(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}

// POST /api/admin/stock-items/import
// Uploads an .xlsx with columns: name, unit, quantity, min quantity.
// Rows are upserted by item name; quantity is only set for new items,
// existing levels change through movements.
func BulkImportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read uploaded file: "+err.Error())
		}

		if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files are accepted")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not open file: "+err.Error())
		}
		defer file.Close()

		excelFile, err := excelize.OpenReader(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read Excel file: "+err.Error())
		}
		defer excelFile.Close()

		sheetList := excelFile.GetSheetList()
		if len(sheetList) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file has no sheets")
		}
		sheetName := sheetList[0]

		rows, err := excelFile.GetRows(sheetName)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read sheet: "+err.Error())
		}

		if len(rows) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Excel file is empty")
		}

		// Skip the first row when it looks like a header.
		startIndex := 0
		if len(rows[0]) > 0 {
			firstCell := strings.ToUpper(strings.TrimSpace(rows[0][0]))
			if strings.Contains(firstCell, "NAME") || strings.Contains(firstCell, "ITEM") ||
				strings.Contains(firstCell, "POLOŽKA") || strings.Contains(firstCell, "NÁZEV") {
				startIndex = 1
			}
		}

		result := ImportResult{Errors: make([]ImportRowError, 0)}

		for i := startIndex; i < len(rows); i++ {
			row := rows[i]
			rowNum := i + 1

			if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
				continue
			}

			name := strings.TrimSpace(row[0])

			unit := ""
			if len(row) > 1 {
				unit = strings.TrimSpace(row[1])
			}
			if unit == "" {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "missing unit"})
				continue
			}

			var quantity, minQuantity float64
			if len(row) > 2 {
				quantity, err = parseQuantity(row[2])
				if err != nil {
					result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "invalid quantity: " + row[2]})
					continue
				}
			}
			if len(row) > 3 {
				minQuantity, err = parseQuantity(row[3])
				if err != nil {
					result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "invalid minimum: " + row[3]})
					continue
				}
			}
			if quantity < 0 || minQuantity < 0 {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "negative quantity"})
				continue
			}

			var existing models.StockItem
			findErr := database.DB.Where("LOWER(name) = ?", strings.ToLower(name)).First(&existing).Error

			if findErr == nil {
				existing.Unit = unit
				existing.MinQuantity = minQuantity
				if err := database.DB.Save(&existing).Error; err != nil {
					result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: "could not update item"})
					continue
				}
				result.Updated++
				continue
			}

			item := models.StockItem{
				Name:        name,
				Unit:        unit,
				Quantity:    quantity,
				MinQuantity: minQuantity,
				Active:      true,
			}
			if err := database.DB.Create(&item).Error; err != nil {
				result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Message: fmt.Sprintf("could not create item: %v", err)})
				continue
			}
			result.Created++
		}

		return c.JSON(result)
	}
}
