package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Restaurant represents a single dining establishment. There may be
// multiple restaurants owned by one entity; each session addresses one
// "current" restaurant.
type Restaurant struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Address     string         `gorm:"not null" json:"address"`
	PhoneNumber string         `gorm:"size:20" json:"phone_number"`
	Description string         `gorm:"type:text" json:"description"`
	Menu        []MenuItem     `gorm:"many2many:restaurants_menus;constraint:OnDelete:CASCADE" json:"menu,omitempty"`
	Employees   []User         `gorm:"foreignKey:RestaurantID" json:"employees,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Restaurant model
func (Restaurant) TableName() string {
	return "restaurants"
}

// RestaurantUpdate is the allow-list of restaurant attributes that may be
// changed through the employee surface. Nil fields are left untouched.
type RestaurantUpdate struct {
	Name        *string `json:"name"`
	Address     *string `json:"address"`
	PhoneNumber *string `json:"phone_number"`
	Description *string `json:"description"`
}

// ApplyRestaurantUpdate applies the non-nil fields of the update to the
// restaurant and persists them.
func ApplyRestaurantUpdate(db *gorm.DB, restaurant *Restaurant, update RestaurantUpdate) error {
	changes := make(map[string]interface{})
	if update.Name != nil {
		changes["name"] = *update.Name
	}
	if update.Address != nil {
		changes["address"] = *update.Address
	}
	if update.PhoneNumber != nil {
		changes["phone_number"] = *update.PhoneNumber
	}
	if update.Description != nil {
		changes["description"] = *update.Description
	}

	if len(changes) == 0 {
		return nil
	}

	if err := db.Model(restaurant).Updates(changes).Error; err != nil {
		return err
	}
	return nil
}

// RestaurantMenu returns the named restaurant's menu with vocabularies
// preloaded.
func RestaurantMenu(db *gorm.DB, restaurantID uint) ([]MenuItem, error) {
	var restaurant Restaurant
	err := db.Preload("Menu.Ingredients").Preload("Menu.Intolerants").First(&restaurant, restaurantID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return restaurant.Menu, nil
}

// Table represents a physical dining table and whether it is occupied.
type Table struct {
	ID    uint `gorm:"primaryKey" json:"id"`
	Taken bool `gorm:"not null" json:"taken"`
}

// TableName specifies the table name for the Table model
func (Table) TableName() string {
	return "tables"
}

// AssignTable marks the named table taken. The check-and-set runs as a
// single conditional UPDATE, so when two requests race for the same free
// table exactly one wins; the other receives ErrTableUnavailable.
func AssignTable(db *gorm.DB, tableNumber uint) error {
	result := db.Model(&Table{}).
		Where("id = ? AND taken = ?", tableNumber, false).
		Update("taken", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish a missing table from a taken one
		var table Table
		if err := db.First(&table, tableNumber).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		return ErrTableUnavailable
	}
	return nil
}

// FreeTable marks a table not-taken. Freeing an already-free table is a no-op.
func FreeTable(db *gorm.DB, tableNumber uint) error {
	result := db.Model(&Table{}).Where("id = ?", tableNumber).Update("taken", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var table Table
		if err := db.First(&table, tableNumber).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
	}
	return nil
}

// ListFreeTables returns all tables currently available for seating.
func ListFreeTables(db *gorm.DB) ([]Table, error) {
	var tables []Table
	if err := db.Where("taken = ?", false).Order("id").Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}
