package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultMenuItemImage is used when no photo has been uploaded for a dish.
const DefaultMenuItemImage = "/static/images/food_placeholder.png"

// Meal types used to group the displayed menu.
const (
	MealTypeEntree    = "entree"
	MealTypeAppetizer = "appetizer"
	MealTypeSoup      = "soup"
	MealTypeSalad     = "salad"
	MealTypeBeverage  = "beverage"
	MealTypeDessert   = "dessert"
)

// MenuItem represents a purchasable dish.
// MealType refers to what type it is: entree, appetizer, etc.
type MenuItem struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Image       string          `json:"image"`
	ImageS3Key  *string         `json:"image_s3_key,omitempty"` // nullable, S3 key for an uploaded photo
	MealType    string          `json:"meal_type"`
	InStock     bool            `gorm:"not null" json:"in_stock"`
	Vegetarian  bool            `gorm:"not null" json:"vegetarian"`
	Description string          `gorm:"type:text" json:"description"`
	Cost        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"cost"`
	Ingredients []Ingredient    `gorm:"many2many:items_ingredients;constraint:OnDelete:CASCADE" json:"ingredients,omitempty"`
	Intolerants []Intolerant    `gorm:"many2many:items_intolerants;constraint:OnDelete:CASCADE" json:"intolerants,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// TableName specifies the table name for the MenuItem model
func (MenuItem) TableName() string {
	return "menu_items"
}

// Ingredient is a shared vocabulary term attachable to menu items.
// Names are unique; terms are created on first reference and never deleted.
type Ingredient struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// TableName specifies the table name for the Ingredient model
func (Ingredient) TableName() string {
	return "ingredients"
}

// Intolerant is a food allergy term attachable to menu items.
type Intolerant struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

// TableName specifies the table name for the Intolerant model
func (Intolerant) TableName() string {
	return "intolerants"
}

// MenuItemInput carries the fields needed to create a menu item.
type MenuItemInput struct {
	Name        string   `json:"name" binding:"required"`
	Image       string   `json:"image"`
	MealType    string   `json:"meal_type"`
	InStock     *bool    `json:"in_stock"`
	Vegetarian  bool     `json:"vegetarian"`
	Description string   `json:"description"`
	Cost        string   `json:"cost" binding:"required"`
	Ingredients []string `json:"ingredients"`
	Intolerants []string `json:"intolerants"`
}

// AddMenuItem creates a MenuItem from the input, resolves its ingredient and
// intolerant name lists against the shared vocabularies (creating any names
// not yet present), attaches the resolved sets, and attaches the item to the
// restaurant's menu. The whole sequence runs in one transaction, so a
// failure at any point leaves no partial item behind.
func AddMenuItem(db *gorm.DB, restaurant *Restaurant, input MenuItemInput) (*MenuItem, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	cost, err := decimal.NewFromString(input.Cost)
	if err != nil {
		return nil, fmt.Errorf("%w: cost %q is not a valid amount", ErrInvalidInput, input.Cost)
	}
	if cost.IsNegative() {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	}

	item := MenuItem{
		Name:        input.Name,
		Image:       input.Image,
		MealType:    input.MealType,
		InStock:     true,
		Vegetarian:  input.Vegetarian,
		Description: input.Description,
		Cost:        cost,
	}
	if input.Image == "" {
		item.Image = DefaultMenuItemImage
	}
	if input.InStock != nil {
		item.InStock = *input.InStock
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}

		ingredients, err := resolveIngredients(tx, input.Ingredients)
		if err != nil {
			return err
		}
		if len(ingredients) > 0 {
			if err := tx.Model(&item).Association("Ingredients").Append(ingredients); err != nil {
				return err
			}
		}

		intolerants, err := resolveIntolerants(tx, input.Intolerants)
		if err != nil {
			return err
		}
		if len(intolerants) > 0 {
			if err := tx.Model(&item).Association("Intolerants").Append(intolerants); err != nil {
				return err
			}
		}

		return tx.Model(restaurant).Association("Menu").Append(&item)
	})
	if err != nil {
		return nil, err
	}

	return &item, nil
}

// resolveIngredients looks up each name in the ingredients vocabulary,
// creating any that do not exist yet. Empty names are skipped.
func resolveIngredients(tx *gorm.DB, names []string) ([]Ingredient, error) {
	var resolved []Ingredient
	for _, name := range names {
		if name == "" {
			continue
		}
		var ingredient Ingredient
		if err := tx.Where(Ingredient{Name: name}).FirstOrCreate(&ingredient).Error; err != nil {
			return nil, err
		}
		resolved = append(resolved, ingredient)
	}
	return resolved, nil
}

// resolveIntolerants is the intolerants counterpart of resolveIngredients.
func resolveIntolerants(tx *gorm.DB, names []string) ([]Intolerant, error) {
	var resolved []Intolerant
	for _, name := range names {
		if name == "" {
			continue
		}
		var intolerant Intolerant
		if err := tx.Where(Intolerant{Name: name}).FirstOrCreate(&intolerant).Error; err != nil {
			return nil, err
		}
		resolved = append(resolved, intolerant)
	}
	return resolved, nil
}

// GetMenuItem loads a menu item with its vocabularies.
func GetMenuItem(db *gorm.DB, id uint) (*MenuItem, error) {
	var item MenuItem
	err := db.Preload("Ingredients").Preload("Intolerants").First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

// ListMenuItems loads all menu items with their vocabularies.
func ListMenuItems(db *gorm.DB) ([]MenuItem, error) {
	var items []MenuItem
	if err := db.Preload("Ingredients").Preload("Intolerants").Order("id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// SerializedMenuItem is the transport-ready record for a menu item. The
// ingredient and intolerant sets are flattened to name lists; cost is a
// fixed-point string with two decimal places.
type SerializedMenuItem struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Image       string   `json:"image"`
	MealType    string   `json:"meal_type"`
	InStock     bool     `json:"in_stock"`
	Vegetarian  bool     `json:"vegetarian"`
	Description string   `json:"description"`
	Cost        string   `json:"cost"`
	Ingredients []string `json:"Ingredients"`
	Intolerants []string `json:"Intolerants"`
}

// SerializeMenuItem produces the transport record for one menu item.
// Ingredients and Intolerants must already be loaded.
func SerializeMenuItem(m *MenuItem) SerializedMenuItem {
	ingredients := make([]string, 0, len(m.Ingredients))
	for _, i := range m.Ingredients {
		ingredients = append(ingredients, i.Name)
	}
	intolerants := make([]string, 0, len(m.Intolerants))
	for _, i := range m.Intolerants {
		intolerants = append(intolerants, i.Name)
	}

	return SerializedMenuItem{
		ID:          m.ID,
		Name:        m.Name,
		Image:       m.Image,
		MealType:    m.MealType,
		InStock:     m.InStock,
		Vegetarian:  m.Vegetarian,
		Description: m.Description,
		Cost:        m.Cost.StringFixed(2),
		Ingredients: ingredients,
		Intolerants: intolerants,
	}
}
