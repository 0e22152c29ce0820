package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMenuItem(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createTestRestaurant(t, db)

	item, err := AddMenuItem(db, restaurant, MenuItemInput{
		Name:        "Shoyu Ramen",
		MealType:    MealTypeEntree,
		Cost:        "11.25",
		Description: "House broth with chashu",
		Ingredients: []string{"noodles", "pork", "scallion"},
		Intolerants: []string{"gluten", "soy"},
	})
	require.NoError(t, err)

	assert.True(t, item.InStock, "new items default to in stock")
	assert.Equal(t, DefaultMenuItemImage, item.Image)
	assert.Equal(t, "11.25", item.Cost.StringFixed(2))

	reloaded, err := GetMenuItem(db, item.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Ingredients, 3)
	assert.Len(t, reloaded.Intolerants, 2)

	// The item must land on the restaurant's menu
	var menuCount int64
	require.NoError(t, db.Table("restaurants_menus").
		Where("restaurant_id = ? AND menu_item_id = ?", restaurant.ID, item.ID).
		Count(&menuCount).Error)
	assert.Equal(t, int64(1), menuCount)
}

func TestAddMenuItemReusesVocabulary(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createTestRestaurant(t, db)

	first, err := AddMenuItem(db, restaurant, MenuItemInput{
		Name:        "Shoyu Ramen",
		Cost:        "11.25",
		Ingredients: []string{"noodles", "pork"},
		Intolerants: []string{"gluten"},
	})
	require.NoError(t, err)

	second, err := AddMenuItem(db, restaurant, MenuItemInput{
		Name:        "Tsukemen",
		Cost:        "12.75",
		Ingredients: []string{"noodles", "egg"},
		Intolerants: []string{"gluten", "egg"},
	})
	require.NoError(t, err)

	var ingredientCount, intolerantCount int64
	require.NoError(t, db.Model(&Ingredient{}).Count(&ingredientCount).Error)
	require.NoError(t, db.Model(&Intolerant{}).Count(&intolerantCount).Error)
	assert.Equal(t, int64(3), ingredientCount, "shared names must not duplicate")
	assert.Equal(t, int64(2), intolerantCount)

	a, err := GetMenuItem(db, first.ID)
	require.NoError(t, err)
	b, err := GetMenuItem(db, second.ID)
	require.NoError(t, err)

	noodlesID := func(item *MenuItem) uint {
		for _, i := range item.Ingredients {
			if i.Name == "noodles" {
				return i.ID
			}
		}
		return 0
	}
	require.NotZero(t, noodlesID(a))
	assert.Equal(t, noodlesID(a), noodlesID(b), "both items must reference the same term")
}

func TestAddMenuItemValidation(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createTestRestaurant(t, db)

	tests := []struct {
		name  string
		input MenuItemInput
	}{
		{"missing name", MenuItemInput{Cost: "5.00"}},
		{"non-numeric cost", MenuItemInput{Name: "Mystery", Cost: "five dollars"}},
		{"negative cost", MenuItemInput{Name: "Mystery", Cost: "-1.00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AddMenuItem(db, restaurant, tt.input)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestAddMenuItemExplicitStock(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createTestRestaurant(t, db)

	outOfStock := false
	item, err := AddMenuItem(db, restaurant, MenuItemInput{
		Name:    "Seasonal Special",
		Cost:    "9.00",
		InStock: &outOfStock,
		Image:   "/static/images/special.png",
	})
	require.NoError(t, err)
	assert.False(t, item.InStock)
	assert.Equal(t, "/static/images/special.png", item.Image)
}

func TestGetMenuItemNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := GetMenuItem(db, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSerializeMenuItem(t *testing.T) {
	db := setupTestDB(t)
	restaurant := createTestRestaurant(t, db)

	item, err := AddMenuItem(db, restaurant, MenuItemInput{
		Name:        "Shoyu Ramen",
		MealType:    MealTypeEntree,
		Cost:        "11.2",
		Ingredients: []string{"noodles"},
		Intolerants: []string{"gluten"},
	})
	require.NoError(t, err)

	reloaded, err := GetMenuItem(db, item.ID)
	require.NoError(t, err)
	serialized := SerializeMenuItem(reloaded)

	assert.Equal(t, item.ID, serialized.ID)
	assert.Equal(t, "11.20", serialized.Cost, "cost is rendered with two decimal places")
	assert.Equal(t, []string{"noodles"}, serialized.Ingredients)
	assert.Equal(t, []string{"gluten"}, serialized.Intolerants)
}
