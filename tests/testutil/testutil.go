// Package testutil provides shared helpers for tests that need a wired
// database or an authenticated session.
package testutil

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Jomkit/Omakase/models"
)

// NewTestDB opens an in-memory database with the full schema, the fixed
// group/role vocabulary, and one restaurant with tables. Each call returns
// an isolated database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Restaurant{}, &models.Table{},
		&models.Group{}, &models.Role{}, &models.User{},
		&models.MenuItem{}, &models.Ingredient{}, &models.Intolerant{},
		&models.Order{}, &models.OrderedItem{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	for _, name := range []string{models.RoleWaitstaff, models.RoleKitchen, models.RoleManager, models.RoleAdmin} {
		role := models.Role{Name: name}
		if err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			t.Fatalf("Failed to seed role %s: %v", name, err)
		}
	}
	for _, name := range []string{models.GroupEmployee, models.GroupCustomer} {
		group := models.Group{Name: name}
		if err := db.Where(models.Group{Name: name}).FirstOrCreate(&group).Error; err != nil {
			t.Fatalf("Failed to seed group %s: %v", name, err)
		}
	}

	restaurant := models.Restaurant{Name: "Test Restaurant", Address: "52 Main Street"}
	if err := db.Create(&restaurant).Error; err != nil {
		t.Fatalf("Failed to seed restaurant: %v", err)
	}
	tables := make([]models.Table, 4)
	if err := db.Create(&tables).Error; err != nil {
		t.Fatalf("Failed to seed tables: %v", err)
	}

	return db
}

// CreateEmployee registers an employee with the given role and returns it
// with roles and groups loaded.
func CreateEmployee(t *testing.T, db *gorm.DB, role string) *models.User {
	t.Helper()

	user, err := models.RegisterEmployee(db, models.EmployeeInput{
		FirstName: "Test",
		LastName:  role,
		Password:  "123test123",
		Role:      role,
	})
	if err != nil {
		t.Fatalf("Failed to register %s employee: %v", role, err)
	}
	loaded, err := models.GetUser(db, user.ID)
	if err != nil {
		t.Fatalf("Failed to reload employee: %v", err)
	}
	return loaded
}

// CreateMenuItem adds a menu item to the first restaurant's menu.
func CreateMenuItem(t *testing.T, db *gorm.DB, name, cost string) *models.MenuItem {
	t.Helper()

	var restaurant models.Restaurant
	if err := db.First(&restaurant).Error; err != nil {
		t.Fatalf("Failed to load restaurant: %v", err)
	}
	item, err := models.AddMenuItem(db, &restaurant, models.MenuItemInput{
		Name:     name,
		Cost:     cost,
		MealType: models.MealTypeEntree,
	})
	if err != nil {
		t.Fatalf("Failed to create menu item: %v", err)
	}
	return item
}
