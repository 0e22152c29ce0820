package models

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a fresh in-memory database with the full schema and the
// fixed group/role vocabulary.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(
		&Restaurant{}, &Table{}, &Group{}, &Role{}, &User{},
		&MenuItem{}, &Ingredient{}, &Intolerant{},
		&Order{}, &OrderedItem{},
	); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	for _, name := range []string{RoleWaitstaff, RoleKitchen, RoleManager, RoleAdmin} {
		role := Role{Name: name}
		if err := db.Where(Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			t.Fatalf("Failed to seed role %s: %v", name, err)
		}
	}
	for _, name := range []string{GroupEmployee, GroupCustomer} {
		group := Group{Name: name}
		if err := db.Where(Group{Name: name}).FirstOrCreate(&group).Error; err != nil {
			t.Fatalf("Failed to seed group %s: %v", name, err)
		}
	}

	return db
}

// createTestTable inserts one free table and returns it.
func createTestTable(t *testing.T, db *gorm.DB) *Table {
	t.Helper()

	table := Table{Taken: false}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("Failed to create test table: %v", err)
	}
	return &table
}

// createTestMenuItem inserts a menu item with the given cost.
func createTestMenuItem(t *testing.T, db *gorm.DB, name, cost string) *MenuItem {
	t.Helper()

	item, err := AddMenuItem(db, createTestRestaurant(t, db), MenuItemInput{
		Name: name,
		Cost: cost,
	})
	if err != nil {
		t.Fatalf("Failed to create test menu item: %v", err)
	}
	return item
}

// createTestRestaurant returns the default restaurant, creating it on first use.
func createTestRestaurant(t *testing.T, db *gorm.DB) *Restaurant {
	t.Helper()

	restaurant := Restaurant{Name: "Test Restaurant", Address: "52 Main Street"}
	if err := db.Where(Restaurant{Name: "Test Restaurant"}).FirstOrCreate(&restaurant).Error; err != nil {
		t.Fatalf("Failed to create test restaurant: %v", err)
	}
	return &restaurant
}
