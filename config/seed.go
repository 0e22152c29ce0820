package config

import (
	"log"

	"github.com/Jomkit/Omakase/models"
	"gorm.io/gorm"
)

// seedTableCount is how many dining tables a fresh database starts with.
const seedTableCount = 10

// Seed fills a fresh database with the fixed vocabulary the application
// expects: roles, groups, a default restaurant, its tables, and an initial
// admin account. Every step is a lookup-or-create, so running it against an
// already-seeded database changes nothing.
func Seed(db *gorm.DB) error {
	for _, name := range []string{
		models.RoleWaitstaff,
		models.RoleKitchen,
		models.RoleManager,
		models.RoleAdmin,
	} {
		role := models.Role{Name: name}
		if err := db.Where(models.Role{Name: name}).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}

	for _, name := range []string{models.GroupEmployee, models.GroupCustomer} {
		group := models.Group{Name: name}
		if err := db.Where(models.Group{Name: name}).FirstOrCreate(&group).Error; err != nil {
			return err
		}
	}

	restaurant := models.Restaurant{
		Name:        "Example Restaurant",
		Address:     "123 Main Street",
		PhoneNumber: "(123)456-7890",
		Description: "Example Restaurant, your description of the restaurant would go here",
	}
	var count int64
	if err := db.Model(&models.Restaurant{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := db.Create(&restaurant).Error; err != nil {
			return err
		}
	}

	if err := db.Model(&models.Table{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		tables := make([]models.Table, seedTableCount)
		if err := db.Create(&tables).Error; err != nil {
			return err
		}
	}

	// Initial admin so the employee surface is reachable on a fresh install
	if err := db.Model(&models.User{}).Where("uname = ?", "testadmin").Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		hashed, err := models.HashPassword("123test123")
		if err != nil {
			return err
		}
		admin := models.User{Name: "test", Uname: "testadmin", Password: hashed}
		if err := db.Create(&admin).Error; err != nil {
			return err
		}
		var role models.Role
		if err := db.Where("name = ?", models.RoleAdmin).First(&role).Error; err != nil {
			return err
		}
		if err := db.Model(&admin).Association("Roles").Append(&role); err != nil {
			return err
		}
		var group models.Group
		if err := db.Where("name = ?", models.GroupEmployee).First(&group).Error; err != nil {
			return err
		}
		if err := db.Model(&admin).Association("Groups").Append(&group); err != nil {
			return err
		}
		log.Println("Seeded initial admin user 'testadmin'")
	}

	return nil
}
