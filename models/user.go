package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Group names. `employee` and `customer` partition users; group membership
// gates the employee surface.
const (
	GroupEmployee = "employee"
	GroupCustomer = "customer"
)

// Role names for employees.
const (
	RoleWaitstaff = "waitstaff"
	RoleKitchen   = "kitchen"
	RoleManager   = "manager"
	RoleAdmin     = "admin"
)

// Group represents a coarse user category (employee or customer).
type Group struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// TableName specifies the table name for the Group model
func (Group) TableName() string {
	return "groups"
}

// Role represents an employee capability level.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;uniqueIndex;not null" json:"name"`
}

// TableName specifies the table name for the Role model
func (Role) TableName() string {
	return "roles"
}

// User represents an employee or a customer. Temp users are created
// transiently during takeout/delivery checkout and carry no password.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Temp         bool           `gorm:"not null" json:"temp"`
	Uname        string         `gorm:"size:255;index" json:"username"`
	Password     string         `gorm:"size:255" json:"-"`
	RestaurantID *uint          `json:"restaurant_id"`
	Email        string         `gorm:"size:255" json:"email"`
	Address      string         `json:"address"`
	Birthday     *time.Time     `json:"birthday"`
	PhoneNumber  string         `gorm:"size:255" json:"phone_number"`
	Roles        []Role         `gorm:"many2many:user_role;constraint:OnDelete:CASCADE" json:"roles,omitempty"`
	Groups       []Group        `gorm:"many2many:user_group;constraint:OnDelete:CASCADE" json:"groups,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// InGroup reports whether the user belongs to the named group.
// Groups must already be loaded.
func (u *User) InGroup(name string) bool {
	for _, g := range u.Groups {
		if g.Name == name {
			return true
		}
	}
	return false
}

// HasRole reports whether the user carries the named role.
// Roles must already be loaded.
func (u *User) HasRole(name string) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// EnsureUsername derives and persists the username on first call: the
// user's name with spaces removed, suffixed with the user's id. Once set it
// never changes.
func (u *User) EnsureUsername(db *gorm.DB) error {
	if u.Uname != "" {
		return nil
	}
	u.Uname = strings.ReplaceAll(u.Name, " ", "") + strconv.FormatUint(uint64(u.ID), 10)
	return db.Model(u).Update("uname", u.Uname).Error
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword verifies a plaintext password against a stored hash.
func CheckPassword(hashed, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// Authenticate looks up a user by username and verifies the password. An
// unknown username and a wrong password both yield ErrInvalidCredentials.
func Authenticate(db *gorm.DB, username, password string) (*User, error) {
	var user User
	err := db.Preload("Roles").Preload("Groups").Where("uname = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Password == "" || !CheckPassword(user.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GetUser loads a user with roles and groups.
func GetUser(db *gorm.DB, id uint) (*User, error) {
	var user User
	err := db.Preload("Roles").Preload("Groups").First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// EmployeeInput carries the fields needed to register an employee.
type EmployeeInput struct {
	FirstName    string `json:"first_name" binding:"required"`
	LastName     string `json:"last_name" binding:"required"`
	Password     string `json:"password" binding:"required,min=8"`
	Role         string `json:"role" binding:"required"`
	Email        string `json:"email"`
	Address      string `json:"address"`
	PhoneNumber  string `json:"phone_number"`
	Birthday     string `json:"birthday"` // YYYY-MM-DD, optional
	RestaurantID *uint  `json:"restaurant_id"`
}

// RegisterEmployee creates an employee user: full name from first and last
// name, hashed password, the requested role plus the employee group, and
// the derived username. The username depends on the row's own id, so the
// insert and the username write happen in one transaction.
func RegisterEmployee(db *gorm.DB, input EmployeeInput) (*User, error) {
	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		Name:         strings.TrimSpace(input.FirstName + " " + input.LastName),
		Password:     hashed,
		Email:        input.Email,
		Address:      input.Address,
		PhoneNumber:  input.PhoneNumber,
		RestaurantID: input.RestaurantID,
	}
	if input.Birthday != "" {
		birthday, err := time.Parse("2006-01-02", input.Birthday)
		if err != nil {
			return nil, fmt.Errorf("%w: birthday %q is not YYYY-MM-DD", ErrInvalidInput, input.Birthday)
		}
		user.Birthday = &birthday
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		var role Role
		if err := tx.Where("name = ?", input.Role).First(&role).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, input.Role)
			}
			return err
		}
		var group Group
		if err := tx.Where("name = ?", GroupEmployee).First(&group).Error; err != nil {
			return err
		}

		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if err := tx.Model(&user).Association("Roles").Append(&role); err != nil {
			return err
		}
		if err := tx.Model(&user).Association("Groups").Append(&group); err != nil {
			return err
		}
		return user.EnsureUsername(tx)
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// AddressInput is the delivery address portion of a customer registration.
type AddressInput struct {
	Street string `json:"street"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// CustomerInput carries the contact fields collected during takeout and
// delivery checkout. Address is present only for delivery.
type CustomerInput struct {
	ContactInfo struct {
		Name        string `json:"name" binding:"required"`
		PhoneNumber string `json:"phone_number" binding:"required"`
	} `json:"contact_info" binding:"required"`
	Address *AddressInput `json:"address"`
}

// RegisterCustomer creates a temp customer carrying contact info for a
// single order. A missing address is tolerated, not an error.
func RegisterCustomer(db *gorm.DB, input CustomerInput) (*User, error) {
	user := User{
		Name:        input.ContactInfo.Name,
		PhoneNumber: input.ContactInfo.PhoneNumber,
		Temp:        true,
	}
	if input.Address != nil {
		parts := []string{}
		for _, field := range []string{input.Address.Street, input.Address.City, input.Address.State, input.Address.Zip} {
			if trimmed := strings.TrimSpace(field); trimmed != "" {
				parts = append(parts, trimmed)
			}
		}
		user.Address = strings.Join(parts, ", ")
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var group Group
		if err := tx.Where("name = ?", GroupCustomer).First(&group).Error; err != nil {
			return err
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return tx.Model(&user).Association("Groups").Append(&group)
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// DeleteUser removes a user by id. The route layer additionally forbids an
// actor from deleting their own account.
func DeleteUser(db *gorm.DB, id uint) error {
	var user User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return db.Delete(&user).Error
}
