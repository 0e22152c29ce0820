package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Order types.
const (
	OrderTypeDiningIn = "Dining In"
	OrderTypeTakeout  = "Takeout"
	OrderTypeDelivery = "Delivery"
)

// deliveryCharge is the flat surcharge added to delivery orders.
var deliveryCharge = decimal.NewFromInt(5)

// Order represents one customer transaction. An order is Open while
// active=true and Closed once active=false; Closed is terminal. Dining-In
// orders carry a table binding for the duration of Open.
type Order struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	EmployeeID     *uint          `gorm:"index" json:"employee_id"` // owning employee, nullable
	Employee       *User          `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	TableNumber    *uint          `gorm:"index" json:"table_number"` // set only for Dining In, cleared on close
	Table          *Table         `gorm:"foreignKey:TableNumber;constraint:OnDelete:CASCADE" json:"-"`
	Active         bool           `gorm:"not null" json:"active"`
	NeedAssistance bool           `gorm:"not null" json:"need_assistance"`
	Type           string         `gorm:"not null" json:"type"` // Dining In, Takeout, Delivery
	PaymentMethod  *string        `json:"payment_method"`       // nullable until set
	Customers      []User         `gorm:"many2many:customers_orders;constraint:OnDelete:CASCADE" json:"customers,omitempty"`
	OrderedItems   []OrderedItem  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"ordered_items,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// OrderedItem is the quantity of one menu item within one order. At most
// one row exists per (order, menu_item) pair; quantity changes are additive.
type OrderedItem struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	OrderID    uint     `gorm:"not null;uniqueIndex:idx_order_menu_item" json:"order_id"`
	MenuItemID uint     `gorm:"not null;uniqueIndex:idx_order_menu_item" json:"menu_item_id"`
	MenuItem   MenuItem `gorm:"foreignKey:MenuItemID" json:"-"`
	Quantity   int      `gorm:"not null;check:quantity >= 0" json:"quantity"`
}

// TableName specifies the table name for the OrderedItem model
func (OrderedItem) TableName() string {
	return "ordered_items"
}

// CreateOrder inserts a new order in the Open state with no line items and
// no payment method. A persistence failure (for example an invalid table
// reference) is reported as an error distinct from validation failures.
func CreateOrder(db *gorm.DB, tableNumber *uint, orderType string) (*Order, error) {
	if orderType == "" {
		orderType = OrderTypeDiningIn
	}
	switch orderType {
	case OrderTypeDiningIn, OrderTypeTakeout, OrderTypeDelivery:
	default:
		return nil, fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, orderType)
	}

	if tableNumber != nil {
		if err := checkTableExists(db, *tableNumber); err != nil {
			return nil, fmt.Errorf("failed to create order: %w", err)
		}
	}

	order := Order{
		TableNumber: tableNumber,
		Active:      true,
		Type:        orderType,
	}
	if err := db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return &order, nil
}

// checkTableExists enforces the table foreign key ahead of the write, so
// engines that skip FK enforcement still reject dangling references.
func checkTableExists(db *gorm.DB, tableNumber uint) error {
	var count int64
	if err := db.Model(&Table{}).Where("id = ?", tableNumber).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("table %d does not exist", tableNumber)
	}
	return nil
}

// StartDineInOrder assigns the table and opens a Dining In order bound to
// it in a single transaction: either both happen or neither does. Callers
// racing for the same table get ErrTableUnavailable for all but one.
func StartDineInOrder(db *gorm.DB, tableNumber uint) (*Order, error) {
	var order *Order
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := AssignTable(tx, tableNumber); err != nil {
			return err
		}
		created, err := CreateOrder(tx, &tableNumber, OrderTypeDiningIn)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrder loads an order with its line items.
func GetOrder(db *gorm.DB, id uint) (*Order, error) {
	var order Order
	err := db.Preload("OrderedItems").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders loads all orders with their line items.
func ListOrders(db *gorm.DB) ([]Order, error) {
	var orders []Order
	if err := db.Preload("OrderedItems").Order("id").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrCreateOrderedItem looks up the line item for the (order, menu_item)
// pair, creating one with quantity 0 when absent. The unique index on the
// pair keeps concurrent callers from producing duplicate rows.
func GetOrCreateOrderedItem(db *gorm.DB, order *Order, menuItemID uint) (*OrderedItem, error) {
	var item OrderedItem
	err := db.Where(OrderedItem{OrderID: order.ID, MenuItemID: menuItemID}).
		FirstOrCreate(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// AddItemToOrder increments the order's quantity of a menu item by delta,
// creating the line item if needed. The whole step is a single upsert, so
// concurrent adds of the same item accumulate instead of duplicating rows.
func AddItemToOrder(db *gorm.DB, order *Order, menuItemID uint, delta int) (*OrderedItem, error) {
	if !order.Active {
		return nil, ErrOrderClosed
	}
	if delta < 0 {
		return nil, fmt.Errorf("%w: delta must not be negative", ErrInvalidInput)
	}

	item := OrderedItem{OrderID: order.ID, MenuItemID: menuItemID, Quantity: delta}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "order_id"}, {Name: "menu_item_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("quantity + ?", delta),
		}),
	}).Create(&item).Error
	if err != nil {
		return nil, fmt.Errorf("failed to add item to order: %w", err)
	}

	// Re-read: on the conflict path the in-memory struct does not reflect
	// the accumulated quantity
	var updated OrderedItem
	err = db.Where("order_id = ? AND menu_item_id = ?", order.ID, menuItemID).First(&updated).Error
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// IncrementOrderedItem adds delta to the line item's quantity and persists
// it. No upper bound is enforced.
func IncrementOrderedItem(db *gorm.DB, item *OrderedItem, delta int) error {
	err := db.Model(item).UpdateColumn("quantity", gorm.Expr("quantity + ?", delta)).Error
	if err != nil {
		return err
	}
	return db.First(item, item.ID).Error
}

// OrderUpdate is the allow-list of order attributes reachable through the
// generic update surface. Nil fields are left untouched.
type OrderUpdate struct {
	Type           *string `json:"type"`
	TableNumber    *uint   `json:"table_number"`
	Active         *bool   `json:"active"`
	NeedAssistance *bool   `json:"need_assistance"`
	PaymentMethod  *string `json:"payment_method"`
}

// ApplyOrderUpdate applies the non-nil fields of the update to the order
// and persists them. Unknown attributes cannot be targeted; only the fields
// named on OrderUpdate are reachable.
func ApplyOrderUpdate(db *gorm.DB, order *Order, update OrderUpdate) error {
	changes := make(map[string]interface{})
	if update.Type != nil {
		switch *update.Type {
		case OrderTypeDiningIn, OrderTypeTakeout, OrderTypeDelivery:
			changes["type"] = *update.Type
		default:
			return fmt.Errorf("%w: unknown order type %q", ErrInvalidInput, *update.Type)
		}
	}
	if update.TableNumber != nil {
		if err := checkTableExists(db, *update.TableNumber); err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		changes["table_number"] = *update.TableNumber
	}
	if update.Active != nil {
		changes["active"] = *update.Active
	}
	if update.NeedAssistance != nil {
		changes["need_assistance"] = *update.NeedAssistance
	}
	if update.PaymentMethod != nil {
		changes["payment_method"] = *update.PaymentMethod
	}

	if len(changes) == 0 {
		return nil
	}

	if err := db.Model(order).Updates(changes).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// SetPaymentMethod records how the order will be paid. Selecting again
// while the order is open overwrites the previous choice; selecting after
// close is rejected.
func SetPaymentMethod(db *gorm.DB, order *Order, method string) error {
	if !order.Active {
		return ErrOrderClosed
	}
	if method == "" {
		return fmt.Errorf("%w: payment method is required", ErrInvalidInput)
	}
	if err := db.Model(order).Update("payment_method", method).Error; err != nil {
		return fmt.Errorf("failed to set payment method: %w", err)
	}
	return nil
}

// TotalCost sums quantity times menu item cost over the order's line items,
// adding the flat delivery surcharge for Delivery orders. The result is
// rounded to two decimal places and computed on demand, never persisted.
func TotalCost(db *gorm.DB, order *Order) (decimal.Decimal, error) {
	var items []OrderedItem
	err := db.Preload("MenuItem").Where("order_id = ?", order.ID).Find(&items).Error
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, item := range items {
		rate := item.MenuItem.Cost.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(rate)
	}

	if order.Type == OrderTypeDelivery {
		total = total.Add(deliveryCharge)
	}
	return total.Round(2), nil
}

// CloseOrder moves the order to its terminal state: active=false with the table
// reference cleared. The payment method is kept for the record. Closing an
// already-closed order leaves it unchanged.
func CloseOrder(db *gorm.DB, order *Order) error {
	err := db.Model(order).Updates(map[string]interface{}{
		"active":       false,
		"table_number": nil,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to close order: %w", err)
	}
	order.Active = false
	order.TableNumber = nil
	return nil
}

// SerializedOrderedItem is one line of an order's transport record.
type SerializedOrderedItem struct {
	ItemID uint `json:"item_id"`
	Qty    int  `json:"qty"`
}

// SerializedOrder is the transport-ready record for an order: no cost
// totals and no customer data.
type SerializedOrder struct {
	ID             uint                    `json:"id"`
	TableNumber    *uint                   `json:"table_number"`
	Active         bool                    `json:"active"`
	NeedAssistance bool                    `json:"need_assistance"`
	Type           string                  `json:"type"`
	Timestamp      time.Time               `json:"timestamp"`
	OrderedItems   []SerializedOrderedItem `json:"ordered_items"`
}

// SerializeOrder produces the transport record for one order. OrderedItems
// must already be loaded.
func SerializeOrder(o *Order) SerializedOrder {
	items := make([]SerializedOrderedItem, 0, len(o.OrderedItems))
	for _, item := range o.OrderedItems {
		items = append(items, SerializedOrderedItem{ItemID: item.MenuItemID, Qty: item.Quantity})
	}

	return SerializedOrder{
		ID:             o.ID,
		TableNumber:    o.TableNumber,
		Active:         o.Active,
		NeedAssistance: o.NeedAssistance,
		Type:           o.Type,
		Timestamp:      o.CreatedAt,
		OrderedItems:   items,
	}
}
