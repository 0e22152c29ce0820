package models

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrderDefaults(t *testing.T) {
	db := setupTestDB(t)

	order, err := CreateOrder(db, nil, "")
	require.NoError(t, err)

	assert.Equal(t, OrderTypeDiningIn, order.Type)
	assert.True(t, order.Active)
	assert.Nil(t, order.PaymentMethod)
	assert.Nil(t, order.TableNumber)

	reloaded, err := GetOrder(db, order.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.OrderedItems)
}

func TestCreateOrderRejectsUnknownType(t *testing.T) {
	db := setupTestDB(t)

	_, err := CreateOrder(db, nil, "Drive Through")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCreateOrderRejectsUnknownTable(t *testing.T) {
	db := setupTestDB(t)

	missing := uint(999)
	_, err := CreateOrder(db, &missing, OrderTypeDiningIn)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidInput, "a dangling table reference is a persistence failure, not bad input")

	var count int64
	require.NoError(t, db.Model(&Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "nothing may be persisted with a dangling table reference")
}

func TestStartDineInOrderBindsTable(t *testing.T) {
	db := setupTestDB(t)
	table := createTestTable(t, db)

	order, err := StartDineInOrder(db, table.ID)
	require.NoError(t, err)

	require.NotNil(t, order.TableNumber)
	assert.Equal(t, table.ID, *order.TableNumber)
	assert.Equal(t, OrderTypeDiningIn, order.Type)

	var reloaded Table
	require.NoError(t, db.First(&reloaded, table.ID).Error)
	assert.True(t, reloaded.Taken)
}

func TestStartDineInOrderTakenTableCreatesNothing(t *testing.T) {
	db := setupTestDB(t)
	table := createTestTable(t, db)

	_, err := StartDineInOrder(db, table.ID)
	require.NoError(t, err)

	_, err = StartDineInOrder(db, table.ID)
	assert.ErrorIs(t, err, ErrTableUnavailable)

	var count int64
	require.NoError(t, db.Model(&Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "the losing attempt must not leave an order behind")
}

func TestStartDineInOrderUnknownTable(t *testing.T) {
	db := setupTestDB(t)

	_, err := StartDineInOrder(db, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStartDineInOrderConcurrentSeating(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Each connection to an in-memory sqlite database gets its own database
	sqlDB.SetMaxOpenConns(1)

	table := createTestTable(t, db)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = StartDineInOrder(db, table.ID)
		}(i)
	}
	wg.Wait()

	seated := 0
	for _, err := range errs {
		if err == nil {
			seated++
			continue
		}
		assert.ErrorIs(t, err, ErrTableUnavailable)
	}
	assert.Equal(t, 1, seated, "exactly one concurrent attempt may win the table")

	var count int64
	require.NoError(t, db.Model(&Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestAddItemToOrderAccumulates(t *testing.T) {
	db := setupTestDB(t)
	item := createTestMenuItem(t, db, "Miso Soup", "4.50")
	order, err := CreateOrder(db, nil, OrderTypeTakeout)
	require.NoError(t, err)

	const adds = 5
	for i := 0; i < adds; i++ {
		_, err := AddItemToOrder(db, order, item.ID, 1)
		require.NoError(t, err)
	}

	var lines []OrderedItem
	require.NoError(t, db.Where("order_id = ?", order.ID).Find(&lines).Error)
	require.Len(t, lines, 1, "repeated adds of one item must share a single line")
	assert.Equal(t, adds, lines[0].Quantity)
	assert.Equal(t, item.ID, lines[0].MenuItemID)
}

func TestAddItemToOrderRejectsClosedOrder(t *testing.T) {
	db := setupTestDB(t)
	item := createTestMenuItem(t, db, "Edamame", "3.00")
	order, err := CreateOrder(db, nil, OrderTypeTakeout)
	require.NoError(t, err)
	require.NoError(t, CloseOrder(db, order))

	_, err = AddItemToOrder(db, order, item.ID, 1)
	assert.ErrorIs(t, err, ErrOrderClosed)
}

func TestAddItemToOrderRejectsNegativeDelta(t *testing.T) {
	db := setupTestDB(t)
	item := createTestMenuItem(t, db, "Edamame", "3.00")
	order, err := CreateOrder(db, nil, OrderTypeTakeout)
	require.NoError(t, err)

	_, err = AddItemToOrder(db, order, item.ID, -1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetOrCreateOrderedItemStartsAtZero(t *testing.T) {
	db := setupTestDB(t)
	item := createTestMenuItem(t, db, "Gyoza", "6.00")
	order, err := CreateOrder(db, nil, OrderTypeTakeout)
	require.NoError(t, err)

	line, err := GetOrCreateOrderedItem(db, order, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, line.Quantity)

	again, err := GetOrCreateOrderedItem(db, order, item.ID)
	require.NoError(t, err)
	assert.Equal(t, line.ID, again.ID, "the pair must map to one row")

	require.NoError(t, IncrementOrderedItem(db, line, 3))
	assert.Equal(t, 3, line.Quantity)
}

func TestTotalCost(t *testing.T) {
	db := setupTestDB(t)
	a := createTestMenuItem(t, db, "Ramen", "10.00")
	b := createTestMenuItem(t, db, "Gyoza", "5.00")

	tests := []struct {
		name      string
		orderType string
		want      string
	}{
		{"dining in has no surcharge", OrderTypeDiningIn, "25.00"},
		{"delivery adds flat surcharge", OrderTypeDelivery, "30.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order, err := CreateOrder(db, nil, tt.orderType)
			require.NoError(t, err)

			_, err = AddItemToOrder(db, order, a.ID, 2)
			require.NoError(t, err)
			_, err = AddItemToOrder(db, order, b.ID, 1)
			require.NoError(t, err)

			total, err := TotalCost(db, order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total.StringFixed(2))
		})
	}
}

func TestTotalCostEmptyDeliveryOrder(t *testing.T) {
	db := setupTestDB(t)

	order, err := CreateOrder(db, nil, OrderTypeDelivery)
	require.NoError(t, err)

	total, err := TotalCost(db, order)
	require.NoError(t, err)
	assert.Equal(t, "5.00", total.StringFixed(2))
}

func TestSetPaymentMethod(t *testing.T) {
	db := setupTestDB(t)
	order, err := CreateOrder(db, nil, OrderTypeTakeout)
	require.NoError(t, err)

	require.NoError(t, SetPaymentMethod(db, order, "cash"))
	// Selecting again while open overwrites
	require.NoError(t, SetPaymentMethod(db, order, "credit"))

	reloaded, err := GetOrder(db, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded.PaymentMethod)
	assert.Equal(t, "credit", *reloaded.PaymentMethod)

	require.NoError(t, CloseOrder(db, reloaded))
	err = SetPaymentMethod(db, reloaded, "cash")
	assert.ErrorIs(t, err, ErrOrderClosed)
}

func TestCloseOrderIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	table := createTestTable(t, db)

	order, err := StartDineInOrder(db, table.ID)
	require.NoError(t, err)
	require.NoError(t, SetPaymentMethod(db, order, "cash"))

	require.NoError(t, CloseOrder(db, order))
	require.NoError(t, CloseOrder(db, order))

	reloaded, err := GetOrder(db, order.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)
	assert.Nil(t, reloaded.TableNumber)
	require.NotNil(t, reloaded.PaymentMethod, "payment method survives closing")
	assert.Equal(t, "cash", *reloaded.PaymentMethod)
}

func TestApplyOrderUpdate(t *testing.T) {
	db := setupTestDB(t)
	order, err := CreateOrder(db, nil, OrderTypeTakeout)
	require.NoError(t, err)

	newType := OrderTypeDelivery
	assistance := true
	require.NoError(t, ApplyOrderUpdate(db, order, OrderUpdate{
		Type:           &newType,
		NeedAssistance: &assistance,
	}))

	reloaded, err := GetOrder(db, order.ID)
	require.NoError(t, err)
	assert.Equal(t, OrderTypeDelivery, reloaded.Type)
	assert.True(t, reloaded.NeedAssistance)

	badType := "Catering"
	err = ApplyOrderUpdate(db, order, OrderUpdate{Type: &badType})
	assert.ErrorIs(t, err, ErrInvalidInput)

	missing := uint(999)
	err = ApplyOrderUpdate(db, order, OrderUpdate{TableNumber: &missing})
	require.Error(t, err)

	reloaded, err = GetOrder(db, order.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.TableNumber, "a rejected update must not move the order to a missing table")
}

func TestSerializeOrderMatchesStoredState(t *testing.T) {
	db := setupTestDB(t)
	table := createTestTable(t, db)
	a := createTestMenuItem(t, db, "Ramen", "10.00")
	b := createTestMenuItem(t, db, "Tea", "2.50")

	order, err := StartDineInOrder(db, table.ID)
	require.NoError(t, err)
	_, err = AddItemToOrder(db, order, a.ID, 2)
	require.NoError(t, err)
	_, err = AddItemToOrder(db, order, b.ID, 1)
	require.NoError(t, err)

	reloaded, err := GetOrder(db, order.ID)
	require.NoError(t, err)
	serialized := SerializeOrder(reloaded)

	assert.Equal(t, reloaded.ID, serialized.ID)
	assert.Equal(t, reloaded.TableNumber, serialized.TableNumber)
	assert.Equal(t, reloaded.Active, serialized.Active)
	assert.Equal(t, reloaded.Type, serialized.Type)
	assert.Equal(t, reloaded.CreatedAt, serialized.Timestamp)
	assert.ElementsMatch(t, []SerializedOrderedItem{
		{ItemID: a.ID, Qty: 2},
		{ItemID: b.ID, Qty: 1},
	}, serialized.OrderedItems)
}

// TestDineInLifecycle walks one dining-in visit end to end: seat, order
// twice, pay, leave.
func TestDineInLifecycle(t *testing.T) {
	db := setupTestDB(t)
	table := createTestTable(t, db)
	dish := createTestMenuItem(t, db, "Tonkotsu Ramen", "12.50")

	order, err := StartDineInOrder(db, table.ID)
	require.NoError(t, err)

	var seated Table
	require.NoError(t, db.First(&seated, table.ID).Error)
	require.True(t, seated.Taken)

	_, err = AddItemToOrder(db, order, dish.ID, 1)
	require.NoError(t, err)
	line, err := AddItemToOrder(db, order, dish.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, line.Quantity)

	total, err := TotalCost(db, order)
	require.NoError(t, err)
	assert.Equal(t, "25.00", total.StringFixed(2))

	require.NoError(t, SetPaymentMethod(db, order, "credit"))
	require.NoError(t, FreeTable(db, table.ID))
	require.NoError(t, CloseOrder(db, order))

	reloaded, err := GetOrder(db, order.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.Active)
	assert.Nil(t, reloaded.TableNumber)

	var freed Table
	require.NoError(t, db.First(&freed, table.ID).Error)
	assert.False(t, freed.Taken)

	// The table is immediately reusable for the next party
	_, err = StartDineInOrder(db, table.ID)
	assert.NoError(t, err)
}
