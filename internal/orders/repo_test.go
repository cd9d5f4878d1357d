package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/ordering-backend/pkg/db/dbtest"
	"github.com/angelmondragon/ordering-backend/pkg/db/models"
	"github.com/angelmondragon/ordering-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/ordering-backend/pkg/errors"
	"github.com/angelmondragon/ordering-backend/pkg/types"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func sampleOrder() *models.Order {
	menuItemID := uuid.New()
	return &models.Order{
		OrderType:     enums.OrderTypePickup,
		Status:        enums.OrderStatusReceived,
		CustomerName:  "Dana",
		CustomerPhone: "555-0100",
		Currency:      "USD",
		Subtotal:      d("28.48"),
		TaxRate:       d("0.0825"),
		Tax:           d("2.35"),
		DeliveryFee:   decimal.Zero,
		Tip:           d("3.00"),
		Total:         d("33.83"),
		LineItems: []models.OrderLineItem{
			{
				Position:   1,
				Kind:       enums.LineItemKindMenuItem,
				MenuItemID: &menuItemID,
				Name:       "Soda",
				UnitPrice:  d("2.00"),
				Quantity:   1,
				TotalPrice: d("2.00"),
				Selections: types.Selections{},
			},
			{
				Position:   0,
				Kind:       enums.LineItemKindMenuItem,
				MenuItemID: &menuItemID,
				Name:       "Italian Sub",
				UnitPrice:  d("14.24"),
				Quantity:   2,
				TotalPrice: d("28.48"),
				Selections: types.Selections{{OptionID: uuid.NewString(), Quantity: 1}},
				Options: []models.OrderLineItemOption{
					{GroupName: "Size", OptionID: uuid.New(), OptionName: `12"`, Quantity: 1, PriceModifier: d("4.00")},
					{GroupName: "Cheese", OptionID: uuid.New(), OptionName: "Provolone", Quantity: 1, PriceModifier: d("1.25")},
				},
			},
		},
	}
}

func countRows(t *testing.T, conn *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(model).Count(&n).Error)
	return n
}

func TestCreateAndFindOrder(t *testing.T) {
	t.Parallel()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := sampleOrder()
	require.NoError(t, repo.CreateOrder(ctx, order))
	require.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, found.Total.Equal(d("33.83")))
	require.Len(t, found.LineItems, 2)
	assert.Equal(t, "Italian Sub", found.LineItems[0].Name)
	require.Len(t, found.LineItems[0].Options, 2)
	assert.Len(t, found.LineItems[0].Selections, 1)
	assert.Empty(t, found.LineItems[1].Options)

	assert.EqualValues(t, 2, countRows(t, conn, &models.OrderLineItemOption{}))
}

func TestFindByIDNotFound(t *testing.T) {
	t.Parallel()
	repo := NewRepository(dbtest.Open(t))

	_, err := repo.FindByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestCreateOrderRollsBackWithTransaction(t *testing.T) {
	t.Parallel()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	require.NoError(t, conn.Exec("DROP TABLE order_line_item_options").Error)

	err := conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).CreateOrder(context.Background(), sampleOrder())
	})
	require.Error(t, err)
	assert.EqualValues(t, 0, countRows(t, conn, &models.Order{}))
	assert.EqualValues(t, 0, countRows(t, conn, &models.OrderLineItem{}))
}

func TestUpdateStatusIsConditional(t *testing.T) {
	t.Parallel()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	order := sampleOrder()
	require.NoError(t, repo.CreateOrder(ctx, order))

	require.NoError(t, repo.UpdateStatus(ctx, order.ID, enums.OrderStatusReceived, enums.OrderStatusPreparing))
	err := repo.UpdateStatus(ctx, order.ID, enums.OrderStatusReceived, enums.OrderStatusCanceled)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusPreparing, found.Status)
	assert.True(t, found.Total.Equal(d("33.83")))
}

func TestNewOrderDTO(t *testing.T) {
	order := sampleOrder()
	order.ID = uuid.New()
	dto := NewOrderDTO(order)
	assert.Equal(t, order.ID, dto.ID)
	require.Len(t, dto.LineItems, 2)
	assert.Len(t, dto.LineItems[1].Options, 2)
	assert.NotNil(t, dto.LineItems[0].Options)
}
