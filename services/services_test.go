package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/qr-restaurant/database"
	"github.com/yeremiapane/qr-restaurant/models"
	"github.com/yeremiapane/qr-restaurant/utils"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) TableChanged(t models.Table) { m.Called(t) }
func (m *mockNotifier) OrderChanged(o models.Order) { m.Called(o) }

type mockSink struct {
	mock.Mock
}

func (m *mockSink) StatsUpdated(s Stats) { m.Called(s) }

// openTestDB returns a private in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	db       *gorm.DB
	notifier *mockNotifier

	sessions *SessionService
	orders   *OrderService
	catalog  *CatalogService
	admin    *AdminService

	bruschetta models.MenuItem
	water      models.MenuItem
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	utils.SilenceLoggers()
	s.ctx = context.Background()
	s.db = openTestDB(s.T())
	s.Require().NoError(database.Seed(s.ctx, s.db, 5, false))

	s.notifier = new(mockNotifier)
	s.notifier.On("TableChanged", mock.Anything).Return()
	s.notifier.On("OrderChanged", mock.Anything).Return()

	s.sessions = NewSessionService(s.db, s.notifier)
	s.orders = NewOrderService(s.db, s.notifier)
	s.catalog = NewCatalogService(s.db)
	s.admin = NewAdminService(s.db)

	s.bruschetta = s.createItem("Bruschetta", "15.90", models.CategoryStarter)
	s.water = s.createItem("Mineral Water", "4.50", models.CategoryBeverage)
}

func (s *ServiceSuite) createItem(name, price string, cat models.Category) models.MenuItem {
	item := models.MenuItem{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Category:  cat,
		Available: true,
	}
	s.Require().NoError(s.catalog.CreateItem(s.ctx, &item))
	return item
}

func (s *ServiceSuite) table(number int) models.Table {
	var t models.Table
	s.Require().NoError(s.db.Where("numero = ?", number).First(&t).Error)
	return t
}

func (s *ServiceSuite) countOrders(tableID uint) int64 {
	var n int64
	s.Require().NoError(s.db.Model(&models.Order{}).Where("mesa_id = ?", tableID).Count(&n).Error)
	return n
}

func (s *ServiceSuite) assertMoney(expected string, actual decimal.Decimal) {
	s.Truef(decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual)
}

// assertTotalMatchesLines reloads the order and checks the stored total
// against its stored line subtotals.
func (s *ServiceSuite) assertTotalMatchesLines(orderID uint) {
	order, err := s.orders.GetOrder(s.ctx, orderID)
	s.Require().NoError(err)
	sum := decimal.Zero
	for _, l := range order.Lines {
		s.True(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Equal(l.Subtotal))
		sum = sum.Add(l.Subtotal)
	}
	s.Truef(sum.Equal(order.Total), "total %s != sum of lines %s", order.Total, sum)
}

func (s *ServiceSuite) TestFullSessionScenario() {
	t3 := s.table(3)

	table, order, err := s.sessions.StartSession(s.ctx, t3.ID, "Ana")
	s.Require().NoError(err)
	s.Equal(models.TableOpen, table.Status)
	s.Equal("Ana", table.Occupant())
	s.Equal(models.OrderOpen, order.Status)
	s.assertMoney("0.00", order.Total)
	s.EqualValues(1, s.countOrders(t3.ID))

	order, err = s.orders.AddLine(s.ctx, order.ID, s.bruschetta.ID, 2, "")
	s.Require().NoError(err)
	s.assertMoney("31.80", order.Total)
	s.Require().Len(order.Lines, 1)
	s.assertMoney("15.90", order.Lines[0].UnitPrice)

	order, table, err = s.sessions.RequestBill(s.ctx, order.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderClosed, order.Status)
	s.Equal(models.TableAwaitingPayment, table.Status)

	table, paid, err := s.sessions.ConfirmPayment(s.ctx, t3.ID)
	s.Require().NoError(err)
	s.Equal(models.OrderPaid, paid.Status)
	s.Equal(order.ID, paid.ID)
	s.Equal(models.TableFree, table.Status)
	s.Nil(table.OccupantName)

	s.notifier.AssertCalled(s.T(), "TableChanged", mock.MatchedBy(func(t models.Table) bool {
		return t.ID == t3.ID && t.Status == models.TableFree
	}))
}

func (s *ServiceSuite) TestStartSessionDefaultsOccupant() {
	t1 := s.table(1)
	table, _, err := s.sessions.StartSession(s.ctx, t1.ID, "   ")
	s.Require().NoError(err)
	s.Equal(DefaultOccupantName, table.Occupant())
}

func (s *ServiceSuite) TestStartSessionOnBusyTableFails() {
	t1 := s.table(1)
	_, order, err := s.sessions.StartSession(s.ctx, t1.ID, "Ana")
	s.Require().NoError(err)

	_, _, err = s.sessions.StartSession(s.ctx, t1.ID, "Bruno")
	s.True(IsInvalidState(err), "got %v", err)
	s.EqualValues(1, s.countOrders(t1.ID))
	s.Equal("Ana", s.table(1).Occupant())

	// Still refused while awaiting payment.
	_, _, err = s.sessions.RequestBill(s.ctx, order.ID)
	s.Require().NoError(err)
	_, _, err = s.sessions.StartSession(s.ctx, t1.ID, "Bruno")
	s.True(IsInvalidState(err))
	s.EqualValues(1, s.countOrders(t1.ID))
}

func (s *ServiceSuite) TestStartSessionUnknownTable() {
	_, _, err := s.sessions.StartSession(s.ctx, 9999, "Ana")
	s.True(IsNotFound(err))
}

func (s *ServiceSuite) TestTotalTracksLinesAfterEveryMutation() {
	t2 := s.table(2)
	_, order, err := s.sessions.StartSession(s.ctx, t2.ID, "Carla")
	s.Require().NoError(err)

	steps := []struct {
		item models.MenuItem
		qty  int
	}{
		{s.bruschetta, 1},
		{s.water, 3},
		{s.bruschetta, 2},
		{s.water, 1},
	}
	for _, st := range steps {
		_, err := s.orders.AddLine(s.ctx, order.ID, st.item.ID, st.qty, "")
		s.Require().NoError(err)
		s.assertTotalMatchesLines(order.ID)
	}

	current, err := s.orders.GetOrder(s.ctx, order.ID)
	s.Require().NoError(err)
	s.assertMoney("65.70", current.Total)

	updated, err := s.orders.UpdateLineQuantity(s.ctx, order.ID, current.Lines[1].ID, 1)
	s.Require().NoError(err)
	s.assertTotalMatchesLines(order.ID)
	s.assertMoney("56.70", updated.Total)
}

func (s *ServiceSuite) TestLinePriceIsSnapshot() {
	t2 := s.table(2)
	_, order, err := s.sessions.StartSession(s.ctx, t2.ID, "Davi")
	s.Require().NoError(err)
	_, err = s.orders.AddLine(s.ctx, order.ID, s.water.ID, 2, "")
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(&models.MenuItem{ID: s.water.ID}).Update("preco", decimal.RequireFromString("9.99")).Error)

	current, err := s.orders.GetOrder(s.ctx, order.ID)
	s.Require().NoError(err)
	s.assertMoney("4.50", current.Lines[0].UnitPrice)
	s.assertMoney("9.00", current.Total)
}

func (s *ServiceSuite) TestAddLineValidation() {
	t2 := s.table(2)
	_, order, err := s.sessions.StartSession(s.ctx, t2.ID, "Eva")
	s.Require().NoError(err)

	_, err = s.orders.AddLine(s.ctx, order.ID, s.water.ID, 0, "")
	s.True(IsValidation(err))

	_, err = s.orders.AddLine(s.ctx, order.ID, 4242, 1, "")
	s.True(IsNotFound(err))

	_, err = s.orders.AddLine(s.ctx, 4242, s.water.ID, 1, "")
	s.True(IsNotFound(err))

	_, _, err = s.sessions.RequestBill(s.ctx, order.ID)
	s.Require().NoError(err)
	_, err = s.orders.AddLine(s.ctx, order.ID, s.water.ID, 1, "")
	s.True(IsInvalidState(err))

	s.assertTotalMatchesLines(order.ID)
}

func (s *ServiceSuite) TestCreateOrderSkipsUnknownItems() {
	t4 := s.table(4)
	order, err := s.orders.CreateOrder(s.ctx, CreateOrderInput{
		TableID:      t4.ID,
		OccupantName: "Fabio",
		Lines: []LineInput{
			{MenuItemID: s.bruschetta.ID, Quantity: 2},
			{MenuItemID: 999999, Quantity: 1},
		},
	})
	s.Require().NoError(err)
	s.Require().Len(order.Lines, 1)
	s.Equal(s.bruschetta.ID, order.Lines[0].MenuItemID)
	s.assertMoney("31.80", order.Total)

	table := s.table(4)
	s.Equal(models.TableOpen, table.Status)
	s.Equal("Fabio", table.Occupant())
}

func (s *ServiceSuite) TestCreateOrderRejectsSecondActiveOrder() {
	t4 := s.table(4)
	_, _, err := s.sessions.StartSession(s.ctx, t4.ID, "Gil")
	s.Require().NoError(err)

	_, err = s.orders.CreateOrder(s.ctx, CreateOrderInput{TableID: t4.ID})
	s.True(IsInvalidState(err))
	s.EqualValues(1, s.countOrders(t4.ID))

	_, err = s.orders.CreateOrder(s.ctx, CreateOrderInput{
		TableID: t4.ID,
		Lines:   []LineInput{{MenuItemID: s.water.ID, Quantity: 0}},
	})
	s.True(IsValidation(err))

	_, err = s.orders.CreateOrder(s.ctx, CreateOrderInput{TableID: 31337})
	s.True(IsNotFound(err))
}

func (s *ServiceSuite) TestActiveOrderIndex() {
	t5 := s.table(5)
	_, _, err := s.sessions.StartSession(s.ctx, t5.ID, "Hugo")
	s.Require().NoError(err)

	dup := models.Order{TableID: t5.ID, OccupantName: "Iris", Status: models.OrderOpen, Total: decimal.Zero}
	err = writeErr("create order", s.db.Create(&dup).Error)
	s.True(IsInvalidState(err), "got %v", err)

	// Paid orders do not count.
	paid := models.Order{TableID: t5.ID, OccupantName: "Iris", Status: models.OrderPaid, Total: decimal.Zero}
	s.NoError(s.db.Create(&paid).Error)
}

func (s *ServiceSuite) TestRequestBillIsIdempotentUntilPaid() {
	t1 := s.table(1)
	_, order, err := s.sessions.StartSession(s.ctx, t1.ID, "Ana")
	s.Require().NoError(err)

	for i := 0; i < 2; i++ {
		closed, table, err := s.sessions.RequestBill(s.ctx, order.ID)
		s.Require().NoError(err)
		s.Equal(models.OrderClosed, closed.Status)
		s.Equal(models.TableAwaitingPayment, table.Status)
	}

	_, _, err = s.sessions.ConfirmPayment(s.ctx, t1.ID)
	s.Require().NoError(err)
	_, _, err = s.sessions.RequestBill(s.ctx, order.ID)
	s.True(IsInvalidState(err))

	_, _, err = s.sessions.RequestBill(s.ctx, 777)
	s.True(IsNotFound(err))
}

func (s *ServiceSuite) TestConfirmPaymentWithoutClosedOrder() {
	t2 := s.table(2)

	_, _, err := s.sessions.ConfirmPayment(s.ctx, t2.ID)
	s.True(IsNotFound(err))
	s.Equal(models.TableFree, s.table(2).Status)

	_, _, err = s.sessions.StartSession(s.ctx, t2.ID, "Ana")
	s.Require().NoError(err)
	_, _, err = s.sessions.ConfirmPayment(s.ctx, t2.ID)
	s.True(IsNotFound(err))
	s.Equal(models.TableOpen, s.table(2).Status)
	s.Equal("Ana", s.table(2).Occupant())
}

func (s *ServiceSuite) TestResetTableFromEveryState() {
	prepare := map[string]func(tableID uint){
		"free": func(uint) {},
		"open": func(id uint) {
			_, order, err := s.sessions.StartSession(s.ctx, id, "Ana")
			s.Require().NoError(err)
			_, err = s.orders.AddLine(s.ctx, order.ID, s.water.ID, 1, "")
			s.Require().NoError(err)
		},
		"awaiting_payment": func(id uint) {
			_, order, err := s.sessions.StartSession(s.ctx, id, "Ana")
			s.Require().NoError(err)
			_, _, err = s.sessions.RequestBill(s.ctx, order.ID)
			s.Require().NoError(err)
		},
		"after payment": func(id uint) {
			_, order, err := s.sessions.StartSession(s.ctx, id, "Ana")
			s.Require().NoError(err)
			_, _, err = s.sessions.RequestBill(s.ctx, order.ID)
			s.Require().NoError(err)
			_, _, err = s.sessions.ConfirmPayment(s.ctx, id)
			s.Require().NoError(err)
		},
	}

	n := 1
	for name, fn := range prepare {
		s.Run(name, func() {
			t := s.table(n)
			n++
			fn(t.ID)

			table, err := s.sessions.ResetTable(s.ctx, t.ID)
			s.Require().NoError(err)
			s.Equal(models.TableFree, table.Status)
			s.Nil(table.OccupantName)
			s.Zero(s.countOrders(t.ID))

			var lines int64
			s.Require().NoError(s.db.Model(&models.OrderLine{}).
				Joins("JOIN orders ON orders.id = order_lines.pedido_id").
				Where("orders.mesa_id = ?", t.ID).Count(&lines).Error)
			s.Zero(lines)

			again, err := s.sessions.ResetTable(s.ctx, t.ID)
			s.Require().NoError(err)
			s.Equal(table.Status, again.Status)
			s.Equal(table.OccupantName, again.OccupantName)
			s.Zero(s.countOrders(t.ID))
		})
	}

	_, err := s.sessions.ResetTable(s.ctx, 5555)
	s.True(IsNotFound(err))
}

func (s *ServiceSuite) TestResetKeepsOtherTables() {
	t1, t2 := s.table(1), s.table(2)
	_, _, err := s.sessions.StartSession(s.ctx, t1.ID, "Ana")
	s.Require().NoError(err)
	_, _, err = s.sessions.StartSession(s.ctx, t2.ID, "Bia")
	s.Require().NoError(err)

	_, err = s.sessions.ResetTable(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.EqualValues(1, s.countOrders(t2.ID))
	s.Equal(models.TableOpen, s.table(2).Status)
}

func (s *ServiceSuite) TestUpdateNotesAndLineQuantity() {
	t3 := s.table(3)
	_, order, err := s.sessions.StartSession(s.ctx, t3.ID, "Ana")
	s.Require().NoError(err)

	updated, err := s.orders.UpdateNotes(s.ctx, order.ID, "no onions")
	s.Require().NoError(err)
	s.Equal("no onions", updated.Notes)

	withLine, err := s.orders.AddLine(s.ctx, order.ID, s.bruschetta.ID, 1, "")
	s.Require().NoError(err)

	_, err = s.orders.UpdateLineQuantity(s.ctx, order.ID, withLine.Lines[0].ID, 0)
	s.True(IsValidation(err))
	_, err = s.orders.UpdateLineQuantity(s.ctx, order.ID, 8888, 2)
	s.True(IsNotFound(err))

	_, _, err = s.sessions.RequestBill(s.ctx, order.ID)
	s.Require().NoError(err)
	_, err = s.orders.UpdateLineQuantity(s.ctx, order.ID, withLine.Lines[0].ID, 3)
	s.True(IsInvalidState(err))
}

func (s *ServiceSuite) TestListOrdersForTable() {
	t1 := s.table(1)
	for i := 0; i < 2; i++ {
		_, order, err := s.sessions.StartSession(s.ctx, t1.ID, "Ana")
		s.Require().NoError(err)
		_, _, err = s.sessions.RequestBill(s.ctx, order.ID)
		s.Require().NoError(err)
		_, _, err = s.sessions.ConfirmPayment(s.ctx, t1.ID)
		s.Require().NoError(err)
	}

	orders, err := s.orders.ListOrdersForTable(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Require().Len(orders, 2)
	s.Greater(orders[0].ID, orders[1].ID)

	_, err = s.orders.ListOrdersForTable(s.ctx, 4040)
	s.True(IsNotFound(err))
}

func (s *ServiceSuite) TestCatalog() {
	menu, err := s.catalog.ListAvailable(s.ctx)
	s.Require().NoError(err)
	s.Equal([]models.Category{models.CategoryStarter, models.CategoryBeverage}, menu.Categories())

	_, err = s.catalog.SetAvailability(s.ctx, s.water.ID, false)
	s.Require().NoError(err)
	menu, err = s.catalog.ListAvailable(s.ctx)
	s.Require().NoError(err)
	s.Empty(menu.Items(models.CategoryBeverage))

	item, err := s.catalog.GetItem(s.ctx, s.water.ID)
	s.Require().NoError(err)
	s.False(item.Available)

	_, err = s.catalog.GetItem(s.ctx, 123456)
	s.True(IsNotFound(err))

	bad := models.MenuItem{Name: "Ghost", Price: decimal.RequireFromString("-1"), Category: models.CategoryMain}
	s.True(IsValidation(s.catalog.CreateItem(s.ctx, &bad)))
	bad = models.MenuItem{Name: "Ghost", Price: decimal.RequireFromString("1"), Category: "snack"}
	s.True(IsValidation(s.catalog.CreateItem(s.ctx, &bad)))
	bad = models.MenuItem{Name: " ", Price: decimal.RequireFromString("1"), Category: models.CategoryMain}
	s.True(IsValidation(s.catalog.CreateItem(s.ctx, &bad)))
}

func (s *ServiceSuite) TestAdminViews() {
	t1, t2 := s.table(1), s.table(2)
	_, first, err := s.sessions.StartSession(s.ctx, t1.ID, "Ana")
	s.Require().NoError(err)
	_, second, err := s.sessions.StartSession(s.ctx, t2.ID, "Bia")
	s.Require().NoError(err)
	_, _, err = s.sessions.RequestBill(s.ctx, second.ID)
	s.Require().NoError(err)

	views, err := s.admin.ListTablesWithActiveOrder(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(views, 5)
	s.Require().NotNil(views[0].ActiveOrder)
	s.Equal(first.ID, views[0].ActiveOrder.ID)
	s.Require().NotNil(views[1].ActiveOrder)
	s.Equal(models.OrderClosed, views[1].ActiveOrder.Status)
	s.Nil(views[2].ActiveOrder)

	stats, err := s.admin.Stats(s.ctx)
	s.Require().NoError(err)
	s.Equal(Stats{TotalTables: 5, FreeTables: 3, OpenTables: 1, AwaitingPayment: 1, OrdersToday: 2}, stats)

	detail, err := s.admin.TableDetails(s.ctx, t1.ID)
	s.Require().NoError(err)
	s.Len(detail.Orders, 1)
	_, err = s.admin.TableDetails(s.ctx, 999)
	s.True(IsNotFound(err))

	// A paid order no longer shows as the table's active one.
	_, _, err = s.sessions.ConfirmPayment(s.ctx, t2.ID)
	s.Require().NoError(err)
	views, err = s.admin.ListTablesWithActiveOrder(s.ctx)
	s.Require().NoError(err)
	s.Nil(views[1].ActiveOrder)
	s.Equal(models.TableFree, views[1].Status)
}

func (s *ServiceSuite) TestDailyOrderCountUsesClock() {
	t1 := s.table(1)
	_, _, err := s.sessions.StartSession(s.ctx, t1.ID, "Ana")
	s.Require().NoError(err)

	count, err := s.admin.DailyOrderCount(s.ctx)
	s.Require().NoError(err)
	s.EqualValues(1, count)

	tomorrow := NewAdminService(s.db).WithClock(func() time.Time { return time.Now().AddDate(0, 0, 1) })
	count, err = tomorrow.DailyOrderCount(s.ctx)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *ServiceSuite) TestDashboardMonitorPublishesOnChange() {
	sink := new(mockSink)
	sink.On("StatsUpdated", mock.Anything).Return()
	monitor := NewDashboardMonitor(s.admin, sink)

	s.True(monitor.Tick(s.ctx))
	s.False(monitor.Tick(s.ctx))

	_, _, err := s.sessions.StartSession(s.ctx, s.table(1).ID, "Ana")
	s.Require().NoError(err)
	s.True(monitor.Tick(s.ctx))

	sink.AssertNumberOfCalls(s.T(), "StatsUpdated", 2)
	sink.AssertCalled(s.T(), "StatsUpdated", mock.MatchedBy(func(st Stats) bool {
		return st.OpenTables == 1 && st.OrdersToday == 1
	}))
}

func (s *ServiceSuite) TestNotificationsFollowCommits() {
	t1 := s.table(1)
	_, _, err := s.sessions.StartSession(s.ctx, t1.ID, "Ana")
	s.Require().NoError(err)
	s.notifier.AssertNumberOfCalls(s.T(), "TableChanged", 1)
	s.notifier.AssertNumberOfCalls(s.T(), "OrderChanged", 1)

	// A refused transition publishes nothing.
	_, _, err = s.sessions.StartSession(s.ctx, t1.ID, "Bia")
	s.Require().Error(err)
	s.notifier.AssertNumberOfCalls(s.T(), "TableChanged", 1)
}
