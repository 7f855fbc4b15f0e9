package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"society_admin_v1/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&model.SyncSettings{},
		&model.Order{}, &model.OrderLineItem{},
		&model.Member{}, &model.MembershipPayment{}, &model.MembershipResponse{},
		&model.ActivityLog{},
	)
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}
	return db
}

// ==================== SettingsRepository ====================

func TestSettingsRepository_TryAcquire(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.EnsureRow(ctx))
	require.NoError(t, repo.EnsureRow(ctx))

	ok, err := repo.TryAcquire(ctx, model.SyncKindOrders, now, 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.TryAcquire(ctx, model.SyncKindOrders, now.Add(4*time.Minute), 5*time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	row, err := repo.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, row.LastOrderSyncAt)
	assert.True(t, row.LastOrderSyncAt.Equal(now))
	assert.Nil(t, row.LastMemberSyncAt)

	ok, err = repo.TryAcquire(ctx, model.SyncKindOrders, now.Add(5*time.Minute), 5*time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = repo.TryAcquire(ctx, model.SyncKind("bogus"), now, time.Minute)
	assert.Error(t, err)
}

func TestSettingsRepository_WatermarkIsMonotonic(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.EnsureRow(ctx))

	t1 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	ok, err := repo.AdvanceOrderWatermark(ctx, t1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AdvanceOrderWatermark(ctx, t1.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.AdvanceOrderWatermark(ctx, t1)
	require.NoError(t, err)
	assert.False(t, ok)

	row, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.True(t, row.LastSquarespaceOrderDate.Equal(t1))
}

func TestSettingsRepository_SaveCredentialsKeepsProgress(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewSettingsRepository(db)
	ctx := context.Background()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.EnsureRow(ctx))
	_, err := repo.TryAcquire(ctx, model.SyncKindMembers, now, time.Minute)
	require.NoError(t, err)

	require.NoError(t, repo.SaveCredentials(ctx, &model.SyncSettings{RubricAPIKey: "enc"}))

	row, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "enc", row.RubricAPIKey)
	require.NotNil(t, row.LastMemberSyncAt)
	assert.True(t, row.LastMemberSyncAt.Equal(now))
}

// ==================== OrderRepository ====================

func TestOrderRepository_SyncHelpers(t *testing.T) {
	db := setupRepoTestDB(t)
	orders := NewOrderRepository(db)
	items := NewOrderLineItemRepository(db)
	ctx := context.Background()

	number := "1001"
	require.NoError(t, orders.CreateBatch(ctx, []model.Order{
		{ID: "a", OrderNumber: &number, FulfillmentStatus: model.FulfillmentPacked, OrderDate: time.Now().UTC()},
		{ID: "b", FulfillmentStatus: model.FulfillmentPending, OrderDate: time.Now().UTC()},
	}))
	require.NoError(t, orders.CreateBatch(ctx, nil))

	statuses, err := orders.ListStatuses(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": model.FulfillmentPacked, "b": model.FulfillmentPending}, statuses)

	missing, err := orders.HasMissingOrderNumber(ctx)
	require.NoError(t, err)
	assert.True(t, missing)

	require.NoError(t, orders.UpdateFields(ctx, "b", map[string]interface{}{"order_number": "1002"}))
	missing, err = orders.HasMissingOrderNumber(ctx)
	require.NoError(t, err)
	assert.False(t, missing)

	require.NoError(t, items.CreateBatch(ctx, []model.OrderLineItem{
		{OrderID: "a", ProductName: "Tee", Quantity: 1},
		{OrderID: "a", ProductName: "Tee", Quantity: 2},
		{OrderID: "b", ProductName: "Tee", Quantity: 1},
	}))
	require.NoError(t, items.DeleteByOrderIDs(ctx, []string{"a"}))

	left, err := items.GetByOrderID(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, left)
	left, err = items.GetByOrderID(ctx, "b")
	require.NoError(t, err)
	assert.Len(t, left, 1)
}

func TestOrderLineItemRepository_DeleteChunks(t *testing.T) {
	db := setupRepoTestDB(t)
	items := NewOrderLineItemRepository(db)
	ctx := context.Background()

	ids := make([]string, inChunkSize+3)
	batch := make([]model.OrderLineItem, 0, len(ids))
	for i := range ids {
		ids[i] = fmt.Sprintf("o%04d", i)
		batch = append(batch, model.OrderLineItem{OrderID: ids[i], ProductName: "Tee", Quantity: 1})
	}
	require.NoError(t, items.CreateBatch(ctx, batch))
	require.NoError(t, items.DeleteByOrderIDs(ctx, ids))

	var count int64
	db.Model(&model.OrderLineItem{}).Count(&count)
	assert.Zero(t, count)
}

// ==================== MemberRepository ====================

func TestMemberRepository_IndexesAndKeys(t *testing.T) {
	db := setupRepoTestDB(t)
	members := NewMemberRepository(db)
	payments := NewPaymentRepository(db)
	responses := NewResponseRepository(db)
	ctx := context.Background()

	batch := []model.Member{
		{Email: "alice@example.com", FirstName: "Alice", MembershipType: "Full", IsValid: true},
		{Email: "bob@example.com", FirstName: "Bob", MembershipType: "Associate"},
	}
	require.NoError(t, members.CreateBatch(ctx, batch))
	assert.NotZero(t, batch[0].ID)

	index, err := members.EmailIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, batch[0].ID, index["alice@example.com"])
	assert.Len(t, index, 2)

	// 邮箱唯一
	assert.Error(t, members.CreateBatch(ctx, []model.Member{{Email: "alice@example.com"}}))

	require.NoError(t, payments.CreateBatch(ctx, []model.MembershipPayment{
		{MemberID: batch[0].ID, TransactionID: "tx-1"},
	}))
	keys, err := payments.ExistingKeys(ctx)
	require.NoError(t, err)
	_, ok := keys[model.PaymentKey{MemberID: batch[0].ID, TransactionID: "tx-1"}]
	assert.True(t, ok)
	assert.Error(t, payments.CreateBatch(ctx, []model.MembershipPayment{
		{MemberID: batch[0].ID, TransactionID: "tx-1"},
	}))

	require.NoError(t, responses.CreateBatch(ctx, []model.MembershipResponse{
		{MemberID: batch[1].ID, Responses: []byte(`{"q":"a"}`)},
	}))
	answered, err := responses.MemberIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, answered, batch[1].ID)

	list, total, err := members.List(ctx, MemberFilter{ValidOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Alice", list[0].FirstName)

	list, total, err = members.List(ctx, MemberFilter{MembershipType: "Associate", Keyword: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Bob", list[0].FirstName)

	require.NoError(t, members.UpdateSnapshot(ctx, batch[1].ID, map[string]interface{}{"first_name": "Robert"}))
	list, _, err = members.List(ctx, MemberFilter{Keyword: "Robert"})
	require.NoError(t, err)
	require.Len(t, list, 1)
}

// ==================== ActivityLogRepository ====================

func TestActivityLogRepository_ListRecent(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewActivityLogRepository(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, &model.ActivityLog{
			ActorName:  "system",
			Action:     model.ActionMemberSynced,
			EntityType: model.EntityMember,
			EntityID:   fmt.Sprint(i),
		}))
	}
	require.NoError(t, repo.Create(ctx, &model.ActivityLog{Action: model.ActionOrderDeleted, EntityType: model.EntityOrder}))

	logs, err := repo.ListRecent(ctx, model.EntityMember, 2)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "2", logs[0].EntityID)

	logs, err = repo.ListRecent(ctx, "", -1)
	require.NoError(t, err)
	assert.Len(t, logs, 4)
}
