package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"
	"society_admin_v1/pkg/crypto"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testCryptoKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

// ==================== 测试辅助 ====================

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取底层连接失败: %v", err)
	}
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

func newTestCipher(t *testing.T) *crypto.AESCipher {
	t.Helper()
	c, err := crypto.NewAESCipher(testCryptoKey)
	if err != nil {
		t.Fatalf("创建加密器失败: %v", err)
	}
	return c
}

func newTestSettingsService(t *testing.T, db *gorm.DB) *SettingsService {
	t.Helper()
	return NewSettingsService(repository.NewSettingsRepository(db), newTestCipher(t), nil, zap.NewNop())
}

func strPtr(s string) *string { return &s }

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("解析时间失败: %v", err)
	}
	return v.UTC()
}

// ==================== 假实现 ====================

// recordingActivity 记录所有写入的操作日志
type recordingActivity struct {
	mu      sync.Mutex
	entries []ActivityEntry
}

func (r *recordingActivity) Record(_ context.Context, entry ActivityEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

func (r *recordingActivity) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Action
	}
	return out
}
