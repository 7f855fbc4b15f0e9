package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"
	"society_admin_v1/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSettingsService_MissingRow(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestSettingsService(t, db)

	s, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.SquarespaceAPIURL)

	err = s.RequireSquarespace()
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Squarespace API URL", cfgErr.Field)
	assert.Equal(t, "Squarespace API URL is not configured, set it on the settings page", err.Error())

	err = s.RequireRubric()
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "Rubric API URL", cfgErr.Field)
}

func TestSettingsService_SaveEncryptsSecrets(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestSettingsService(t, db)
	ctx := context.Background()

	err := svc.Save(ctx, SettingsUpdate{
		SquarespaceAPIURL:  strPtr("https://api.squarespace.com"),
		SquarespaceAPIKey:  strPtr("sq-key-123456"),
		SquarespaceKeyword: strPtr(" Pub Crawl "),
	})
	require.NoError(t, err)

	var row model.SyncSettings
	require.NoError(t, db.First(&row, model.SettingsRowID).Error)
	assert.NotEqual(t, "sq-key-123456", row.SquarespaceAPIKey)
	assert.NotEmpty(t, row.SquarespaceAPIKey)
	assert.Equal(t, "Pub Crawl", row.SquarespaceKeyword)

	s, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://api.squarespace.com", s.SquarespaceAPIURL)
	assert.Equal(t, "sq-key-123456", s.SquarespaceAPIKey)
	assert.NoError(t, s.RequireSquarespace())

	// 未传字段保持原值
	require.NoError(t, svc.Save(ctx, SettingsUpdate{RubricAPIURL: strPtr("https://rubric.example/api")}))
	s, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sq-key-123456", s.SquarespaceAPIKey)
	assert.Equal(t, "https://rubric.example/api", s.RubricAPIURL)
}

func TestSettingsService_SaveKeepsSyncProgress(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestSettingsService(t, db)
	ctx := context.Background()

	watermark := mustTime(t, "2024-03-01T10:00:00Z")
	require.NoError(t, db.Create(&model.SyncSettings{
		ID:                       model.SettingsRowID,
		LastSquarespaceOrderDate: &watermark,
	}).Error)

	require.NoError(t, svc.Save(ctx, SettingsUpdate{SquarespaceKeyword: strPtr("Gala")}))

	s, err := svc.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, s.LastSquarespaceOrderDate)
	assert.True(t, s.LastSquarespaceOrderDate.Equal(watermark))
	assert.Equal(t, "Gala", s.SquarespaceKeyword)
}

func TestSettingsService_CacheTTL(t *testing.T) {
	db := setupServiceTestDB(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cache := utils.NewTTLCache[*Settings](5 * time.Minute).WithClock(func() time.Time { return now })
	svc := NewSettingsService(repository.NewSettingsRepository(db), newTestCipher(t), cache, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, SettingsUpdate{SquarespaceKeyword: strPtr("Ball")}))
	s, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ball", s.SquarespaceKeyword)

	// 绕过服务直接修改，缓存期内仍返回旧值
	require.NoError(t, db.Model(&model.SyncSettings{}).Where("id = ?", model.SettingsRowID).
		Update("squarespace_keyword", "Pub Crawl").Error)

	now = now.Add(4 * time.Minute)
	s, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ball", s.SquarespaceKeyword)

	now = now.Add(2 * time.Minute)
	s, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pub Crawl", s.SquarespaceKeyword)
}

func TestSettingsService_DecryptFailureTreatedAsUnset(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := newTestSettingsService(t, db)
	ctx := context.Background()

	cipher := newTestCipher(t)
	encURL, err := cipher.Encrypt("https://api.squarespace.com")
	require.NoError(t, err)

	require.NoError(t, db.Create(&model.SyncSettings{
		ID:                 model.SettingsRowID,
		SquarespaceAPIURL:  encURL,
		SquarespaceAPIKey:  "not-a-ciphertext",
		SquarespaceKeyword: "Pub Crawl",
	}).Error)

	s, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://api.squarespace.com", s.SquarespaceAPIURL)
	assert.Empty(t, s.SquarespaceAPIKey)

	var cfgErr *ConfigError
	require.True(t, errors.As(s.RequireSquarespace(), &cfgErr))
	assert.Equal(t, "Squarespace API key", cfgErr.Field)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "****", MaskSecret("abc"))
	assert.Equal(t, "****5678", MaskSecret("sk_12345678"))
}
