package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"
	"society_admin_v1/pkg/crypto"
	"society_admin_v1/pkg/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSettingsTTL 设置快照有效期
const DefaultSettingsTTL = 5 * time.Minute

// ==================== Settings 快照 ====================

// Settings 已解密的集成配置快照
type Settings struct {
	SquarespaceAPIURL  string
	SquarespaceAPIKey  string
	SquarespaceKeyword string

	RubricAPIURL   string
	RubricAPIKey   string
	RubricSecretID string

	LastOrderSyncAt          *time.Time
	LastSquarespaceOrderDate *time.Time
	LastMemberSyncAt         *time.Time
}

// RequireSquarespace 订单同步所需配置
func (s *Settings) RequireSquarespace() error {
	switch {
	case strings.TrimSpace(s.SquarespaceAPIURL) == "":
		return &ConfigError{Field: "Squarespace API URL"}
	case s.SquarespaceAPIKey == "":
		return &ConfigError{Field: "Squarespace API key"}
	case strings.TrimSpace(s.SquarespaceKeyword) == "":
		return &ConfigError{Field: "Squarespace product keyword"}
	}
	return nil
}

// RequireRubric 会员同步所需配置
func (s *Settings) RequireRubric() error {
	switch {
	case strings.TrimSpace(s.RubricAPIURL) == "":
		return &ConfigError{Field: "Rubric API URL"}
	case s.RubricAPIKey == "":
		return &ConfigError{Field: "Rubric API key"}
	case s.RubricSecretID == "":
		return &ConfigError{Field: "Rubric secret ID"}
	}
	return nil
}

// SettingsUpdate 设置更新，nil 字段保持原值
type SettingsUpdate struct {
	SquarespaceAPIURL  *string
	SquarespaceAPIKey  *string
	SquarespaceKeyword *string
	RubricAPIURL       *string
	RubricAPIKey       *string
	RubricSecretID     *string
}

// ==================== SettingsService ====================

// SettingsService 设置读取（带缓存）与保存
type SettingsService struct {
	repo   repository.SettingsRepository
	cipher crypto.Cipher
	cache  *utils.TTLCache[*Settings]
	logger *zap.Logger
}

// NewSettingsService 创建设置服务
func NewSettingsService(
	repo repository.SettingsRepository,
	cipher crypto.Cipher,
	cache *utils.TTLCache[*Settings],
	logger *zap.Logger,
) *SettingsService {
	if cache == nil {
		cache = utils.NewTTLCache[*Settings](DefaultSettingsTTL)
	}
	return &SettingsService{
		repo:   repo,
		cipher: cipher,
		cache:  cache,
		logger: logger,
	}
}

// Get 返回配置快照，过期则重新读取并解密
func (s *SettingsService) Get(ctx context.Context) (*Settings, error) {
	if cached, ok := s.cache.Get(); ok {
		return cached, nil
	}

	row, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		empty := &Settings{}
		s.cache.Set(empty)
		return empty, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取同步设置失败: %w", err)
	}

	settings := &Settings{
		SquarespaceAPIURL:        s.decrypt("squarespace_api_url", row.SquarespaceAPIURL),
		SquarespaceAPIKey:        s.decrypt("squarespace_api_key", row.SquarespaceAPIKey),
		SquarespaceKeyword:       row.SquarespaceKeyword,
		RubricAPIURL:             s.decrypt("rubric_api_url", row.RubricAPIURL),
		RubricAPIKey:             s.decrypt("rubric_api_key", row.RubricAPIKey),
		RubricSecretID:           s.decrypt("rubric_secret_id", row.RubricSecretID),
		LastOrderSyncAt:          row.LastOrderSyncAt,
		LastSquarespaceOrderDate: row.LastSquarespaceOrderDate,
		LastMemberSyncAt:         row.LastMemberSyncAt,
	}
	s.cache.Set(settings)
	return settings, nil
}

// Invalidate 丢弃缓存快照
func (s *SettingsService) Invalidate() {
	s.cache.Invalidate()
}

// Save 加密并写入凭证字段
func (s *SettingsService) Save(ctx context.Context, update SettingsUpdate) error {
	row, err := s.repo.Get(ctx)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = &model.SyncSettings{ID: model.SettingsRowID}
	} else if err != nil {
		return fmt.Errorf("读取同步设置失败: %w", err)
	}

	fields := []struct {
		value  *string
		target *string
		secret bool
	}{
		{update.SquarespaceAPIURL, &row.SquarespaceAPIURL, true},
		{update.SquarespaceAPIKey, &row.SquarespaceAPIKey, true},
		{update.SquarespaceKeyword, &row.SquarespaceKeyword, false},
		{update.RubricAPIURL, &row.RubricAPIURL, true},
		{update.RubricAPIKey, &row.RubricAPIKey, true},
		{update.RubricSecretID, &row.RubricSecretID, true},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if !f.secret {
			*f.target = v
			continue
		}
		enc, err := s.cipher.Encrypt(v)
		if err != nil {
			return fmt.Errorf("加密设置失败: %w", err)
		}
		*f.target = enc
	}

	row.UpdatedAt = time.Now()
	if err := s.repo.SaveCredentials(ctx, row); err != nil {
		return fmt.Errorf("保存同步设置失败: %w", err)
	}

	s.Invalidate()
	return nil
}

// decrypt 解密失败按未配置处理，只记录告警
func (s *SettingsService) decrypt(field, ciphertext string) string {
	if ciphertext == "" {
		return ""
	}
	plain, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		s.logger.Warn("设置字段解密失败，按未配置处理",
			zap.String("field", field),
			zap.Error(err),
		)
		return ""
	}
	return plain
}

// MaskSecret 只保留末 4 位
func MaskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
