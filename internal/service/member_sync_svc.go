package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"society_admin_v1/internal/metrics"
	"society_admin_v1/internal/model"
	"society_admin_v1/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	memberUpdateBatchSize   = 50
	memberUpdateParallelism = 4
)

// MemberSyncResult 会员全量同步结果
type MemberSyncResult struct {
	Fetched    int
	NewMembers []model.Member
	Payments   int
	Responses  int
}

// ==================== MemberSyncService ====================

// MemberSyncService 会员对账
// 默认只新增，不修改已有会员；UpdateExistingMembers 仅按需调用
type MemberSyncService struct {
	settings     *SettingsService
	source       MemberSource
	memberRepo   repository.MemberRepository
	paymentRepo  repository.PaymentRepository
	responseRepo repository.ResponseRepository
	metrics      *metrics.SyncMetrics
	logger       *zap.Logger
}

// NewMemberSyncService 创建会员同步服务
func NewMemberSyncService(
	settings *SettingsService,
	source MemberSource,
	memberRepo repository.MemberRepository,
	paymentRepo repository.PaymentRepository,
	responseRepo repository.ResponseRepository,
	m *metrics.SyncMetrics,
	logger *zap.Logger,
) *MemberSyncService {
	return &MemberSyncService{
		settings:     settings,
		source:       source,
		memberRepo:   memberRepo,
		paymentRepo:  paymentRepo,
		responseRepo: responseRepo,
		metrics:      m,
		logger:       logger,
	}
}

// FullSync 拉取一次，依次执行：新增会员 -> 会费 -> 表单
func (s *MemberSyncService) FullSync(ctx context.Context) (*MemberSyncResult, error) {
	members, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	result := &MemberSyncResult{Fetched: len(members)}

	if result.NewMembers, err = s.addNew(ctx, members); err != nil {
		return nil, err
	}
	if result.Payments, err = s.syncPayments(ctx, members); err != nil {
		return nil, err
	}
	if result.Responses, err = s.syncResponses(ctx, members); err != nil {
		return nil, err
	}

	s.logger.Info("会员同步完成",
		zap.Int("fetched", result.Fetched),
		zap.Int("new_members", len(result.NewMembers)),
		zap.Int("payments", result.Payments),
		zap.Int("responses", result.Responses),
	)
	return result, nil
}

// AddNewMembers 只插入本地不存在的邮箱
func (s *MemberSyncService) AddNewMembers(ctx context.Context) ([]model.Member, error) {
	members, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.addNew(ctx, members)
}

// UpdateExistingMembers 用来源数据覆盖已有会员的可变字段
func (s *MemberSyncService) UpdateExistingMembers(ctx context.Context) (int, error) {
	members, err := s.fetch(ctx)
	if err != nil {
		return 0, err
	}

	index, err := s.memberRepo.EmailIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("加载会员邮箱失败: %w", err)
	}

	type update struct {
		id     int64
		fields map[string]interface{}
	}
	var updates []update
	for _, m := range members {
		id, ok := index[model.NormalizeEmail(m.Email)]
		if !ok {
			continue
		}
		updates = append(updates, update{id: id, fields: memberSnapshotFields(m)})
	}

	var updated atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(memberUpdateParallelism)

	for start := 0; start < len(updates); start += memberUpdateBatchSize {
		batch := updates[start:min(start+memberUpdateBatchSize, len(updates))]
		g.Go(func() error {
			for _, u := range batch {
				if err := s.memberRepo.UpdateSnapshot(gctx, u.id, u.fields); err != nil {
					return fmt.Errorf("更新会员 %d 失败: %w", u.id, err)
				}
				updated.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(updated.Load()), err
	}

	s.logger.Info("会员全量更新完成", zap.Int64("updated", updated.Load()))
	return int(updated.Load()), nil
}

// SyncPayments 按 (会员ID, 交易号) 去重插入会费记录
func (s *MemberSyncService) SyncPayments(ctx context.Context) (int, error) {
	members, err := s.fetch(ctx)
	if err != nil {
		return 0, err
	}
	return s.syncPayments(ctx, members)
}

// SyncResponses 每个会员只保留第一份表单
func (s *MemberSyncService) SyncResponses(ctx context.Context) (int, error) {
	members, err := s.fetch(ctx)
	if err != nil {
		return 0, err
	}
	return s.syncResponses(ctx, members)
}

// ==================== 内部步骤 ====================

func (s *MemberSyncService) fetch(ctx context.Context) ([]SourceMember, error) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	if err := settings.RequireRubric(); err != nil {
		return nil, err
	}

	return s.source.FetchMembers(ctx, RubricCredentials{
		APIURL:   settings.RubricAPIURL,
		APIKey:   settings.RubricAPIKey,
		SecretID: settings.RubricSecretID,
	})
}

func (s *MemberSyncService) addNew(ctx context.Context, members []SourceMember) ([]model.Member, error) {
	index, err := s.memberRepo.EmailIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("加载会员邮箱失败: %w", err)
	}

	var created []model.Member
	for _, m := range members {
		email := model.NormalizeEmail(m.Email)
		if _, exists := index[email]; exists {
			continue
		}
		// 同一份导出里重复的邮箱只取第一条
		index[email] = 0
		created = append(created, newMemberFromSource(m))
	}

	if len(created) == 0 {
		return nil, nil
	}
	if err := s.memberRepo.CreateBatch(ctx, created); err != nil {
		return nil, fmt.Errorf("写入新会员失败: %w", err)
	}

	s.metrics.AddMembers(len(created))
	return created, nil
}

func (s *MemberSyncService) syncPayments(ctx context.Context, members []SourceMember) (int, error) {
	index, err := s.memberRepo.EmailIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("加载会员邮箱失败: %w", err)
	}
	existing, err := s.paymentRepo.ExistingKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("加载会费记录失败: %w", err)
	}

	var payments []model.MembershipPayment
	for _, m := range members {
		if m.TransactionID == "" {
			continue
		}
		memberID, ok := index[model.NormalizeEmail(m.Email)]
		if !ok {
			continue
		}

		p := model.MembershipPayment{
			MemberID:      memberID,
			TransactionID: m.TransactionID,
			Amount:        m.Price,
			PaymentMethod: m.PaymentMethod,
			PaidAt:        m.PurchasedAt,
		}
		if _, seen := existing[p.Key()]; seen {
			continue
		}
		existing[p.Key()] = struct{}{}
		payments = append(payments, p)
	}

	if err := s.paymentRepo.CreateBatch(ctx, payments); err != nil {
		return 0, fmt.Errorf("写入会费记录失败: %w", err)
	}
	return len(payments), nil
}

func (s *MemberSyncService) syncResponses(ctx context.Context, members []SourceMember) (int, error) {
	index, err := s.memberRepo.EmailIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("加载会员邮箱失败: %w", err)
	}
	answered, err := s.responseRepo.MemberIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("加载表单记录失败: %w", err)
	}

	var responses []model.MembershipResponse
	for _, m := range members {
		if len(m.Responses) == 0 {
			continue
		}
		memberID, ok := index[model.NormalizeEmail(m.Email)]
		if !ok {
			continue
		}
		if _, done := answered[memberID]; done {
			continue
		}
		answered[memberID] = struct{}{}
		responses = append(responses, model.MembershipResponse{
			MemberID:  memberID,
			Responses: datatypes.JSON(m.Responses),
		})
	}

	if err := s.responseRepo.CreateBatch(ctx, responses); err != nil {
		return 0, fmt.Errorf("写入表单记录失败: %w", err)
	}
	return len(responses), nil
}

// ==================== 转换 ====================

func newMemberFromSource(m SourceMember) model.Member {
	return model.Member{
		Email:          model.NormalizeEmail(m.Email),
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Phone:          m.Phone,
		MembershipID:   m.MembershipID,
		MembershipType: m.MembershipType,
		Price:          m.Price,
		PaymentMethod:  m.PaymentMethod,
		PurchasedAt:    m.PurchasedAt,
		IsValid:        m.IsValid,
	}
}

func memberSnapshotFields(m SourceMember) map[string]interface{} {
	return map[string]interface{}{
		"first_name":      m.FirstName,
		"last_name":       m.LastName,
		"phone":           m.Phone,
		"membership_id":   m.MembershipID,
		"membership_type": m.MembershipType,
		"price":           m.Price,
		"payment_method":  m.PaymentMethod,
		"purchased_at":    m.PurchasedAt,
		"is_valid":        m.IsValid,
	}
}
