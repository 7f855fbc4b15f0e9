package repository

import (
	"context"

	"society_admin_v1/internal/model"

	"gorm.io/gorm"
)

// MemberFilter 会员过滤条件
type MemberFilter struct {
	Keyword        string
	MembershipType string
	ValidOnly      bool
	Page           int
	PageSize       int
}

// ==================== MemberRepository 会员仓库 ====================

// MemberRepository 会员仓库接口
type MemberRepository interface {
	CreateBatch(ctx context.Context, members []model.Member) error
	UpdateSnapshot(ctx context.Context, id int64, fields map[string]interface{}) error
	List(ctx context.Context, filter MemberFilter) ([]model.Member, int64, error)

	// EmailIndex 小写邮箱 -> 会员 ID
	EmailIndex(ctx context.Context) (map[string]int64, error)
}

type memberRepository struct {
	db *gorm.DB
}

// NewMemberRepository 创建会员仓库
func NewMemberRepository(db *gorm.DB) MemberRepository {
	return &memberRepository{db: db}
}

func (r *memberRepository) CreateBatch(ctx context.Context, members []model.Member) error {
	if len(members) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&members).Error
}

func (r *memberRepository) UpdateSnapshot(ctx context.Context, id int64, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.Member{}).Where("id = ?", id).Updates(fields).Error
}

func (r *memberRepository) List(ctx context.Context, filter MemberFilter) ([]model.Member, int64, error) {
	var members []model.Member
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Member{})

	if filter.Keyword != "" {
		keyword := "%" + filter.Keyword + "%"
		db = db.Where("email LIKE ? OR first_name LIKE ? OR last_name LIKE ?", keyword, keyword, keyword)
	}
	if filter.MembershipType != "" {
		db = db.Where("membership_type = ?", filter.MembershipType)
	}
	if filter.ValidOnly {
		db = db.Where("is_valid = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	err := db.Order("created_at DESC, id DESC").
		Limit(filter.PageSize).
		Offset((filter.Page - 1) * filter.PageSize).
		Find(&members).Error
	return members, total, err
}

func (r *memberRepository) EmailIndex(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		ID    int64
		Email string
	}
	if err := r.db.WithContext(ctx).Model(&model.Member{}).Select("id, email").Scan(&rows).Error; err != nil {
		return nil, err
	}

	index := make(map[string]int64, len(rows))
	for _, row := range rows {
		index[model.NormalizeEmail(row.Email)] = row.ID
	}
	return index, nil
}

// ==================== PaymentRepository 会费仓库 ====================

// PaymentRepository 会费记录仓库接口
type PaymentRepository interface {
	CreateBatch(ctx context.Context, payments []model.MembershipPayment) error
	ExistingKeys(ctx context.Context) (map[model.PaymentKey]struct{}, error)
}

type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建会费仓库
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) CreateBatch(ctx context.Context, payments []model.MembershipPayment) error {
	if len(payments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(payments, 100).Error
}

func (r *paymentRepository) ExistingKeys(ctx context.Context) (map[model.PaymentKey]struct{}, error) {
	var rows []model.PaymentKey
	err := r.db.WithContext(ctx).Model(&model.MembershipPayment{}).
		Select("member_id, transaction_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	keys := make(map[model.PaymentKey]struct{}, len(rows))
	for _, k := range rows {
		keys[k] = struct{}{}
	}
	return keys, nil
}

// ==================== ResponseRepository 表单仓库 ====================

// ResponseRepository 入会表单仓库接口
type ResponseRepository interface {
	CreateBatch(ctx context.Context, responses []model.MembershipResponse) error
	MemberIDs(ctx context.Context) (map[int64]struct{}, error)
}

type responseRepository struct {
	db *gorm.DB
}

// NewResponseRepository 创建表单仓库
func NewResponseRepository(db *gorm.DB) ResponseRepository {
	return &responseRepository{db: db}
}

func (r *responseRepository) CreateBatch(ctx context.Context, responses []model.MembershipResponse) error {
	if len(responses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(responses, 100).Error
}

func (r *responseRepository) MemberIDs(ctx context.Context) (map[int64]struct{}, error) {
	var ids []int64
	if err := r.db.WithContext(ctx).Model(&model.MembershipResponse{}).Pluck("member_id", &ids).Error; err != nil {
		return nil, err
	}

	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}
