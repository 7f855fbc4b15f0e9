package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"society_admin_v1/internal/api/dto"
	"society_admin_v1/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const providerRubric = "Rubric"

// Rubric 把导出数组放在其中一个字段下
var rubricArrayKeys = []string{"members", "data"}

// ==================== 领域结构 ====================

// SourceMember 已校验并规范化的来源会员
type SourceMember struct {
	Email          string
	FirstName      string
	LastName       string
	Phone          *string
	MembershipID   string
	MembershipType string
	Price          decimal.Decimal
	PaymentMethod  string
	TransactionID  string
	PurchasedAt    *time.Time
	IsValid        bool
	Responses      json.RawMessage
}

// RubricCredentials 会员源凭证
type RubricCredentials struct {
	APIURL   string
	APIKey   string
	SecretID string
}

// MemberSource 会员来源
type MemberSource interface {
	FetchMembers(ctx context.Context, creds RubricCredentials) ([]SourceMember, error)
}

// ==================== RubricClient ====================

// RubricClient Rubric 会员导出
type RubricClient struct {
	client   *resty.Client
	validate *validator.Validate
	logger   *zap.Logger
}

var _ MemberSource = (*RubricClient)(nil)

// NewRubricClient 创建客户端
func NewRubricClient(client *resty.Client, logger *zap.Logger) *RubricClient {
	return &RubricClient{
		client:   client,
		validate: validator.New(),
		logger:   logger,
	}
}

// FetchMembers 单次 POST 拉取全部会员
// 响应必须在 members 或 data 下带数组；单条记录校验失败时跳过
func (c *RubricClient) FetchMembers(ctx context.Context, creds RubricCredentials) ([]SourceMember, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(creds.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(dto.RubricMembersRequest{SecretID: creds.SecretID}).
		Post(creds.APIURL)
	if err != nil {
		return nil, &UpstreamError{Provider: providerRubric, Err: err}
	}
	if resp.IsError() {
		return nil, &UpstreamError{
			Provider: providerRubric,
			Status:   resp.StatusCode(),
			Message:  truncate(strings.TrimSpace(resp.String()), 200),
		}
	}

	records, err := extractRubricArray(resp.Body())
	if err != nil {
		return nil, err
	}

	members := make([]SourceMember, 0, len(records))
	skipped := 0
	for i, raw := range records {
		m, err := c.normalize(raw)
		if err != nil {
			skipped++
			c.logger.Debug("跳过无效会员记录", zap.Int("index", i), zap.Error(err))
			continue
		}
		members = append(members, m)
	}

	if skipped > 0 {
		c.logger.Warn("Rubric 返回了无效会员记录",
			zap.Int("skipped", skipped),
			zap.Int("total", len(records)),
		)
	}
	return members, nil
}

func extractRubricArray(body []byte) ([]json.RawMessage, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &UpstreamError{
			Provider: providerRubric,
			Message:  "response is not a JSON object",
			Err:      err,
		}
	}

	for _, key := range rubricArrayKeys {
		raw, ok := envelope[key]
		if !ok || !isJSONArray(raw) {
			continue
		}
		var records []json.RawMessage
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, &UpstreamError{Provider: providerRubric, Message: "malformed member array", Err: err}
		}
		return records, nil
	}

	keys := make([]string, 0, len(envelope))
	for k := range envelope {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return nil, &UpstreamError{
		Provider: providerRubric,
		Message:  fmt.Sprintf("expected an array under %q or %q, got keys [%s]", "members", "data", strings.Join(keys, ", ")),
	}
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// normalize 校验并规范化单条记录
func (c *RubricClient) normalize(raw json.RawMessage) (SourceMember, error) {
	var rec dto.RubricMember
	if err := json.Unmarshal(raw, &rec); err != nil {
		return SourceMember{}, err
	}

	rec.Email = model.NormalizeEmail(rec.Email)
	rec.MembershipID = strings.TrimSpace(rec.MembershipID)
	if err := c.validate.Struct(&rec); err != nil {
		return SourceMember{}, err
	}

	price, err := ParsePrice(rec.Price)
	if err != nil {
		return SourceMember{}, fmt.Errorf("price %q: %w", rec.Price, err)
	}

	return SourceMember{
		Email:          rec.Email,
		FirstName:      strings.TrimSpace(rec.FirstName),
		LastName:       strings.TrimSpace(rec.LastName),
		Phone:          normalizePhone(rec.Phone),
		MembershipID:   rec.MembershipID,
		MembershipType: strings.TrimSpace(rec.MembershipType),
		Price:          price,
		PaymentMethod:  strings.TrimSpace(rec.PaymentMethod),
		TransactionID:  strings.TrimSpace(rec.TransactionID),
		PurchasedAt:    parseRubricTime(rec.PurchasedAt),
		IsValid:        bytes.Equal(bytes.TrimSpace(rec.Valid), []byte("1")),
		Responses:      nonEmptyJSON(rec.Responses),
	}, nil
}

// ParsePrice 去掉货币符号后解析为两位小数，例如 "£12.50" -> 12.50
func ParsePrice(s string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

func normalizePhone(phone string) *string {
	p := strings.TrimSpace(phone)
	if p == "" || p == "N/A" {
		return nil
	}
	return &p
}

var rubricTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseRubricTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range rubricTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func nonEmptyJSON(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", `""`, "{}", "[]":
		return nil
	}
	return trimmed
}
