package service

import (
	"context"
	"fmt"

	"society_admin_v1/internal/api/dto"
	"society_admin_v1/internal/repository"
)

// MemberService 会员查询
type MemberService struct {
	memberRepo repository.MemberRepository
}

// NewMemberService 创建会员服务
func NewMemberService(memberRepo repository.MemberRepository) *MemberService {
	return &MemberService{memberRepo: memberRepo}
}

// ListMembers 会员列表
func (s *MemberService) ListMembers(ctx context.Context, req *dto.ListMembersRequest) (*dto.ListMembersResponse, error) {
	members, total, err := s.memberRepo.List(ctx, repository.MemberFilter{
		Keyword:        req.Keyword,
		MembershipType: req.MembershipType,
		ValidOnly:      req.ValidOnly,
		Page:           req.Page,
		PageSize:       req.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("查询会员列表失败: %w", err)
	}

	list := make([]dto.MemberVO, len(members))
	for i, m := range members {
		list[i] = dto.MemberVO{
			ID:             m.ID,
			Email:          m.Email,
			Name:           m.FullName(),
			Phone:          m.Phone,
			MembershipID:   m.MembershipID,
			MembershipType: m.MembershipType,
			Price:          m.Price,
			PaymentMethod:  m.PaymentMethod,
			IsValid:        m.IsValid,
			PurchasedAt:    m.PurchasedAt,
			CreatedAt:      m.CreatedAt,
		}
	}
	return &dto.ListMembersResponse{Total: total, List: list}, nil
}
