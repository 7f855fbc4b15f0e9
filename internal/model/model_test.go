package model

import (
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"
)

func TestSeedFulfillmentStatus(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{SourceStatusPending, FulfillmentPending},
		{SourceStatusFulfilled, FulfillmentFulfilled},
		{SourceStatusCanceled, FulfillmentFulfilled},
		{"", FulfillmentPending},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SeedFulfillmentStatus(tt.source), "source=%q", tt.source)
	}
}

func TestOrder_CanTransitionTo(t *testing.T) {
	o := &Order{FulfillmentStatus: FulfillmentPending}
	assert.True(t, o.CanTransitionTo(FulfillmentPacked))
	assert.True(t, o.CanTransitionTo(FulfillmentFulfilled))
	assert.False(t, o.CanTransitionTo("SHIPPED"))

	o.FulfillmentStatus = FulfillmentFulfilled
	assert.True(t, o.CanTransitionTo(FulfillmentPacked))
	assert.False(t, o.CanTransitionTo(FulfillmentPending))
}

func TestOrderLineItem_GetTotalPrice(t *testing.T) {
	item := &OrderLineItem{Quantity: 3, UnitPrice: decimal.RequireFromString("12.50")}
	assert.True(t, decimal.RequireFromString("37.50").Equal(item.GetTotalPrice()))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.org", NormalizeEmail("  Jane@Example.ORG "))
}

func TestMember_FullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", (&Member{FirstName: "Jane", LastName: "Doe"}).FullName())
	assert.Equal(t, "Jane", (&Member{FirstName: "Jane"}).FullName())
}

func TestSyncKind_AttemptColumn(t *testing.T) {
	assert.NotEqual(t, SyncKindOrders.AttemptColumn(), SyncKindMembers.AttemptColumn())
}

func TestModels_SchemaParses(t *testing.T) {
	models := []interface{}{
		&SyncSettings{},
		&Order{},
		&OrderLineItem{},
		&Member{},
		&MembershipPayment{},
		&MembershipResponse{},
		&ActivityLog{},
	}
	for _, m := range models {
		s, err := schema.Parse(m, &sync.Map{}, schema.NamingStrategy{})
		require.NoError(t, err, "%T", m)
		assert.NotEmpty(t, s.Table)
	}

	s, err := schema.Parse(&OrderLineItem{}, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	field := s.LookUpField("VariantOptions")
	require.NotNil(t, field)
	assert.Equal(t, schema.DataType("text"), field.DataType)
}
