package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"society_admin_v1/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRubricServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer rb-key", r.Header.Get("Authorization"))

		raw, _ := io.ReadAll(r.Body)
		var req map[string]string
		assert.NoError(t, json.Unmarshal(raw, &req))
		assert.Equal(t, "secret-42", req["secret_id"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func fetchRubric(t *testing.T, srv *httptest.Server) ([]SourceMember, error) {
	t.Helper()
	client := NewRubricClient(utils.NewAPIClient(5*time.Second), zap.NewNop())
	return client.FetchMembers(context.Background(), RubricCredentials{
		APIURL:   srv.URL,
		APIKey:   "rb-key",
		SecretID: "secret-42",
	})
}

func TestRubricClient_NormalizesMembers(t *testing.T) {
	srv := newRubricServer(t, http.StatusOK, `{
		"members": [
			{
				"email": "  Alice@Example.COM ",
				"first_name": "Alice",
				"last_name": "Smith",
				"phone_number": "N/A",
				"membership_id": "M-1",
				"membership_type": "Full",
				"price": "£12.50",
				"payment_method": "card",
				"transaction_id": "tx-1",
				"purchased_at": "2024-09-01 10:30:00",
				"valid": 1,
				"responses": {"course": "History"}
			},
			{
				"email": "bob@example.com",
				"membership_id": "M-2",
				"phone_number": "07700 900123",
				"price": "",
				"valid": 0,
				"responses": {}
			},
			{"email": "not-an-email", "membership_id": "M-3"},
			{"first_name": "NoEmail", "membership_id": "M-4"}
		]
	}`)
	defer srv.Close()

	members, err := fetchRubric(t, srv)
	require.NoError(t, err)
	require.Len(t, members, 2)

	alice := members[0]
	assert.Equal(t, "alice@example.com", alice.Email)
	assert.Nil(t, alice.Phone)
	assert.Equal(t, "12.5", alice.Price.String())
	assert.True(t, alice.IsValid)
	require.NotNil(t, alice.PurchasedAt)
	assert.True(t, alice.PurchasedAt.Equal(time.Date(2024, 9, 1, 10, 30, 0, 0, time.UTC)))
	assert.JSONEq(t, `{"course":"History"}`, string(alice.Responses))

	bob := members[1]
	require.NotNil(t, bob.Phone)
	assert.Equal(t, "07700 900123", *bob.Phone)
	assert.True(t, bob.Price.IsZero())
	assert.False(t, bob.IsValid)
	assert.Nil(t, bob.Responses)
	assert.Nil(t, bob.PurchasedAt)
}

func TestRubricClient_AcceptsDataKey(t *testing.T) {
	srv := newRubricServer(t, http.StatusOK, `{"data":[{"email":"carol@example.com","membership_id":"M-9"}]}`)
	defer srv.Close()

	members, err := fetchRubric(t, srv)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "carol@example.com", members[0].Email)
}

func TestRubricClient_ShapeErrorNamesKeys(t *testing.T) {
	srv := newRubricServer(t, http.StatusOK, `{"result":[],"count":3}`)
	defer srv.Close()

	_, err := fetchRubric(t, srv)
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, "Rubric", upstream.Provider)
	assert.Contains(t, upstream.Message, "[count, result]")
}

func TestRubricClient_MembersNotArray(t *testing.T) {
	srv := newRubricServer(t, http.StatusOK, `{"members":{"email":"x@example.com"}}`)
	defer srv.Close()

	_, err := fetchRubric(t, srv)
	assert.Equal(t, CodeUpstream, ErrorCode(err))
}

func TestRubricClient_HTTPError(t *testing.T) {
	srv := newRubricServer(t, http.StatusUnauthorized, `{"error":"bad key"}`)
	defer srv.Close()

	_, err := fetchRubric(t, srv)
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnauthorized, upstream.Status)
}

func TestParsePrice(t *testing.T) {
	cases := map[string]string{
		"£12.50":  "12.5",
		"12":      "12",
		"GBP 5.5": "5.5",
		"":        "0",
		"£":       "0",
		"3.14159": "3.14",
	}
	for in, want := range cases {
		got, err := ParsePrice(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got.String(), in)
	}

	_, err := ParsePrice("1.2.3")
	assert.Error(t, err)
}
