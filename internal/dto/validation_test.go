package dto

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AminArria/sponsorly/internal/domain"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func validNewsletter() *CreateNewsletterRequest {
	next := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	return &CreateNewsletterRequest{
		Name:              "Go Weekly",
		Slug:              "go-weekly",
		IntervalDays:      intPtr(7),
		SponsorInDays:     intPtr(14),
		SponsorBeforeDays: intPtr(2),
		NextIssueAt:       &next,
	}
}

func TestCreateNewsletterRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateNewsletterRequest)
		want   map[string][]string
	}{
		{"valid", func(r *CreateNewsletterRequest) {}, map[string][]string{}},
		{"blank name", func(r *CreateNewsletterRequest) { r.Name = "   " }, map[string][]string{"name": {domain.MsgRequired}}},
		{"long name", func(r *CreateNewsletterRequest) { r.Name = strings.Repeat("n", 201) }, map[string][]string{"name": {domain.MsgTooLong}}},
		{"missing slug", func(r *CreateNewsletterRequest) { r.Slug = "" }, map[string][]string{"slug": {domain.MsgRequired}}},
		{"bad slug", func(r *CreateNewsletterRequest) { r.Slug = "Go_Weekly" }, map[string][]string{"slug": {domain.MsgInvalidSlug}}},
		{"zero interval", func(r *CreateNewsletterRequest) { r.IntervalDays = intPtr(0) }, map[string][]string{"interval_days": {domain.MsgPositive}}},
		{"zero sponsor before is allowed", func(r *CreateNewsletterRequest) { r.SponsorBeforeDays = intPtr(0) }, map[string][]string{}},
		{"negative sponsor in", func(r *CreateNewsletterRequest) { r.SponsorInDays = intPtr(-3) }, map[string][]string{"sponsor_in_days": {domain.MsgNonNegative}}},
		{
			"missing numbers",
			func(r *CreateNewsletterRequest) {
				r.IntervalDays, r.SponsorInDays, r.SponsorBeforeDays, r.NextIssueAt = nil, nil, nil, nil
			},
			map[string][]string{
				"interval_days":       {domain.MsgRequired},
				"sponsor_in_days":     {domain.MsgRequired},
				"sponsor_before_days": {domain.MsgRequired},
				"next_issue_at":       {domain.MsgRequired},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validNewsletter()
			tt.mutate(req)
			assert.Equal(t, tt.want, req.Validate().Fields)
		})
	}
}

func TestCreateNewsletterRequest_ValidateTrims(t *testing.T) {
	req := validNewsletter()
	req.Name = "  Go Weekly "
	req.Slug = " go-weekly "

	assert.Nil(t, req.Validate().OrNil())
	assert.Equal(t, "Go Weekly", req.Name)
	assert.Equal(t, "go-weekly", req.Slug)
}

func TestUpdateNewsletterRequest_Validate(t *testing.T) {
	t.Run("empty update", func(t *testing.T) {
		req := &UpdateNewsletterRequest{}
		assert.Nil(t, req.Validate().OrNil())
	})

	t.Run("blank fields", func(t *testing.T) {
		req := &UpdateNewsletterRequest{Name: strPtr("   "), Slug: strPtr("  ")}
		verr := req.Validate()
		assert.Equal(t, []string{domain.MsgRequired}, verr.Fields["name"])
		assert.Equal(t, []string{domain.MsgInvalidSlug}, verr.Fields["slug"])
	})

	t.Run("trims what was sent", func(t *testing.T) {
		req := &UpdateNewsletterRequest{Name: strPtr(" Go Monthly "), Slug: strPtr(" monthly ")}
		require.Nil(t, req.Validate().OrNil())
		assert.Equal(t, "Go Monthly", *req.Name)
		assert.Equal(t, "monthly", *req.Slug)
	})

	t.Run("numbers", func(t *testing.T) {
		req := &UpdateNewsletterRequest{IntervalDays: intPtr(0), SponsorBeforeDays: intPtr(-1)}
		verr := req.Validate()
		assert.Equal(t, []string{domain.MsgPositive}, verr.Fields["interval_days"])
		assert.Equal(t, []string{domain.MsgNonNegative}, verr.Fields["sponsor_before_days"])
	})
}

func TestIssueRequests_Validate(t *testing.T) {
	verr := (&CreateIssueRequest{Name: " "}).Validate()
	assert.Equal(t, []string{domain.MsgRequired}, verr.Fields["name"])
	assert.Equal(t, []string{domain.MsgRequired}, verr.Fields["due_at"])

	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, (&CreateIssueRequest{Name: "Special", DueAt: &due}).Validate().OrNil())

	update := &UpdateIssueRequest{Name: strPtr("  ")}
	assert.Equal(t, []string{domain.MsgRequired}, update.Validate().Fields["name"])
	assert.Nil(t, (&UpdateIssueRequest{DueAt: &due}).Validate().OrNil())
}

func TestCreateUserRequest_Validate(t *testing.T) {
	req := &CreateUserRequest{Slug: " alice ", Email: " Alice@Example.COM ", Name: " Alice "}
	require.Nil(t, req.Validate().OrNil())
	assert.Equal(t, "alice", req.Slug)
	assert.Equal(t, "alice@example.com", req.Email)
	assert.Equal(t, "Alice", req.Name)

	verr := (&CreateUserRequest{Slug: "Not A Slug", Email: "nope"}).Validate()
	assert.Equal(t, []string{domain.MsgInvalidSlug}, verr.Fields["slug"])
	assert.Equal(t, []string{domain.MsgInvalidEmail}, verr.Fields["email"])

	verr = (&CreateUserRequest{}).Validate()
	assert.Equal(t, []string{domain.MsgRequired}, verr.Fields["slug"])
	assert.Equal(t, []string{domain.MsgRequired}, verr.Fields["email"])
}

func TestSponsorshipRequests_Validate(t *testing.T) {
	offer := &CreateOfferRequest{Message: "  hello  "}
	require.Nil(t, offer.Validate().OrNil())
	assert.Equal(t, "hello", offer.Message)

	long := &CreateOfferRequest{Message: strings.Repeat("m", 2001)}
	assert.Equal(t, []string{domain.MsgTooLong}, long.Validate().Fields["message"])

	assert.Equal(t, []string{domain.MsgRequired}, (&UpdateConfirmedSponsorshipRequest{}).Validate().Fields["ad_copy"])
	tooLong := &UpdateConfirmedSponsorshipRequest{AdCopy: strPtr(strings.Repeat("x", 5001))}
	assert.Equal(t, []string{domain.MsgTooLong}, tooLong.Validate().Fields["ad_copy"])
	assert.Nil(t, (&UpdateConfirmedSponsorshipRequest{AdCopy: strPtr("")}).Validate().OrNil())
}

func TestFieldErrors(t *testing.T) {
	assert.True(t, FieldErrors(nil).Empty())

	verr := FieldErrors(errors.New("boom"))
	assert.Equal(t, []string{"boom"}, verr.Fields["base"])
}
