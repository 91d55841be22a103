package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/events"
	"github.com/AminArria/sponsorly/internal/repository"
	"github.com/AminArria/sponsorly/pkg/logger"
	"github.com/AminArria/sponsorly/pkg/telemetry"
)

// SponsorshipService defines the interface for offers and confirmations.
// At most one confirmation exists per issue; the unique issue_id constraint
// on confirmed_sponsorships decides concurrent confirmations.
type SponsorshipService interface {
	// Offer creates a pending offer while the issue's window has not closed
	Offer(ctx context.Context, sponsorID, issueID string, req *dto.CreateOfferRequest) (*dto.SponsorshipResponse, error)
	// Withdraw moves the sponsor's own pending offer to withdrawn
	Withdraw(ctx context.Context, sponsorID, id string) (*dto.SponsorshipResponse, error)
	// ListOffers returns an issue's offers and slot state to the newsletter owner
	ListOffers(ctx context.Context, ownerID, newsletterID, issueID string) (*dto.IssueOffersResponse, error)
	// Confirm promotes a pending offer. Losing a race returns domain.ErrAlreadyConfirmed.
	Confirm(ctx context.Context, ownerID, id string) (*dto.ConfirmedSponsorshipResponse, error)
	// GetConfirmed returns a confirmation to its newsletter owner or sponsor
	GetConfirmed(ctx context.Context, userID, id string) (*dto.ConfirmedSponsorshipResponse, error)
	// UpdateConfirmed edits the ad copy
	UpdateConfirmed(ctx context.Context, userID, id string, req *dto.UpdateConfirmedSponsorshipRequest) (*dto.ConfirmedSponsorshipResponse, error)
	// DeleteConfirmed removes the confirmation and returns its offer to pending
	DeleteConfirmed(ctx context.Context, ownerID, id string) error
}

// sponsorshipService implements SponsorshipService
type sponsorshipService struct {
	store   repository.Store
	opts    *options
	metrics *serviceMetrics
	log     *logger.Logger
}

// NewSponsorshipService creates a new SponsorshipService
func NewSponsorshipService(store repository.Store, opts ...Option) SponsorshipService {
	return &sponsorshipService{
		store:   store,
		opts:    newOptions(opts),
		metrics: newServiceMetrics(),
		log:     logger.Get().Named("sponsorship-service"),
	}
}

// issueContext is an issue together with its live newsletter
type issueContext struct {
	issue      *domain.Issue
	newsletter *domain.Newsletter
}

// liveIssue loads an issue and its newsletter, both not deleted
func liveIssue(ctx context.Context, store repository.Store, issueID string) (*issueContext, error) {
	issue, err := store.Issues().FindLive(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, domain.ErrIssueNotFound
	}
	newsletter, err := store.Newsletters().FindLive(ctx, issue.NewsletterID)
	if err != nil {
		return nil, err
	}
	if newsletter == nil {
		return nil, domain.ErrIssueNotFound
	}
	return &issueContext{issue: issue, newsletter: newsletter}, nil
}

// ownedOffer resolves an offer whose issue belongs to ownerID.
// Any mismatch is reported as domain.ErrSponsorshipNotFound.
func ownedOffer(ctx context.Context, store repository.Store, ownerID, id string) (*domain.Sponsorship, *issueContext, error) {
	offer, err := store.Sponsorships().GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if offer == nil {
		return nil, nil, domain.ErrSponsorshipNotFound
	}
	ic, err := liveIssue(ctx, store, offer.IssueID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, domain.ErrSponsorshipNotFound
		}
		return nil, nil, err
	}
	if ic.newsletter.UserID != ownerID {
		return nil, nil, domain.ErrSponsorshipNotFound
	}
	return offer, ic, nil
}

// slotTaken reports whether the issue already has a confirmation. holder is
// the gate's marker for the issue; a marker without a matching row is cleared.
func (s *sponsorshipService) slotTaken(ctx context.Context, issueID, holder string) (bool, error) {
	confirmed, err := s.store.Sponsorships().GetConfirmedByIssue(ctx, issueID)
	if err != nil {
		return false, err
	}
	if confirmed != nil {
		return true, nil
	}
	if holder != "" {
		s.opts.gate.Release(ctx, issueID, holder)
	}
	return false, nil
}

// Offer creates a pending offer
func (s *sponsorshipService) Offer(ctx context.Context, sponsorID, issueID string, req *dto.CreateOfferRequest) (*dto.SponsorshipResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "SponsorshipService.Offer")
	defer span.End()

	if err := req.Validate().OrNil(); err != nil {
		return nil, err
	}
	ic, err := liveIssue(ctx, s.store, issueID)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	if ic.newsletter.WindowFor(ic.issue).HasClosed(now) {
		return nil, domain.ErrWindowClosed
	}
	taken, err := s.slotTaken(ctx, issueID, s.opts.gate.ConfirmedBy(ctx, issueID))
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrAlreadyConfirmed
	}

	offer := &domain.Sponsorship{
		ID:        uuid.New().String(),
		IssueID:   issueID,
		SponsorID: sponsorID,
		Message:   req.Message,
		Status:    domain.SponsorshipPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Sponsorships().Create(ctx, offer); err != nil {
		return nil, err
	}

	s.metrics.offer(ctx, telemetry.NewsletterIDAttr(ic.newsletter.ID))
	s.opts.publisher.Publish(ctx, &events.SponsorshipOfferedEvent{
		EventType:     events.TopicSponsorshipOffered,
		SponsorshipID: offer.ID,
		IssueID:       issueID,
		SponsorID:     sponsorID,
		Timestamp:     now,
	})

	resp := dto.ToSponsorshipResponse(offer)
	return &resp, nil
}

// Withdraw moves the sponsor's own pending offer to withdrawn
func (s *sponsorshipService) Withdraw(ctx context.Context, sponsorID, id string) (*dto.SponsorshipResponse, error) {
	offer, err := s.store.Sponsorships().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if offer == nil || offer.SponsorID != sponsorID {
		return nil, domain.ErrSponsorshipNotFound
	}

	now := s.opts.now()
	if err := offer.TransitionTo(domain.SponsorshipWithdrawn, now); err != nil {
		return nil, err
	}
	if err := s.store.Sponsorships().UpdateStatus(ctx, id, domain.SponsorshipPending, domain.SponsorshipWithdrawn, now); err != nil {
		return nil, err
	}
	s.metrics.pending(ctx, false)

	resp := dto.ToSponsorshipResponse(offer)
	return &resp, nil
}

// ListOffers returns an issue's offers and slot state to the newsletter owner
func (s *sponsorshipService) ListOffers(ctx context.Context, ownerID, newsletterID, issueID string) (*dto.IssueOffersResponse, error) {
	newsletter, err := s.store.Newsletters().GetByID(ctx, ownerID, newsletterID)
	if err != nil {
		return nil, err
	}
	if newsletter == nil {
		return nil, domain.ErrIssueNotFound
	}
	issue, err := s.store.Issues().GetByID(ctx, newsletter.ID, issueID)
	if err != nil {
		return nil, err
	}
	if issue == nil {
		return nil, domain.ErrIssueNotFound
	}

	offers, err := s.store.Sponsorships().ListByIssue(ctx, issue.ID)
	if err != nil {
		return nil, err
	}
	confirmed, err := s.store.Sponsorships().GetConfirmedByIssue(ctx, issue.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.IssueOffersResponse{
		IssueID:   issue.ID,
		SlotState: string(domain.SlotStateOf(offers, confirmed)),
		Offers:    make([]dto.SponsorshipResponse, 0, len(offers)),
	}
	for _, o := range offers {
		resp.Offers = append(resp.Offers, dto.ToSponsorshipResponse(o))
	}
	if confirmed != nil {
		c := dto.ToConfirmedSponsorshipResponse(confirmed)
		resp.Confirmed = &c
	}
	return resp, nil
}

// Confirm promotes a pending offer to the issue's confirmed sponsorship
func (s *sponsorshipService) Confirm(ctx context.Context, ownerID, id string) (*dto.ConfirmedSponsorshipResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "SponsorshipService.Confirm")
	defer span.End()

	offer, ic, err := ownedOffer(ctx, s.store, ownerID, id)
	if err != nil {
		return nil, err
	}
	telemetry.SetSpanAttributes(ctx, telemetry.IssueIDAttr(ic.issue.ID))

	switch offer.Status {
	case domain.SponsorshipPending:
	case domain.SponsorshipConfirmed:
		s.metrics.confirmation(ctx, outcomeConflict)
		return nil, domain.ErrAlreadyConfirmed
	default:
		return nil, domain.ErrInvalidTransition
	}

	now := s.opts.now()
	if !ic.newsletter.WindowFor(ic.issue).IsOpen(now) {
		s.metrics.confirmation(ctx, outcomeClosed)
		return nil, domain.ErrWindowClosed
	}

	// turn away known losers before opening a transaction
	if holder := s.opts.gate.ConfirmedBy(ctx, ic.issue.ID); holder != "" {
		taken, err := s.slotTaken(ctx, ic.issue.ID, holder)
		if err != nil {
			return nil, err
		}
		if taken {
			s.metrics.confirmation(ctx, outcomeConflict)
			return nil, domain.ErrAlreadyConfirmed
		}
	}

	confirmed := &domain.ConfirmedSponsorship{
		ID:            uuid.New().String(),
		IssueID:       ic.issue.ID,
		SponsorshipID: offer.ID,
		SponsorID:     offer.SponsorID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = s.store.RunInTx(ctx, func(tx repository.Store) error {
		if err := tx.Sponsorships().CreateConfirmed(ctx, confirmed); err != nil {
			return err
		}
		return tx.Sponsorships().UpdateStatus(ctx, offer.ID, domain.SponsorshipPending, domain.SponsorshipConfirmed, now)
	})
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyConfirmed) {
			s.metrics.confirmation(ctx, outcomeConflict)
			s.log.InfoContext(ctx, "confirmation lost race",
				zap.String("issue_id", ic.issue.ID),
				zap.String("sponsorship_id", offer.ID),
			)
			return nil, err
		}
		telemetry.SetSpanError(ctx, err)
		return nil, err
	}

	s.opts.gate.MarkConfirmed(ctx, ic.issue.ID, confirmed.ID)
	s.metrics.confirmation(ctx, outcomeConfirmed)
	s.metrics.pending(ctx, false)
	s.log.InfoContext(ctx, "sponsorship confirmed",
		zap.String("issue_id", ic.issue.ID),
		zap.String("confirmed_sponsorship_id", confirmed.ID),
	)
	s.opts.publisher.Publish(ctx, &events.SponsorshipConfirmedEvent{
		EventType:              events.TopicSponsorshipConfirmed,
		ConfirmedSponsorshipID: confirmed.ID,
		SponsorshipID:          offer.ID,
		IssueID:                ic.issue.ID,
		SponsorID:              offer.SponsorID,
		NewsletterID:           ic.newsletter.ID,
		DueAt:                  ic.issue.DueAt,
		Timestamp:              now,
	})

	resp := dto.ToConfirmedSponsorshipResponse(confirmed)
	return &resp, nil
}

// visibleConfirmed loads a confirmation the user may see: the newsletter
// owner or the sponsor. isOwner is true for the newsletter owner.
func visibleConfirmed(ctx context.Context, store repository.Store, userID, id string) (c *domain.ConfirmedSponsorship, isOwner bool, err error) {
	c, err = store.Sponsorships().GetConfirmedByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if c == nil {
		return nil, false, domain.ErrConfirmedSponsorshipNotFound
	}
	ic, err := liveIssue(ctx, store, c.IssueID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, false, domain.ErrConfirmedSponsorshipNotFound
		}
		return nil, false, err
	}
	isOwner = ic.newsletter.UserID == userID
	if !isOwner && c.SponsorID != userID {
		return nil, false, domain.ErrConfirmedSponsorshipNotFound
	}
	return c, isOwner, nil
}

// GetConfirmed returns a confirmation for the edit form
func (s *sponsorshipService) GetConfirmed(ctx context.Context, userID, id string) (*dto.ConfirmedSponsorshipResponse, error) {
	c, _, err := visibleConfirmed(ctx, s.store, userID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToConfirmedSponsorshipResponse(c)
	return &resp, nil
}

// UpdateConfirmed edits the ad copy
func (s *sponsorshipService) UpdateConfirmed(ctx context.Context, userID, id string, req *dto.UpdateConfirmedSponsorshipRequest) (*dto.ConfirmedSponsorshipResponse, error) {
	if err := req.Validate().OrNil(); err != nil {
		return nil, err
	}
	c, _, err := visibleConfirmed(ctx, s.store, userID, id)
	if err != nil {
		return nil, err
	}

	c.AdCopy = *req.AdCopy
	c.UpdatedAt = s.opts.now()
	if err := s.store.Sponsorships().UpdateConfirmed(ctx, c); err != nil {
		return nil, err
	}
	resp := dto.ToConfirmedSponsorshipResponse(c)
	return &resp, nil
}

// DeleteConfirmed removes the confirmation and returns its offer to pending.
// Other offers on the issue are left untouched.
func (s *sponsorshipService) DeleteConfirmed(ctx context.Context, ownerID, id string) error {
	ctx, span := telemetry.StartSpan(ctx, "SponsorshipService.DeleteConfirmed")
	defer span.End()

	c, isOwner, err := visibleConfirmed(ctx, s.store, ownerID, id)
	if err != nil {
		return err
	}
	if !isOwner {
		return domain.ErrConfirmedSponsorshipNotFound
	}

	now := s.opts.now()
	err = s.store.RunInTx(ctx, func(tx repository.Store) error {
		if err := tx.Sponsorships().DeleteConfirmed(ctx, c.ID); err != nil {
			return err
		}
		return tx.Sponsorships().UpdateStatus(ctx, c.SponsorshipID, domain.SponsorshipConfirmed, domain.SponsorshipPending, now)
	})
	if err != nil {
		telemetry.SetSpanError(ctx, err)
		return err
	}

	s.opts.gate.Release(ctx, c.IssueID, c.ID)
	s.metrics.pending(ctx, true)
	s.log.InfoContext(ctx, "confirmed sponsorship deleted, slot reopened",
		zap.String("issue_id", c.IssueID),
		zap.String("sponsorship_id", c.SponsorshipID),
	)
	s.opts.publisher.Publish(ctx, &events.SponsorshipReopenedEvent{
		EventType:              events.TopicSponsorshipReopened,
		ConfirmedSponsorshipID: c.ID,
		SponsorshipID:          c.SponsorshipID,
		IssueID:                c.IssueID,
		Timestamp:              now,
	})
	return nil
}
