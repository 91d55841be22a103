package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/events"
	"github.com/AminArria/sponsorly/internal/repository"
	"github.com/AminArria/sponsorly/internal/schedule"
	"github.com/AminArria/sponsorly/pkg/logger"
	"github.com/AminArria/sponsorly/pkg/telemetry"
)

// NewsletterService defines the interface for newsletter operations
type NewsletterService interface {
	// List returns the owner's live newsletters
	List(ctx context.Context, userID string) ([]dto.NewsletterResponse, error)
	// ListBySlug returns the live newsletters of the user with userSlug
	ListBySlug(ctx context.Context, userSlug string) ([]dto.NewsletterResponse, error)
	// Get returns the owner's newsletter or domain.ErrNewsletterNotFound
	Get(ctx context.Context, userID, id string) (*dto.NewsletterResponse, error)
	// GetBySlugs returns a newsletter by owner and newsletter slug or domain.ErrNewsletterNotFound
	GetBySlugs(ctx context.Context, userSlug, newsletterSlug string) (*dto.NewsletterResponse, error)
	// Create validates, stores the newsletter and generates its issues atomically
	Create(ctx context.Context, userID string, req *dto.CreateNewsletterRequest) (*dto.CreateNewsletterResponse, error)
	// Update changes name, slug and cadence. Issues are not regenerated.
	Update(ctx context.Context, userID, id string, req *dto.UpdateNewsletterRequest) (*dto.NewsletterResponse, error)
	// Delete soft deletes a newsletter; its issues are left as they are
	Delete(ctx context.Context, userID, id string) error
}

// newsletterService implements NewsletterService
type newsletterService struct {
	store   repository.Store
	opts    *options
	metrics *serviceMetrics
	log     *logger.Logger
}

// NewNewsletterService creates a new NewsletterService
func NewNewsletterService(store repository.Store, opts ...Option) NewsletterService {
	return &newsletterService{
		store:   store,
		opts:    newOptions(opts),
		metrics: newServiceMetrics(),
		log:     logger.Get().Named("newsletter-service"),
	}
}

// List returns the owner's live newsletters
func (s *newsletterService) List(ctx context.Context, userID string) ([]dto.NewsletterResponse, error) {
	newsletters, err := s.store.Newsletters().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dto.ToNewsletterResponses(newsletters), nil
}

// ListBySlug returns the live newsletters of the user with userSlug
func (s *newsletterService) ListBySlug(ctx context.Context, userSlug string) ([]dto.NewsletterResponse, error) {
	newsletters, err := s.store.Newsletters().ListByUserSlug(ctx, userSlug)
	if err != nil {
		return nil, err
	}
	return dto.ToNewsletterResponses(newsletters), nil
}

// Get returns the owner's newsletter
func (s *newsletterService) Get(ctx context.Context, userID, id string) (*dto.NewsletterResponse, error) {
	newsletter, err := s.store.Newsletters().GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if newsletter == nil {
		return nil, domain.ErrNewsletterNotFound
	}
	resp := dto.ToNewsletterResponse(newsletter)
	return &resp, nil
}

// GetBySlugs returns a newsletter by owner and newsletter slug
func (s *newsletterService) GetBySlugs(ctx context.Context, userSlug, newsletterSlug string) (*dto.NewsletterResponse, error) {
	newsletter, err := s.store.Newsletters().GetBySlugs(ctx, userSlug, newsletterSlug)
	if err != nil {
		return nil, err
	}
	if newsletter == nil {
		return nil, domain.ErrNewsletterNotFound
	}
	resp := dto.ToNewsletterResponse(newsletter)
	return &resp, nil
}

// Create validates, stores the newsletter and generates its issues atomically
func (s *newsletterService) Create(ctx context.Context, userID string, req *dto.CreateNewsletterRequest) (*dto.CreateNewsletterResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "NewsletterService.Create")
	defer span.End()

	verr := req.Validate()
	checkWindow(verr, req.SponsorInDays, req.SponsorBeforeDays)
	if !verr.Has("slug") {
		if err := s.checkSlugFree(ctx, verr, userID, req.Slug, ""); err != nil {
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.opts.now()
	newsletter := &domain.Newsletter{
		ID:                uuid.New().String(),
		UserID:            userID,
		Name:              req.Name,
		Slug:              req.Slug,
		IntervalDays:      *req.IntervalDays,
		SponsorInDays:     *req.SponsorInDays,
		SponsorBeforeDays: *req.SponsorBeforeDays,
		NextIssueAt:       schedule.Truncate(*req.NextIssueAt),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	dues, err := schedule.Generate(newsletter.NextIssueAt, newsletter.IntervalDays, s.opts.horizon)
	if err != nil {
		return nil, fmt.Errorf("generate schedule: %w", err)
	}

	issues := make([]*domain.Issue, 0, len(dues))
	for k, due := range dues {
		issues = append(issues, &domain.Issue{
			ID:           uuid.New().String(),
			NewsletterID: newsletter.ID,
			Name:         fmt.Sprintf("%s #%d", newsletter.Name, k+1),
			DueAt:        due,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	err = s.store.RunInTx(ctx, func(tx repository.Store) error {
		if err := tx.Newsletters().Create(ctx, newsletter); err != nil {
			return err
		}
		for _, issue := range issues {
			if err := tx.Issues().Create(ctx, issue); err != nil {
				return fmt.Errorf("create issue %s: %w", issue.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		// lost a race with another create using the same slug
		if errors.Is(err, domain.ErrSlugTaken) {
			verr.Add("slug", domain.MsgTaken)
			return nil, verr
		}
		telemetry.SetSpanError(ctx, err)
		s.log.ErrorContext(ctx, "failed to create newsletter",
			zap.String("user_id", userID),
			zap.String("slug", req.Slug),
			zap.Error(err),
		)
		return nil, err
	}

	telemetry.SetSpanAttributes(ctx, telemetry.NewsletterIDAttr(newsletter.ID))
	s.metrics.generated(ctx, len(issues))
	s.log.InfoContext(ctx, "newsletter created",
		zap.String("newsletter_id", newsletter.ID),
		zap.Int("issues", len(issues)),
	)
	s.opts.publisher.Publish(ctx, &events.NewsletterCreatedEvent{
		EventType:    events.TopicNewsletterCreated,
		NewsletterID: newsletter.ID,
		UserID:       userID,
		Slug:         newsletter.Slug,
		IssueCount:   len(issues),
		FirstIssueAt: newsletter.NextIssueAt,
		Timestamp:    now,
	})

	return &dto.CreateNewsletterResponse{
		Newsletter: dto.ToNewsletterResponse(newsletter),
		Issues:     dto.ToIssueResponses(issues, newsletter, now),
	}, nil
}

// Update changes name, slug and cadence
func (s *newsletterService) Update(ctx context.Context, userID, id string, req *dto.UpdateNewsletterRequest) (*dto.NewsletterResponse, error) {
	newsletter, err := s.store.Newsletters().GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if newsletter == nil {
		return nil, domain.ErrNewsletterNotFound
	}

	verr := req.Validate()

	name, slug := newsletter.Name, newsletter.Slug
	interval, in, before := newsletter.IntervalDays, newsletter.SponsorInDays, newsletter.SponsorBeforeDays
	if req.Name != nil {
		name = *req.Name
	}
	if req.Slug != nil {
		slug = *req.Slug
	}
	if req.IntervalDays != nil {
		interval = *req.IntervalDays
	}
	if req.SponsorInDays != nil {
		in = *req.SponsorInDays
	}
	if req.SponsorBeforeDays != nil {
		before = *req.SponsorBeforeDays
	}

	checkWindow(verr, &in, &before)
	if !verr.Has("slug") && slug != newsletter.Slug {
		if err := s.checkSlugFree(ctx, verr, userID, slug, newsletter.ID); err != nil {
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	newsletter.Name = name
	newsletter.Slug = slug
	newsletter.IntervalDays = interval
	newsletter.SponsorInDays = in
	newsletter.SponsorBeforeDays = before
	newsletter.UpdatedAt = s.opts.now()

	if err := s.store.Newsletters().Update(ctx, newsletter); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			verr.Add("slug", domain.MsgTaken)
			return nil, verr
		}
		return nil, err
	}

	resp := dto.ToNewsletterResponse(newsletter)
	return &resp, nil
}

// Delete soft deletes a newsletter
func (s *newsletterService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.Newsletters().SoftDelete(ctx, userID, id, s.opts.now()); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "newsletter deleted", zap.String("newsletter_id", id))
	return nil
}

// checkSlugFree adds a "taken" message when the owner already uses slug.
// Deleted newsletters keep their slug.
func (s *newsletterService) checkSlugFree(ctx context.Context, verr *domain.ValidationError, userID, slug, excludeID string) error {
	exists, err := s.store.Newsletters().ExistsBySlug(ctx, userID, slug, excludeID)
	if err != nil {
		return err
	}
	if exists {
		verr.Add("slug", domain.MsgTaken)
	}
	return nil
}

// checkWindow adds a message when the sponsor window would be empty.
// Fields that already failed their own rules are not checked again.
func checkWindow(verr *domain.ValidationError, sponsorInDays, sponsorBeforeDays *int) {
	if sponsorInDays == nil || sponsorBeforeDays == nil {
		return
	}
	if verr.Has("sponsor_in_days") || verr.Has("sponsor_before_days") {
		return
	}
	if err := schedule.ValidateWindow(*sponsorInDays, *sponsorBeforeDays); errors.Is(err, schedule.ErrInvalidWindow) {
		verr.Add("sponsor_in_days", domain.MsgEmptyWindow)
	}
}
