package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AminArria/sponsorly/internal/domain"
	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/repository"
	"github.com/AminArria/sponsorly/internal/schedule"
	"github.com/AminArria/sponsorly/pkg/logger"
)

// IssueService defines the interface for issue operations.
// Every owner-facing method resolves the newsletter through userID first, so
// another user's newsletter and a deleted one are both reported as not found.
type IssueService interface {
	// List returns the newsletter's live issues in due order
	List(ctx context.Context, userID, newsletterID string) ([]dto.IssueResponse, error)
	// ListPublic returns upcoming issues with their sponsor window, earliest first
	ListPublic(ctx context.Context, userSlug, newsletterSlug string) ([]dto.IssueResponse, error)
	// Get returns one issue or domain.ErrIssueNotFound
	Get(ctx context.Context, userID, newsletterID, id string) (*dto.IssueResponse, error)
	// Create adds an issue; a missing newsletter is a validation error
	Create(ctx context.Context, userID, newsletterID string, req *dto.CreateIssueRequest) (*dto.IssueResponse, error)
	// Update changes name and due date
	Update(ctx context.Context, userID, newsletterID, id string, req *dto.UpdateIssueRequest) (*dto.IssueResponse, error)
	// Delete soft deletes an issue
	Delete(ctx context.Context, userID, newsletterID, id string) error
}

// issueService implements IssueService
type issueService struct {
	store repository.Store
	opts  *options
	log   *logger.Logger
}

// NewIssueService creates a new IssueService
func NewIssueService(store repository.Store, opts ...Option) IssueService {
	return &issueService{
		store: store,
		opts:  newOptions(opts),
		log:   logger.Get().Named("issue-service"),
	}
}

func (s *issueService) ownedNewsletter(ctx context.Context, userID, newsletterID string) (*domain.Newsletter, error) {
	newsletter, err := s.store.Newsletters().GetByID(ctx, userID, newsletterID)
	if err != nil {
		return nil, err
	}
	if newsletter == nil {
		return nil, domain.ErrNewsletterNotFound
	}
	return newsletter, nil
}

func (s *issueService) ownedIssue(ctx context.Context, userID, newsletterID, id string) (*domain.Newsletter, *domain.Issue, error) {
	newsletter, err := s.ownedNewsletter(ctx, userID, newsletterID)
	if err != nil {
		return nil, nil, err
	}
	issue, err := s.store.Issues().GetByID(ctx, newsletter.ID, id)
	if err != nil {
		return nil, nil, err
	}
	if issue == nil {
		return nil, nil, domain.ErrIssueNotFound
	}
	return newsletter, issue, nil
}

// List returns the newsletter's live issues in due order
func (s *issueService) List(ctx context.Context, userID, newsletterID string) ([]dto.IssueResponse, error) {
	newsletter, err := s.ownedNewsletter(ctx, userID, newsletterID)
	if err != nil {
		return nil, err
	}
	issues, err := s.store.Issues().ListByNewsletter(ctx, newsletter.ID)
	if err != nil {
		return nil, err
	}
	return dto.ToIssueResponses(issues, newsletter, s.opts.now()), nil
}

// ListPublic returns upcoming issues with their sponsor window
func (s *issueService) ListPublic(ctx context.Context, userSlug, newsletterSlug string) ([]dto.IssueResponse, error) {
	newsletter, err := s.store.Newsletters().GetBySlugs(ctx, userSlug, newsletterSlug)
	if err != nil {
		return nil, err
	}
	if newsletter == nil {
		return nil, domain.ErrNewsletterNotFound
	}

	now := s.opts.now()
	issues, err := s.store.Issues().ListUpcomingBySlugs(ctx, userSlug, newsletterSlug, now)
	if err != nil {
		return nil, err
	}

	// stores truncate now to their own time precision
	upcoming := issues[:0]
	for _, issue := range issues {
		if schedule.IsUpcoming(issue.DueAt, now) {
			upcoming = append(upcoming, issue)
		}
	}
	return dto.ToIssueResponses(upcoming, newsletter, now), nil
}

// Get returns one issue
func (s *issueService) Get(ctx context.Context, userID, newsletterID, id string) (*dto.IssueResponse, error) {
	newsletter, issue, err := s.ownedIssue(ctx, userID, newsletterID, id)
	if err != nil {
		return nil, err
	}
	resp := dto.ToIssueResponse(issue)
	resp.Window = dto.ToWindowResponse(newsletter.WindowFor(issue), s.opts.now())
	return &resp, nil
}

// Create adds an issue to the owner's newsletter
func (s *issueService) Create(ctx context.Context, userID, newsletterID string, req *dto.CreateIssueRequest) (*dto.IssueResponse, error) {
	verr := req.Validate()

	newsletter, err := s.store.Newsletters().GetByID(ctx, userID, newsletterID)
	if err != nil {
		return nil, err
	}
	if newsletter == nil {
		verr.Add("newsletter_id", domain.MsgDoesNotExist)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.opts.now()
	issue := &domain.Issue{
		ID:           uuid.New().String(),
		NewsletterID: newsletter.ID,
		Name:         req.Name,
		DueAt:        schedule.Truncate(*req.DueAt),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Issues().Create(ctx, issue); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "issue created",
		zap.String("newsletter_id", newsletter.ID),
		zap.String("issue_id", issue.ID),
	)
	resp := dto.ToIssueResponse(issue)
	resp.Window = dto.ToWindowResponse(newsletter.WindowFor(issue), now)
	return &resp, nil
}

// Update changes name and due date. The issue stays with its newsletter.
func (s *issueService) Update(ctx context.Context, userID, newsletterID, id string, req *dto.UpdateIssueRequest) (*dto.IssueResponse, error) {
	if err := req.Validate().OrNil(); err != nil {
		return nil, err
	}

	newsletter, issue, err := s.ownedIssue(ctx, userID, newsletterID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		issue.Name = *req.Name
	}
	if req.DueAt != nil {
		issue.DueAt = schedule.Truncate(*req.DueAt)
	}
	now := s.opts.now()
	issue.UpdatedAt = now

	if err := s.store.Issues().Update(ctx, issue); err != nil {
		return nil, err
	}

	resp := dto.ToIssueResponse(issue)
	resp.Window = dto.ToWindowResponse(newsletter.WindowFor(issue), now)
	return &resp, nil
}

// Delete soft deletes an issue
func (s *issueService) Delete(ctx context.Context, userID, newsletterID, id string) error {
	newsletter, err := s.ownedNewsletter(ctx, userID, newsletterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrIssueNotFound
		}
		return err
	}
	return s.store.Issues().SoftDelete(ctx, newsletter.ID, id, s.opts.now())
}
