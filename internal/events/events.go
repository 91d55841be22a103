package events

import (
	"time"
)

// Topic names for sponsorship events
const (
	TopicNewsletterCreated    = "newsletter.created"
	TopicSponsorshipOffered   = "sponsorship.offered"
	TopicSponsorshipConfirmed = "sponsorship.confirmed"
	TopicSponsorshipReopened  = "sponsorship.reopened"
)

// Event is anything the publisher can route
type Event interface {
	Topic() string
	// Key returns the Kafka message key for partitioning
	Key() string
}

// NewsletterCreatedEvent is published after a newsletter and its schedule are stored
type NewsletterCreatedEvent struct {
	EventType    string    `json:"event_type"`
	NewsletterID string    `json:"newsletter_id"`
	UserID       string    `json:"user_id"`
	Slug         string    `json:"slug"`
	IssueCount   int       `json:"issue_count"`
	FirstIssueAt time.Time `json:"first_issue_at"`
	Timestamp    time.Time `json:"timestamp"`
}

func (e *NewsletterCreatedEvent) Topic() string { return TopicNewsletterCreated }

// Key returns the Kafka message key for partitioning
func (e *NewsletterCreatedEvent) Key() string {
	return e.NewsletterID
}

// SponsorshipOfferedEvent is published when a sponsor makes an offer on an issue
type SponsorshipOfferedEvent struct {
	EventType     string    `json:"event_type"`
	SponsorshipID string    `json:"sponsorship_id"`
	IssueID       string    `json:"issue_id"`
	SponsorID     string    `json:"sponsor_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func (e *SponsorshipOfferedEvent) Topic() string { return TopicSponsorshipOffered }

// Key returns the Kafka message key for partitioning
func (e *SponsorshipOfferedEvent) Key() string {
	return e.IssueID
}

// SponsorshipConfirmedEvent is published when a newsletter owner accepts an offer
type SponsorshipConfirmedEvent struct {
	EventType              string    `json:"event_type"`
	ConfirmedSponsorshipID string    `json:"confirmed_sponsorship_id"`
	SponsorshipID          string    `json:"sponsorship_id"`
	IssueID                string    `json:"issue_id"`
	SponsorID              string    `json:"sponsor_id"`
	NewsletterID           string    `json:"newsletter_id"`
	DueAt                  time.Time `json:"due_at"`
	Timestamp              time.Time `json:"timestamp"`
}

func (e *SponsorshipConfirmedEvent) Topic() string { return TopicSponsorshipConfirmed }

// Key returns the Kafka message key for partitioning
func (e *SponsorshipConfirmedEvent) Key() string {
	return e.IssueID
}

// SponsorshipReopenedEvent is published when a confirmation is deleted and
// the slot accepts confirmations again
type SponsorshipReopenedEvent struct {
	EventType              string    `json:"event_type"`
	ConfirmedSponsorshipID string    `json:"confirmed_sponsorship_id"`
	SponsorshipID          string    `json:"sponsorship_id"`
	IssueID                string    `json:"issue_id"`
	Timestamp              time.Time `json:"timestamp"`
}

func (e *SponsorshipReopenedEvent) Topic() string { return TopicSponsorshipReopened }

// Key returns the Kafka message key for partitioning
func (e *SponsorshipReopenedEvent) Key() string {
	return e.IssueID
}
