package repository

import "context"

// Store groups the repositories that share one connection or transaction.
type Store interface {
	Users() UserRepository
	Newsletters() NewsletterRepository
	Issues() IssueRepository
	Sponsorships() SponsorshipRepository

	// RunInTx runs fn with a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	// Calling RunInTx on a transactional Store reuses the transaction.
	RunInTx(ctx context.Context, fn func(tx Store) error) error
}
