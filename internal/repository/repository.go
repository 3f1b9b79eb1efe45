package repository

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

var (
	ErrCacheMiss         = errors.New("cache miss")
	ErrDuplicateOrder    = errors.New("order already exists")
	ErrInvalidSessionKey = errors.New("invalid session key")
)

// Credentials for the Postgres backend.
type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// OutboxEvent is a row of the outbox table waiting to be published.
type OutboxEvent struct {
	ID          int64
	AggregateId string
	EventType   string
	Payload     []byte
}

const EventTypeOrderCreated = "order.created"

var sessionKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// validSessionKey guards storage keys and file names derived from the
// session cookie.
func validSessionKey(sessionID string) error {
	if !sessionKeyPattern.MatchString(sessionID) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionKey, sessionID)
	}
	return nil
}

func notFound(productID string) error {
	return fmt.Errorf("product %s: %w", productID, domain.ErrProductNotFound)
}
