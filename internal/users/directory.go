package users

import (
	"context"
	"errors"
	"fmt"

	"messenger-service/internal/identity"
	"messenger-service/internal/models"
	"messenger-service/internal/store"
)

var (
	// ErrUserNotFound is returned when no user node exists for an email.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists is returned when registering an email that already has
	// a user node.
	ErrUserExists = errors.New("user already exists")
)

const usersIndexPath = "users"

// Directory manages user nodes and the global /users search index.
type Directory interface {
	InsertUser(ctx context.Context, email string, user models.User) error
	UserExists(ctx context.Context, email string) (bool, error)
	Get(ctx context.Context, email string) (models.User, error)
	AllUsers(ctx context.Context) ([]models.UserListing, error)
	DisplayName(ctx context.Context, email string) (string, error)
	SaveCredentials(ctx context.Context, email string, creds models.Credentials) error
	Credentials(ctx context.Context, email string) (models.Credentials, error)
}

// StoreDirectory is the document-store implementation of Directory.
type StoreDirectory struct {
	store store.Store
}

// NewStoreDirectory constructs a StoreDirectory.
func NewStoreDirectory(s store.Store) *StoreDirectory {
	return &StoreDirectory{store: s}
}

// InsertUser writes the user node and appends a listing to the /users search
// index. The index append is a whole-list read-modify-write; entries are
// keyed by normalized email and never duplicated.
func (d *StoreDirectory) InsertUser(ctx context.Context, email string, user models.User) error {
	safeEmail := identity.Normalize(email)
	if err := d.store.Write(ctx, safeEmail, user); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	var listings []models.UserListing
	if err := d.store.Read(ctx, usersIndexPath, &listings); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("read users index: %w", err)
	}
	for _, l := range listings {
		if l.Email == safeEmail {
			return nil
		}
	}
	listings = append(listings, models.UserListing{
		Name:  user.DisplayName(),
		Email: safeEmail,
	})
	if err := d.store.Write(ctx, usersIndexPath, listings); err != nil {
		return fmt.Errorf("write users index: %w", err)
	}
	return nil
}

// UserExists reports whether a user node exists for the email.
func (d *StoreDirectory) UserExists(ctx context.Context, email string) (bool, error) {
	var user models.User
	err := d.store.Read(ctx, identity.Normalize(email), &user)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Get fetches the full user node for an email.
func (d *StoreDirectory) Get(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := d.store.Read(ctx, identity.Normalize(email), &user)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return user, nil
}

// AllUsers returns the global search index.
func (d *StoreDirectory) AllUsers(ctx context.Context) ([]models.UserListing, error) {
	var listings []models.UserListing
	if err := d.store.Read(ctx, usersIndexPath, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

// DisplayName resolves the stored first/last name for an email.
func (d *StoreDirectory) DisplayName(ctx context.Context, email string) (string, error) {
	user, err := d.Get(ctx, email)
	if err != nil {
		return "", err
	}
	return user.DisplayName(), nil
}

// SaveCredentials stores the login secret for an email, outside the user node.
func (d *StoreDirectory) SaveCredentials(ctx context.Context, email string, creds models.Credentials) error {
	return d.store.Write(ctx, credentialsPath(email), creds)
}

// Credentials fetches the login secret for an email.
func (d *StoreDirectory) Credentials(ctx context.Context, email string) (models.Credentials, error) {
	var creds models.Credentials
	err := d.store.Read(ctx, credentialsPath(email), &creds)
	if errors.Is(err, store.ErrNotFound) {
		return models.Credentials{}, ErrUserNotFound
	}
	if err != nil {
		return models.Credentials{}, err
	}
	return creds, nil
}

func credentialsPath(email string) string {
	return "auth/" + identity.Normalize(email)
}
