// Package directory reads the realtime user/asset store and appends
// notification records to it.
package directory

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"harvester/internal/domain"
)

const (
	usersPath       = "users"
	credentialsPath = "users/%s/exchanges/foxbit/credentials"
	messagesPath    = "users/%s/messages/%s/%s"
)

// Firebase is the realtime-database-backed directory.
type Firebase struct {
	client *db.Client
	l      *zap.Logger
}

// NewFirebase connects to the realtime database behind the directory.
func NewFirebase(ctx context.Context, credentialsFile, databaseURL string, l *zap.Logger) (*Firebase, error) {
	app, err := firebase.NewApp(ctx,
		&firebase.Config{DatabaseURL: databaseURL},
		option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, errors.Wrap(err, "init firebase app")
	}

	client, err := app.Database(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "open realtime database")
	}

	return &Firebase{client: client, l: l}, nil
}

// Users returns a fresh snapshot of every directory user, keyed by id.
func (f *Firebase) Users(ctx context.Context) (map[string]domain.User, error) {
	var users map[string]domain.User
	if err := f.client.NewRef(usersPath).Get(ctx, &users); err != nil {
		return nil, errors.Wrapf(domain.ErrExternalCall, "read users subtree: %v", err)
	}

	for id, user := range users {
		user.ID = id
		users[id] = user
	}
	return users, nil
}

// Credentials returns the user's encrypted exchange credentials, or nil when
// none are recorded.
func (f *Firebase) Credentials(ctx context.Context, userID string) (*domain.Credentials, error) {
	var creds *domain.Credentials
	path := fmt.Sprintf(credentialsPath, userID)
	if err := f.client.NewRef(path).Get(ctx, &creds); err != nil {
		return nil, errors.Wrapf(domain.ErrExternalCall, "read credentials for %s: %v", userID, err)
	}

	if creds == nil || creds.AccessKey == "" || creds.SecretKey == "" {
		return nil, nil
	}
	return creds, nil
}

// AppendNotification writes one notification under the user's feed. The key
// is caller-generated; existing entries are never touched.
func (f *Firebase) AppendNotification(ctx context.Context, userID, feed, key string, n domain.Notification) error {
	path := fmt.Sprintf(messagesPath, userID, feed, key)
	if err := f.client.NewRef(path).Set(ctx, n); err != nil {
		return errors.Wrapf(domain.ErrExternalCall, "write notification %s: %v", path, err)
	}
	return nil
}
