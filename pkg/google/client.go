package google

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"google.golang.org/api/firestore/v1"
	"google.golang.org/api/option"

	"github.com/harrisonrobin/tugas/pkg/auth"
	"github.com/harrisonrobin/tugas/pkg/config"
	"github.com/harrisonrobin/tugas/pkg/logging"
)

// Scopes requested by the OAuth user flow.
var Scopes = []string{firestore.DatastoreScope}

// ClientOptions picks credentials: an API key, then a service-account file,
// then the user OAuth token cached in authDir (running the browser flow if
// needed). An empty authDir is the default config directory.
func ClientOptions(ctx context.Context, cfg *config.Config, authDir string, logger *log.Logger) ([]option.ClientOption, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.APIKey != "":
		logger.Debug("using API key credentials")
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case cfg.CredentialsFile != "":
		logger.Debug("using service account credentials", "file", cfg.CredentialsFile)
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		if authDir == "" {
			dir, err := config.Dir()
			if err != nil {
				return nil, err
			}
			authDir = dir
		}
		client, err := auth.GetClient(ctx, authDir, Scopes, logger)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithHTTPClient(client))
	}
	return opts, nil
}

// NewClient creates a Firestore-backed task store for cfg.
func NewClient(ctx context.Context, cfg *config.Config, authDir string, logger *log.Logger) (*FirestoreStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := ClientOptions(ctx, cfg, authDir, logger)
	if err != nil {
		return nil, err
	}
	return NewClientWithOptions(ctx, cfg, logger, opts...)
}

// NewClientWithOptions skips credential selection.
func NewClientWithOptions(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...option.ClientOption) (*FirestoreStore, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	srv, err := firestore.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create Firestore client: %w", err)
	}
	logger.Debug("firestore client ready", "parent", cfg.Parent(), "collection", cfg.Collection)
	return NewFirestoreStore(srv, cfg.Parent(), cfg.Collection, logger), nil
}
