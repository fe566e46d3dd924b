package gcp

import (
	"context"
	"errors"
	"fmt"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	gcs "cloud.google.com/go/storage"
	"github.com/rs/zerolog"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Clients holds the long-lived Google API clients shared by every job.
type Clients struct {
	Drive   *drive.Service
	Speech  *speech.Client
	Storage *gcs.Client // nil when no staging bucket is configured
}

// NewClients builds the Drive, Speech and (if withStorage) Cloud Storage
// clients once. credsFile is used when it exists on disk; otherwise the
// libraries fall back to application default credentials.
func NewClients(ctx context.Context, credsFile string, withStorage bool, log zerolog.Logger) (*Clients, error) {
	opts := credentialOptions(credsFile)
	if len(opts) > 0 {
		log.Info().Str("credentials", credsFile).Msg("using service account file")
	} else {
		log.Info().Msg("using application default credentials")
	}

	driveSvc, err := drive.NewService(ctx, append(opts, option.WithScopes(drive.DriveReadonlyScope))...)
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	speechClient, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}

	c := &Clients{Drive: driveSvc, Speech: speechClient}
	if withStorage {
		c.Storage, err = gcs.NewClient(ctx, opts...)
		if err != nil {
			speechClient.Close()
			return nil, fmt.Errorf("create storage client: %w", err)
		}
	}
	return c, nil
}

// Close releases the gRPC connections. The Drive service is plain HTTP and
// holds nothing to close.
func (c *Clients) Close() error {
	var errs []error
	if c.Speech != nil {
		errs = append(errs, c.Speech.Close())
	}
	if c.Storage != nil {
		errs = append(errs, c.Storage.Close())
	}
	return errors.Join(errs...)
}

func credentialOptions(credsFile string) []option.ClientOption {
	if credsFile == "" {
		return nil
	}
	if _, err := os.Stat(credsFile); err != nil {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsFile(credsFile)}
}
