package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveStore persists blobs as files inside one Google Drive folder,
// authenticated as a service account.
type DriveStore struct {
	svc      *drive.Service
	folderID string
}

func NewDriveStore(ctx context.Context, credentialsJSON []byte, folderID string) (*DriveStore, error) {
	if folderID == "" {
		return nil, fmt.Errorf("drive folder id is required")
	}
	jwtCfg, err := google.JWTConfigFromJSON(credentialsJSON, drive.DriveScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account credentials: %w", err)
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveStore{svc: svc, folderID: folderID}, nil
}

func (s *DriveStore) List(ctx context.Context, name string) ([]string, error) {
	res, err := s.svc.Files.List().
		Q(fmt.Sprintf("name='%s' and '%s' in parents and trashed=false", escapeQuery(name), s.folderID)).
		Fields("files(id)").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive list %q: %w", name, err)
	}
	ids := make([]string, 0, len(res.Files))
	for _, f := range res.Files {
		ids = append(ids, f.Id)
	}
	return ids, nil
}

func (s *DriveStore) Get(ctx context.Context, name string) ([]byte, error) {
	ids, err := s.List(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("get %q: %w", name, ErrNotFound)
	}
	resp, err := s.svc.Files.Get(ids[0]).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("drive download %q: %w", name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read drive content %q: %w", name, err)
	}
	return data, nil
}

// Put updates the existing file with the given name or creates a new
// one in the folder. Returns the file id.
func (s *DriveStore) Put(ctx context.Context, name string, data []byte, mimeType string) (string, error) {
	ids, err := s.List(ctx, name)
	if err != nil {
		return "", err
	}
	if len(ids) > 0 {
		_, err := s.svc.Files.Update(ids[0], &drive.File{}).
			Media(bytes.NewReader(data)).
			SupportsAllDrives(true).
			Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("drive update %q: %w", name, err)
		}
		return ids[0], nil
	}
	created, err := s.svc.Files.Create(&drive.File{
		Name:     name,
		Parents:  []string{s.folderID},
		MimeType: mimeType,
	}).
		Media(bytes.NewReader(data)).
		Fields("id").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive create %q: %w", name, err)
	}
	return created.Id, nil
}

func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
