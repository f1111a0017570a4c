// Package origin wraps the Dropbox API behind the small capability surface
// the sync pass and media workers need: enumeration with resume cursors,
// content download by file id, and short-lived direct links for streaming.
package origin

import (
	"context"
	"fmt"
	"io"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox"
	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/files"
	"golang.org/x/oauth2"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/config"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
)

const tokenURL = "https://api.dropboxapi.com/oauth2/token"

// ListResult is one batch of enumeration output. Cursor resumes the listing
// where this batch ended; HasMore signals that a continuation call will
// return further entries immediately.
type ListResult struct {
	Entries []entities.RemoteEntry
	Cursor  string
	HasMore bool
}

type Dropbox struct {
	client files.Client
}

// NewDropbox builds a client from config. A long-lived refresh token plus app
// credentials is the normal production setup; a raw access token is accepted
// for local use.
func NewDropbox(ctx context.Context, cfg *config.DropboxConfig) *Dropbox {
	dbxCfg := dropbox.Config{LogLevel: dropbox.LogOff}

	if cfg.RefreshToken != "" {
		oc := &oauth2.Config{
			ClientID:     cfg.AppKey,
			ClientSecret: cfg.AppSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		}
		ts := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
		dbxCfg.Client = oauth2.NewClient(ctx, ts)
	} else {
		dbxCfg.Token = cfg.AccessToken
	}

	return &Dropbox{client: files.New(dbxCfg)}
}

func (d *Dropbox) ListFolder(ctx context.Context, path string, recursive bool) (ListResult, error) {
	arg := files.NewListFolderArg(path)
	arg.Recursive = recursive
	arg.IncludeNonDownloadableFiles = false

	res, err := d.client.ListFolder(arg)
	if err != nil {
		return ListResult{}, fmt.Errorf("list folder %q: %w", path, err)
	}
	return ListResult{
		Entries: mapEntries(res.Entries),
		Cursor:  res.Cursor,
		HasMore: res.HasMore,
	}, nil
}

func (d *Dropbox) ListFolderContinue(ctx context.Context, cursor string) (ListResult, error) {
	res, err := d.client.ListFolderContinue(files.NewListFolderContinueArg(cursor))
	if err != nil {
		return ListResult{}, fmt.Errorf("list folder continue: %w", err)
	}
	return ListResult{
		Entries: mapEntries(res.Entries),
		Cursor:  res.Cursor,
		HasMore: res.HasMore,
	}, nil
}

// Download fetches the full content of a file by its remote id.
func (d *Dropbox) Download(ctx context.Context, id string) ([]byte, error) {
	_, content, err := d.client.Download(files.NewDownloadArg(id))
	if err != nil {
		return nil, fmt.Errorf("download %q: %w", id, err)
	}
	defer content.Close()

	raw, err := io.ReadAll(content)
	if err != nil {
		return nil, fmt.Errorf("read download %q: %w", id, err)
	}
	return raw, nil
}

// TemporaryLink resolves a short-lived direct URL for a file so large
// originals can be streamed without holding them in memory.
func (d *Dropbox) TemporaryLink(ctx context.Context, path string) (string, error) {
	res, err := d.client.GetTemporaryLink(files.NewGetTemporaryLinkArg(path))
	if err != nil {
		return "", fmt.Errorf("temporary link %q: %w", path, err)
	}
	return res.Link, nil
}

func mapEntries(in []files.IsMetadata) []entities.RemoteEntry {
	out := make([]entities.RemoteEntry, 0, len(in))
	for _, md := range in {
		switch m := md.(type) {
		case *files.FileMetadata:
			out = append(out, entities.RemoteEntry{
				ID:          m.Id,
				PathLower:   m.PathLower,
				PathDisplay: m.PathDisplay,
				Tag:         entities.TagFile,
			})
		case *files.FolderMetadata:
			out = append(out, entities.RemoteEntry{
				ID:          m.Id,
				PathLower:   m.PathLower,
				PathDisplay: m.PathDisplay,
				Tag:         entities.TagFolder,
			})
		case *files.DeletedMetadata:
			out = append(out, entities.RemoteEntry{
				PathLower:   m.PathLower,
				PathDisplay: m.PathDisplay,
				Tag:         entities.TagDeleted,
			})
		}
	}
	return out
}
