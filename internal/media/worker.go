// Package media turns queued jobs into stored derivatives. Images become a
// canonical bounded rendition plus one variant per requested width; videos
// are streamed to object storage untouched and handed to the transcoder.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/mediaconvert"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/classifier"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/queue"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/renditions"
)

// ErrUnsupportedPayload is a hard failure: the origin returned content we
// cannot treat as the source media (empty body or a non-image payload for an
// image job). Surfacing it keeps the gap visible instead of silently writing
// nothing.
var ErrUnsupportedPayload = errors.New("origin returned no usable file content")

const (
	// canonicalBound caps the canonical rendition to a square bounding box;
	// variants are bounded by their requested width.
	canonicalBound = 2000
	jpegQuality    = 80
)

// DefaultImageWidths is used whenever a job does not carry its own list.
var DefaultImageWidths = []int{480, 960, 1600}

type Origin interface {
	Download(ctx context.Context, id string) ([]byte, error)
	TemporaryLink(ctx context.Context, path string) (string, error)
}

type ObjectStorage interface {
	Bucket() string
	Upload(ctx context.Context, key, contentType string, payload []byte) error
	UploadStream(ctx context.Context, key, contentType string, body io.Reader) error
}

type Encoder interface {
	Submit(ctx context.Context, job *mediaconvert.CreateJobInput) error
}

type Catalog interface {
	UpsertAsset(ctx context.Context, asset entities.Asset) error
}

type Worker struct {
	origin  Origin
	storage ObjectStorage
	encoder Encoder
	catalog Catalog
	roleARN string
	client  *http.Client
}

func NewWorker(origin Origin, storage ObjectStorage, encoder Encoder, catalog Catalog, roleARN string) *Worker {
	return &Worker{
		origin:  origin,
		storage: storage,
		encoder: encoder,
		catalog: catalog,
		roleARN: roleARN,
		client:  &http.Client{Timeout: 15 * time.Minute},
	}
}

// ProcessImage downloads the source, re-encodes it as JPEG at the canonical
// bound and at each requested width, and uploads every rendition. Renditions
// never upscale: a source smaller than the bound keeps its dimensions.
func (w *Worker) ProcessImage(ctx context.Context, job queue.Job) error {
	raw, err := w.origin.Download(ctx, job.RemoteID)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", job.Path, err)
	}
	if len(raw) == 0 {
		return fmt.Errorf("fetch %s: %w", job.Path, ErrUnsupportedPayload)
	}

	mt := mimetype.Detect(raw)
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("fetch %s: got %s: %w", job.Path, mt.String(), ErrUnsupportedPayload)
	}

	src, err := decodeImage(raw, mt.Extension())
	if err != nil {
		return fmt.Errorf("decode %s: %w", job.Path, err)
	}

	dir, name := classifier.SplitKey(strings.TrimLeft(job.Path, "/"))

	canonical := imaging.Fit(src, canonicalBound, canonicalBound, imaging.Lanczos)
	canonicalKey := classifier.JoinKey(dir, name) + classifier.ImageExt
	payload, err := encodeJPEG(canonical)
	if err != nil {
		return fmt.Errorf("encode %s: %w", canonicalKey, err)
	}
	if err := w.storage.Upload(ctx, canonicalKey, "image/jpeg", payload); err != nil {
		return err
	}

	widths := job.ImageWidths
	if len(widths) == 0 {
		widths = DefaultImageWidths
	}
	for _, width := range widths {
		variant := imaging.Fit(src, width, width, imaging.Lanczos)
		variantKey := fmt.Sprintf("%s_w%d%s", classifier.JoinKey(dir, name), width, classifier.ImageExt)
		body, err := encodeJPEG(variant)
		if err != nil {
			return fmt.Errorf("encode %s: %w", variantKey, err)
		}
		if err := w.storage.Upload(ctx, variantKey, "image/jpeg", body); err != nil {
			return err
		}
	}

	bounds := canonical.Bounds()
	return w.record(ctx, entities.Asset{
		Key:         canonicalKey,
		SourcePath:  job.Path,
		Kind:        entities.KindImage,
		OwnerFolder: job.OwnerFolder,
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		SizeBytes:   int64(len(payload)),
		ContentType: "image/jpeg",
	})
}

// ProcessVideo streams the original into object storage via a temporary
// direct link, then submits the fixed rendition ladder to the encoder.
// Submission accepted is this job's completion condition; encoding itself
// runs detached.
func (w *Worker) ProcessVideo(ctx context.Context, job queue.Job) error {
	url, err := w.origin.TemporaryLink(ctx, job.RemoteID)
	if err != nil {
		return fmt.Errorf("resolve link %s: %w", job.Path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("request %s: %w", job.Path, err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", job.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: temporary link returned %s", job.Path, resp.Status)
	}

	key := strings.TrimLeft(job.Path, "/")
	contentType := classifier.ContentTypeForKey(key)
	if err := w.storage.UploadStream(ctx, key, contentType, resp.Body); err != nil {
		return err
	}

	destination := renditions.DestinationPrefix(key)
	encodeJob := renditions.BuildJob(w.roleARN, w.storage.Bucket(), key, destination)
	if err := w.encoder.Submit(ctx, encodeJob); err != nil {
		return fmt.Errorf("submit transcode %s: %w", key, err)
	}

	return w.record(ctx, entities.Asset{
		Key:         key,
		SourcePath:  job.Path,
		Kind:        entities.KindVideo,
		OwnerFolder: job.OwnerFolder,
		ContentType: contentType,
	})
}

func (w *Worker) record(ctx context.Context, asset entities.Asset) error {
	if w.catalog == nil {
		return nil
	}
	if err := w.catalog.UpsertAsset(ctx, asset); err != nil {
		return fmt.Errorf("catalog %s: %w", asset.Key, err)
	}
	return nil
}

func decodeImage(raw []byte, ext string) (image.Image, error) {
	r := bytes.NewReader(raw)
	switch ext {
	case ".png":
		return png.Decode(r)
	case ".jpg", ".jpeg":
		return jpeg.Decode(r)
	case ".gif":
		return gif.Decode(r)
	case ".webp":
		return webp.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported image extension: %s", ext)
	}
}

func encodeJPEG(img image.Image) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
