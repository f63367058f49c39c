// Package upload implements the slot upload transport on MinIO-compatible
// object storage.
package upload

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/creativetrack/core/internal/ports"
)

// MinioTransport stores slot files in a bucket under human-navigable
// paths derived from the campaign, assignee and task. Implements the
// UploadTransport interface.
type MinioTransport struct {
	client        *minio.Client
	bucket        string
	publicBaseURL string
}

// NewMinioTransport creates a MinIO-backed upload transport
func NewMinioTransport(client *minio.Client, bucket, publicBaseURL string) *MinioTransport {
	return &MinioTransport{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// Upload streams the file to object storage, reporting whole percentages
// through the progress callback. The returned URL is the object's public
// address. Cancelling the context aborts the transfer mid-stream.
func (t *MinioTransport) Upload(ctx context.Context, req ports.UploadRequest, progress func(percent int)) (string, error) {
	objectName := t.objectName(req)

	reader := &progressReader{
		r:        req.Body,
		total:    req.Size,
		progress: progress,
	}

	_, err := t.client.PutObject(ctx, t.bucket, objectName, reader, req.Size, minio.PutObjectOptions{
		ContentType: req.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload slot file: %w", err)
	}
	if progress != nil {
		progress(100)
	}

	return fmt.Sprintf("%s/%s/%s", t.publicBaseURL, t.bucket, objectName), nil
}

// objectName builds a stable path: campaign / assignee / task / slot /
// timestamped file name. Missing references degrade to placeholder
// segments instead of failing the upload. When a previous version exists
// its base name is appended so consecutive versions sort together.
func (t *MinioTransport) objectName(req ports.UploadRequest) string {
	campaign := "no-campaign"
	if req.Campaign != nil {
		campaign = slug(req.Campaign.Name)
	}
	assignee := "unknown-user"
	if req.Assignee != nil {
		assignee = slug(req.Assignee.Username)
	}
	task := fmt.Sprintf("task-%d", req.TaskID)
	if req.Task != nil && req.Task.Title != "" {
		task = fmt.Sprintf("%d-%s", req.TaskID, slug(req.Task.Title))
	}

	name := fmt.Sprintf("%d-%s", time.Now().UTC().Unix(), slug(strings.TrimSuffix(req.FileName, filepath.Ext(req.FileName))))
	if prev := previousBase(req.PreviousURL); prev != "" {
		name = prev + "-" + name
	}

	return fmt.Sprintf("%s/%s/%s/slot-%d/%s%s",
		campaign, assignee, task, req.SlotIndex, name, strings.ToLower(filepath.Ext(req.FileName)))
}

// previousBase extracts the prior version's base object name so the new
// object groups with it in listings.
func previousBase(previousURL string) string {
	if previousURL == "" {
		return ""
	}
	base := path.Base(previousURL)
	base = strings.TrimSuffix(base, path.Ext(base))
	if len(base) > 40 {
		base = base[:40]
	}
	return slug(base)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.TrimRight(b.String(), "-")
	if out == "" {
		return "untitled"
	}
	return out
}

// progressReader reports whole-percentage progress as the transport
// consumes the body. Repeated percentages are suppressed.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	last     int
	progress func(percent int)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.progress != nil && p.total > 0 {
		percent := int(p.read * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.progress(percent)
		}
	}
	return n, err
}
