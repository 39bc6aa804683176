// Package transforms is the host's image transform pipeline. It names
// durable transforms, remembers the ones already written, and either
// generates a transform on request or queues it for the background worker.
package transforms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"imageoptimize/assets"
	"imageoptimize/encoder"
	"imageoptimize/generator"
	"imageoptimize/logger"
	"imageoptimize/models"
	taskqueue "imageoptimize/taskQueue"
	"imageoptimize/volumes"
	writerbackends "imageoptimize/writerBackends"
)

// maxAttempts bounds how often a queued transform is retried
const maxAttempts = 3

// pendingTransform is the queue record of a lazy transform
type pendingTransform struct {
	AssetID  string              `json:"asset_id"`
	Job      models.TransformJob `json:"job"`
	Attempts int                 `json:"attempts"`
}

// Store is the keyed storage behind the transform index and the lazy queue.
// *taskqueue.DBQueue implements it.
type Store interface {
	Add(key string, value []byte) error
	Get(key string) ([]byte, error)
	Delete(key string) error
	List(prefix string) ([]taskqueue.Entry, error)
}

// Service generates and indexes transforms
type Service struct {
	registry     *encoder.Registry
	index        Store // volume:key → public URL
	queue        Store // volume:key → pendingTransform
	originalsDir string
	eager        *generator.AtomicToggle
}

// New creates a Service. originalsDir holds the uploaded source files.
func New(registry *encoder.Registry, index, queue Store, originalsDir string) *Service {
	return &Service{
		registry:     registry,
		index:        index,
		queue:        queue,
		originalsDir: originalsDir,
		eager:        &generator.AtomicToggle{},
	}
}

// Codec exposes the registry the service encodes with
func (s *Service) Codec() generator.Codec {
	return s.registry
}

// Toggle is the "generate transforms before page load" setting
func (s *Service) Toggle() generator.Toggle {
	return s.eager
}

func (s *Service) SetGenerateBeforePageLoad(on bool) {
	s.eager.SetEnabled(on)
}

func (s *Service) GenerateBeforePageLoad() bool {
	return s.eager.Enabled()
}

// OriginalDir returns the directory originals of folder are stored in
func (s *Service) OriginalDir(folder string) string {
	return filepath.Join(s.originalsDir, filepath.FromSlash(folder))
}

// OriginalPath returns where the source file of a is stored
func (s *Service) OriginalPath(a *assets.Asset) string {
	return filepath.Join(s.OriginalDir(a.Path), a.Filename)
}

// URL returns the public URL of the transform of a described by job.
// The file is generated right away when opts.Eager or the service toggle is
// set, otherwise it is queued and the URL it will be served from is returned.
func (s *Service) URL(ctx context.Context, a *assets.Asset, job models.TransformJob, opts generator.TransformOptions) (string, error) {
	if a.Kind != assets.KindImage {
		return "", fmt.Errorf("%w: asset %s is a %s", models.ErrTransformUnavailable, a.ID, a.Kind)
	}
	if _, err := os.Stat(s.OriginalPath(a)); err != nil {
		return "", fmt.Errorf("%w: source of asset %s: %v", models.ErrTransformUnavailable, a.ID, err)
	}
	vol, err := volumes.Get(a.Volume)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrTransformUnavailable, err)
	}

	key := TransformKey(a, job)
	ik := indexKey(vol.Handle, key)
	if url, err := s.index.Get(ik); err == nil {
		return string(url), nil
	} else if !errors.Is(err, taskqueue.ErrNotFound) {
		return "", fmt.Errorf("transform index lookup %s: %w", ik, err)
	}

	if opts.Eager || s.GenerateBeforePageLoad() {
		return s.generate(ctx, a, vol, job)
	}

	if err := s.enqueue(ik, pendingTransform{AssetID: a.ID, Job: job}); err != nil {
		return "", err
	}
	return writerbackends.PublicURL(vol, key), nil
}

func (s *Service) enqueue(ik string, p pendingTransform) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal pending transform: %w", err)
	}
	if err := s.queue.Add(ik, data); err != nil {
		return fmt.Errorf("failed to queue transform %s: %w", ik, err)
	}
	logger.Debugf("Queued transform %s", ik)
	return nil
}

// dequeue removes a queued transform; a missing entry is not an error
func (s *Service) dequeue(ik string) error {
	if err := s.queue.Delete(ik); err != nil && !errors.Is(err, taskqueue.ErrNotFound) {
		return fmt.Errorf("failed to clear queued transform %s: %w", ik, err)
	}
	return nil
}

// generate encodes the transform, writes it to the volume and indexes it
func (s *Service) generate(ctx context.Context, a *assets.Asset, vol *volumes.Volume, job models.TransformJob) (string, error) {
	format := encoder.Normalize(job.Format)
	if format == "" {
		format = a.Extension()
	}
	if !s.registry.CanDecode(a.Extension()) {
		return "", fmt.Errorf("%w: cannot read %s sources", models.ErrTransformUnsupported, a.Extension())
	}
	enc, ok := s.registry.Get(format)
	if !ok {
		return "", fmt.Errorf("%w: no encoder for %s", models.ErrTransformUnsupported, format)
	}
	if job.Width == a.Width && job.Height == a.Height && encoder.Normalize(format) == encoder.Normalize(a.Extension()) {
		enc = encoder.EncodeCopy
	}

	key := TransformKey(a, job)
	workDir, err := os.MkdirTemp("", "imageoptimize-transform-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	out := filepath.Join(workDir, filepath.Base(key))
	if err := enc(ctx, s.OriginalPath(a), out, encoder.EncodeOptions{
		Width:      job.Width,
		Height:     job.Height,
		Quality:    job.Quality,
		FocalPoint: a.FocalPoint,
	}); err != nil {
		return "", fmt.Errorf("encode %s: %w", key, err)
	}

	f, err := os.Open(out)
	if err != nil {
		return "", fmt.Errorf("open encoded file: %w", err)
	}
	defer f.Close()

	url, err := writerbackends.WriteImage(ctx, vol, key, f)
	if err != nil {
		return "", err
	}

	ik := indexKey(vol.Handle, key)
	if err := s.index.Add(ik, []byte(url)); err != nil {
		return "", fmt.Errorf("failed to index transform %s: %w", ik, err)
	}
	if err := s.dequeue(ik); err != nil {
		logger.Warnf("%v", err)
	}

	logger.Debugf("Generated transform %s -> %s", key, url)
	return url, nil
}

// ProcessPending generates every queued transform. Failed transforms are
// retried on later calls until they have failed maxAttempts times.
func (s *Service) ProcessPending(ctx context.Context) (int, error) {
	entries, err := s.queue.List("")
	if err != nil {
		return 0, fmt.Errorf("failed to list queued transforms: %w", err)
	}

	processed := 0
	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		var p pendingTransform
		if err := json.Unmarshal(entry.Value, &p); err != nil {
			logger.Errorf("Dropping unreadable queued transform %s: %v", entry.Key, err)
			if err := s.dequeue(entry.Key); err != nil {
				logger.Errorf("%v", err)
				errs = append(errs, err)
			}
			continue
		}

		if err := s.processOne(ctx, p); err != nil {
			p.Attempts++
			errs = append(errs, fmt.Errorf("%s: %w", entry.Key, err))
			if p.Attempts >= maxAttempts || errors.Is(err, models.ErrTransformUnavailable) || errors.Is(err, models.ErrTransformUnsupported) {
				logger.Errorf("Giving up on transform %s after %d attempts: %v", entry.Key, p.Attempts, err)
				if err := s.dequeue(entry.Key); err != nil {
					logger.Errorf("%v", err)
					errs = append(errs, err)
				}
				continue
			}
			logger.Warnf("Transform %s failed (attempt %d): %v", entry.Key, p.Attempts, err)
			if err := s.enqueue(entry.Key, p); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		processed++
	}

	if processed > 0 {
		logger.Infof("Processed %d queued transforms", processed)
	}
	return processed, errors.Join(errs...)
}

func (s *Service) processOne(ctx context.Context, p pendingTransform) error {
	a, err := assets.Get(p.AssetID)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrTransformUnavailable, err)
	}
	_, err = s.URL(ctx, a, p.Job, generator.TransformOptions{Eager: true})
	return err
}

// Forget drops the index entries of every transform of a, so the next
// request writes them again. Used when the focal point changes.
func (s *Service) Forget(a *assets.Asset) (int, error) {
	prefix := indexKey(a.Volume, "")
	if a.Path != "" {
		prefix = indexKey(a.Volume, a.Path+"/")
	}
	entries, err := s.index.List(prefix)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, e := range entries {
		if !belongsTo(e.Key[len(prefix):], a) {
			continue
		}
		if err := s.index.Delete(e.Key); err != nil {
			return removed, fmt.Errorf("failed to forget transform %s: %w", e.Key, err)
		}
		removed++
	}
	logger.Debugf("Forgot %d transforms of asset %s", removed, a.ID)
	return removed, nil
}

// Pending returns the number of queued transforms
func (s *Service) Pending() (int, error) {
	entries, err := s.queue.List("")
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Ref adapts an asset record to the generator
func (s *Service) Ref(a *assets.Asset) generator.Asset {
	return &assetRef{svc: s, asset: a}
}

type assetRef struct {
	svc   *Service
	asset *assets.Asset
}

func (r *assetRef) Extension() string              { return r.asset.Extension() }
func (r *assetRef) Width() int                     { return r.asset.Width }
func (r *assetRef) Height() int                    { return r.asset.Height }
func (r *assetRef) FocalPoint() *models.FocalPoint { return r.asset.FocalPoint }

func (r *assetRef) TransformURL(ctx context.Context, job models.TransformJob, opts generator.TransformOptions) (string, error) {
	return r.svc.URL(ctx, r.asset, job, opts)
}
