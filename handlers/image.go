package handlers

import (
	"context"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"sync"

	"github.com/paulmach/orb"
	"github.com/rwcarlsen/goexif/exif"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/geodex/catalog"
	"github.com/teranos/geodex/crs"
	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/logger"
)

// ImageHandler extracts point records from geotagged JPEG photos. An image
// that decodes but carries no EXIF GPS fix simply has nothing to index; only
// an unreadable image counts as a failure.
type ImageHandler struct {
	log *zap.SugaredLogger
}

func (h *ImageHandler) Extract(_ context.Context, path string, _ Options) Result {
	f, err := os.Open(path)
	if err != nil {
		return failure(path, errors.Wrapf(err, "open %s", path).Error())
	}
	defer f.Close()

	if _, _, err := image.DecodeConfig(f); err != nil {
		return failure(path, errors.Wrapf(err, "decode %s", path).Error())
	}
	if _, err := f.Seek(0, 0); err != nil {
		return failure(path, errors.Wrapf(err, "rewind %s", path).Error())
	}

	x, err := exif.Decode(f)
	if err != nil {
		h.log.Debugw("Image has no EXIF block", logger.FieldPath, path)
		return Result{}
	}
	lat, lon, err := x.LatLong()
	if err != nil {
		h.log.Debugw("Image has no GPS fix", logger.FieldPath, path)
		return Result{}
	}

	return Result{Records: []catalog.DatasetRecord{{
		Kind:            catalog.KindPoint,
		Geometry:        orb.Point{lon, lat},
		DataType:        "JPEG Image",
		FileName:        filepath.Base(path),
		SourcePath:      path,
		NativeCRS:       crs.TargetEPSG,
		LastModified:    catalog.ModTime(path),
		ImagePreviewURI: catalog.FileURI(path),
	}}}
}

// ExtractBatch processes a batch of images concurrently. Image work is pure
// file reading with no external tool, so it parallelizes safely.
func (h *ImageHandler) ExtractBatch(ctx context.Context, paths []string, opts Options, workers int) Result {
	if workers < 1 {
		workers = 1
	}

	var (
		mu  sync.Mutex
		res Result
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			one := h.Extract(ctx, path, opts)
			mu.Lock()
			res.merge(one)
			mu.Unlock()
			return nil
		})
	}
	// Workers only propagate cancellation, never extraction failures.
	_ = g.Wait()
	return res
}
