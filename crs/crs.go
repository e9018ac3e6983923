// Package crs normalizes geometries into WGS84 (EPSG:4326).
//
// Transformations are pure-Go via wroge/wgs84. Transformer functions are
// cached per source EPSG code; the cache is read-mostly and duplicate
// construction of the same key is benign.
package crs

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/wroge/wgs84"
	"go.uber.org/zap"

	"github.com/teranos/geodex/errors"
	"github.com/teranos/geodex/logger"
)

// TargetEPSG is the normalization target for every footprint in the index.
const TargetEPSG = 4326

// Normalizer reprojects geometries from a source EPSG code to WGS84.
type Normalizer struct {
	mu    sync.RWMutex
	cache map[int]wgs84.SafeFunc
	log   *zap.SugaredLogger
}

// New creates a Normalizer with an empty transformer cache.
func New(log *zap.SugaredLogger) *Normalizer {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Normalizer{
		cache: make(map[int]wgs84.SafeFunc),
		log:   log.Named("crs"),
	}
}

// ToWGS84 reprojects every vertex of g from srcEPSG into WGS84.
//
// A source already in WGS84 is returned as an unshared clone. On transformer
// construction or application failure the ORIGINAL, unprojected geometry is
// returned and the second result is false; the caller keeps the record but
// the run log carries a reprojection warning.
func (n *Normalizer) ToWGS84(srcEPSG int, g orb.Geometry) (orb.Geometry, bool) {
	if g == nil {
		return nil, false
	}
	if srcEPSG == TargetEPSG {
		return orb.Clone(g), true
	}

	tf, err := n.transformer(srcEPSG)
	if err != nil {
		n.log.Warnw("Reprojection unavailable, keeping native coordinates",
			logger.FieldSource, srcEPSG,
			logger.FieldError, err.Error(),
		)
		return g, false
	}

	out, err := mapVertices(orb.Clone(g), tf)
	if err != nil {
		n.log.Warnw("Reprojection failed, keeping native coordinates",
			logger.FieldSource, srcEPSG,
			logger.FieldError, err.Error(),
		)
		return g, false
	}
	return out, true
}

// BoundToWGS84 reprojects a bounding box by transforming its two corners.
func (n *Normalizer) BoundToWGS84(srcEPSG int, b orb.Bound) (orb.Bound, bool) {
	if srcEPSG == TargetEPSG {
		return b, true
	}

	tf, err := n.transformer(srcEPSG)
	if err != nil {
		n.log.Warnw("Reprojection unavailable, keeping native bounds",
			logger.FieldSource, srcEPSG,
			logger.FieldError, err.Error(),
		)
		return b, false
	}

	minx, miny, _, err1 := tf(b.Min[0], b.Min[1], 0)
	maxx, maxy, _, err2 := tf(b.Max[0], b.Max[1], 0)
	if err1 != nil || err2 != nil {
		err := err1
		if err == nil {
			err = err2
		}
		n.log.Warnw("Reprojection failed, keeping native bounds",
			logger.FieldSource, srcEPSG,
			logger.FieldError, err.Error(),
		)
		return b, false
	}

	return orb.Bound{Min: orb.Point{minx, miny}, Max: orb.Point{maxx, maxy}}, true
}

// transformer returns a cached transform for srcEPSG, building one on miss.
func (n *Normalizer) transformer(srcEPSG int) (wgs84.SafeFunc, error) {
	n.mu.RLock()
	tf, ok := n.cache[srcEPSG]
	n.mu.RUnlock()
	if ok {
		return tf, nil
	}

	from := wgs84.EPSG().Code(srcEPSG)
	if from == nil {
		return nil, errors.Wrapf(errors.ErrNoCRS, "EPSG:%d not in transform registry", srcEPSG)
	}
	tf = wgs84.SafeTransform(from, wgs84.LonLat())

	n.mu.Lock()
	n.cache[srcEPSG] = tf
	n.mu.Unlock()

	n.log.Debugw("Built coordinate transformer", logger.FieldSource, srcEPSG)
	return tf, nil
}

// mapVertices applies tf to every vertex of g in place and returns g.
func mapVertices(g orb.Geometry, tf wgs84.SafeFunc) (orb.Geometry, error) {
	var firstErr error
	apply := func(p orb.Point) orb.Point {
		if firstErr != nil {
			return p
		}
		x, y, _, err := tf(p[0], p[1], 0)
		if err != nil {
			firstErr = err
			return p
		}
		return orb.Point{x, y}
	}

	switch v := g.(type) {
	case orb.Point:
		g = apply(v)
	case orb.MultiPoint:
		for i := range v {
			v[i] = apply(v[i])
		}
	case orb.LineString:
		for i := range v {
			v[i] = apply(v[i])
		}
	case orb.MultiLineString:
		for _, ls := range v {
			for i := range ls {
				ls[i] = apply(ls[i])
			}
		}
	case orb.Ring:
		for i := range v {
			v[i] = apply(v[i])
		}
	case orb.Polygon:
		for _, r := range v {
			for i := range r {
				r[i] = apply(r[i])
			}
		}
	case orb.MultiPolygon:
		for _, p := range v {
			for _, r := range p {
				for i := range r {
					r[i] = apply(r[i])
				}
			}
		}
	case orb.Bound:
		g = orb.Bound{Min: apply(v.Min), Max: apply(v.Max)}
	default:
		return nil, errors.Newf("unsupported geometry type %T", g)
	}

	if firstErr != nil {
		return nil, errors.Wrap(firstErr, "vertex transform")
	}
	return g, nil
}
