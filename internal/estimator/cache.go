package estimator

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

const minCacheSize = 512 * 1024

var _ Predictor = (*CachedPredictor)(nil)

// CachedPredictor memoises predictions by feature vector. Entries never expire, the
// underlying model is immutable.
type CachedPredictor struct {
	predictor Predictor
	cache     *freecache.Cache
}

// NewCachedPredictor wraps predictor with a cache of sizeMB megabytes. A size of 0 returns predictor as is.
func NewCachedPredictor(predictor Predictor, sizeMB int) Predictor {
	if sizeMB <= 0 {
		return predictor
	}
	size := sizeMB * 1024 * 1024
	if size < minCacheSize {
		size = minCacheSize
	}
	return &CachedPredictor{
		predictor: predictor,
		cache:     freecache.NewCache(size),
	}
}

func (c *CachedPredictor) Predict(f Features) (float64, error) {
	key := cacheKey(f)
	if raw, err := c.cache.Get(key); err == nil && len(raw) == 8 {
		return math.Float64frombits(binary.LittleEndian.Uint64(raw)), nil
	} else if err != nil && !errors.Is(err, freecache.ErrNotFound) {
		log.Warnf("prediction cache get: %s", err)
	}

	prediction, err := c.predictor.Predict(f)
	if err != nil {
		return 0, err
	}

	val := make([]byte, 8)
	binary.LittleEndian.PutUint64(val, math.Float64bits(prediction))
	if err := c.cache.Set(key, val, 0); err != nil {
		log.Warnf("prediction cache set: %s", err)
	}

	return prediction, nil
}

func (c *CachedPredictor) HitCount() int64 {
	return c.cache.HitCount()
}

func (c *CachedPredictor) EntryCount() int64 {
	return c.cache.EntryCount()
}

func cacheKey(f Features) []byte {
	x := f.Vector()
	key := make([]byte, 8*len(x))
	for i, v := range x {
		binary.LittleEndian.PutUint64(key[i*8:], math.Float64bits(v))
	}
	return key
}
