package index

import (
	"container/list"
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/alnada/counsellor/internal/embedding"
	"github.com/alnada/counsellor/internal/models"
)

// Cache holds built indexes keyed by studentId, bounded by an LRU policy so
// a long-running service does not grow without limit. Builds are single-flight
// per key: concurrent first-time requests for one student share one build.
type Cache struct {
	capacity int
	embedder embedding.Embedder
	logger   *zap.Logger

	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List

	group singleflight.Group
}

type cacheEntry struct {
	key   string
	index *Index
}

// NewCache creates an index cache with the given capacity.
func NewCache(embedder embedding.Embedder, capacity int, logger *zap.Logger) *Cache {
	return &Cache{
		capacity: capacity,
		embedder: embedder,
		logger:   logger,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// GetOrBuild returns the cached index for the student, building it from the
// record snapshot on first use. At most one build per studentId is in flight
// at a time; concurrent callers await the same build.
func (c *Cache) GetOrBuild(ctx context.Context, studentID string, record *models.StudentRecord) (*Index, error) {
	if ix := c.get(studentID); ix != nil {
		return ix, nil
	}
	v, err, _ := c.group.Do(studentID, func() (any, error) {
		// A concurrent caller may have completed the build while this one
		// queued on the flight group.
		if ix := c.get(studentID); ix != nil {
			return ix, nil
		}
		ix, err := Build(ctx, record, c.embedder)
		if err != nil {
			return nil, err
		}
		c.put(studentID, ix)
		c.logger.Debug("semantic index built",
			zap.String("student_id", studentID), zap.Int("chunks", ix.Size()))
		return ix, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Index), nil
}

// Invalidate drops the cached index for the student, forcing a rebuild on the
// next question. Called when the underlying record is refreshed at login.
func (c *Cache) Invalidate(studentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[studentID]; ok {
		c.lru.Remove(elem)
		delete(c.entries, studentID)
	}
}

// Len returns the number of cached indexes.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) get(studentID string) *Index {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[studentID]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).index
	}
	return nil
}

func (c *Cache) put(studentID string, ix *Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[studentID]; ok {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).index = ix
		return
	}
	elem := c.lru.PushFront(&cacheEntry{key: studentID, index: ix})
	c.entries[studentID] = elem
	if c.lru.Len() > c.capacity {
		oldest := c.lru.Back()
		if oldest != nil {
			c.lru.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}
