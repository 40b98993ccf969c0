package memory

import (
	"time"

	"posemarket-be/pkg/capture"

	"github.com/patrickmn/go-cache"
)

// CaptureSessionRepository tracks live capture sessions by connection id.
// Sessions abandoned without an explicit close are evicted after the
// idle window and released then.
type CaptureSessionRepository struct {
	cache *cache.Cache
}

func NewCaptureSessionRepository() *CaptureSessionRepository {
	c := cache.New(30*time.Minute, 5*time.Minute)
	c.OnEvicted(func(_ string, v interface{}) {
		if s, ok := v.(*capture.Session); ok {
			s.Close()
		}
	})
	return &CaptureSessionRepository{
		cache: c,
	}
}

func (r *CaptureSessionRepository) Save(id string, session *capture.Session) {
	r.cache.Set(id, session, cache.DefaultExpiration)
}

func (r *CaptureSessionRepository) Get(id string) (*capture.Session, bool) {
	if x, found := r.cache.Get(id); found {
		return x.(*capture.Session), true
	}
	return nil, false
}

func (r *CaptureSessionRepository) Touch(id string) {
	if x, found := r.cache.Get(id); found {
		r.cache.Set(id, x, cache.DefaultExpiration)
	}
}

func (r *CaptureSessionRepository) Delete(id string) {
	r.cache.Delete(id)
}
