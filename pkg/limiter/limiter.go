package limiter

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juju/ratelimit"
)

// Face is what the rate limit middleware needs from a limiter.
type Face interface {
	Key(c *gin.Context) string
	GetBucket(key string) (*ratelimit.Bucket, bool)
	AddBuckets(rules ...BucketRule) Face
}

// BucketRule configures one token bucket.
type BucketRule struct {
	Key          string        `yaml:"key"`
	FillInterval time.Duration `yaml:"fill-interval"`
	Capacity     int64         `yaml:"capacity"`
	Quantum      int64         `yaml:"quantum"`
}

type base struct {
	mu      sync.RWMutex
	buckets map[string]*ratelimit.Bucket
}

func (l *base) GetBucket(key string) (*ratelimit.Bucket, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bucket, ok := l.buckets[key]
	return bucket, ok
}

func (l *base) add(rules ...BucketRule) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rule := range rules {
		if _, ok := l.buckets[rule.Key]; ok {
			continue
		}
		quantum := rule.Quantum
		if quantum <= 0 {
			quantum = 1
		}
		l.buckets[rule.Key] = ratelimit.NewBucketWithQuantum(rule.FillInterval, rule.Capacity, quantum)
	}
}

// MethodLimiter keys buckets by "METHOD route", e.g. "GET /notes".
type MethodLimiter struct {
	base
}

func NewMethodLimiter() Face {
	return &MethodLimiter{base{buckets: make(map[string]*ratelimit.Bucket)}}
}

func (l *MethodLimiter) Key(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.Request.Method + " " + route
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.add(rules...)
	return l
}
