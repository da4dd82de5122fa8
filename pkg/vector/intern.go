package vector

import "sync"

// defaultInternCapacity bounds the shared intern pool. Past the cap new
// strings pass through uninterned rather than evicting.
const defaultInternCapacity = 16384

// internPool deduplicates string cell values across generic columns.
// Categorical data repeats a small vocabulary across millions of rows, so
// sharing one backing string per distinct value is a large memory win.
type internPool struct {
	mu      sync.RWMutex
	pool    map[string]string
	maxSize int
}

func newInternPool(maxSize int) *internPool {
	return &internPool{
		pool:    make(map[string]string),
		maxSize: maxSize,
	}
}

// Intern returns the canonical instance of s, registering it when there is
// room. Double-checked locking keeps the hot read path uncontended.
func (p *internPool) Intern(s string) string {
	p.mu.RLock()
	if interned, ok := p.pool[s]; ok {
		p.mu.RUnlock()
		return interned
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if interned, ok := p.pool[s]; ok {
		return interned
	}
	if len(p.pool) >= p.maxSize {
		return s
	}
	p.pool[s] = s
	return s
}

// Size returns the number of distinct strings held.
func (p *internPool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.pool)
}

var sharedIntern = newInternPool(defaultInternCapacity)

// Intern routes s through the process-wide string pool used by generic
// columns.
func Intern(s string) string {
	return sharedIntern.Intern(s)
}
