package locks

// Well known lock names shared between the terrain streamer and its
// collaborators
const (
	TerrainLock = "terrain"
)

// NamedLock is an advisory, reference counted gate. Distinct subsystems
// hold the same lock under distinct opaque keys; the lock stays engaged
// while any holder remains. Locking never blocks anyone: interested
// parties poll IsFree and treat an engaged lock as "not now, retry later".
//
// Each key carries its own reference count, so a holder that locks the
// same key twice must free it twice before its hold is released.
//
// All mutation happens on the cooperative update timeline, hence no
// internal synchronization.
type NamedLock struct {
	name    string
	holders map[string]int
}

func NewNamedLock(name string) *NamedLock {
	return &NamedLock{
		name:    name,
		holders: make(map[string]int),
	}
}

// Returns the lock name
func (l *NamedLock) Name() string {
	return l.name
}

// Adds the key to the holder set, incrementing its reference count
func (l *NamedLock) Lock(key string) {
	l.holders[key]++
}

// Removes one reference of the key from the holder set. Freeing a key
// that holds no reference is a no-op.
func (l *NamedLock) Free(key string) {
	count, ok := l.holders[key]
	if !ok {
		return
	}
	if count <= 1 {
		delete(l.holders, key)
		return
	}
	l.holders[key] = count - 1
}

// Releases every reference held under the key
func (l *NamedLock) FreeAll(key string) {
	delete(l.holders, key)
}

// Returns true iff the holder set is empty
func (l *NamedLock) IsFree() bool {
	return len(l.holders) == 0
}

// Returns the number of distinct keys currently holding the lock
func (l *NamedLock) HolderCount() int {
	return len(l.holders)
}

// LockSet owns the named locks of one renderer session, created lazily on
// first access.
type LockSet struct {
	locks map[string]*NamedLock
}

func NewLockSet() *LockSet {
	return &LockSet{
		locks: make(map[string]*NamedLock),
	}
}

// Returns the lock with the given name, creating it if needed
func (s *LockSet) Get(name string) *NamedLock {
	lock, ok := s.locks[name]
	if !ok {
		lock = NewNamedLock(name)
		s.locks[name] = lock
	}
	return lock
}
