package mem

// ReplacementPolicy selects which line a Cache evicts on a miss when
// its target set is full.
type ReplacementPolicy int

const (
	LRU ReplacementPolicy = iota
	MRU
	FIFO
	Random
)

// WriteAllocation selects a Cache's behavior on a write miss.
type WriteAllocation int

const (
	WriteAllocate WriteAllocation = iota
	NoWriteAllocate
)

// CacheConfig parameterizes a Cache's geometry and policies.
type CacheConfig struct {
	TagBits         int
	IndexBits       int
	Associativity   int
	Replacement     ReplacementPolicy
	WriteAllocation WriteAllocation
}

// line is one cached byte plus the bookkeeping its replacement policy
// needs.
type line struct {
	valid   bool
	tag     uint16
	data    byte
	fetchID uint64 // monotonic counter at install time, for FIFO
	useID   uint64 // monotonic counter at last touch, for LRU/MRU
}

// Access reports the outcome of a single Cache read or write. The CPU
// does not read it; a host reads it from Cache.LastAccess.
type Access struct {
	Addr uint16
	Hit  bool
}

// randSource abstracts the PRNG so tests can make Random replacement
// deterministic; defaults to a small xorshift seeded at construction.
type randSource struct{ state uint64 }

func (r *randSource) next(bound int) int {
	if bound <= 0 {
		return 0
	}
	r.state ^= r.state << 13
	r.state ^= r.state >> 7
	r.state ^= r.state << 17
	if r.state == 0 {
		r.state = 0x9E3779B97F4A7C15
	}
	return int(r.state % uint64(bound))
}

// Cache sits in front of a backing Interface and presents the same
// Interface itself, so the CPU never needs to know it's there. Reads
// consult the cache first; misses fetch from the backing memory and
// admit a line. Writes are write-through only: every write commits to
// the backing memory immediately, and (depending on WriteAllocation)
// may also install or update a line.
type Cache struct {
	backing Interface
	cfg     CacheConfig
	sets    [][]line
	clock   uint64
	rng     *randSource

	// LastAccess records the most recent hit/miss outcome. Nothing in
	// the CPU reads or forwards it; it is overwritten on every access.
	LastAccess Access
	Hits       uint64
	Misses     uint64
}

// NewCache wraps backing with a cache of the given geometry.
func NewCache(backing Interface, cfg CacheConfig) *Cache {
	numSets := 1 << cfg.IndexBits
	sets := make([][]line, numSets)
	for i := range sets {
		sets[i] = make([]line, cfg.Associativity)
	}
	return &Cache{
		backing: backing,
		cfg:     cfg,
		sets:    sets,
		rng:     &randSource{state: 0xD1B54A32D192ED03},
	}
}

func (c *Cache) split(addr uint16) (index int, tag uint16) {
	indexMask := uint16(1<<c.cfg.IndexBits) - 1
	index = int(addr & indexMask)
	tag = addr >> uint16(c.cfg.IndexBits)
	// Degenerate geometries (IndexBits==0) collapse to a single
	// fully-associative set; guard division-free here since shifts by
	// 0 are identity.
	if c.cfg.IndexBits == 0 {
		index = 0
	}
	return index, tag
}

func (c *Cache) lookup(set []line, tag uint16) int {
	for i := range set {
		if set[i].valid && set[i].tag == tag {
			return i
		}
	}
	return -1
}

func (c *Cache) victim(set []line) int {
	for i := range set {
		if !set[i].valid {
			return i
		}
	}
	switch c.cfg.Replacement {
	case FIFO:
		oldest := 0
		for i := range set {
			if set[i].fetchID < set[oldest].fetchID {
				oldest = i
			}
		}
		return oldest
	case LRU:
		oldest := 0
		for i := range set {
			if set[i].useID < set[oldest].useID {
				oldest = i
			}
		}
		return oldest
	case MRU:
		newest := 0
		for i := range set {
			if set[i].useID > set[newest].useID {
				newest = i
			}
		}
		return newest
	case Random:
		return c.rng.next(len(set))
	default:
		return 0
	}
}

func (c *Cache) touch(l *line) {
	c.clock++
	l.useID = c.clock
}

func (c *Cache) install(set []line, idx int, tag uint16, data byte) {
	c.clock++
	set[idx] = line{valid: true, tag: tag, data: data, fetchID: c.clock, useID: c.clock}
}

// ReadByte consults the cache first; on a miss it fetches from the
// backing memory and admits a line.
func (c *Cache) ReadByte(addr uint16) (byte, error) {
	index, tag := c.split(addr)
	set := c.sets[index]

	if i := c.lookup(set, tag); i >= 0 {
		c.touch(&set[i])
		c.Hits++
		c.LastAccess = Access{Addr: addr, Hit: true}
		return set[i].data, nil
	}

	c.Misses++
	c.LastAccess = Access{Addr: addr, Hit: false}
	b, err := c.backing.ReadByte(addr)
	if err != nil {
		return b, err
	}
	idx := c.victim(set)
	c.install(set, idx, tag, b)
	return b, nil
}

// ReadWord reads two bytes through ReadByte, so each half is cached
// independently and big-endian ordering matches Subsystem.ReadWord.
func (c *Cache) ReadWord(addr uint16) (uint16, error) {
	hi, err := c.ReadByte(addr)
	if err != nil {
		return 0, err
	}
	lo, err := c.ReadByte(addr + 1)
	if err != nil {
		return 0, err
	}
	return uint16(hi)<<8 | uint16(lo), nil
}

// WriteByte is write-through: it always commits to the backing memory.
// Whether it also updates/installs a cache line depends on
// WriteAllocation and whether the address already hits.
func (c *Cache) WriteByte(addr uint16, v byte) error {
	if err := c.backing.WriteByte(addr, v); err != nil {
		return err
	}

	index, tag := c.split(addr)
	set := c.sets[index]
	if i := c.lookup(set, tag); i >= 0 {
		set[i].data = v
		c.touch(&set[i])
		c.Hits++
		c.LastAccess = Access{Addr: addr, Hit: true}
		return nil
	}

	c.Misses++
	c.LastAccess = Access{Addr: addr, Hit: false}
	if c.cfg.WriteAllocation == WriteAllocate {
		idx := c.victim(set)
		c.install(set, idx, tag, v)
	}
	return nil
}

// WriteWord writes two bytes through WriteByte.
func (c *Cache) WriteWord(addr uint16, v uint16) error {
	if err := c.WriteByte(addr, byte(v>>8)); err != nil {
		return err
	}
	return c.WriteByte(addr+1, byte(v))
}

// Clear empties every cache line and the backing memory.
func (c *Cache) Clear() {
	for _, set := range c.sets {
		for i := range set {
			set[i] = line{}
		}
	}
	c.Hits, c.Misses = 0, 0
	c.backing.Clear()
}

// LoadValues writes through WriteByte so loaded bytes populate the
// cache exactly as a program run would.
func (c *Cache) LoadValues(base uint16, data []byte) error {
	for i, b := range data {
		if err := c.WriteByte(base+uint16(i), b); err != nil {
			return err
		}
	}
	return nil
}

var _ Interface = (*Cache)(nil)
