package scope

// minArrayCap is the smallest capacity class handed out for byte buffers.
const minArrayCap = 16

// Bytes is a pooled, variable-length byte buffer. Data is resliced to the
// requested length on allocation; capacity is sticky, so a recycled buffer
// serves any later request up to its capacity without reallocating.
type Bytes struct {
	Node
	Data []byte
}

// ArrayFactory produces pooled byte buffers in power-of-two capacity
// classes. Alongside the usual demand count it records the largest capacity
// ever requested, so a saved profile can preallocate buffers already big
// enough for the observed workload.
type ArrayFactory struct {
	f *Factory
}

// NewArrayFactory registers a byte-buffer factory under the given name.
func NewArrayFactory(name string) (*ArrayFactory, error) {
	af := &ArrayFactory{}
	f, err := Register(name, af.make, WithCleanup(resetBytes))
	if err != nil {
		return nil, err
	}
	af.f = f
	return af, nil
}

// MustNewArrayFactory is NewArrayFactory for package init paths.
func MustNewArrayFactory(name string) *ArrayFactory {
	af, err := NewArrayFactory(name)
	if err != nil {
		panic("scope: " + name + ": " + err.Error())
	}
	return af
}

func (af *ArrayFactory) make() Pooled {
	af.f.mu.Lock()
	c := af.f.targetCap
	af.f.mu.Unlock()
	if c < minArrayCap {
		c = minArrayCap
	}
	return &Bytes{Data: make([]byte, 0, ceilPow2(c))}
}

func resetBytes(obj Pooled) {
	b := obj.(*Bytes)
	b.Data = b.Data[:0]
}

// Factory returns the underlying factory, for profile wiring and stats.
func (af *ArrayFactory) Factory() *Factory { return af.f }

// New returns a buffer of the given length under the environment's current
// scope. A recycled buffer whose capacity is too small is regrown in place
// to the next power of two; the pool keeps the regrown buffer.
func (af *ArrayFactory) New(e *Env, length int) *Bytes {
	af.recordCap(length)
	b := af.f.New(e).(*Bytes)
	if cap(b.Data) < length {
		b.Data = make([]byte, 0, ceilPow2(length))
	}
	b.Data = b.Data[:length]
	return b
}

// NewHeap returns a heap-resident buffer of the given length.
func (af *ArrayFactory) NewHeap(length int) *Bytes {
	af.recordCap(length)
	b := af.f.NewHeap().(*Bytes)
	if cap(b.Data) < length {
		b.Data = make([]byte, 0, ceilPow2(length))
	}
	b.Data = b.Data[:length]
	return b
}

func (af *ArrayFactory) recordCap(length int) {
	f := af.f
	f.mu.Lock()
	if int64(length) > f.capHigh {
		f.capHigh = int64(length)
	}
	f.mu.Unlock()
}

// ceilPow2 rounds n up to the next power of two, with a floor of
// minArrayCap.
func ceilPow2(n int) int {
	c := minArrayCap
	for c < n {
		c <<= 1
	}
	return c
}
