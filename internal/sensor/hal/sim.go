package hal

import "sync"

// SimAnalog is a scriptable analog line for development runs and tests.
// Set Value or Err between reads to shape the next sample.
type SimAnalog struct {
	mu    sync.Mutex
	value int
	err   error
}

func NewSimAnalog(value int) *SimAnalog {
	return &SimAnalog{value: value}
}

func (a *SimAnalog) Read() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.value, a.err
}

func (a *SimAnalog) SetValue(v int) {
	a.mu.Lock()
	a.value = v
	a.mu.Unlock()
}

func (a *SimAnalog) Fail(err error) {
	a.mu.Lock()
	a.err = err
	a.mu.Unlock()
}

// SimDigital is a scriptable digital line.
type SimDigital struct {
	mu    sync.Mutex
	level bool
	err   error
}

func NewSimDigital(level bool) *SimDigital {
	return &SimDigital{level: level}
}

func (d *SimDigital) Read() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level, d.err
}

func (d *SimDigital) SetLevel(level bool) {
	d.mu.Lock()
	d.level = level
	d.mu.Unlock()
}

func (d *SimDigital) Fail(err error) {
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

// SimOutput records the levels written to it.
type SimOutput struct {
	mu     sync.Mutex
	level  bool
	writes []bool
}

func (o *SimOutput) Set(on bool) error {
	o.mu.Lock()
	o.level = on
	o.writes = append(o.writes, on)
	o.mu.Unlock()
	return nil
}

func (o *SimOutput) Level() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

func (o *SimOutput) Writes() []bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]bool, len(o.writes))
	copy(out, o.writes)
	return out
}
