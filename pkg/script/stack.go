package script

import "github.com/Klingon-tech/klingnet-ledger/config"

// Stack is the interpreter's main stack plus the alt stack. The combined
// depth is bounded by config.MaxStackSize.
type Stack struct {
	main []Entry
	alt  []Entry
}

// Depth returns the number of items on the main stack.
func (s *Stack) Depth() int { return len(s.main) }

// Items returns a copy of the main stack, bottom first.
func (s *Stack) Items() []Entry {
	out := make([]Entry, len(s.main))
	copy(out, s.main)
	return out
}

func (s *Stack) push(e Entry) error {
	if len(s.main)+len(s.alt) >= config.MaxStackSize {
		return ErrStackOverflow
	}
	if len(e.Data) > config.MaxScriptItemSize {
		return ErrItemTooLarge
	}
	s.main = append(s.main, e)
	return nil
}

func (s *Stack) pop() (Entry, error) {
	if len(s.main) == 0 {
		return Entry{}, ErrStackUnderflow
	}
	e := s.main[len(s.main)-1]
	s.main = s.main[:len(s.main)-1]
	return e, nil
}

// peek returns the item n positions below the top (0 = top).
func (s *Stack) peek(n int) (Entry, error) {
	if n < 0 || n >= len(s.main) {
		return Entry{}, ErrStackUnderflow
	}
	return s.main[len(s.main)-1-n], nil
}

// need fails unless at least n items are on the main stack.
func (s *Stack) need(n int) error {
	if len(s.main) < n {
		return ErrStackUnderflow
	}
	return nil
}

func (s *Stack) popKind(k Kind) (Entry, error) {
	e, err := s.pop()
	if err != nil {
		return Entry{}, err
	}
	if e.Kind != k {
		return Entry{}, ErrTypeMismatch
	}
	return e, nil
}

func (s *Stack) popNum() (uint64, error) {
	e, err := s.popKind(KindNum)
	return e.Num, err
}

func (s *Stack) popBytes() ([]byte, error) {
	e, err := s.popKind(KindBytes)
	return e.Data, err
}

func (s *Stack) pushBool(v bool) error {
	if v {
		return s.push(Num(1))
	}
	return s.push(Num(0))
}

// remove deletes the item n positions below the top and returns it.
func (s *Stack) remove(n int) (Entry, error) {
	if n < 0 || n >= len(s.main) {
		return Entry{}, ErrIndexOutOfRange
	}
	i := len(s.main) - 1 - n
	e := s.main[i]
	s.main = append(s.main[:i], s.main[i+1:]...)
	return e, nil
}

func (s *Stack) toAlt() error {
	e, err := s.pop()
	if err != nil {
		return err
	}
	s.alt = append(s.alt, e)
	return nil
}

func (s *Stack) fromAlt() error {
	if len(s.alt) == 0 {
		return ErrStackUnderflow
	}
	e := s.alt[len(s.alt)-1]
	s.alt = s.alt[:len(s.alt)-1]
	s.main = append(s.main, e)
	return nil
}

// condStack tracks nested IF/NOTIF/ELSE branches without storing every
// flag: only the depth and the position of the first false branch.
type condStack struct {
	size       int
	firstFalse int // -1 when every branch is executing
}

func newCondStack() condStack { return condStack{firstFalse: -1} }

func (c *condStack) empty() bool { return c.size == 0 }

func (c *condStack) allTrue() bool { return c.firstFalse < 0 }

func (c *condStack) push(v bool) {
	if c.firstFalse < 0 && !v {
		c.firstFalse = c.size
	}
	c.size++
}

func (c *condStack) pop() error {
	if c.size == 0 {
		return ErrUnbalancedConditional
	}
	c.size--
	if c.firstFalse == c.size {
		c.firstFalse = -1
	}
	return nil
}

func (c *condStack) toggle() error {
	if c.size == 0 {
		return ErrUnbalancedConditional
	}
	switch c.firstFalse {
	case -1:
		c.firstFalse = c.size - 1
	case c.size - 1:
		c.firstFalse = -1
	}
	return nil
}
