package sandbox

import "sync"

// truncationMarker is appended when captured output exceeds the byte cap.
const truncationMarker = "\n[output truncated]"

// collector buffers process output up to a byte cap. Writes past the cap are
// accepted and discarded so the pipe never blocks the child.
type collector struct {
	mu        sync.Mutex
	maxBytes  int
	buf       []byte
	truncated bool
}

func newCollector(maxBytes int) *collector {
	return &collector{maxBytes: maxBytes}
}

func (c *collector) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.truncated {
		return len(p), nil
	}
	space := c.maxBytes - len(c.buf)
	if space <= 0 {
		c.truncated = true
		return len(p), nil
	}
	if len(p) > space {
		c.buf = append(c.buf, p[:space]...)
		c.truncated = true
		return len(p), nil
	}
	c.buf = append(c.buf, p...)
	return len(p), nil
}

func (c *collector) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.truncated {
		return string(c.buf) + truncationMarker
	}
	return string(c.buf)
}

func (c *collector) Truncated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.truncated
}
