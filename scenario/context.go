package scenario

import "sync"

// Context is the scenario's property bag: string-keyed state shared
// between DSL calls within one scenario (and its forks), such as the
// pending topic name between Topic() and Produce(). It lives exactly as
// long as the scenario and is safe for concurrent use.
type Context struct {
	lock  sync.Mutex
	props map[string]interface{}
}

func NewContext() *Context {
	return &Context{props: make(map[string]interface{})}
}

func (c *Context) Set(key string, value interface{}) {
	c.lock.Lock()
	c.props[key] = value
	c.lock.Unlock()
}

// Get returns the stored value and whether the key was present, so absent
// keys are explicit rather than silently nil.
func (c *Context) Get(key string) (interface{}, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()
	v, ok := c.props[key]
	return v, ok
}

// GetString returns the value for key if it is present and a string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt returns the value for key if it is present and an int.
func (c *Context) GetInt(key string) (int, bool) {
	v, ok := c.Get(key)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

func (c *Context) Delete(key string) {
	c.lock.Lock()
	delete(c.props, key)
	c.lock.Unlock()
}

func (c *Context) Keys() []string {
	c.lock.Lock()
	defer c.lock.Unlock()
	keys := make([]string, 0, len(c.props))
	for k := range c.props {
		keys = append(keys, k)
	}
	return keys
}
