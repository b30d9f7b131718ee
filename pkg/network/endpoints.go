package network

import "sync"

// EndpointPool hands out WebSocket URIs round-robin, one per connection
// attempt.
type EndpointPool struct {
	mu   sync.Mutex
	uris []string
	next int
}

func NewEndpointPool(uris []string) (*EndpointPool, error) {
	if len(uris) == 0 {
		return nil, ErrNoEndpoints
	}
	pool := &EndpointPool{uris: make([]string, len(uris))}
	copy(pool.uris, uris)
	return pool, nil
}

// Next returns the next endpoint in rotation.
func (p *EndpointPool) Next() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	uri := p.uris[p.next]
	p.next = (p.next + 1) % len(p.uris)
	return uri
}

// Size returns the number of endpoints in the pool.
func (p *EndpointPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.uris)
}
