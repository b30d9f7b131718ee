package network

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/VeltaLabs/veltalk-client/pkg/wire"
)

// Result carries a correlated response or the error that terminated the
// wait. For binary frames Node holds the decoded payload; Body is the
// raw response bytes in either case.
type Result struct {
	Body []byte
	Node *wire.Node
	Err  error
}

type pendingRequest struct {
	tag         string
	description string
	deadline    time.Time
	started     time.Time
	ch          chan Result
}

// Correlator matches inbound tagged responses to the requests that
// produced them. It owns no transport: the supervisor registers a tag
// before writing the frame and feeds inbound frames through Resolve.
type Correlator struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
	log     zerolog.Logger
}

func NewCorrelator(log zerolog.Logger) *Correlator {
	return &Correlator{
		pending: make(map[string]*pendingRequest),
		log:     log,
	}
}

// Register creates a pending entry for tag. The returned channel
// receives exactly one Result. Tag reuse while a request is pending is
// an error.
func (c *Correlator) Register(tag, description string, timeout time.Duration) (<-chan Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.pending[tag]; exists {
		return nil, ErrDuplicateTag
	}

	now := time.Now()
	req := &pendingRequest{
		tag:         tag,
		description: description,
		deadline:    now.Add(timeout),
		started:     now,
		ch:          make(chan Result, 1),
	}
	c.pending[tag] = req
	return req.ch, nil
}

// Resolve routes a response body to the pending entry for tag and
// removes it. A tag with no pending entry (already resolved, timed out,
// or never sent) returns false and the frame is left to the caller.
func (c *Correlator) Resolve(tag string, body []byte, node *wire.Node) bool {
	c.mu.Lock()
	req, ok := c.pending[tag]
	if ok {
		delete(c.pending, tag)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}

	req.ch <- Result{Body: body, Node: node}
	return true
}

// Fail rejects a single pending entry.
func (c *Correlator) Fail(tag string, err error) bool {
	c.mu.Lock()
	req, ok := c.pending[tag]
	if ok {
		delete(c.pending, tag)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	req.ch <- Result{Err: err}
	return true
}

// Sweep rejects every entry whose deadline has elapsed and returns how
// many were rejected. Only the expired caller is affected; the
// connection is left alone.
func (c *Correlator) Sweep(now time.Time) int {
	c.mu.Lock()
	var expired []*pendingRequest
	for tag, req := range c.pending {
		if now.After(req.deadline) {
			expired = append(expired, req)
			delete(c.pending, tag)
		}
	}
	c.mu.Unlock()

	for _, req := range expired {
		c.log.Debug().Str("tag", req.tag).Str("request", req.description).Msg("request timed out")
		req.ch <- Result{Err: &TimeoutError{
			Tag:         req.tag,
			Description: req.description,
			After:       now.Sub(req.started),
		}}
	}
	return len(expired)
}

// FailAll rejects every pending entry with err. Used on disconnect and
// dead-connection detection so no caller is left hanging.
func (c *Correlator) FailAll(err error) {
	c.mu.Lock()
	all := make([]*pendingRequest, 0, len(c.pending))
	for _, req := range c.pending {
		all = append(all, req)
	}
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	for _, req := range all {
		req.ch <- Result{Err: err}
	}
}

// Pending returns the number of outstanding requests.
func (c *Correlator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
