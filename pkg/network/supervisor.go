package network

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/VeltaLabs/veltalk-client/pkg/crypto"
	"github.com/VeltaLabs/veltalk-client/pkg/session"
	"github.com/VeltaLabs/veltalk-client/pkg/wire"
)

// Supervisor owns one WebSocket connection and its full lifecycle:
// endpoint rotation, the handshake, keep-alive probing, dead-connection
// detection, and exponential-backoff reconnection. All mutable state is
// guarded by a single mutex; every timer armed by a state is cancelled
// before that state is left.
type Supervisor struct {
	cfg   Config
	log   zerolog.Logger
	store session.Store

	correlator *Correlator
	scheduler  *OutboundScheduler
	bus        *eventBus
	endpoints  *EndpointPool

	clientID string

	mu         sync.Mutex
	state      ConnectionState
	conn       *websocket.Conn
	endpoint   string
	attempts   int
	reconnect  bool
	generation int

	handshake *HandshakeEngine
	cipher    *crypto.CipherChannel
	creds     *session.Credentials

	keepAliveTimer *time.Timer
	pongTimer      *time.Timer
	reconnectTimer *time.Timer
	loopStop       chan struct{}

	// writeMu serializes socket writes; gorilla allows one writer at a time.
	writeMu sync.Mutex
}

// NewSupervisor builds a supervisor from a validated config. The store
// may be nil for sessions that should not persist.
func NewSupervisor(cfg Config, store session.Store, log zerolog.Logger) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool, err := NewEndpointPool(cfg.Endpoints)
	if err != nil {
		return nil, err
	}

	s := &Supervisor{
		cfg:        cfg,
		log:        log,
		store:      store,
		correlator: NewCorrelator(log),
		scheduler:  NewOutboundScheduler(log),
		bus:        newEventBus(),
		endpoints:  pool,
		state:      StateDisconnected,
	}

	if store != nil {
		creds, err := store.Load()
		if err != nil {
			log.Warn().Err(err).Msg("failed to load persisted session")
		} else if creds.Complete() {
			s.creds = creds
			log.Info().Msg("restored persisted session credentials")
		}
	}

	if s.creds != nil {
		s.clientID = s.creds.ClientID
	} else {
		s.clientID = session.NewClientID()
	}

	return s, nil
}

// State returns the current connection state.
func (s *Supervisor) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ClientID returns the device identifier used in control messages.
func (s *Supervisor) ClientID() string {
	return s.clientID
}

// Subscribe registers an event callback and returns its unsubscribe
// handle. Callbacks run on supervisor goroutines and must not block.
func (s *Supervisor) Subscribe(fn func(Event)) func() {
	return s.bus.subscribe(fn)
}

// Stats is a point-in-time snapshot for diagnostics.
type Stats struct {
	State           string `json:"state"`
	Endpoint        string `json:"endpoint"`
	Attempts        int    `json:"attempts"`
	PendingRequests int    `json:"pending_requests"`
	QueuedMessages  int    `json:"queued_messages"`
	Subscribers     int    `json:"subscribers"`
}

func (s *Supervisor) Stats() Stats {
	s.mu.Lock()
	st := Stats{
		State:    s.state.String(),
		Endpoint: s.endpoint,
		Attempts: s.attempts,
	}
	s.mu.Unlock()

	st.PendingRequests = s.correlator.Pending()
	st.QueuedMessages = s.scheduler.Len()
	st.Subscribers = s.bus.count()
	return st
}

// Connect opens a socket to the next endpoint in rotation and starts the
// handshake. It is a no-op when a connection is already in progress or
// established. The context bounds only the dial.
func (s *Supervisor) Connect(ctx context.Context) error {
	s.mu.Lock()
	if s.state.active() {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateClosing {
		s.mu.Unlock()
		return ErrClosed
	}
	s.reconnect = s.cfg.AutoReconnect
	s.setStateLocked(StateConnecting)
	endpoint := s.endpoints.Next()
	s.endpoint = endpoint
	attempt := s.attempts + 1
	s.mu.Unlock()

	s.log.Info().Str("endpoint", endpoint).Int("attempt", attempt).Msg("connecting")

	dialer := websocket.Dialer{HandshakeTimeout: s.cfg.ConnectTimeout}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		terr := &TransportError{Op: "dial", Endpoint: endpoint, Attempt: attempt, Err: err}
		s.connectFailed(terr)
		return terr
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// Disconnected while dialing.
		s.mu.Unlock()
		conn.Close()
		return ErrClosed
	}
	s.conn = conn
	s.generation++
	gen := s.generation
	stop := make(chan struct{})
	s.loopStop = stop
	s.scheduler.Reopen()
	conn.SetPongHandler(func(string) error {
		s.noteAlive(gen)
		return nil
	})
	s.setStateLocked(StateConnected)
	s.armKeepAliveLocked(gen)
	s.mu.Unlock()

	s.log.Info().Str("endpoint", endpoint).Msg("socket open")
	s.bus.publish(Event{Type: EventConnected, Endpoint: endpoint})

	go s.readLoop(conn, gen)
	go s.sweepLoop(stop)
	go s.dispatchLoop(gen, stop)
	go s.authenticate(gen)

	return nil
}

// connectFailed handles a dial error: count the attempt, fall back to
// Disconnected, and schedule a retry when the budget allows.
func (s *Supervisor) connectFailed(cause *TransportError) {
	s.mu.Lock()
	s.attempts++
	attempt := s.attempts
	s.cancelTimersLocked()
	s.setStateLocked(StateDisconnected)
	auto := s.reconnect
	s.mu.Unlock()

	s.log.Warn().Err(cause).Msg("connect failed")
	if auto {
		s.scheduleReconnect(attempt, cause)
	}
}

// Disconnect tears the connection down deliberately: auto-reconnect is
// disabled, every timer is cancelled, pending requests and queued sends
// are rejected, and a best-effort goodbye frame precedes the close.
// Safe to call repeatedly.
func (s *Supervisor) Disconnect() error {
	s.mu.Lock()
	hadWork := s.state != StateDisconnected || s.conn != nil || s.reconnectTimer != nil
	s.reconnect = false
	s.generation++
	conn := s.conn
	s.conn = nil
	if hadWork {
		s.setStateLocked(StateClosing)
	}
	s.cancelTimersLocked()
	s.setStateLocked(StateDisconnected)
	s.mu.Unlock()

	if conn != nil {
		s.sendGoodbye(conn)
		conn.Close()
	}

	s.correlator.FailAll(ErrClosed)
	s.scheduler.Close(ErrClosed)

	if hadWork {
		s.bus.publish(Event{Type: EventDisconnected})
	}
	return nil
}

// Logout disconnects, clears the persisted session, and wipes all key
// material. The next Connect runs the full QR pairing flow.
func (s *Supervisor) Logout() error {
	if err := s.Disconnect(); err != nil {
		return err
	}

	s.mu.Lock()
	creds := s.creds
	cipher := s.cipher
	s.creds = nil
	s.cipher = nil
	s.mu.Unlock()

	creds.Wipe()
	if cipher != nil {
		cipher.Wipe()
	}

	if s.store != nil {
		if err := s.store.Clear(); err != nil {
			return fmt.Errorf("clear session store: %w", err)
		}
	}
	return nil
}

// SendRequest writes a correlated control frame and returns the channel
// that will receive the response or the terminating error.
func (s *Supervisor) SendRequest(tag string, body []byte, timeout time.Duration) (<-chan Result, error) {
	return s.sendRequest(tag, "request", body, timeout)
}

func (s *Supervisor) sendRequest(tag, description string, body []byte, timeout time.Duration) (<-chan Result, error) {
	s.mu.Lock()
	conn := s.conn
	endpoint := s.endpoint
	s.mu.Unlock()

	if conn == nil {
		return nil, ErrNotConnected
	}

	ch, err := s.correlator.Register(tag, description, timeout)
	if err != nil {
		return nil, err
	}

	if err := s.writeMessage(conn, websocket.TextMessage, BuildTextFrame(tag, body)); err != nil {
		s.correlator.Fail(tag, &TransportError{Op: "write", Endpoint: endpoint, Err: err})
	}
	return ch, nil
}

// SendNode queues an application node for encrypted delivery once the
// connection is Ready. Rate limiting is applied by the dispatch loop;
// waiting in the queue is not an error.
func (s *Supervisor) SendNode(n *wire.Node) (*OutboundMessage, error) {
	payload, err := wire.Encode(n)
	if err != nil {
		return nil, err
	}
	return s.scheduler.Enqueue(NewTag(), payload)
}

// writeMessage serializes writes and applies a write deadline.
func (s *Supervisor) writeMessage(conn *websocket.Conn, messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(s.cfg.ConnectTimeout))
	return conn.WriteMessage(messageType, data)
}

func (s *Supervisor) sendGoodbye(conn *websocket.Conn) {
	body, err := json.Marshal([]any{"admin", "Conn", "disconnect"})
	if err != nil {
		return
	}
	frame := BuildTextFrame(NewTag(), body)
	if err := s.writeMessage(conn, websocket.TextMessage, frame); err != nil {
		s.log.Debug().Err(err).Msg("goodbye frame not delivered")
	}
}

func (s *Supervisor) setStateLocked(next ConnectionState) {
	if s.state == next {
		return
	}
	s.log.Debug().Str("from", s.state.String()).Str("to", next.String()).Msg("state transition")
	s.state = next
}

// cancelTimersLocked stops every armed timer and the per-connection
// loops. Must run before any transition that leaves a timered state so
// stale timers cannot fire afterwards.
func (s *Supervisor) cancelTimersLocked() {
	if s.keepAliveTimer != nil {
		s.keepAliveTimer.Stop()
		s.keepAliveTimer = nil
	}
	if s.pongTimer != nil {
		s.pongTimer.Stop()
		s.pongTimer = nil
	}
	if s.reconnectTimer != nil {
		s.reconnectTimer.Stop()
		s.reconnectTimer = nil
	}
	if s.loopStop != nil {
		close(s.loopStop)
		s.loopStop = nil
	}
}

// ===== KEEP-ALIVE =====

func (s *Supervisor) armKeepAliveLocked(gen int) {
	if s.keepAliveTimer != nil {
		s.keepAliveTimer.Stop()
	}
	s.keepAliveTimer = time.AfterFunc(s.cfg.KeepAliveInterval, func() {
		s.keepAliveTick(gen)
	})
}

// keepAliveTick sends the liveness probe plus a transport ping and arms
// the pong deadline. A missed deadline takes the dead-connection path.
func (s *Supervisor) keepAliveTick(gen int) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	endpoint := s.endpoint
	if conn == nil {
		s.mu.Unlock()
		s.deadConnection(gen, &TransportError{Op: "keepalive", Endpoint: endpoint, Err: errors.New("socket not open")})
		return
	}
	if s.pongTimer != nil {
		s.pongTimer.Stop()
	}
	s.pongTimer = time.AfterFunc(s.cfg.PongTimeout, func() {
		s.deadConnection(gen, &TransportError{Op: "keepalive", Endpoint: endpoint, Err: errors.New("pong deadline exceeded")})
	})
	s.armKeepAliveLocked(gen)
	s.mu.Unlock()

	if err := s.writeMessage(conn, websocket.TextMessage, []byte(KeepAliveProbe)); err != nil {
		s.deadConnection(gen, &TransportError{Op: "keepalive", Endpoint: endpoint, Err: err})
		return
	}
	conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.PongTimeout))
}

// noteAlive cancels the pong deadline; any inbound traffic counts as
// proof of life.
func (s *Supervisor) noteAlive(gen int) {
	s.mu.Lock()
	if gen == s.generation && s.pongTimer != nil {
		s.pongTimer.Stop()
		s.pongTimer = nil
	}
	s.mu.Unlock()
}

// deadConnection runs exactly once per detection: the generation bump
// stales every other callback of this connection.
func (s *Supervisor) deadConnection(gen int, cause error) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.cancelTimersLocked()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.cipher = nil
	s.handshake = nil
	s.attempts++
	attempt := s.attempts
	endpoint := s.endpoint
	s.setStateLocked(StateDisconnected)
	auto := s.reconnect
	s.mu.Unlock()

	s.log.Warn().Err(cause).Str("endpoint", endpoint).Int("attempt", attempt).Msg("connection lost")

	s.correlator.FailAll(cause)
	s.bus.publish(Event{
		Type:     EventConnectionLost,
		Endpoint: endpoint,
		Attempt:  attempt,
		Err:      cause,
	})

	if auto {
		s.scheduleReconnect(attempt, cause)
	}
}

// ===== LOOPS =====

func (s *Supervisor) readLoop(conn *websocket.Conn, gen int) {
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			s.mu.Lock()
			endpoint := s.endpoint
			s.mu.Unlock()
			s.deadConnection(gen, &TransportError{Op: "read", Endpoint: endpoint, Err: err})
			return
		}

		s.noteAlive(gen)

		switch messageType {
		case websocket.TextMessage:
			s.handleTextFrame(gen, data)
		case websocket.BinaryMessage:
			s.handleBinaryFrame(data)
		}
	}
}

func (s *Supervisor) sweepLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			s.correlator.Sweep(now)
		}
	}
}

// dispatchLoop drains the outbound queue at the configured rate, one
// message per tick, only while the connection is Ready.
func (s *Supervisor) dispatchLoop(gen int, stop <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.dispatchTick())
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if gen != s.generation {
				s.mu.Unlock()
				return
			}
			ready := s.state == StateReady
			conn := s.conn
			cipher := s.cipher
			endpoint := s.endpoint
			s.mu.Unlock()

			if !ready || conn == nil || cipher == nil {
				continue
			}

			msg, ok := s.scheduler.Dequeue()
			if !ok {
				continue
			}

			blob, err := cipher.Encrypt(msg.Payload)
			if err != nil {
				msg.finish(err)
				continue
			}

			frame := BuildBinaryFrame(msg.Tag, MetricMessage, FlagNone, blob)
			if err := s.writeMessage(conn, websocket.BinaryMessage, frame); err != nil {
				s.scheduler.Requeue(msg)
				s.deadConnection(gen, &TransportError{Op: "write", Endpoint: endpoint, Err: err})
				return
			}
			msg.finish(nil)
		}
	}
}

// ===== INBOUND FRAMES =====

func (s *Supervisor) handleTextFrame(gen int, data []byte) {
	tag, body := SplitFrame(data)

	if tag != "" && s.correlator.Resolve(tag, body, nil) {
		return
	}

	if len(body) == 0 || body[0] != '[' {
		s.log.Debug().Str("tag", tag).Msg("uncorrelated text frame dropped")
		return
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(body, &arr); err != nil || len(arr) < 2 {
		s.log.Debug().Err(err).Msg("malformed control message dropped")
		return
	}

	var kind string
	if err := json.Unmarshal(arr[0], &kind); err != nil {
		s.log.Debug().Err(err).Msg("control message without kind dropped")
		return
	}

	switch kind {
	case "Conn":
		s.handleConnInfo(gen, arr[1])
	case "Cmd":
		s.handleCommand(arr[1])
	default:
		s.log.Debug().Str("kind", kind).Msg("unhandled control message")
	}
}

// handleBinaryFrame decrypts and decodes one application frame. A frame
// that fails authentication or decoding is logged and dropped; the
// connection stays up.
func (s *Supervisor) handleBinaryFrame(data []byte) {
	tag, _, _, blob, err := ParseBinaryFrame(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("malformed binary frame dropped")
		return
	}

	s.mu.Lock()
	cipher := s.cipher
	s.mu.Unlock()

	if cipher == nil {
		s.log.Warn().Str("tag", tag).Msg("binary frame before authentication dropped")
		return
	}

	plain, err := cipher.Decrypt(blob)
	if err != nil {
		s.log.Warn().Err(err).Str("tag", tag).Msg("frame failed authentication, dropped")
		return
	}

	node, err := wire.Decode(plain)
	if err != nil {
		s.log.Warn().Err(err).Str("tag", tag).Msg("frame failed decoding, dropped")
		return
	}

	if s.correlator.Resolve(tag, plain, node) {
		return
	}

	s.bus.publish(Event{Type: EventMessage, Node: node})
}

// ===== AUTHENTICATION =====

// authenticate runs the handshake for one connection: init first, then
// either the login/takeover restore path or the QR pairing flow.
func (s *Supervisor) authenticate(gen int) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateAuthenticating)
	creds := s.creds
	s.mu.Unlock()

	ref, err := s.sendInit()
	if err != nil {
		s.handshakeFailed(gen, err)
		return
	}

	if creds.Complete() {
		switch err := s.sendLogin(creds); {
		case err == nil:
			cipher, err := NewHandshakeEngine(s.log, s.clientID).Restore(creds)
			if err != nil {
				s.handshakeFailed(gen, err)
				return
			}
			s.mu.Lock()
			if gen != s.generation {
				s.mu.Unlock()
				return
			}
			s.cipher = cipher
			s.mu.Unlock()
			s.log.Info().Msg("session restored via takeover")
			s.postAuth(gen)
			return
		case !errors.Is(err, ErrLoginRejected):
			// Transport trouble or a timeout is not a verdict on the
			// credentials: keep them for the next attempt.
			s.handshakeFailed(gen, err)
			return
		}
		s.log.Warn().Msg("takeover rejected, falling back to pairing")
		s.mu.Lock()
		s.creds = nil
		s.mu.Unlock()
		creds.Wipe()
	}

	// QR pairing flow: emit the payload and wait for the server's
	// out-of-band confirmation, which arrives as a Conn control message.
	engine := NewHandshakeEngine(s.log, s.clientID)
	if err := engine.Begin(); err != nil {
		s.handshakeFailed(gen, err)
		return
	}
	engine.SetServerRef(ref)

	qr, err := engine.QRPayload()
	if err != nil {
		s.handshakeFailed(gen, err)
		return
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		engine.Abort()
		return
	}
	s.handshake = engine
	s.mu.Unlock()

	s.bus.publish(Event{Type: EventQR, QR: qr})
}

type initReply struct {
	Status int    `json:"status"`
	Ref    string `json:"ref"`
	TTL    int64  `json:"ttl"`
}

func (s *Supervisor) sendInit() (string, error) {
	body, err := json.Marshal([]any{
		"admin", "init",
		ProtocolVersion,
		[]string{s.cfg.ClientName, s.cfg.BrowserName},
		s.clientID,
		true,
	})
	if err != nil {
		return "", &HandshakeError{Stage: "init", Err: err}
	}

	ch, err := s.sendRequest(NewTag(), "admin init", body, s.cfg.ResponseTimeout)
	if err != nil {
		return "", &HandshakeError{Stage: "init", Err: err}
	}

	res := <-ch
	if res.Err != nil {
		return "", &HandshakeError{Stage: "init", Err: res.Err}
	}

	var reply initReply
	if err := json.Unmarshal(res.Body, &reply); err != nil {
		return "", &HandshakeError{Stage: "init", Err: err}
	}
	if reply.Status != 200 {
		return "", &HandshakeError{Stage: "init", Err: fmt.Errorf("server status %d", reply.Status)}
	}
	return reply.Ref, nil
}

func (s *Supervisor) sendLogin(creds *session.Credentials) error {
	body, err := json.Marshal([]any{
		"admin", "login",
		creds.ClientToken,
		creds.ServerToken,
		s.clientID,
		"takeover",
	})
	if err != nil {
		return &HandshakeError{Stage: "login", Err: err}
	}

	ch, err := s.sendRequest(NewTag(), "admin login", body, s.cfg.ResponseTimeout)
	if err != nil {
		return &HandshakeError{Stage: "login", Err: err}
	}

	res := <-ch
	if res.Err != nil {
		return &HandshakeError{Stage: "login", Err: res.Err}
	}

	var reply initReply
	if err := json.Unmarshal(res.Body, &reply); err != nil {
		return &HandshakeError{Stage: "login", Err: err}
	}
	if reply.Status != 200 {
		return &HandshakeError{Stage: "login", Err: fmt.Errorf("%w: server status %d", ErrLoginRejected, reply.Status)}
	}
	return nil
}

type connInfoPayload struct {
	Ref         string `json:"ref"`
	Secret      string `json:"secret"`
	ClientToken string `json:"clientToken"`
	ServerToken string `json:"serverToken"`
}

// handleConnInfo completes the QR flow: key agreement, validation, key
// bundle decryption, persistence, and promotion to Ready.
func (s *Supervisor) handleConnInfo(gen int, raw json.RawMessage) {
	s.mu.Lock()
	engine := s.handshake
	s.mu.Unlock()

	if engine == nil {
		s.log.Debug().Msg("connection info with no handshake in progress")
		return
	}

	var payload connInfoPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		// Mid-handshake decode failures are fatal to the attempt.
		s.handshakeFailed(gen, &HandshakeError{Stage: "conn-info", Err: err})
		return
	}

	secret, err := base64.StdEncoding.DecodeString(payload.Secret)
	if err != nil {
		s.handshakeFailed(gen, &HandshakeError{Stage: "conn-info", Err: err})
		return
	}

	creds, cipher, err := engine.ProcessConnInfo(ConnInfo{
		Secret:      secret,
		ClientToken: payload.ClientToken,
		ServerToken: payload.ServerToken,
	})
	if err != nil {
		s.handshakeFailed(gen, err)
		return
	}

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.creds = creds
	s.cipher = cipher
	s.handshake = nil
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Save(creds); err != nil {
			s.log.Warn().Err(err).Msg("failed to persist session credentials")
		}
	}

	s.postAuth(gen)
}

// postAuth walks Authenticated -> Ready and resets the attempt budget;
// the counter only resets once the connection is fully usable.
func (s *Supervisor) postAuth(gen int) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateAuthenticated)
	s.mu.Unlock()
	s.bus.publish(Event{Type: EventAuthenticated})

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.setStateLocked(StateReady)
	s.attempts = 0
	s.mu.Unlock()
	s.bus.publish(Event{Type: EventReady})
}

// handshakeFailed aborts the current attempt, discards intermediate key
// material, and hands the connection to the dead-connection path so the
// next attempt starts with fresh ephemeral keys.
func (s *Supervisor) handshakeFailed(gen int, err error) {
	if errors.Is(err, ErrClosed) {
		return
	}

	s.mu.Lock()
	engine := s.handshake
	s.handshake = nil
	s.mu.Unlock()

	if engine != nil {
		engine.Abort()
	}

	s.log.Error().Err(err).Msg("handshake failed")
	s.bus.publish(Event{Type: EventAuthFailure, Err: err})
	s.deadConnection(gen, err)
}

type challengePayload struct {
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
}

// handleCommand answers post-authentication server challenges by
// encrypting the challenge bytes under the session keys.
func (s *Supervisor) handleCommand(raw json.RawMessage) {
	var cmd challengePayload
	if err := json.Unmarshal(raw, &cmd); err != nil {
		s.log.Debug().Err(err).Msg("malformed command dropped")
		return
	}
	if cmd.Type != "challenge" {
		s.log.Debug().Str("type", cmd.Type).Msg("unhandled command")
		return
	}

	challenge, err := base64.StdEncoding.DecodeString(cmd.Challenge)
	if err != nil {
		s.log.Warn().Err(err).Msg("challenge payload not base64")
		return
	}

	s.mu.Lock()
	cipher := s.cipher
	creds := s.creds
	s.mu.Unlock()

	if cipher == nil || creds == nil {
		s.log.Warn().Msg("challenge before session keys established")
		return
	}

	enc, err := cipher.Encrypt(challenge)
	if err != nil {
		s.log.Error().Err(err).Msg("challenge encryption failed")
		return
	}

	body, err := json.Marshal([]any{
		"admin", "challenge",
		base64.StdEncoding.EncodeToString(enc),
		creds.ServerToken,
		s.clientID,
	})
	if err != nil {
		return
	}

	go func() {
		ch, err := s.sendRequest(NewTag(), "challenge response", body, s.cfg.ResponseTimeout)
		if err != nil {
			s.log.Warn().Err(err).Msg("challenge response not sent")
			return
		}
		if res := <-ch; res.Err != nil {
			s.log.Warn().Err(res.Err).Msg("challenge response rejected")
		}
	}()
}
