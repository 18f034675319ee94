// Package ws serves the realtime websocket surface.
package ws

import (
	"agora/auth"
	"agora/contract"
	"agora/domain"
	"agora/domain/event"
	"agora/errors"
	"agora/services"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/lo"
)

const inflightTimeout = 5 * time.Second

// Server upgrades authenticated requests and dispatches inbound frames.
// Frames of one connection are handled in arrival order.
type Server struct {
	log      *slog.Logger
	gateway  auth.ISessionGateway
	chat     services.IChatService
	relay    services.ISignalRelay
	lounge   services.ILoungeService
	router   contract.RoomRouter
	options  Options
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*Connection
	wg    sync.WaitGroup
}

func NewServer(
	log *slog.Logger,
	gateway auth.ISessionGateway,
	chat services.IChatService,
	relay services.ISignalRelay,
	lounge services.ILoungeService,
	router contract.RoomRouter,
	options Options,
	allowedOrigins []string,
) *Server {
	return &Server{
		log:     log,
		gateway: gateway,
		chat:    chat,
		relay:   relay,
		lounge:  lounge,
		router:  router,
		options: options,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		conns: make(map[string]*Connection),
	}
}

// originChecker accepts every origin when none is configured and requests without an Origin header.
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return len(allowed) == 0 || origin == "" || lo.Contains(allowed, origin)
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Authentication failures end the attempt before any upgrade
	identity, err := s.gateway.Authenticate(r.Context(), r)
	if err != nil {
		s.log.Debug("Websocket authentication failed", "remote", r.RemoteAddr, "error", err)
		http.Error(w, err.Error(), errors.HTTPStatus(err))
		return
	}
	socket, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response
		s.log.Debug("Websocket upgrade failed", "user_id", identity.ID, "error", err)
		return
	}

	conn := NewConnection(s.log, identity.ID, socket, s.options)
	conn.Start()
	s.track(conn)
	defer s.untrack(conn)

	ctx := context.WithoutCancel(r.Context())
	if err := s.gateway.Attach(ctx, identity, conn); err != nil {
		s.log.Warn("Presence fanout failed", "user_id", identity.ID, "error", err)
	}
	defer func() {
		if err := s.lounge.Leave(ctx, conn); err != nil {
			s.log.Warn("Lounge fanout failed", "user_id", identity.ID, "error", err)
		}
		s.gateway.Detach(ctx, conn)
		conn.closeWith(websocket.CloseNormalClosure, "session closed")
	}()
	s.reply(conn, event.Connected{Identity: identity.Profile()})
	s.log.Info("Session attached", "user_id", identity.ID, "transport", conn.ID())

	conn.prepareRead()
	for {
		data, err := conn.read()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				s.log.Debug("Websocket read ended", "user_id", identity.ID, "error", err)
			}
			return
		}
		var frame event.Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.replyError(conn, errors.ErrInvalidPayload)
			continue
		}
		opCtx, cancel := context.WithTimeout(ctx, inflightTimeout)
		err = s.dispatch(opCtx, identity, conn, frame)
		cancel()
		if err != nil {
			s.log.Debug("Inbound event rejected", "user_id", identity.ID, "event", frame.Event, "error", err)
			s.replyError(conn, err)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, identity domain.Identity, conn *Connection, frame event.Frame) error {
	switch frame.Event {
	case event.InJoinRoom:
		var in event.JoinRoom
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		if err := s.authorizeJoin(ctx, identity.ID, in.Room); err != nil {
			return err
		}
		s.router.Join(in.Room, conn)
		s.reply(conn, event.RoomJoined{Room: in.Room})
		return nil
	case event.InLeaveRoom:
		var in event.LeaveRoom
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		if reserved(in.Room) {
			return errors.ErrReservedRoom
		}
		s.router.Leave(in.Room, conn)
		s.reply(conn, event.RoomLeft{Room: in.Room})
		return nil
	case event.InTyping:
		var in event.TypingInput
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return s.chat.Typing(ctx, identity.ID, in.ConversationID, in.IsTyping)
	case event.InCallStart:
		var in event.CallStartInput
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return s.relay.Start(ctx, identity.Profile(), in)
	case event.InCallSignal:
		var in event.CallSignalInput
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		return s.relay.Signal(ctx, identity.ID, in)
	case event.InCallRejected, event.InCallEnded:
		var in event.CallRoomInput
		if err := decode(frame.Data, &in); err != nil {
			return err
		}
		if frame.Event == event.InCallRejected {
			return s.relay.Reject(ctx, identity.ID, in)
		}
		return s.relay.End(ctx, identity.ID, in)
	case event.InLoungeJoin:
		return s.lounge.Join(ctx, conn)
	case event.InLoungeLeave:
		return s.lounge.Leave(ctx, conn)
	case event.InLoungeToggleMute:
		return s.lounge.ToggleMute(ctx, conn)
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownEvent, frame.Event)
	}
}

// authorizeJoin admits conversation rooms to participants only. A room matching
// no conversation is a call or live room and is open.
func (s *Server) authorizeJoin(ctx context.Context, identityID, room string) error {
	if reserved(room) {
		return errors.ErrReservedRoom
	}
	err := s.chat.AuthorizeJoin(ctx, identityID, room)
	if errors.Is(err, errors.ErrConversationNotFound) {
		return nil
	}
	return err
}

func reserved(room string) bool {
	return domain.IsUserAddress(room) || room == domain.LoungeRoom || room == domain.PresenceRoom
}

func decode(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return errors.ErrInvalidPayload
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrInvalidPayload, err.Error())
	}
	return auth.Validate(out)
}

func (s *Server) reply(conn *Connection, evt event.Outbound) {
	frame, err := event.Encode(evt)
	if err != nil {
		s.log.Error("Frame encoding failed", "event", evt.Name(), "error", err)
		return
	}
	_ = conn.Send(frame)
}

func (s *Server) replyError(conn *Connection, err error) {
	s.reply(conn, event.Error{Code: errors.Code(err), Message: err.Error()})
}

func (s *Server) track(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wg.Add(1)
	s.conns[conn.ID()] = conn
}

func (s *Server) untrack(conn *Connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn.ID())
	s.wg.Done()
}

// Shutdown closes every live connection and waits for their sessions to detach.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	conns := lo.Values(s.conns)
	s.mu.Unlock()
	for _, conn := range conns {
		conn.Close("server shutting down")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
