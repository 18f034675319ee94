package e2e

import (
	"agora/auth"
	"agora/domain/event"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

type BaseSuite struct {
	suite.Suite
	Config   Config
	verifier *auth.TokenVerifier
}

// SetupSuite loads the environment and skips when no gateway is configured.
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.GatewayHTTP == "" {
		s.T().Skip("GATEWAY_HTTP_ADDR not set")
	}
	s.verifier = auth.NewTokenVerifier(s.Config.JWTSecret, s.Config.JWTIssuer)
}

func (s *BaseSuite) header(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// GrpcConn dials the health endpoint with a logging interceptor.
func (s *BaseSuite) GrpcConn(name string) *grpc.ClientConn {
	s.header(name)
	marshaler := protojson.MarshalOptions{UseProtoNames: true, Multiline: true, EmitUnpopulated: true}

	conn, err := grpc.NewClient(s.Config.GatewayGRPC,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			start := time.Now()
			err := invoker(ctx, method, req, reply, cc, opts...)

			logBuilder := strings.Builder{}
			fmt.Fprintf(&logBuilder, "GRPC %s [%s] in %v", method, status.Code(err), time.Since(start))
			if s.Config.DebugJSON {
				fmt.Fprintln(&logBuilder, "\nREQUEST:")
				fmt.Fprintln(&logBuilder, marshaler.Format(req.(proto.Message)))
				if err == nil {
					fmt.Fprintln(&logBuilder, "RESPONSE:")
					fmt.Fprintln(&logBuilder, marshaler.Format(reply.(proto.Message)))
				}
			}
			s.T().Log(logBuilder.String())
			return err
		}),
	)
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GatewayGRPC)
	return conn
}

func (s *BaseSuite) Token(identityID string) string {
	token, err := s.verifier.Issue(identityID, "member", time.Hour)
	s.Require().NoError(err)
	return token
}

// Rest sends body as JSON. An empty identityID targets the internal routes.
func (s *BaseSuite) Rest(method, path, identityID string, body any, out any) int {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	request, err := http.NewRequest(method, s.Config.GatewayHTTP+path, reader)
	s.Require().NoError(err)
	request.Header.Set("Content-Type", "application/json")
	if identityID == "" {
		request.Header.Set("X-Internal-Key", s.Config.InternalKey)
	} else {
		request.Header.Set("Authorization", "Bearer "+s.Token(identityID))
	}

	resp, err := http.DefaultClient.Do(request)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	if out != nil && resp.StatusCode < http.StatusBadRequest {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	s.T().Logf("HTTP %s %s [%d]", method, path, resp.StatusCode)
	return resp.StatusCode
}

type Socket struct {
	s    *BaseSuite
	conn *websocket.Conn
}

func (s *BaseSuite) Dial(identityID string) *Socket {
	url := "ws" + strings.TrimPrefix(s.Config.GatewayHTTP, "http") + "/ws?token=" + s.Token(identityID)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = conn.Close() })
	socket := &Socket{s: s, conn: conn}
	socket.Expect(event.NameConnected, nil)
	return socket
}

func (c *Socket) Send(name string, data any) {
	payload, err := json.Marshal(data)
	c.s.Require().NoError(err)
	frame, err := json.Marshal(event.Frame{Event: name, Data: payload})
	c.s.Require().NoError(err)
	c.s.Require().NoError(c.conn.WriteMessage(websocket.TextMessage, frame))
}

// Expect skips frames until name arrives and decodes its data into out.
func (c *Socket) Expect(name string, out any) {
	c.s.Require().NoError(c.conn.SetReadDeadline(time.Now().Add(5 * time.Second)))
	for {
		_, raw, err := c.conn.ReadMessage()
		c.s.Require().NoError(err, "waiting for %s", name)
		var frame event.Frame
		c.s.Require().NoError(json.Unmarshal(raw, &frame))
		if c.s.Config.DebugJSON {
			c.s.T().Logf("WS <- %s %s", frame.Event, frame.Data)
		}
		if frame.Event != name {
			continue
		}
		if out != nil {
			c.s.Require().NoError(json.Unmarshal(frame.Data, out))
		}
		return
	}
}
