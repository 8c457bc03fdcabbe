/*
 * Copyright 2025 Mu Two Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package gateway serves REPL surfaces over websocket, translating the
// surface message unions into coordinator calls.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mutwo-dev/mucore/pkg/coordinator"
	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

const (
	writeTimeout    = 10 * time.Second
	sendBufferSize  = 64
	shutdownTimeout = 5 * time.Second
)

var errSendBufferFull = errors.New("surface send buffer full")

// Gateway is the websocket endpoint REPL surfaces connect to at /repl.
type Gateway struct {
	coord    *coordinator.Coordinator
	upgrader websocket.Upgrader
	server   *http.Server
	logger   logger.Logger
}

// New creates a Gateway over coord.
func New(coord *coordinator.Coordinator, log logger.Logger) *Gateway {
	return &Gateway{
		coord: coord,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Surfaces are local webviews; the extension host is the
			// only expected origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: log,
	}
}

// Start serves the gateway on addr until ctx is canceled.
func (g *Gateway) Start(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/repl", g.handleSurface)

	g.server = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	g.logger.Info().Str("addr", addr).Msg("Surface gateway listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return g.server.Shutdown(shutdownCtx)
	}
}

// handleSurface upgrades one surface connection. The first message must be
// a hello identifying the surface role.
func (g *Gateway) handleSurface(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("WebSocket upgrade failed")
		return
	}

	defer func() { _ = conn.Close() }()

	hello, err := readHello(conn)
	if err != nil {
		g.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Surface handshake failed")
		return
	}

	surface := newWSSurface(conn, hello, g.logger)
	go surface.writePump()

	defer surface.stop()

	ctx := r.Context()

	switch hello.Role {
	case models.SurfaceRoleMain:
		g.coord.RegisterMainRepl(surface)
		defer g.coord.UnregisterMainRepl()
	default:
		g.coord.RegisterConnectedPanel(surface.panelID, surface)
		defer g.coord.UnregisterPanel(context.Background(), surface.panelID)
	}

	g.readLoop(ctx, conn, surface)
}

func readHello(conn *websocket.Conn) (*models.HelloPayload, error) {
	var env models.InboundEnvelope
	if err := conn.ReadJSON(&env); err != nil {
		return nil, fmt.Errorf("failed to read hello: %w", err)
	}

	if env.Type != models.InboundHello {
		return nil, fmt.Errorf("expected hello, got %q", env.Type)
	}

	var hello models.HelloPayload
	if err := json.Unmarshal(env.Payload, &hello); err != nil {
		return nil, fmt.Errorf("malformed hello payload: %w", err)
	}

	if hello.Role == models.SurfaceRoleEditor && hello.PanelID == "" {
		hello.PanelID = uuid.New().String()
	}

	return &hello, nil
}

func (g *Gateway) readLoop(ctx context.Context, conn *websocket.Conn, surface *wsSurface) {
	for {
		var env models.InboundEnvelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				g.logger.Debug().Err(err).Str("surface", surface.ID()).Msg("Surface connection closed")
			}

			return
		}

		g.dispatch(ctx, surface, &env)
	}
}

// dispatch routes one inbound envelope by its discriminant.
func (g *Gateway) dispatch(ctx context.Context, surface *wsSurface, env *models.InboundEnvelope) {
	switch env.Type {
	case models.InboundDataPublish:
		var payload models.DataPublishPayload
		if !g.decode(env, &payload, surface) {
			return
		}

		g.coord.PublishData(ctx, surface.source, &payload)

	case models.InboundDataRequest:
		var payload models.DataRequestPayload
		if !g.decode(env, &payload, surface) {
			return
		}

		data, ok := g.coord.HandleDataImport(payload.ImportPath)

		reply, err := models.NewOutbound(models.OutboundDataResponse, &models.DataResponsePayload{
			RequestID: payload.RequestID,
			Data:      data,
			Success:   ok,
		})
		if err != nil {
			g.logger.Error().Err(err).Msg("Failed to encode data response")
			return
		}

		if err := surface.Send(reply); err != nil {
			g.logger.Warn().Err(err).Str("surface", surface.ID()).Msg("Failed to send data response")
		}

	case models.InboundSensorDataStream:
		var payload models.SensorDataStreamPayload
		if !g.decode(env, &payload, surface) {
			return
		}

		g.coord.BroadcastSensorData(ctx, surface.source, payload.SensorName, payload.Value, payload.Metadata)

	case models.InboundHardwareSimulation:
		var payload models.HardwareSimulationPayload
		if !g.decode(env, &payload, surface) {
			return
		}

		g.coord.BroadcastHardwareState(ctx, models.SourceHardwareSim, payload.DeviceType, payload.State)

	case models.InboundHello:
		// Duplicate hello; ignore.

	default:
		g.logger.Warn().Str("type", string(env.Type)).Msg("Unknown inbound message type")
	}
}

func (g *Gateway) decode(env *models.InboundEnvelope, dst interface{}, surface *wsSurface) bool {
	if err := json.Unmarshal(env.Payload, dst); err != nil {
		g.logger.Warn().
			Err(err).
			Str("type", string(env.Type)).
			Str("surface", surface.ID()).
			Msg("Malformed inbound payload")

		return false
	}

	return true
}

// wsSurface adapts one websocket connection to the coordinator's Surface
// interface. Writes go through a single pump goroutine, as gorilla permits
// only one concurrent writer.
type wsSurface struct {
	id      string
	panelID string
	source  models.DataSource
	conn    *websocket.Conn
	send    chan *models.OutboundEnvelope
	done    chan struct{}
	logger  logger.Logger
}

func newWSSurface(conn *websocket.Conn, hello *models.HelloPayload, log logger.Logger) *wsSurface {
	s := &wsSurface{
		conn:   conn,
		send:   make(chan *models.OutboundEnvelope, sendBufferSize),
		done:   make(chan struct{}),
		logger: log,
	}

	if hello.Role == models.SurfaceRoleMain {
		s.id = "main_repl"
		s.source = models.SourceMainREPL
	} else {
		s.panelID = hello.PanelID
		s.id = "editor_" + hello.PanelID
		s.source = models.EditorSource(hello.PanelID)
	}

	return s
}

func (s *wsSurface) ID() string { return s.id }

func (s *wsSurface) Send(msg *models.OutboundEnvelope) error {
	select {
	case s.send <- msg:
		return nil
	case <-s.done:
		return errors.New("surface closed")
	default:
		return errSendBufferFull
	}
}

func (s *wsSurface) writePump() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))

			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Debug().Err(err).Str("surface", s.id).Msg("Surface write failed")
				return
			}
		}
	}
}

func (s *wsSurface) stop() {
	close(s.done)
}
