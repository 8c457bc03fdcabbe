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

package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mutwo-dev/mucore/pkg/coordinator"
	"github.com/mutwo-dev/mucore/pkg/databus"
	"github.com/mutwo-dev/mucore/pkg/logger"
	"github.com/mutwo-dev/mucore/pkg/models"
)

type testServer struct {
	gw     *Gateway
	bus    *databus.Bus
	server *httptest.Server
	url    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	bus := databus.New(nil, logger.NewNop())
	coord := coordinator.New(bus, logger.NewNop())
	gw := New(coord, logger.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("/repl", gw.handleSurface)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testServer{
		gw:     gw,
		bus:    bus,
		server: server,
		url:    "ws" + strings.TrimPrefix(server.URL, "http") + "/repl",
	}
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func sendEnvelope(t *testing.T, conn *websocket.Conn, msgType models.InboundType, payload interface{}) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(&models.InboundEnvelope{Type: msgType, Payload: raw}))
}

func sayHello(t *testing.T, conn *websocket.Conn, role, panelID string) {
	t.Helper()

	sendEnvelope(t, conn, models.InboundHello, &models.HelloPayload{Role: role, PanelID: panelID})
}

func readEnvelope(t *testing.T, conn *websocket.Conn) *models.OutboundEnvelope {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var env models.OutboundEnvelope
	require.NoError(t, conn.ReadJSON(&env))

	return &env
}

func waitForEntry(t *testing.T, bus *databus.Bus, key string) *models.DataEntry {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)

	for time.Now().Before(deadline) {
		if entry := bus.Get(key); entry != nil {
			return entry
		}

		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("bus entry %q never appeared", key)

	return nil
}

// syncMain publishes a marker from the main surface and waits for it on the
// bus. Registration happens before the read loop, so once the marker lands
// the main surface is guaranteed to be receiving fan-out.
func syncMain(t *testing.T, ts *testServer, main *websocket.Conn) {
	t.Helper()

	sendEnvelope(t, main, models.InboundDataPublish, &models.DataPublishPayload{
		Key:   "ready",
		Value: true,
	})
	waitForEntry(t, ts.bus, "ready")
}

func TestPublishFansOutBetweenSurfaces(t *testing.T) {
	ts := newTestServer(t)

	main := dial(t, ts.url)
	sayHello(t, main, models.SurfaceRoleMain, "")
	syncMain(t, ts, main)

	editor := dial(t, ts.url)
	sayHello(t, editor, models.SurfaceRoleEditor, "panel-a")

	sendEnvelope(t, editor, models.InboundDataPublish, &models.DataPublishPayload{
		Key:   "x",
		Value: 1,
	})

	entry := waitForEntry(t, ts.bus, "x")
	assert.Equal(t, models.EditorSource("panel-a"), entry.Source)

	// The main surface hears the editor's update.
	env := readEnvelope(t, main)
	require.Equal(t, models.OutboundDataUpdate, env.Type)

	var update models.DataUpdatePayload
	require.NoError(t, json.Unmarshal(env.Payload, &update))
	assert.Equal(t, "x", update.Key)
	assert.Equal(t, models.EditorSource("panel-a"), update.Source)
}

func TestDataRequestAnsweredOnRequestingSurface(t *testing.T) {
	ts := newTestServer(t)

	main := dial(t, ts.url)
	sayHello(t, main, models.SurfaceRoleMain, "")

	sendEnvelope(t, main, models.InboundDataPublish, &models.DataPublishPayload{
		Key:   "sensor.tof",
		Value: 120,
	})
	waitForEntry(t, ts.bus, "sensor.tof")

	sendEnvelope(t, main, models.InboundDataRequest, &models.DataRequestPayload{
		RequestID:  "req-1",
		ImportPath: "sensor.tof",
	})

	env := readEnvelope(t, main)
	require.Equal(t, models.OutboundDataResponse, env.Type)

	var resp models.DataResponsePayload
	require.NoError(t, json.Unmarshal(env.Payload, &resp))
	assert.Equal(t, "req-1", resp.RequestID)
	assert.True(t, resp.Success)
	assert.Equal(t, float64(120), resp.Data)
}

func TestDataRequestMissingKey(t *testing.T) {
	ts := newTestServer(t)

	main := dial(t, ts.url)
	sayHello(t, main, models.SurfaceRoleMain, "")

	sendEnvelope(t, main, models.InboundDataRequest, &models.DataRequestPayload{
		RequestID:  "req-2",
		ImportPath: "missing",
	})

	env := readEnvelope(t, main)
	require.Equal(t, models.OutboundDataResponse, env.Type)

	var resp models.DataResponsePayload
	require.NoError(t, json.Unmarshal(env.Payload, &resp))
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
}

func TestSensorStreamBecomesSensorUpdate(t *testing.T) {
	ts := newTestServer(t)

	main := dial(t, ts.url)
	sayHello(t, main, models.SurfaceRoleMain, "")
	syncMain(t, ts, main)

	editor := dial(t, ts.url)
	sayHello(t, editor, models.SurfaceRoleEditor, "panel-a")

	sendEnvelope(t, editor, models.InboundSensorDataStream, &models.SensorDataStreamPayload{
		SensorName: "tof",
		Value:      120,
		Metadata:   &models.DataMetadata{Units: "mm"},
	})

	waitForEntry(t, ts.bus, "sensor.tof")

	// Main receives both the generic data update and the sensor update.
	sawSensor := false

	for i := 0; i < 2; i++ {
		env := readEnvelope(t, main)
		if env.Type != models.OutboundSensorDataUpdate {
			continue
		}

		sawSensor = true

		var payload models.SensorDataUpdatePayload
		require.NoError(t, json.Unmarshal(env.Payload, &payload))
		assert.Equal(t, "tof", payload.SensorName)
	}

	assert.True(t, sawSensor)
}

func TestHardwareSimulationBroadcast(t *testing.T) {
	ts := newTestServer(t)

	main := dial(t, ts.url)
	sayHello(t, main, models.SurfaceRoleMain, "")

	editor := dial(t, ts.url)
	sayHello(t, editor, models.SurfaceRoleEditor, "panel-a")

	sendEnvelope(t, editor, models.InboundHardwareSimulation, &models.HardwareSimulationPayload{
		DeviceType: "led_matrix",
		State:      map[string]interface{}{"brightness": 0.5},
	})

	entry := waitForEntry(t, ts.bus, "hardware.led_matrix")
	assert.Equal(t, models.DataTypeHardwareState, entry.Type)
	assert.Equal(t, models.SourceHardwareSim, entry.Source)
}

func TestHandshakeRequiresHelloFirst(t *testing.T) {
	ts := newTestServer(t)

	conn := dial(t, ts.url)

	// Anything but hello as the first message closes the connection.
	sendEnvelope(t, conn, models.InboundDataPublish, &models.DataPublishPayload{Key: "x", Value: 1})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var env models.OutboundEnvelope

	err := conn.ReadJSON(&env)
	require.Error(t, err)

	assert.Nil(t, ts.bus.Get("x"))
}

func TestEditorWithoutPanelIDGetsGenerated(t *testing.T) {
	ts := newTestServer(t)

	conn := dial(t, ts.url)
	sayHello(t, conn, models.SurfaceRoleEditor, "")

	// The generated panel id shows up as the source of the editor's
	// publishes.
	sendEnvelope(t, conn, models.InboundDataPublish, &models.DataPublishPayload{Key: "y", Value: 2})
	entry := waitForEntry(t, ts.bus, "y")

	assert.True(t, entry.Source.IsEditorSource())
	assert.NotEmpty(t, entry.Source.PanelID())
}

func TestSurfaceSendBufferFull(t *testing.T) {
	s := newWSSurface(nil, &models.HelloPayload{Role: models.SurfaceRoleMain}, logger.NewNop())

	msg := &models.OutboundEnvelope{Type: models.OutboundDataUpdate}

	// No pump running, so the buffer fills and the overflow is reported
	// rather than blocking the coordinator.
	for i := 0; i < sendBufferSize; i++ {
		require.NoError(t, s.Send(msg))
	}

	assert.ErrorIs(t, s.Send(msg), errSendBufferFull)

	s.stop()
	assert.Error(t, s.Send(msg))
}
