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

//go:build linux

package watcher

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/mutwo-dev/mucore/pkg/logger"
)

// ueventBufSize fits the largest kernel uevent message.
const ueventBufSize = 2048

// NetlinkEventSource listens for kernel uevents on a NETLINK_KOBJECT_UEVENT
// socket and forwards tty/usb add/remove actions as hotplug events.
type NetlinkEventSource struct {
	mu     sync.Mutex
	fd     int
	events chan HotplugEvent
	done   chan struct{}
	logger logger.Logger
}

// NewNetlinkEventSource creates an unstarted netlink uevent listener.
func NewNetlinkEventSource(log logger.Logger) *NetlinkEventSource {
	return &NetlinkEventSource{fd: -1, logger: log}
}

// Start opens the netlink socket and begins the read loop. It fails when the
// process lacks netlink access; the watcher then falls back to polling.
func (s *NetlinkEventSource) Start(_ context.Context) (<-chan HotplugEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.NETLINK_KOBJECT_UEVENT)
	if err != nil {
		return nil, fmt.Errorf("failed to open uevent socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: 1, // kernel uevent multicast group
	}

	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("failed to bind uevent socket: %w", err)
	}

	s.fd = fd
	s.events = make(chan HotplugEvent, eventBufferSize)
	s.done = make(chan struct{})

	go s.readLoop()

	return s.events, nil
}

// Stop closes the socket, which unblocks the read loop.
func (s *NetlinkEventSource) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fd >= 0 {
		_ = unix.Close(s.fd)
		s.fd = -1
	}

	if s.done != nil {
		<-s.done
		s.done = nil
	}
}

func (s *NetlinkEventSource) readLoop() {
	defer close(s.done)
	defer close(s.events)

	buf := make([]byte, ueventBufSize)

	for {
		n, _, err := unix.Recvfrom(s.fd, buf, 0)
		if err != nil {
			// EBADF after Stop closes the socket.
			return
		}

		if event, relevant := parseUevent(buf[:n]); relevant {
			select {
			case s.events <- event:
			default:
			}
		}
	}
}

// parseUevent extracts the action from a kernel uevent message and filters
// for tty/usb subsystems. Messages are NUL-separated "KEY=value" records
// headed by "action@devpath".
func parseUevent(raw []byte) (HotplugEvent, bool) {
	fields := strings.Split(string(raw), "\x00")
	if len(fields) == 0 {
		return HotplugEvent{}, false
	}

	header := fields[0]

	action, _, found := strings.Cut(header, "@")
	if !found {
		return HotplugEvent{}, false
	}

	subsystem := ""

	for _, field := range fields[1:] {
		if value, ok := strings.CutPrefix(field, "SUBSYSTEM="); ok {
			subsystem = value
			break
		}
	}

	if subsystem != "tty" && subsystem != "usb" {
		return HotplugEvent{}, false
	}

	switch action {
	case "add", "bind":
		return HotplugEvent{Kind: HotplugAttach}, true
	case "remove", "unbind":
		return HotplugEvent{Kind: HotplugDetach}, true
	default:
		return HotplugEvent{}, false
	}
}
