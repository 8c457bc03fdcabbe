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

package databus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const natsSetupTimeout = 5 * time.Second

// NATSKV persists bus entries in a JetStream key-value bucket, scoped per
// workspace.
type NATSKV struct {
	nc *nats.Conn
	kv jetstream.KeyValue
}

var _ KVStore = (*NATSKV)(nil)

// NewNATSKV connects to url and ensures the bucket exists. Workspace names
// become part of the bucket name, sanitized for NATS.
func NewNATSKV(url, bucket, workspace string) (*NATSKV, error) {
	nc, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), natsSetupTimeout)
	defer cancel()

	kv, err := js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: sanitizeBucket(bucket + "-" + workspace),
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create KV bucket: %w", err)
	}

	return &NATSKV{nc: nc, kv: kv}, nil
}

func (n *NATSKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := n.kv.Put(ctx, key, value)
	return err
}

func (n *NATSKV) List(ctx context.Context) (map[string][]byte, error) {
	lister, err := n.kv.ListKeys(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]byte)

	for key := range lister.Keys() {
		entry, err := n.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}

			return nil, err
		}

		out[key] = entry.Value()
	}

	return out, nil
}

func (n *NATSKV) Delete(ctx context.Context, key string) error {
	err := n.kv.Delete(ctx, key)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil
	}

	return err
}

func (n *NATSKV) Close() {
	n.nc.Close()
}

// sanitizeBucket maps arbitrary workspace names onto NATS bucket-safe ones.
func sanitizeBucket(name string) string {
	var sb strings.Builder

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			sb.WriteRune(r)
		default:
			sb.WriteRune('_')
		}
	}

	return sb.String()
}
