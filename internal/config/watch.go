// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchCredentials watches envFile (a .env holding API keys) for changes
// and sends on the returned channel whenever it is written, debounced by
// 100ms to coalesce an editor's rapid saves into one reload signal. Only
// credentials are hot-reloaded this way; the rest of Config requires a
// process restart.
func WatchCredentials(ctx context.Context, envFile string) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}

	dir := filepath.Dir(envFile)
	base := filepath.Base(envFile)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("config: watch %s: %w", dir, err)
	}

	ch := make(chan struct{}, 1)
	go watchLoop(ctx, watcher, base, ch)
	return ch, nil
}

func watchLoop(ctx context.Context, watcher *fsnotify.Watcher, base string, ch chan<- struct{}) {
	defer close(ch)
	defer watcher.Close()

	var debounce *time.Timer
	const delay = 100 * time.Millisecond

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(delay, func() {
				select {
				case ch <- struct{}{}:
					slog.Debug("credentials file changed", "path", base)
				default:
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("credentials file watcher error", "error", err)
		}
	}
}
