// ABOUTME: WebSocket watch hub pushing one frame per applied mutation
// ABOUTME: Watchers are push-only; connections that fall behind are dropped

package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Blakthorne/whispersermons-sub001/internal/logger"
	"github.com/Blakthorne/whispersermons-sub001/internal/metrics"
	"github.com/Blakthorne/whispersermons-sub001/pkg/event"
)

// WatchFrame is one change notification pushed to watchers. Kind carries
// the applied event kind, or "snapshot_restored" when the whole session
// was replaced out of band.
type WatchFrame struct {
	Kind      string    `json:"kind"`
	EventID   string    `json:"eventId,omitempty"`
	Version   int       `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

type watcher struct {
	frames chan WatchFrame
	done   chan struct{}
	once   sync.Once
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}

// watchHub fans applied events out to connected WebSocket clients.
type watchHub struct {
	mu       sync.Mutex
	watchers map[string]*watcher
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func newWatchHub(log *logger.Logger, met *metrics.Metrics) *watchHub {
	return &watchHub{
		watchers: make(map[string]*watcher),
		log:      log,
		metrics:  met,
	}
}

func (h *watchHub) add(w *watcher) string {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := uuid.NewString()
	h.watchers[id] = w
	h.metrics.WatchersConnected.Set(float64(len(h.watchers)))
	return id
}

func (h *watchHub) remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers, id)
	h.metrics.WatchersConnected.Set(float64(len(h.watchers)))
}

// broadcast queues one frame to every watcher. A watcher whose buffer is
// full is stopped rather than letting one slow client hold up mutation
// delivery for the rest.
func (h *watchHub) broadcast(frame WatchFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, w := range h.watchers {
		select {
		case w.frames <- frame:
		default:
			h.log.Warn("Dropping slow watcher").Str("watcher", id).Send()
			w.stop()
		}
	}
}

func (h *watchHub) broadcastEvent(ev *event.Event) {
	h.broadcast(WatchFrame{
		Kind:      string(ev.Kind),
		EventID:   ev.ID,
		Version:   ev.Version,
		Timestamp: ev.Timestamp,
	})
}

// handle upgrades the request and streams frames until the client goes
// away or falls behind.
func (h *watchHub) handle(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("WebSocket upgrade failed").Err(err).Send()
		return
	}
	defer ws.Close()

	w := &watcher{
		frames: make(chan WatchFrame, 64),
		done:   make(chan struct{}),
	}
	id := h.add(w)
	defer h.remove(id)
	h.log.Debug("Watcher connected").Str("watcher", id).Send()

	// Drain reads so close frames and pings are processed; any read
	// error means the client is gone.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				w.stop()
				return
			}
		}
	}()

	for {
		select {
		case frame := <-w.frames:
			if err := ws.WriteJSON(frame); err != nil {
				h.log.Debug("Watcher write failed").Str("watcher", id).Err(err).Send()
				return
			}
		case <-w.done:
			return
		}
	}
}
