// Package sse implements a Server-Sent Events broker for run progress.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event types published for generation and transformation runs.
const (
	TypeRunStarted    = "run.started"
	TypeNoteProcessed = "note.processed"
	TypeRunProgress   = "run.progress"
	TypeRunFinished   = "run.finished"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// RunEvent is the payload of every run event.
type RunEvent struct {
	RunID string `json:"run_id"`
	Kind  string `json:"kind,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// Progress is the payload of a run.progress event.
type Progress struct {
	RunID string `json:"run_id"`
	Done  int    `json:"done"`
}

type runEventReq struct {
	typ   string
	event RunEvent
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients + per-run progress counters). Public methods communicate with this
// loop through channels, so no mutexes are required.
type Broker struct {
	progressMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	runEventCh    chan runEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. run.progress events are emitted at
// most once per progressThrottle for each run.
func NewBroker(progressThrottle time.Duration) *Broker {
	if progressThrottle <= 0 {
		progressThrottle = time.Second
	}

	b := &Broker{
		progressMin:   progressThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		runEventCh:    make(chan runEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

type runState struct {
	done         int
	lastProgress time.Time
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})
	runs := make(map[string]*runState)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.runEventCh:
			id := req.event.RunID
			switch req.typ {
			case TypeRunStarted:
				runs[id] = &runState{}
				broadcast(Event{Type: req.typ, Data: req.event})

			case TypeNoteProcessed:
				broadcast(Event{Type: req.typ, Data: req.event})
				st, ok := runs[id]
				if !ok {
					st = &runState{}
					runs[id] = st
				}
				st.done++
				if now := time.Now(); now.Sub(st.lastProgress) >= b.progressMin {
					st.lastProgress = now
					broadcast(Event{Type: TypeRunProgress, Data: Progress{RunID: id, Done: st.done}})
				}

			case TypeRunFinished:
				delete(runs, id)
				broadcast(Event{Type: req.typ, Data: req.event})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

func (b *Broker) publishRun(typ string, ev RunEvent) {
	if b.closed.Load() {
		return
	}
	select {
	case b.runEventCh <- runEventReq{typ: typ, event: ev}:
	case <-b.stopped:
	}
}

// RunStarted announces a run of the given kind ("arithmetic", "transform", ...).
func (b *Broker) RunStarted(runID, kind string, data any) {
	b.publishRun(TypeRunStarted, RunEvent{RunID: runID, Kind: kind, Data: data})
}

// NoteProcessed reports one processed note and a throttled run.progress.
func (b *Broker) NoteProcessed(runID string, data any) {
	b.publishRun(TypeNoteProcessed, RunEvent{RunID: runID, Data: data})
}

// RunFinished reports the final result of a run.
func (b *Broker) RunFinished(runID, kind string, result any) {
	b.publishRun(TypeRunFinished, RunEvent{RunID: runID, Kind: kind, Data: result})
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
