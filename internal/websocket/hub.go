package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/QRui6/urban-inspection-rag/internal/pkg/logger"
	"github.com/QRui6/urban-inspection-rag/pkg/jobs"
)

// redisChannel carries job status updates between instances, so a client
// connected to one instance still sees transitions executed on another.
const redisChannel = "job_status_events"

// Hub fans job status transitions out to the websocket clients watching
// each job.
type Hub struct {
	// Watchers per job id (a job can have several open streams).
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Optional cross-instance relay. Nil in single-instance deployments.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.JobID] = append(h.clients[client.JobID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"job_id": client.JobID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.JobID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.JobID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.JobID]) == 0 {
					delete(h.clients, client.JobID)
				}
			}
			h.mu.Unlock()
		}
	}
}

// statusMessage is the wire shape sent to stream clients.
type statusMessage struct {
	Type  string          `json:"type"`
	JobID string          `json:"job_id"`
	Queue string          `json:"queue"`
	State string          `json:"status"`
	Error string          `json:"error,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NotifyTransition pushes a job's new state to every local watcher and
// relays it for other instances. Safe to call from the runner's transition
// hook; it never blocks on a slow client.
func (h *Hub) NotifyTransition(job *jobs.Job) {
	msg := statusMessage{
		Type:  "job_status",
		JobID: job.ID,
		Queue: job.Queue,
		State: string(job.Status),
		Error: job.Error,
	}
	if job.Status == jobs.StatusFinished {
		msg.Data = job.Result
	}
	data, _ := json.Marshal(msg)

	h.deliver(job.ID, data)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"target_job_id": job.ID,
			"message":       json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), redisChannel, payload)
	}
}

func (h *Hub) deliver(jobID string, data []byte) {
	h.mu.RLock()
	clients := h.clients[jobID]
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- data:
		default:
			h.logger.Warn("Hub", "Client send buffer full, dropping stream", map[string]interface{}{"job_id": jobID})
			h.unregister <- client
		}
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, redisChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetJobID string          `json:"target_job_id"`
			Message     json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			h.logger.Warn("Hub", "Malformed relay payload", map[string]interface{}{"error": err.Error()})
			continue
		}
		h.deliver(payload.TargetJobID, payload.Message)
	}
}
