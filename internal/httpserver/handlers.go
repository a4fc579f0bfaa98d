package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/sandboxkernel/kernel/internal/agentkernel"
	"github.com/sandboxkernel/kernel/internal/sse"
)

// envelope wraps every JSON response as the external interface requires:
// code 0 and msg "success" on the happy path, a non-zero code matching
// the HTTP status otherwise.
type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Code: 0, Msg: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Code: status, Msg: msg, Data: nil})
}

type createAgentRequest struct {
	Model string `json:"model"`
}

type createAgentResponse struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	model := req.Model
	if model == "" {
		model = s.cfg.Model
	}

	agent := s.runtime.CreateAgent(agentkernel.CreateAgentParams{
		ModelName:    model,
		Provider:     s.llm,
		SandboxURL:   s.cfg.SandboxURL,
		BrowserURL:   s.cfg.BrowserURL,
		SearchClient: searchClientFor(s.cfg),
		Temperature:  s.cfg.Temperature,
		MaxTokens:    s.cfg.MaxTokens,
	})
	if s.metrics != nil {
		s.metrics.AgentsActive.Inc()
	}
	writeJSON(w, http.StatusCreated, createAgentResponse{
		AgentID: agent.ID,
		Status:  "created",
		Message: "agent created",
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// handleChat streams the agent's domain events as Server-Sent Events,
// ending the stream once a "done" wire event has been sent.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	if !s.runtime.HasAgent(agentID) {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	var req chatRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for ev, err := range s.runtime.Chat(r.Context(), agentID, req.Message, req.Timestamp) {
		if err != nil {
			writeSSE(w, sse.WireEvent{Type: "error", Data: map[string]string{"error": err.Error()}})
			flusher.Flush()
			return
		}
		for _, wireEv := range sse.ToSSE(ev) {
			writeSSE(w, wireEv)
		}
		flusher.Flush()
	}
}

// writeSSE marshals ev.Data, stamps it with the current unix timestamp
// (every wire event carries one), and writes it as one SSE frame.
func writeSSE(w http.ResponseWriter, ev sse.WireEvent) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return
	}
	var merged map[string]any
	if err := json.Unmarshal(payload, &merged); err != nil || merged == nil {
		merged = make(map[string]any)
	}
	merged["timestamp"] = time.Now().Unix()
	data, err := json.Marshal(merged)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
}

func (s *Server) handleShellView(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	sandbox, ok := s.runtime.GetSandbox(agentID)
	if !ok {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := sandbox.ViewShell(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFileView(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	sandbox, ok := s.runtime.GetSandbox(agentID)
	if !ok {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	var req struct {
		File string `json:"file"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := sandbox.FileRead(r.Context(), req.File, nil, nil, false)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleDestroyAgent(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	if s.runtime.CloseAgent(r.Context(), agentID) {
		if s.metrics != nil {
			s.metrics.AgentsActive.Dec()
		}
		writeJSON(w, http.StatusOK, map[string]bool{"closed": true})
		return
	}
	writeError(w, http.StatusNotFound, "agent not found")
}

var vncUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleVNC upgrades the connection and relays bytes bidirectionally
// between the browser client and the agent's sandbox VNC websocket.
func (s *Server) handleVNC(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "agentID")
	if !s.runtime.HasAgent(agentID) {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	clientConn, err := vncUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer clientConn.Close()

	vncURL := fmt.Sprintf("ws://%s/vnc", s.cfg.SandboxURL)
	upstream, _, err := websocket.DefaultDialer.DialContext(r.Context(), vncURL, nil)
	if err != nil {
		clientConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "sandbox vnc unavailable"))
		return
	}
	defer upstream.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go relay(ctx, cancel, upstream, clientConn)
	relay(ctx, cancel, clientConn, upstream)
}

func relay(ctx context.Context, cancel context.CancelFunc, from, to *websocket.Conn) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		mt, data, err := from.ReadMessage()
		if err != nil {
			return
		}
		if err := to.WriteMessage(mt, data); err != nil {
			return
		}
	}
}
