package graphql

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/meanstack/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"github.com/graphql-go/graphql/language/parser"
)

// Request is a GraphQL operation as sent over HTTP or inside a WebSocket
// start frame.
type Request struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// Handler serves queries and mutations over HTTP and subscriptions over a
// WebSocket on the same path.
type Handler struct {
	schema   graphql.Schema
	logger   logging.Logger
	upgrader websocket.Upgrader
}

func NewHandler(schema graphql.Schema, logger logging.Logger) *Handler {
	return &Handler{
		schema: schema,
		logger: logger.With("module", "graphql_handler"),
		upgrader: websocket.Upgrader{
			Subprotocols: []string{"graphql-ws", "graphql-transport-ws"},
			CheckOrigin:  func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.serveWS(w, r)
		return
	}

	var req Request
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if v := q.Get("variables"); v != "" {
			if err := json.Unmarshal([]byte(v), &req.Variables); err != nil {
				http.Error(w, "invalid variables", http.StatusBadRequest)
				return
			}
		}
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res := h.Do(r.Context(), req)

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}

func (h *Handler) Do(ctx context.Context, req Request) *graphql.Result {
	return graphql.Do(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
}

// Message is one WebSocket frame. Both the legacy graphql-ws protocol
// (start/data/stop) and graphql-transport-ws (subscribe/next/complete) are
// understood; replies use the vocabulary of the frame that started the
// operation.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(m Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(m)
}

func (h *Handler) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	c := &wsConn{conn: conn}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	var (
		mu   sync.Mutex
		ops  = map[string]context.CancelFunc{}
		wait sync.WaitGroup
	)
	defer func() {
		cancel()
		wait.Wait()
		_ = conn.Close()
	}()

	for {
		var m Message
		if err := conn.ReadJSON(&m); err != nil {
			return
		}

		switch m.Type {
		case "connection_init":
			_ = c.send(Message{Type: "connection_ack"})
		case "ping":
			_ = c.send(Message{Type: "pong"})
		case "start", "subscribe":
			var req Request
			if err := json.Unmarshal(m.Payload, &req); err != nil {
				_ = c.send(Message{ID: m.ID, Type: "error", Payload: errorPayload(err)})
				continue
			}

			dataType := "data"
			if m.Type == "subscribe" {
				dataType = "next"
			}

			opCtx, opCancel := context.WithCancel(ctx)
			mu.Lock()
			if prev, ok := ops[m.ID]; ok {
				prev()
			}
			ops[m.ID] = opCancel
			mu.Unlock()

			wait.Add(1)
			go func(id string) {
				defer wait.Done()
				h.runOperation(opCtx, c, id, dataType, req)
			}(m.ID)
		case "stop", "complete":
			mu.Lock()
			if stop, ok := ops[m.ID]; ok {
				stop()
				delete(ops, m.ID)
			}
			mu.Unlock()
		case "connection_terminate":
			return
		}
	}
}

// runOperation streams subscription results, or sends the single result of
// a query or mutation, and then completes the operation.
func (h *Handler) runOperation(ctx context.Context, c *wsConn, id, dataType string, req Request) {
	if !isSubscription(req) {
		payload, err := json.Marshal(h.Do(ctx, req))
		if err == nil {
			_ = c.send(Message{ID: id, Type: dataType, Payload: payload})
		}
		_ = c.send(Message{ID: id, Type: "complete"})
		return
	}

	results := graphql.Subscribe(graphql.Params{
		Schema:         h.schema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})

	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				_ = c.send(Message{ID: id, Type: "complete"})
				return
			}
			payload, err := json.Marshal(res)
			if err != nil {
				h.logger.Error(ctx, "encoding subscription result failed", "error", err)
				continue
			}
			if err := c.send(Message{ID: id, Type: dataType, Payload: payload}); err != nil {
				return
			}
		}
	}
}

func isSubscription(req Request) bool {
	doc, err := parser.Parse(parser.ParseParams{Source: req.Query})
	if err != nil {
		return false
	}
	for _, def := range doc.Definitions {
		op, ok := def.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if req.OperationName == "" || (op.Name != nil && op.Name.Value == req.OperationName) {
			return op.Operation == ast.OperationTypeSubscription
		}
	}
	return false
}

func errorPayload(err error) json.RawMessage {
	b, _ := json.Marshal([]map[string]string{{"message": err.Error()}})
	return b
}
