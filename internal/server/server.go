// Package server serves the rendered site during development and reloads
// connected browsers over a websocket whenever the site is rebuilt.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// reloadPath is the websocket endpoint the injected script connects to. The
// prefix keeps it clear of any page the site could plausibly generate.
const reloadPath = "/.pagewright/reload"

// writeWait bounds each websocket write.
const writeWait = 10 * time.Second

// reloadScript is spliced into every served HTML page. It reloads the page
// on any message and reconnects after the server restarts.
const reloadScript = `<script>
(() => {
	const connect = () => {
		const ws = new WebSocket("ws://" + location.host + "` + reloadPath + `");
		ws.onmessage = () => location.reload();
		ws.onclose = () => setTimeout(connect, 1000);
	};
	connect();
})();
</script>`

// Server is the development HTTP server. It serves the output directory,
// injecting the reload script into HTML responses, and tracks the browsers
// listening for rebuilds.
type Server struct {
	addr string
	dir  string

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	conn *websocket.Conn
	send chan struct{}
}

// New creates a server for the rendered site in dir.
func New(addr, dir string) *Server {
	return &Server{
		addr:    addr,
		dir:     dir,
		clients: make(map[string]*client),
	}
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(reloadPath, s.handleReload)
	mux.HandleFunc("/", s.serveSite)
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("serving site", "url", "http://"+s.addr, "dir", s.dir)
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Broadcast tells every connected browser to reload. It never blocks: a
// client that has not drained its previous signal just keeps the one it has.
func (s *Server) Broadcast() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		select {
		case c.send <- struct{}{}:
		default:
		}
	}
}

// Clients returns the number of connected browsers.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// serveSite maps the request path onto the output directory. Directories
// fall back to their index.html, and HTML files get the reload script
// spliced in.
func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(s.dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))

	info, err := os.Stat(name)
	if err == nil && info.IsDir() {
		name = filepath.Join(name, "index.html")
		_, err = os.Stat(name)
	}
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if strings.EqualFold(filepath.Ext(name), ".html") {
		doc, err := os.ReadFile(name)
		if err != nil {
			http.Error(w, "500 internal server error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(inject(doc))
		return
	}
	http.ServeFile(w, r, name)
}

// inject splices the reload script into an HTML document, before the closing
// body tag when there is one and at the end otherwise.
func inject(doc []byte) []byte {
	if i := strings.LastIndex(strings.ToLower(string(doc)), "</body>"); i >= 0 {
		out := make([]byte, 0, len(doc)+len(reloadScript))
		out = append(out, doc[:i]...)
		out = append(out, reloadScript...)
		out = append(out, doc[i:]...)
		return out
	}
	return append(doc, reloadScript...)
}

// handleReload upgrades the connection and keeps it registered until the
// browser goes away. Accept rejects cross-origin upgrades on its own.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Debug("websocket accept failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan struct{}, 1)}
	id := uuid.NewString()
	s.mu.Lock()
	s.clients[id] = c
	s.mu.Unlock()
	slog.Debug("browser connected", "id", id, "clients", s.Clients())

	go c.writePump(r.Context())
	c.readPump(r.Context())

	s.mu.Lock()
	delete(s.clients, id)
	s.mu.Unlock()
	conn.Close(websocket.StatusNormalClosure, "")
	slog.Debug("browser disconnected", "id", id, "clients", s.Clients())
}

// readPump drains the connection so control frames are serviced and a closed
// browser is noticed.
func (c *client) readPump(ctx context.Context) {
	for {
		if _, _, err := c.conn.Read(ctx); err != nil {
			return
		}
	}
}

// writePump forwards reload signals to the browser.
func (c *client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.send:
			wctx, cancel := context.WithTimeout(ctx, writeWait)
			err := c.conn.Write(wctx, websocket.MessageText, []byte("reload"))
			cancel()
			if err != nil {
				return
			}
		}
	}
}
