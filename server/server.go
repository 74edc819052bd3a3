package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tliron/commonlog"

	"github.com/minic-lang/minic/engine"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("minic.server")

// CompileRequest is the JSON body accepted by POST /compile. Language is
// accepted and ignored, kept for backward compatibility.
type CompileRequest struct {
	Source   string `json:"source"`
	Language string `json:"language"`
}

// CompileResponse is the JSON body returned by POST /compile. Compile and
// runtime failures are reported in Error with HTTP 200; non-200 statuses
// are reserved for malformed requests. Error is null on success and an
// "Error: "-prefixed message on failure.
type CompileResponse struct {
	Result   string   `json:"result"`
	Bytecode []string `json:"bytecode"`
	Error    *string  `json:"error"`
}

func errorResponse(msg string) CompileResponse {
	e := "Error: " + msg
	return CompileResponse{Bytecode: []string{}, Error: &e}
}

// Server exposes the engine over HTTP: POST /compile plus static file
// hosting for the playground frontend.
type Server struct {
	cfg     *Config
	cache   *ResultCache
	mux     *http.ServeMux
	timeout time.Duration
}

// New creates a Server from the given configuration. If the configuration
// enables caching, the cache database is opened here.
func New(cfg *Config) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		timeout: cfg.Timeout(),
	}

	if path := cfg.CachePath(); path != "" {
		cache, err := OpenCache(path)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}

	s.mux.HandleFunc("/compile", s.handleCompile)
	s.mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDirPath())))

	return s, nil
}

// Handler returns the server's root handler, CORS wrapping included.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.applyCORS(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		s.mux.ServeHTTP(w, r)
	})
}

// ListenAndServe starts the HTTP server on the configured address.
func (s *Server) ListenAndServe() error {
	log.Noticef("listening on %s", s.cfg.Server.Addr)
	return http.ListenAndServe(s.cfg.Server.Addr, s.Handler())
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// applyCORS writes the CORS headers. An empty allowed-origins list means
// any origin is accepted.
func (s *Server) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	allowed := s.cfg.Server.AllowedOrigins

	if len(allowed) == 0 {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		for _, a := range allowed {
			if a == origin {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				break
			}
		}
	}
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(req.Source); err == nil {
			log.Debugf("cache hit for %s", CacheKey(req.Source)[:12])
			resp := CompileResponse{
				Result:   cached.Output,
				Bytecode: splitLines(cached.Disassembly),
			}
			if cached.ErrMessage != "" {
				e := cached.ErrMessage
				resp.Error = &e
			}
			writeJSON(w, resp)
			return
		}
	}

	resp := s.run(req.Source)

	if s.cache != nil {
		entry := CachedResult{
			Output:      resp.Result,
			Disassembly: strings.Join(resp.Bytecode, "\n"),
		}
		if resp.Error != nil {
			entry.ErrMessage = *resp.Error
		}
		if err := s.cache.Put(req.Source, entry); err != nil {
			log.Errorf("cache put: %v", err)
		}
	}

	writeJSON(w, resp)
}

// splitLines is the inverse of the newline join used for cache storage. An
// empty string means no lines, not one empty line.
func splitLines(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, "\n")
}

// run executes one request under the configured time budget. The engine has
// no preemption hook, so on timeout the worker goroutine is abandoned and
// the request answered with an error. A zero budget disables the limit.
func (s *Server) run(source string) CompileResponse {
	type outcome struct {
		res *engine.Result
		err error
	}
	done := make(chan outcome, 1)

	go func() {
		res, err := engine.CompileAndRun(source)
		done <- outcome{res, err}
	}()

	var deadline <-chan time.Time
	if s.timeout > 0 {
		deadline = time.After(s.timeout)
	}

	select {
	case o := <-done:
		if o.err != nil {
			log.Infof("run failed: %v", o.err)
			return errorResponse(o.err.Error())
		}
		return CompileResponse{
			Result:   o.res.Output,
			Bytecode: o.res.Disassembly,
		}
	case <-deadline:
		log.Warningf("run exceeded %v budget", s.timeout)
		return errorResponse("execution timed out")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encoding response: %v", err)
	}
}
