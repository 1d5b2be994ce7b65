package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"
	"github.com/karupanerura/shunting-yard/internal/ast"
	"github.com/karupanerura/shunting-yard/internal/batch"
	"github.com/karupanerura/shunting-yard/internal/expression"
	"github.com/karupanerura/shunting-yard/internal/types"
)

const (
	basePath       = "/v1/parses"
	batchParsePath = basePath + ":batch"

	maxRequestBodyBytes = 1 << 20
)

type parse struct {
	Name       string    `json:"name"`
	CreateTime time.Time `json:"createTime"`
	Source     string    `json:"source"`
	State      string    `json:"state"`
	AST        ast.Node  `json:"ast,omitempty"`
	SExpr      string    `json:"sexpr,omitempty"`
	Error      any       `json:"error,omitempty"`
}

type Options struct {
	MaxDepth int
	Debug    bool
}

type httpHandler struct {
	parser *expression.Parser
	opts   Options
	idBase uint64
	parses sync.Map
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == basePath:
		switch r.Method {
		case http.MethodGet:
			h.listParses(w, r)
		case http.MethodPost:
			h.createParse(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}

	case r.URL.Path == batchParsePath:
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.batchParse(w, r)

	case strings.HasPrefix(r.URL.Path, basePath+"/"):
		id := strings.TrimPrefix(r.URL.Path, basePath+"/")
		if id == "" || strings.ContainsRune(id, '/') {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getParse(w, r, id)

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func (h *httpHandler) createParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer r.Body.Close()

	var req struct {
		Source *string `json:"source"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("failed to decode request body: %v", err)
		resError(w, http.StatusBadRequest, &types.Error{Tag: types.ValueErrorTag, Err: err, Pos: types.NoPos})
		return
	}
	if req.Source == nil {
		resError(w, http.StatusBadRequest, types.NewError(types.ValueErrorTag, types.NoPos, "source: required"))
		return
	}

	id := fmt.Sprintf("%012x", atomic.AddUint64(&h.idBase, 1))
	p := &parse{
		Name:       basePath + "/" + id,
		CreateTime: time.Now().UTC(),
		Source:     *req.Source,
	}

	node, err := h.parser.Parse(p.Source)
	if err != nil {
		p.State = "FAILED"
		p.Error = exceptionOf(err)
		if h.opts.Debug {
			log.Printf("failed to parse %q: %v", p.Source, err)
		}
	} else {
		p.State = "SUCCEEDED"
		p.AST = node
		p.SExpr = node.String()
	}

	h.parses.Store(id, p)
	if err := resJSON(w, http.StatusOK, p); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (h *httpHandler) batchParse(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer r.Body.Close()

	b, err := batch.ParseBatchJSON(r.Body)
	if err != nil {
		log.Printf("failed to decode batch: %v", err)
		resError(w, http.StatusBadRequest, err)
		return
	}

	results, err := b.Parse(r.Context(), batch.Options{MaxDepth: h.opts.MaxDepth, Debug: h.opts.Debug})
	if err != nil {
		log.Printf("failed to parse batch: %v", err)
		resError(w, http.StatusInternalServerError, err)
		return
	}

	if err := resJSON(w, http.StatusOK, map[string][]*batch.Result{"results": results}); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (h *httpHandler) listParses(w http.ResponseWriter, r *http.Request) {
	results := []*parse{}
	h.parses.Range(func(key, value any) bool {
		results = append(results, value.(*parse))
		return true
	})
	sort.Slice(results, func(i, j int) bool {
		if results[i].CreateTime.Equal(results[j].CreateTime) {
			return results[i].Name < results[j].Name
		}
		return results[i].CreateTime.Before(results[j].CreateTime)
	})

	if err := resJSON(w, http.StatusOK, map[string][]*parse{"parses": results}); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (h *httpHandler) getParse(w http.ResponseWriter, r *http.Request, id string) {
	ret, ok := h.parses.Load(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	if err := resJSON(w, http.StatusOK, ret.(*parse)); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func NewHTTPHandler(opts Options) http.Handler {
	return &httpHandler{
		parser: &expression.Parser{MaxDepth: opts.MaxDepth, Debug: opts.Debug},
		opts:   opts,
	}
}

func exceptionOf(err error) any {
	var exception types.Exception
	if errors.As(err, &exception) {
		return exception.Exception()
	}
	return err.Error()
}

func resError(w http.ResponseWriter, status int, err error) {
	if err := resJSON(w, status, map[string]any{"error": exceptionOf(err)}); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

// resJSON writes compact JSON; indenting a deep tree grows the body with the
// square of its depth.
func resJSON(w http.ResponseWriter, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
