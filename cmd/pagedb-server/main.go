// Command pagedb-server exposes a pageDB database over HTTP and gRPC.
//
// The gRPC service uses a JSON codec with hand-written service
// descriptors, so no protobuf toolchain is involved; any gRPC client can
// call it with ForceCodec(json). The engine itself is single-threaded, so
// the server serializes all database access behind one mutex.
//
// Configuration comes from a YAML file (-config), with flags taking
// precedence:
//
//	file: data/products.db
//	btree: true
//	key: id
//	frames: 256
//	http: ":8080"
//	grpc: ":9090"
//	flush_cron: "0 */5 * * * *"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"gopkg.in/yaml.v3"

	pagedb "github.com/SimonWaldherr/pageDB"
)

// Flags
var (
	flagConfig = flag.String("config", "", "YAML config file (optional)")
	flagFile   = flag.String("file", "", "database file path (overrides config)")
	flagHTTP   = flag.String("http", "", "HTTP listen address (overrides config)")
	flagGRPC   = flag.String("grpc", "", "gRPC listen address (overrides config)")
)

// Config is the server's YAML configuration.
type Config struct {
	File      string `yaml:"file"`
	BTree     bool   `yaml:"btree"`
	Key       string `yaml:"key"`
	Frames    int    `yaml:"frames"`
	HTTP      string `yaml:"http"`
	GRPC      string `yaml:"grpc"`
	FlushCron string `yaml:"flush_cron"`
}

func defaultConfig() Config {
	return Config{
		File:  "pagedb.db",
		BTree: true,
		Key:   "id",
		HTTP:  ":8080",
		GRPC:  ":9090",
	}
}

func loadConfig() Config {
	cfg := defaultConfig()
	if *flagConfig != "" {
		raw, err := os.ReadFile(*flagConfig)
		if err != nil {
			log.Fatalf("read config: %v", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			log.Fatalf("parse config: %v", err)
		}
	}
	if *flagFile != "" {
		cfg.File = *flagFile
	}
	if *flagHTTP != "" {
		cfg.HTTP = *flagHTTP
	}
	if *flagGRPC != "" {
		cfg.GRPC = *flagGRPC
	}
	return cfg
}

// Request/response types (shared by HTTP and gRPC).
type insertRequest struct {
	ID    int32   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
type insertResponse struct {
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type scanRequest struct {
	Limit int `json:"limit"` // 0 = all rows
}
type row struct {
	ID    int32   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}
type scanResponse struct {
	Rows     []row  `json:"rows"`
	Count    int    `json:"count"`
	Error    string `json:"error,omitempty"`
	Duration string `json:"duration"`
}

type statsRequest struct{}
type statsResponse struct {
	Files     int `json:"files"`
	Pages     int `json:"pages"`
	Reads     int `json:"reads"`
	Writes    int `json:"writes"`
	Evictions int `json:"evictions"`
}

// gRPC JSON codec
type jsonCodec struct{}

func (jsonCodec) Name() string                      { return "json" }
func (jsonCodec) Marshal(v any) ([]byte, error)     { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// gRPC service interface and descriptors (manual, no protobuf)
type PageDBServer interface {
	Insert(context.Context, *insertRequest) (*insertResponse, error)
	Scan(context.Context, *scanRequest) (*scanResponse, error)
	Stats(context.Context, *statsRequest) (*statsResponse, error)
}

func registerPageDBServer(s *grpc.Server, srv PageDBServer) {
	s.RegisterService(&grpc.ServiceDesc{
		ServiceName: "pagedb.PageDB",
		HandlerType: (*PageDBServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "Insert", Handler: _PageDB_Insert_Handler},
			{MethodName: "Scan", Handler: _PageDB_Scan_Handler},
			{MethodName: "Stats", Handler: _PageDB_Stats_Handler},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "pagedb", // informational
	}, srv)
}

func _PageDB_Insert_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(insertRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PageDBServer).Insert(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/pagedb.PageDB/Insert"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PageDBServer).Insert(ctx, req.(*insertRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PageDB_Scan_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(scanRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PageDBServer).Scan(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/pagedb.PageDB/Scan"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PageDBServer).Scan(ctx, req.(*scanRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PageDB_Stats_Handler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(statsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PageDBServer).Stats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/pagedb.PageDB/Stats"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(PageDBServer).Stats(ctx, req.(*statsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// server state
type server struct {
	mu   sync.Mutex // the engine is single-threaded; serialize all access
	db   *pagedb.Database
	file pagedb.DbFile
}

func newServer(cfg Config) (*server, error) {
	td, err := pagedb.NewTupleDesc(
		[]pagedb.FieldType{pagedb.TypeInt, pagedb.TypeChar, pagedb.TypeDouble},
		[]string{"id", "name", "price"},
	)
	if err != nil {
		return nil, err
	}
	db := pagedb.NewDatabase(cfg.Frames)

	var f pagedb.DbFile
	if cfg.BTree {
		key, err := td.IndexOf(cfg.Key)
		if err != nil {
			return nil, err
		}
		f, err = pagedb.NewBTreeFile(db, cfg.File, td, key)
		if err != nil {
			return nil, err
		}
	} else {
		f, err = pagedb.NewHeapFile(db, cfg.File, td)
		if err != nil {
			return nil, err
		}
	}
	if err := db.Add(f); err != nil {
		return nil, err
	}
	return &server{db: db, file: f}, nil
}

// PageDBServer implementation
func (s *server) Insert(ctx context.Context, req *insertRequest) (*insertResponse, error) {
	start := time.Now()
	s.mu.Lock()
	err := s.file.InsertTuple(pagedb.NewTuple(req.ID, req.Name, req.Price))
	s.mu.Unlock()
	if err != nil {
		return &insertResponse{Success: false, Error: err.Error(), Duration: time.Since(start).String()}, nil
	}
	return &insertResponse{Success: true, Duration: time.Since(start).String()}, nil
}

func (s *server) Scan(ctx context.Context, req *scanRequest) (*scanResponse, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	resp := &scanResponse{}
	it, err := s.file.Begin()
	if err != nil {
		resp.Error = err.Error()
		return resp, nil
	}
	for it != s.file.End() {
		tup, err := s.file.GetTuple(it)
		if err != nil {
			resp.Error = err.Error()
			break
		}
		id, _ := tup.IntAt(0)
		name, _ := tup.StringAt(1)
		price, _ := tup.FloatAt(2)
		resp.Rows = append(resp.Rows, row{ID: id, Name: name, Price: price})
		if req.Limit > 0 && len(resp.Rows) >= req.Limit {
			break
		}
		if err := s.file.Next(&it); err != nil {
			resp.Error = err.Error()
			break
		}
	}
	resp.Count = len(resp.Rows)
	resp.Duration = time.Since(start).String()
	return resp, nil
}

func (s *server) Stats(ctx context.Context, _ *statsRequest) (*statsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.db.Stats()
	return &statsResponse{
		Files:     st.Files,
		Pages:     st.Pages,
		Reads:     st.Reads,
		Writes:    st.Writes,
		Evictions: st.Evictions,
	}, nil
}

// HTTP handlers
func (s *server) handleInsert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req insertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	resp, _ := s.Insert(r.Context(), &req)
	writeJSON(w, resp)
}

func (s *server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	resp, _ := s.Scan(r.Context(), &req)
	writeJSON(w, resp)
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	resp, _ := s.Stats(r.Context(), &statsRequest{})
	writeJSON(w, resp)
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":   true,
		"time": time.Now().Format(time.RFC3339),
		"file": s.file.Name(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	flag.Parse()
	cfg := loadConfig()

	srv, err := newServer(cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() {
		srv.mu.Lock()
		defer srv.mu.Unlock()
		if err := srv.db.Close(); err != nil {
			log.Printf("close: %v", err)
		}
	}()

	// Optional periodic flush.
	if cfg.FlushCron != "" {
		sched, err := pagedb.NewFlushScheduler(srv.db, cfg.FlushCron)
		if err != nil {
			log.Fatalf("flush schedule %q: %v", cfg.FlushCron, err)
		}
		sched.Start()
		defer sched.Stop()
	}

	// Register JSON codec for gRPC.
	encoding.RegisterCodec(jsonCodec{})

	// Start gRPC server.
	if cfg.GRPC != "" {
		go func() {
			lis, err := net.Listen("tcp", cfg.GRPC)
			if err != nil {
				log.Printf("gRPC listen error: %v", err)
				return
			}
			gs := grpc.NewServer()
			registerPageDBServer(gs, srv)
			log.Printf("gRPC listening on %s", cfg.GRPC)
			if err := gs.Serve(lis); err != nil {
				log.Printf("gRPC serve error: %v", err)
			}
		}()
	}

	// Start HTTP server.
	if cfg.HTTP != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/insert", srv.handleInsert)
		mux.HandleFunc("/api/scan", srv.handleScan)
		mux.HandleFunc("/api/stats", srv.handleStats)
		mux.HandleFunc("/api/status", srv.handleStatus)
		log.Printf("HTTP listening on %s", cfg.HTTP)
		if err := http.ListenAndServe(cfg.HTTP, mux); err != nil {
			log.Fatalf("HTTP serve error: %v", err)
		}
	} else {
		select {}
	}
}
