package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	qhttp "bikebuyers/http"
	"bikebuyers/ml"
)

//go:embed templates/*.html
var templates embed.FS

// Predictor 推理服务客户端
type Predictor interface {
	Predict(ctx context.Context, record Record) (ml.PredictionResult, error)
}

type optionView struct {
	Value    string
	Selected bool
}

type fieldView struct {
	Name    string
	Label   string
	Options []optionView // 下拉字段
	Numeric bool
	Min     int
	Max     int
	Value   int
}

type pageData struct {
	Background template.CSS
	Fields     []fieldView
	Banner     *Banner
	Result     *ResultView
}

// Handler 表单页面
type Handler struct {
	schema     *Schema
	client     Predictor
	background *Background
	tmpl       *template.Template
	log        *zap.Logger
}

func NewHandler(schema *Schema, client Predictor, background *Background, log *zap.Logger) (*Handler, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Handler{
		schema:     schema,
		client:     client,
		background: background,
		tmpl:       tmpl,
		log:        log,
	}, nil
}

// Routes 注册路由并套上恢复与日志中间件.
// 页面内联了背景样式, 不使用服务端的安全头中间件
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.HandleFunc("POST /{$}", h.handleSubmit)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return qhttp.Chain(qhttp.RecoveryMiddleware(h.log), qhttp.LoggerMiddleware(h.log))(mux)
}

func (h *Handler) handleForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, pageData{Fields: h.fields(nil)})
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, pageData{
			Fields: h.fields(nil),
			Banner: &Banner{Kind: BannerError, Message: "Invalid form submission."},
		})
		return
	}

	record, problem := h.assemble(r)
	if problem != "" {
		h.render(w, http.StatusBadRequest, pageData{
			Fields: h.fields(r),
			Banner: &Banner{Kind: BannerError, Message: problem},
		})
		return
	}

	result, err := h.client.Predict(r.Context(), record)
	if err != nil {
		h.log.Warn("prediction request failed",
			zap.String("request_id", qhttp.GetRequestID(r.Context())),
			zap.Error(err))
		banner := ErrorBanner(err)
		h.render(w, http.StatusOK, pageData{Fields: h.fields(r), Banner: &banner})
		return
	}

	view := NewResultView(result)
	h.render(w, http.StatusOK, pageData{Fields: h.fields(r), Result: &view})
}

// assemble 按表单配置组装记录, 只接受允许集合内的取值.
// 不合法时返回给用户的提示
func (h *Handler) assemble(r *http.Request) (Record, string) {
	record := make(Record, len(h.schema.Categorical)+len(h.schema.Numeric))
	for _, f := range h.schema.Categorical {
		value := r.PostFormValue(f.Name)
		if !f.Allows(value) {
			return nil, fmt.Sprintf("Invalid value for %s.", Label(f.Name))
		}
		record[f.Name] = value
	}
	for _, f := range h.schema.Numeric {
		n, err := strconv.Atoi(r.PostFormValue(f.Name))
		if err != nil || n < f.Min || n > f.Max {
			return nil, fmt.Sprintf("%s must be between %d and %d.", Label(f.Name), f.Min, f.Max)
		}
		record[f.Name] = n
	}
	return record, ""
}

// fields 生成表单字段, r非空时沿用已提交的合法取值
func (h *Handler) fields(r *http.Request) []fieldView {
	fields := make([]fieldView, 0, len(h.schema.Categorical)+len(h.schema.Numeric))
	for _, f := range h.schema.Categorical {
		selected := f.Values[0]
		if r != nil {
			if v := r.PostFormValue(f.Name); f.Allows(v) {
				selected = v
			}
		}
		options := make([]optionView, len(f.Values))
		for i, v := range f.Values {
			options[i] = optionView{Value: v, Selected: v == selected}
		}
		fields = append(fields, fieldView{Name: f.Name, Label: Label(f.Name), Options: options})
	}
	for _, f := range h.schema.Numeric {
		value := f.Min
		if r != nil {
			if n, err := strconv.Atoi(r.PostFormValue(f.Name)); err == nil && n >= f.Min && n <= f.Max {
				value = n
			}
		}
		fields = append(fields, fieldView{
			Name: f.Name, Label: Label(f.Name), Numeric: true,
			Min: f.Min, Max: f.Max, Value: value,
		})
	}
	return fields
}

func (h *Handler) render(w http.ResponseWriter, status int, data pageData) {
	data.Background = h.background.Style()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		h.log.Error("render page failed", zap.Error(err))
	}
}

// Server 前端HTTP服务器
type Server struct {
	server *http.Server
	log    *zap.Logger
}

func NewServer(host string, port int, handler *Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              net.JoinHostPort(host, strconv.Itoa(port)),
			Handler:           handler.Routes(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: handler.log,
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.log.Info("starting presentation client", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Stop 停止服务器
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.log.Info("shutting down presentation client")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

func (s *Server) Addr() string {
	return s.server.Addr
}
