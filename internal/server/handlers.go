package server

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/gitdraw/pkg/buildinfo"
	"github.com/matzehuels/gitdraw/pkg/command"
	"github.com/matzehuels/gitdraw/pkg/config"
	"github.com/matzehuels/gitdraw/pkg/errors"
	"github.com/matzehuels/gitdraw/pkg/graph"
	"github.com/matzehuels/gitdraw/pkg/history"
	"github.com/matzehuels/gitdraw/pkg/pipeline"
	"github.com/matzehuels/gitdraw/pkg/session"
)

// =============================================================================
// Request and Response Types
// =============================================================================

// ViewResponse describes a view after a request.
type ViewResponse struct {
	ID            string      `json:"id"`
	CurrentBranch string      `json:"current_branch"`
	Display       string      `json:"display"`
	Branches      []string    `json:"branches"`
	Output        string      `json:"output,omitempty"`
	Scene         graph.Scene `json:"scene"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

// BranchRequest is the body of POST /sessions/{id}/branch.
type BranchRequest struct {
	Name string `json:"name"`
}

// RefRequest is the body of checkout and reset.
type RefRequest struct {
	Ref string `json:"ref"`
}

// ExecRequest is the body of POST /sessions/{id}/exec.
type ExecRequest struct {
	Command string `json:"command"`
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "pong",
		"version": buildinfo.UserAgent(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	view, err := decodeView(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	repo, lines, err := s.runner.Build(r.Context(), view)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer repo.Close()

	sess := session.New(config.Snapshot(repo), s.ttl)
	sess.View.Render = view.Render
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}
	s.logger.Info("session created", "id", sess.ID, "commits", repo.Len())

	writeJSON(w, http.StatusCreated, viewResponse(sess.ID, repo, strings.Join(lines, "\n")))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	s.read(w, r, func(id string, repo *history.Repository, _ *session.Session) {
		writeJSON(w, http.StatusOK, viewResponse(id, repo, ""))
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	defer unlock()

	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "delete session"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	s.read(w, r, func(_ string, repo *history.Repository, _ *session.Session) {
		writeJSON(w, http.StatusOK, repo.Scene())
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.read(w, r, func(_ string, _ *history.Repository, sess *session.Session) {
		var buf bytes.Buffer
		if err := sess.View.Encode(&buf); err != nil {
			s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "encode view"))
			return
		}
		w.Header().Set("Content-Type", "application/toml")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.read(w, r, func(_ string, repo *history.Repository, sess *session.Session) {
		opts, err := renderOptions(r, sess.View.Render)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		format := opts.Formats[0]

		artifacts, err := s.runner.Render(r.Context(), repo.Scene(), opts)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", pipeline.ContentTypes[format])
		w.WriteHeader(http.StatusOK)
		w.Write(artifacts[format])
	})
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req history.CommitData
	s.mutate(w, r, &req, func(repo *history.Repository) (string, error) {
		c, err := repo.Commit(req)
		if err != nil {
			return "", err
		}
		return c.ID, nil
	})
}

func (s *Server) handleBranch(w http.ResponseWriter, r *http.Request) {
	var req BranchRequest
	s.mutate(w, r, &req, func(repo *history.Repository) (string, error) {
		return "", repo.Branch(req.Name)
	})
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req RefRequest
	s.mutate(w, r, &req, func(repo *history.Repository) (string, error) {
		return "", repo.Checkout(req.Ref)
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req RefRequest
	s.mutate(w, r, &req, func(repo *history.Repository) (string, error) {
		return "", repo.Reset(req.Ref)
	})
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	var req ExecRequest
	s.mutate(w, r, &req, func(repo *history.Repository) (string, error) {
		return command.Run(repo, req.Command)
	})
}

// =============================================================================
// Session Plumbing
// =============================================================================

// read loads a session and rebuilds its view for a read-only handler.
func (s *Server) read(w http.ResponseWriter, r *http.Request, fn func(id string, repo *history.Repository, sess *session.Session)) {
	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	defer unlock()

	sess, repo, err := s.open(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer repo.Close()
	fn(id, repo, sess)
}

// mutate decodes req, applies op to the session's view, and stores the
// result. A failed operation leaves the stored snapshot untouched.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, req any, op func(*history.Repository) (string, error)) {
	if err := decodeJSON(r, req); err != nil {
		s.writeError(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	defer unlock()

	sess, repo, err := s.open(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer repo.Close()

	output, err := op(repo)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view := config.Snapshot(repo)
	view.Render = sess.View.Render
	sess.Touch(view, s.ttl)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}
	writeJSON(w, http.StatusOK, viewResponse(id, repo, output))
}

func (s *Server) open(ctx context.Context, id string) (*session.Session, *history.Repository, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	if sess == nil || sess.View == nil {
		return nil, nil, errors.New(errors.ErrCodeViewNotFound, "no such view: %s", id)
	}
	repo, _, err := s.runner.Build(ctx, sess.View)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "rebuild view %s", id)
	}
	return sess, repo, nil
}

func viewResponse(id string, repo *history.Repository, output string) ViewResponse {
	return ViewResponse{
		ID:            id,
		CurrentBranch: repo.CurrentBranch(),
		Display:       repo.DisplayText(),
		Branches:      repo.Branches(),
		Output:        output,
		Scene:         repo.Scene(),
	}
}

// =============================================================================
// Decoding
// =============================================================================

// decodeView reads a view file from the request body. TOML is accepted with
// a TOML content type; anything else is decoded as JSON.
func decodeView(r *http.Request) (*config.File, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/toml" {
		return config.Parse(body)
	}

	f := config.Default()
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode view")
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
	}
	return nil
}

// renderOptions builds render options from query parameters over the
// view's defaults. Exactly one format is rendered per request.
func renderOptions(r *http.Request, defaults config.Render) (pipeline.Options, error) {
	opts := pipeline.OptionsFrom(defaults)
	q := r.URL.Query()

	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts.Formats = []string{format}
	if v := q.Get("style"); v != "" {
		opts.Style = v
	}
	if v := q.Get("diagram"); v != "" {
		opts.Diagram = v
	}
	for name, dst := range map[string]*bool{
		"ranked":     &opts.Ranked,
		"detailed":   &opts.Detailed,
		"background": &opts.Background,
		"refresh":    &opts.Refresh,
	} {
		if v := q.Get(name); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return opts, errors.New(errors.ErrCodeInvalidInput, "%s: not a boolean: %q", name, v)
			}
			*dst = b
		}
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "scale: not a number: %q", v)
		}
		opts.Scale = f
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		return opts, err
	}
	return opts, nil
}

// =============================================================================
// Encoding
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Error: describe(err), Code: errors.GetCode(err)})
}

// statusFor maps an error's kind to an HTTP status.
func statusFor(err error) int {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable
	}
	switch errors.KindOf(err) {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// describe joins the messages of nested coded errors, outermost first.
func describe(err error) string {
	var parts []string
	for err != nil {
		var e *errors.Error
		if !stderrors.As(err, &e) {
			parts = append(parts, err.Error())
			break
		}
		parts = append(parts, e.Message)
		err = e.Cause
	}
	return strings.Join(parts, ": ")
}
