package server

import (
	"bytes"
	"context"
	"net/http"

	"github.com/kapu/superhero-cards-go/internal/render"
	"go.uber.org/zap"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.LiveUpdates {
		s.handleSnapshot(w, r)
		return
	}

	// Initial projection of a freshly mounted, still empty collection; the
	// page script mounts the live session.
	s.writePage(w, render.PageView{LiveUpdates: true})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess := s.mount("snapshot")
	defer sess.Close()

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SnapshotTimeout)
	defer cancel()

	select {
	case <-sess.Settled():
	case <-ctx.Done():
		s.logger.Warn("Snapshot rendered before all heroes settled", zap.Error(ctx.Err()))
	}

	s.writePage(w, render.PageView{Heroes: sess.Snapshot()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) writePage(w http.ResponseWriter, view render.PageView) {
	var buf bytes.Buffer
	if err := s.renderer.RenderPage(&buf, view); err != nil {
		s.logger.Error("Failed to render page", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
