package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/mudra/internal/render"
)

const (
	defaultPreviewWidth  = 640
	defaultPreviewHeight = 360
	previewInterval      = 66 * time.Millisecond // ~15 FPS
)

// PreviewHandler serves the rendered scene as MJPEG, or as a single JPEG
// when the request carries ?once.
type PreviewHandler struct {
	backend       Backend
	width, height int
}

// NewPreviewHandler creates a PreviewHandler. Zero sizes use 640x360.
func NewPreviewHandler(b Backend, width, height int) *PreviewHandler {
	if width <= 0 || height <= 0 {
		width, height = defaultPreviewWidth, defaultPreviewHeight
	}
	return &PreviewHandler{backend: b, width: width, height: height}
}

func (h *PreviewHandler) frame() ([]byte, error) {
	return render.EncodeJPEG(render.Layout(h.backend.Scene(), h.width, h.height))
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Query().Has("once") {
		buf, err := h.frame()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(buf)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(previewInterval)
	defer ticker.Stop()

	for {
		buf, err := h.frame()
		if err == nil {
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(buf))
			if _, err := w.Write(buf); err != nil {
				return
			}
			fmt.Fprintf(w, "\r\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
