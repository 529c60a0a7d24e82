package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/swdee/go-autopark"
	"github.com/swdee/go-autopark/config"
	"github.com/swdee/go-autopark/detect"
	"github.com/swdee/go-autopark/geom"
	"github.com/swdee/go-autopark/journal"
	"github.com/swdee/go-autopark/video"
)

const (
	// StreamInterval is the polling period of the MJPEG streams
	StreamInterval = 30 * time.Millisecond
)

// controller is the command and output surface of a parking session
type controller interface {
	Start() error
	Click(x, y int) error
	Confirm() (geom.Point, error)
	Reset() error
	Status() autopark.Status
	FrontJPEG() []byte
	BirdsEyeJPEG() []byte
}

// Demo binds a parking session to HTTP
type Demo struct {
	session controller
	// frameW, frameH are used by the index page to scale clicks
	frameW, frameH int
	bevW, bevH     int
}

// NewDemo returns the HTTP front end for the session
func NewDemo(session controller, opts autopark.Options) *Demo {
	return &Demo{
		session: session,
		frameW:  int(opts.Planner.FrameWidth),
		frameH:  int(opts.Planner.FrameHeight),
		bevW:    opts.BirdsEye.Width,
		bevH:    opts.BirdsEye.Height,
	}
}

// Routes returns the demo request multiplexer
func (d *Demo) Routes() *http.ServeMux {

	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", d.Index)
	mux.HandleFunc("GET /front", d.Stream(d.session.FrontJPEG))
	mux.HandleFunc("GET /bev", d.Stream(d.session.BirdsEyeJPEG))
	mux.HandleFunc("GET /status", d.Status)
	mux.HandleFunc("POST /start", d.Start)
	mux.HandleFunc("POST /click", d.Click)
	mux.HandleFunc("POST /confirm", d.Confirm)
	mux.HandleFunc("POST /reset", d.Reset)

	return mux
}

// Stream returns a handler writing the frames returned by next as an MJPEG
// stream until the client disconnects
func (d *Demo) Stream(next func() []byte) http.HandlerFunc {

	return func(w http.ResponseWriter, r *http.Request) {

		log.Printf("New client connection established for %s\n", r.URL.Path)

		w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")

		ticker := time.NewTicker(StreamInterval)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				log.Printf("Client disconnected from %s\n", r.URL.Path)
				return

			case <-ticker.C:
				buf := next()

				if len(buf) == 0 {
					continue
				}

				w.Write([]byte("--frame\r\n"))
				w.Write([]byte("Content-Type: image/jpeg\r\n\r\n"))
				w.Write(buf)
				w.Write([]byte("\r\n"))

				if flusher, ok := w.(http.Flusher); ok {
					flusher.Flush()
				}
			}
		}
	}
}

// writeJSON writes v as the JSON response body with status code
func writeJSON(w http.ResponseWriter, code int, v any) {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// Start begins playback
func (d *Demo) Start(w http.ResponseWriter, r *http.Request) {

	if err := d.session.Start(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"status": "already_started"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clickRequest is the body of a click in frame coordinates
type clickRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Click selects the slot at the posted frame coordinates
func (d *Demo) Click(w http.ResponseWriter, r *http.Request) {

	var req clickRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "bad_request"})
		return
	}

	log.Printf("[http] click %d,%d", req.X, req.Y)

	if err := d.session.Click(req.X, req.Y); err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{
			"status": "ignored", "x": req.X, "y": req.Y,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "x": req.X, "y": req.Y})
}

// Confirm accepts the previewed path and returns the go-forward goal
func (d *Demo) Confirm(w http.ResponseWriter, r *http.Request) {

	goal, err := d.session.Confirm()

	switch {
	case errors.Is(err, autopark.ErrNoPath):
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "no_path"})
		return
	case err != nil:
		writeJSON(w, http.StatusConflict, map[string]string{"status": "not_confirmable"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"goal":   map[string]float64{"x": goal.X, "y": goal.Y},
	})
}

// Reset cancels the maneuver
func (d *Demo) Reset(w http.ResponseWriter, r *http.Request) {
	d.session.Reset()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusResponse is the JSON form of autopark.Status
type statusResponse struct {
	Phase      string  `json:"phase"`
	SelectedID *int    `json:"selected_id"`
	Source     string  `json:"source"`
	FrameIndex int     `json:"frame_index"`
	PathLen    int     `json:"path_len"`
	FPS        float64 `json:"fps"`
}

// Status reports the session state
func (d *Demo) Status(w http.ResponseWriter, r *http.Request) {

	st := d.session.Status()

	resp := statusResponse{
		Phase:      st.Phase.String(),
		Source:     st.Stage.String(),
		FrameIndex: st.FrameIndex,
		PathLen:    st.PathLen,
		FPS:        st.FPS,
	}

	if st.HasSelection {
		id := st.SelectedID
		resp.SelectedID = &id
	}

	writeJSON(w, http.StatusOK, resp)
}

// openSource opens a video file, or a blank feed of n frames when no file
// is given
func openSource(path string, opts autopark.Options, n int) (video.Source, error) {

	w, h := int(opts.Planner.FrameWidth), int(opts.Planner.FrameHeight)

	if path == "" {
		return video.NewBlank(w, h, n), nil
	}

	return video.OpenFile(path, w, h)
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	frontFile := flag.String("v", "", "Front camera video file, a blank feed is used when empty")
	rearFile := flag.String("r", "", "Rear camera video file")
	thirdFile := flag.String("t", "", "Rear continuation video file")
	modelFile := flag.String("m", "", "YOLOv8-seg ONNX parking slot model, the fixed slot layout is used when empty")
	classNum := flag.Int("k", 2, "Number of classes the model was trained with")
	tuningFile := flag.String("c", "", "JSON tuning file")
	journalFile := flag.String("j", "", "SQLite maneuver journal file, disabled when empty")
	blankFrames := flag.Int("n", 300, "Number of frames of each blank feed")
	httpAddr := flag.String("a", "localhost:8080", "HTTP Address to run server on, format address:port")

	flag.Parse()

	opts := autopark.DefaultOptions()

	if *tuningFile != "" {
		tuning, err := config.LoadTuning(*tuningFile)

		if err != nil {
			log.Fatalf("Error loading tuning file: %v", err)
		}

		tuning.ApplySession(&opts)
	}

	var cfg autopark.Config
	var err error

	if cfg.Front, err = openSource(*frontFile, opts, *blankFrames); err != nil {
		log.Fatalf("Error opening front video: %v", err)
	}

	if cfg.Rear, err = openSource(*rearFile, opts, *blankFrames); err != nil {
		log.Fatalf("Error opening rear video: %v", err)
	}

	if cfg.Third, err = openSource(*thirdFile, opts, *blankFrames); err != nil {
		log.Fatalf("Error opening third video: %v", err)
	}

	if *modelFile != "" {
		p := detect.DefaultSegmentParams()
		p.ModelPath = *modelFile
		p.ClassNum = *classNum

		seg, err := detect.NewSegment(p)

		if err != nil {
			log.Fatalf("Error loading model: %v", err)
		}

		defer seg.Close()
		cfg.Detector = seg
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *journalFile != "" {
		j, err := journal.Open(*journalFile)

		if err != nil {
			log.Fatalf("Error opening journal: %v", err)
		}

		defer j.Close()

		maneuver, err := j.Begin(ctx)

		if err != nil {
			log.Fatalf("Error starting journal: %v", err)
		}

		log.Printf("Recording maneuver %s", maneuver.ID)
		cfg.Recorder = maneuver
	}

	session := autopark.NewSession(opts, cfg)

	go session.Run(ctx)

	demo := NewDemo(session, opts)

	server := &http.Server{
		Addr:    *httpAddr,
		Handler: demo.Routes(),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		server.Shutdown(shutdownCtx)
	}()

	// start http server
	log.Println(fmt.Sprintf("Open browser and view demo at http://%s/", *httpAddr))

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
