package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"dink-feed/caption"
	"dink-feed/event"
	"dink-feed/feed"
	"dink-feed/logging"
	"dink-feed/publish"
	"dink-feed/session"
	"dink-feed/upload"
	"dink-feed/utils"
)

const (
	maxJSONBody    = 1 << 20
	feedBacklog    = 20
	feedBuffer     = 16
	feedKeepalive  = 30 * time.Second
	statusReceived = "received"
	statusSkipped  = "skipped"
)

const (
	msgMissingPayload = "Missing or invalid payload_json"
	msgInvalidJSON    = "Invalid JSON in payload_json"
	msgBadFileType    = "File must be PNG or JPEG"
)

var errMissingPayload = errors.New("missing or invalid payload_json")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, details error) {
	body := map[string]interface{}{"error": msg}
	if details != nil {
		body["details"] = details.Error()
	}
	writeJSON(w, status, body)
}

// POST /i/{link} - Dink webhook
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	link := strings.Trim(strings.TrimPrefix(r.URL.Path, "/i/"), "/")
	if link == "" || strings.Contains(link, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	log := s.log.With("component", logging.ComponentWebhook, "request_id", utils.GenerateID(8))

	signer, err := s.resolveLink(r.Context(), link)
	switch {
	case errors.Is(err, errInvalidLink):
		writeError(w, http.StatusUnauthorized, "Invalid webhook link", nil)
		return
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "No signer linked for this webhook", nil)
		return
	case err != nil:
		log.Error("resolve link", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to resolve webhook link", nil)
		return
	}

	payload, img, err := s.readSubmission(w, r)
	if err != nil {
		s.metrics.Notification("", false, "rejected")
		writeError(w, http.StatusBadRequest, s.submissionMessage(err), nil)
		return
	}

	rec, err := event.Parse(payload)
	if err != nil {
		s.metrics.Notification("", false, "rejected")
		writeError(w, http.StatusBadRequest, msgInvalidJSON, nil)
		return
	}
	log = log.With("kind", rec.Kind)

	var imageURL string
	if img != nil {
		imageURL, err = s.storeImage(r, *img)
		if err != nil {
			log.Error("upload screenshot", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to upload image", err)
			return
		}
	}

	for _, a := range caption.Anomalies(rec) {
		log.Debug("conflicting template fields", "detail", a)
	}
	text := caption.Format(rec)

	response := map[string]interface{}{
		"signer_uuid":         signer,
		"kind":                rec.Kind,
		"text":                text,
		"file":                nil,
		"status":              statusReceived,
		"farcaster_cast_hash": nil,
	}
	if imageURL != "" {
		response["file"] = imageURL
	}

	decision := s.rules.Route(rec)
	if !decision.Post {
		log.Info("notification skipped", "reason", decision.Reason)
		s.metrics.Notification(string(rec.Kind), rec.Kind.Known(), statusSkipped)
		response["status"] = statusSkipped
		response["reason"] = decision.Reason
		writeJSON(w, http.StatusOK, response)
		return
	}

	cast := publish.Cast{
		SignerUUID: signer,
		Text:       publish.Truncate(text, publish.MaxCastBytes),
		ChannelID:  decision.Channel,
	}
	if imageURL != "" {
		cast.Embeds = []string{imageURL}
	}

	start := time.Now()
	hash, err := s.publisher.Publish(r.Context(), cast)
	s.metrics.ObservePublish(time.Since(start).Seconds())
	if err != nil {
		log.Error("publish cast", "error", err)
		s.metrics.Notification(string(rec.Kind), rec.Kind.Known(), "failed")
		writeError(w, http.StatusInternalServerError, "Failed to post to Farcaster", err)
		return
	}
	s.metrics.Notification(string(rec.Kind), rec.Kind.Known(), statusReceived)
	log.Info("cast published", "hash", hash, "channel", decision.Channel)

	actor := strings.TrimSpace(rec.ActorName)
	if actor == "" {
		actor = "A player"
	}
	s.feed.Broadcast(feed.Entry{
		Kind:     rec.Kind,
		Actor:    actor,
		Text:     cast.Text,
		Channel:  decision.Channel,
		ImageURL: imageURL,
		CastHash: hash,
	})

	if hash != "" {
		response["farcaster_cast_hash"] = hash
	}
	writeJSON(w, http.StatusOK, response)
}

// readSubmission returns the raw payload and the optional screenshot. Dink
// sends multipart forms; a bare JSON body is accepted for manual testing.
func (s *Server) readSubmission(w http.ResponseWriter, r *http.Request) ([]byte, *upload.Image, error) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, errMissingPayload
	}

	if mediaType == "application/json" {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
		if err != nil || len(strings.TrimSpace(string(body))) == 0 {
			return nil, nil, errMissingPayload
		}
		return body, nil, nil
	}
	if mediaType != "multipart/form-data" {
		return nil, nil, errMissingPayload
	}

	limit := s.config.MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, limit+maxJSONBody)
	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || errors.Is(err, multipart.ErrMessageTooLarge) {
			return nil, nil, upload.ErrTooLarge
		}
		return nil, nil, errMissingPayload
	}
	defer r.MultipartForm.RemoveAll()

	payload, err := formPayload(r.MultipartForm)
	if err != nil {
		return nil, nil, err
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		return payload, nil, nil
	}
	img, err := readImage(files[0], limit)
	if err != nil {
		return nil, nil, err
	}
	return payload, img, nil
}

func formPayload(form *multipart.Form) ([]byte, error) {
	if values := form.Value["payload_json"]; len(values) > 0 && strings.TrimSpace(values[0]) != "" {
		return []byte(values[0]), nil
	}
	// Some clients attach the payload as a file part.
	if files := form.File["payload_json"]; len(files) > 0 {
		f, err := files[0].Open()
		if err != nil {
			return nil, errMissingPayload
		}
		defer f.Close()
		body, err := io.ReadAll(io.LimitReader(f, maxJSONBody))
		if err != nil || len(strings.TrimSpace(string(body))) == 0 {
			return nil, errMissingPayload
		}
		return body, nil
	}
	return nil, errMissingPayload
}

func readImage(fh *multipart.FileHeader, limit int64) (*upload.Image, error) {
	contentType := fh.Header.Get("Content-Type")
	if err := upload.Validate(contentType, fh.Size, limit); err != nil {
		return nil, err
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return &upload.Image{Name: fh.Filename, ContentType: contentType, Data: data}, nil
}

func (s *Server) submissionMessage(err error) string {
	switch {
	case errors.Is(err, upload.ErrUnsupportedType):
		return msgBadFileType
	case errors.Is(err, upload.ErrTooLarge):
		return fmt.Sprintf("File size exceeds %dMB", s.config.MaxUploadBytes>>20)
	default:
		return msgMissingPayload
	}
}

func (s *Server) storeImage(r *http.Request, img upload.Image) (string, error) {
	if s.uploader == nil {
		s.metrics.Upload("disabled")
		return "", nil
	}
	url, err := s.uploader.Upload(r.Context(), img)
	if err != nil {
		s.metrics.Upload("failed")
		return "", err
	}
	s.metrics.Upload("stored")
	return url, nil
}

// POST /api/signer/save - Link a signer to an fid and issue a webhook URL
func (s *Server) handleSaveSigner(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		FID        json.Number `json:"fid"`
		SignerUUID string      `json:"signerUuid"`
	}

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	fid := strings.TrimSpace(req.FID.String())
	signer := strings.TrimSpace(req.SignerUUID)
	if fid == "" || signer == "" {
		writeError(w, http.StatusBadRequest, "Missing fid or signerUuid", nil)
		return
	}
	if _, err := uuid.Parse(signer); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid signerUuid", nil)
		return
	}

	if err := s.sessions.Save(r.Context(), fid, signer); err != nil {
		s.log.Error("save signer", "fid", fid, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save signer", nil)
		return
	}

	token, err := s.generateLinkToken(fid)
	if err != nil {
		s.log.Error("sign link token", "fid", fid, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create webhook link", nil)
		return
	}
	s.log.Info("signer linked", "fid", fid)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"webhook_url": s.config.PublicBaseURL + "/i/" + token,
	})
}

// GET /feed - SSE stream of published captions
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's write timeout.
	http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	entries := s.feed.Subscribe(feedBuffer)
	s.metrics.SetFeedSubscribers(s.feed.Subscribers())
	defer func() {
		s.feed.Unsubscribe(entries)
		s.metrics.SetFeedSubscribers(s.feed.Subscribers())
	}()

	log := s.log.With("component", logging.ComponentFeed)
	log.Debug("feed client connected", "remote", r.RemoteAddr)

	for _, e := range s.feed.Recent(feedBacklog) {
		writeEvent(w, e)
	}
	flusher.Flush()

	ticker := time.NewTicker(feedKeepalive)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-entries:
			if !ok {
				log.Debug("feed client dropped", "remote", r.RemoteAddr)
				return
			}
			writeEvent(w, e)
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeEvent(w io.Writer, e feed.Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	w.Write([]byte("data: "))
	w.Write(data)
	w.Write([]byte("\n\n"))
}

// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
