package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/errmap"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/stepper"
	"github.com/goliatone/go-formflow/pkg/submit"
	"github.com/goliatone/go-formflow/pkg/values"
)

const (
	blurKey         = "_blur"
	maxFormBytes    = 1 << 20
	transportToast  = "We could not reach the server. Your answers are kept, please try again."
	validationToast = "Some answers need your attention."
	incompleteToast = "Complete every step before submitting."
	savedToast      = "Saved."
)

type formSummary struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Endpoint string   `json:"endpoint"`
	Method   string   `json:"method"`
	Steps    []string `json:"steps"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.sessions.len()})
}

func (s *Server) handleListForms(w http.ResponseWriter, _ *http.Request) {
	defs := s.definitions.List()
	out := make([]formSummary, 0, len(defs))
	for _, def := range defs {
		steps := make([]string, 0, len(def.Steps))
		for _, step := range def.Steps {
			steps = append(steps, step.Label)
		}
		out = append(out, formSummary{
			ID:       def.ID,
			Title:    def.Title,
			Endpoint: def.Endpoint,
			Method:   def.SubmitMethod(),
			Steps:    steps,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	def, ok := s.definitions.Get(chi.URLParam(r, "form"))
	if !ok {
		writeError(w, http.StatusNotFound, "form not found")
		return
	}
	record := strings.TrimSpace(r.URL.Query().Get("record"))
	if record != "" && s.client == nil {
		writeError(w, http.StatusServiceUnavailable, "backend is not configured")
		return
	}

	sess, err := s.openSession(r.Context(), def, record)
	if err != nil {
		var te *submit.TransportError
		switch {
		case errors.As(err, &te):
			s.logger.Warn("fetch record failed", zap.String("form", def.ID), zap.String("record", record), zap.Error(err))
			writeError(w, http.StatusBadGateway, "record could not be loaded")
		default:
			s.logger.Error("open session failed", zap.String("form", def.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "session could not be opened")
		}
		return
	}
	s.sessions.put(sess)
	s.metrics.SessionOpened()
	s.logger.Info("session opened", zap.String("session", sess.ID), zap.String("form", def.ID), zap.String("record", record))

	http.Redirect(w, r, sessionPath(sess.ID), http.StatusSeeOther)
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	s.renderSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.remove(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errSessionNotFound.Error())
		return
	}
	sess.close()
	s.metrics.SessionClosed()
	w.WriteHeader(http.StatusNoContent)
}

// handleFields applies posted values to the active step. Fields named in
// _blur are marked touched; without _blur every posted field is.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.applyPosted(w, r, sess); err != nil {
		writePostError(w, err)
		return
	}
	s.renderSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.applyPosted(w, r, sess); err != nil {
		writePostError(w, err)
		return
	}
	status := http.StatusOK
	if err := sess.Stepper.Advance(r.Context()); err != nil {
		if !errors.Is(err, stepper.ErrStepInvalid) && !errors.Is(err, stepper.ErrAtEnd) {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if errors.Is(err, stepper.ErrStepInvalid) {
			status = http.StatusUnprocessableEntity
		}
	}
	s.renderSession(w, r, sess, status)
}

// handleBack keeps posted values without validating them.
func (s *Server) handleBack(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.applyPosted(w, r, sess); err != nil {
		writePostError(w, err)
		return
	}
	if err := sess.Stepper.Retreat(); err != nil && !errors.Is(err, stepper.ErrAtStart) {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.renderSession(w, r, sess, http.StatusOK)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	field, err := url.PathUnescape(chi.URLParam(r, "field"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid field")
		return
	}
	found, err := sess.search(r.Context(), field, r.URL.Query().Get("q"))
	switch {
	case err == nil:
		if found == nil {
			found = []model.Option{}
		}
		writeJSON(w, http.StatusOK, found)
	case errors.Is(err, errFieldHasNoOptions):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, options.ErrStale), errors.Is(err, context.Canceled):
		// A newer query for the same field replaced this one.
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, options.ErrClosed):
		writeError(w, http.StatusGone, err.Error())
	default:
		s.logger.Warn("option search failed", zap.String("session", sess.ID), zap.String("field", field), zap.Error(err))
		writeError(w, http.StatusBadGateway, "options could not be loaded")
	}
}

// handleSubmit merges every step and sends the payload. Validation errors
// are routed back to their steps and the wizard jumps to the first step that
// received one; transport failures keep every value and show a toast.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.parsePosted(w, r, sess); err != nil {
		writePostError(w, err)
		return
	}

	formID := sess.Definition.ID
	if !sess.Stepper.Terminal() {
		s.renderSession(w, r, sess, http.StatusConflict, render.WithToast(render.ToastError, incompleteToast))
		return
	}
	if s.client == nil {
		s.renderSession(w, r, sess, http.StatusServiceUnavailable, render.WithToast(render.ToastError, transportToast))
		return
	}

	payload := sess.Stepper.Collect()
	setSubmitting(sess.Stepper, true)
	_, err := s.client.Submit(r.Context(), sess.SubmitMethod, sess.SubmitPath, payload)
	setSubmitting(sess.Stepper, false)

	if err == nil {
		s.metrics.Submission(formID, "ok")
		if _, removed := s.sessions.remove(sess.ID); removed {
			sess.close()
			s.metrics.SessionClosed()
		}
		s.logger.Info("submitted", zap.String("session", sess.ID), zap.String("form", formID))
		frame := render.Frame{FormID: formID, Title: sess.Definition.Title, Metadata: sess.Definition.Metadata}
		render.WithToast(render.ToastSuccess, savedToast)(&frame)
		s.writeFrame(w, r, frame, http.StatusOK)
		return
	}

	if fe, ok := submit.IsFieldErrors(err); ok {
		s.metrics.Submission(formID, "invalid")
		routing := errmap.Route(fe.Payload, make([]any, sess.Stepper.Len()), sess.Definition.Owners())
		nonField := sess.Stepper.ApplyRouting(routing)
		for idx, flagged := range routing.Flags {
			if flagged {
				if err := sess.Stepper.GoTo(idx); err != nil {
					s.logger.Warn("jump to step with errors", zap.Int("step", idx), zap.Error(err))
				}
				break
			}
		}
		s.logger.Info("submission rejected",
			zap.String("session", sess.ID),
			zap.String("form", formID),
			zap.Strings("paths", errmap.GetErrorPaths(fe.Payload)),
		)
		s.renderSession(w, r, sess, http.StatusUnprocessableEntity,
			render.WithNonFieldErrors(nonField...),
			render.WithToast(render.ToastError, validationToast),
		)
		return
	}

	s.metrics.Submission(formID, "transport_error")
	s.logger.Warn("submission failed", zap.String("session", sess.ID), zap.String("form", formID), zap.Error(err))
	s.renderSession(w, r, sess, http.StatusBadGateway, render.WithToast(render.ToastError, transportToast))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.sessions.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, errSessionNotFound.Error())
		return nil, false
	}
	return sess, true
}

// applyPosted copies form values into the active step. The last value wins
// for scalar fields; multiselect fields take every value.
func (s *Server) applyPosted(w http.ResponseWriter, r *http.Request, sess *session) error {
	if err := s.parsePosted(w, r, sess); err != nil {
		return err
	}
	active := sess.Stepper.Active()
	if active == nil || active.Form == nil {
		return nil
	}
	form := active.Form
	posted := r.PostForm

	var changed []string
	walkFields(form.Fields(), "", func(path string, field model.Field) {
		if len(field.Nested) > 0 || field.UIType == model.UITypeGroup {
			return
		}
		raw, ok := posted[path]
		if !ok || len(raw) == 0 {
			return
		}
		if err := form.Change(r.Context(), path, postedValue(field, raw)); err != nil {
			s.logger.Warn("apply field", zap.String("session", sess.ID), zap.String("path", path), zap.Error(err))
			return
		}
		changed = append(changed, path)
	})

	blur := changed
	if explicit, ok := posted[blurKey]; ok {
		blur = explicit
	}
	for _, path := range blur {
		if path = strings.TrimSpace(path); path != "" {
			form.Blur(r.Context(), path)
		}
	}
	return nil
}

// parsePosted reads the form body and checks the session token when CSRF
// protection is on.
func (s *Server) parsePosted(w http.ResponseWriter, r *http.Request, sess *session) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return errFormUnparsable
	}
	if s.csrfField == "" {
		return nil
	}
	posted := r.PostForm.Get(s.csrfField)
	if subtle.ConstantTimeCompare([]byte(posted), []byte(sess.CSRFToken)) != 1 {
		return errCSRFMismatch
	}
	return nil
}

func writePostError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errCSRFMismatch) {
		status = http.StatusForbidden
	}
	writeError(w, status, err.Error())
}

func postedValue(field model.Field, raw []string) any {
	dataType := field.EffectiveDataType()
	if dataType == model.DataTypeMultiSelect {
		items := make([]string, 0, len(raw))
		for _, item := range raw {
			if item = strings.TrimSpace(item); item != "" {
				items = append(items, item)
			}
		}
		return values.Coerce(dataType, items)
	}

	last := raw[len(raw)-1]
	switch dataType {
	case model.DataTypeNumber, model.DataTypeInteger, model.DataTypeBoolean:
		if strings.TrimSpace(last) == "" {
			return nil
		}
	}
	return values.Coerce(dataType, last)
}

func setSubmitting(st *stepper.Stepper, submitting bool) {
	for _, step := range st.Steps() {
		if step.Form != nil {
			step.Form.SetSubmitting(submitting)
		}
	}
}

// renderSession draws the active step of sess.
func (s *Server) renderSession(w http.ResponseWriter, r *http.Request, sess *session, status int, extra ...render.FrameOption) {
	base := sessionPath(sess.ID)
	opts := []render.FrameOption{
		render.WithFormID(sess.Definition.ID),
		render.WithTitle(sess.Definition.Title),
		render.WithAction(http.MethodPost, base+"/fields"),
		render.WithNavigation(base),
		render.WithSubmitLabel(sess.Definition.SubmitLabel),
		render.WithMetadata(sess.Definition.Metadata),
	}
	if s.csrfField != "" {
		opts = append(opts, render.WithHiddenFields(render.CSRFToken(s.csrfField, sess.CSRFToken)))
	}
	frame := render.FromStepper(r.Context(), sess.Stepper, append(opts, extra...)...)
	frame.Fields = s.sessionSearchURLs(sess, frame.Fields, "")
	s.writeFrame(w, r, frame, status)
}

// sessionSearchURLs points choice widgets with an option source at the
// session's options route so the browser never calls the backend directly.
func (s *Server) sessionSearchURLs(sess *session, fields model.Fields, prefix string) model.Fields {
	if len(fields) == 0 {
		return fields
	}
	out := make(model.Fields, len(fields))
	for idx, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		if len(field.Nested) > 0 {
			field.Nested = s.sessionSearchURLs(sess, field.Nested, path)
		}
		if _, ok := sess.searchers[path]; ok && hasRemoteSource(field) {
			field.SearchURL = sessionPath(sess.ID) + "/options/" + url.PathEscape(path)
		}
		out[idx] = field
	}
	return out
}

func hasRemoteSource(field model.Field) bool {
	if field.Search != nil || strings.TrimSpace(field.SearchURL) != "" {
		return true
	}
	_, ok := options.RemoteFromMetadata(field.Metadata)
	return ok
}

func (s *Server) writeFrame(w http.ResponseWriter, r *http.Request, frame render.Frame, status int) {
	body, contentType, err := s.renderers.Render(r.Context(), s.rendererName, frame, render.RenderOptions{
		Method:        frame.Method,
		StrictWidgets: s.strictWidgets,
		Theme:         s.theme,
		Logger:        s.logger,
	})
	if err != nil {
		s.logger.Error("render failed", zap.String("form", frame.FormID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "page could not be rendered")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func sessionPath(id string) string {
	return "/sessions/" + url.PathEscape(id)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
