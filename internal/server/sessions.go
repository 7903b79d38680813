package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/options"
	"github.com/goliatone/go-formflow/pkg/orchestrator"
	"github.com/goliatone/go-formflow/pkg/stepper"
)

var (
	errSessionNotFound   = errors.New("server: session not found")
	errFieldHasNoOptions = errors.New("server: field has no option source")
	errFormUnparsable    = errors.New("form body could not be parsed")
	errCSRFMismatch      = errors.New("form token is missing or does not match the session")
)

// session is one wizard in progress. Handlers hold mu for the whole request
// so field updates and navigation of the same session never interleave.
type session struct {
	mu sync.Mutex

	ID           string
	Definition   model.Definition
	Stepper      *stepper.Stepper
	SubmitMethod string
	SubmitPath   string
	CSRFToken    string
	Created      time.Time

	// searchers maps a field path to the option group of its step.
	searchers map[string]*options.Group
}

func (s *session) close() {
	s.Stepper.Close()
}

// search runs a typeahead query for path. It does not take mu so searches
// keep flowing while another request holds the session.
func (s *session) search(ctx context.Context, path, query string) ([]model.Option, error) {
	group, ok := s.searchers[path]
	if !ok {
		return nil, errFieldHasNoOptions
	}
	return group.Search(ctx, path, query)
}

type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

func (s *sessionStore) put(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *sessionStore) remove(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	return sess, ok
}

func (s *sessionStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *sessionStore) drain() []*session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		out = append(out, sess)
		delete(s.sessions, id)
	}
	return out
}

// openSession builds the stepper for def. With a record id the record is
// fetched first, its values prefill the forms and submission goes to the
// record URL instead of the collection endpoint.
func (s *Server) openSession(ctx context.Context, def model.Definition, recordID string) (*session, error) {
	def, err := s.pipeline.Prepare(ctx, orchestrator.Request{Definition: &def})
	if err != nil {
		return nil, err
	}

	sess := &session{
		ID:           uuid.NewString(),
		Definition:   def,
		SubmitMethod: def.SubmitMethod(),
		SubmitPath:   def.Endpoint,
		Created:      time.Now(),
		searchers:    make(map[string]*options.Group),
	}
	if s.csrfField != "" {
		sess.CSRFToken = uuid.NewString()
	}

	var record map[string]any
	if recordID != "" {
		path := def.RecordPath(recordID)
		fetched, err := s.client.Fetch(ctx, path)
		if err != nil {
			return nil, err
		}
		record = fetched
		sess.SubmitPath = path
		sess.SubmitMethod = def.UpdateMethod()
	}

	formID := def.ID
	st, err := stepper.FromDefinition(def, record, s.formConfig,
		stepper.WithLogger(s.logger.With(zap.String("session", sess.ID), zap.String("form", formID))),
		stepper.WithObserver(func(t stepper.Transition) {
			direction := "forward"
			if t.To < t.From {
				direction = "back"
			}
			s.metrics.Transition(formID, direction)
		}),
	)
	if err != nil {
		return nil, err
	}
	sess.Stepper = st

	hook := func(field string, outcome options.Outcome, elapsed time.Duration) {
		s.metrics.Search(field, string(outcome), elapsed)
	}
	for idx, step := range st.Steps() {
		group := options.NewGroup(hook)
		step.OnClose(group.Close)
		walkFields(def.Steps[idx].Fields, "", func(path string, field model.Field) {
			if !field.UIType.Choice() {
				return
			}
			if source, ok := options.ForField(field, s.remoteOptions()...); ok {
				group.Add(path, source)
				sess.searchers[path] = group
			}
		})
	}
	return sess, nil
}

// remoteOptions resolves relative search URLs against the backend.
func (s *Server) remoteOptions() []options.RemoteOption {
	if s.client == nil {
		return s.remoteOpts
	}
	return append([]options.RemoteOption{options.WithBaseURL(s.client.BaseURL)}, s.remoteOpts...)
}

func walkFields(fields []model.Field, prefix string, fn func(path string, field model.Field)) {
	for _, field := range fields {
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}
		fn(path, field)
		if len(field.Nested) > 0 {
			walkFields(field.Nested, path, fn)
		}
	}
}
