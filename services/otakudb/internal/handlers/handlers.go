// Package handlers exposes the anime resource over HTTP.
package handlers

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/example/otakudb/internal/platform/httpserver"
	"github.com/example/otakudb/services/otakudb/internal/domain"
	"github.com/example/otakudb/services/otakudb/internal/store"
	"github.com/example/otakudb/services/otakudb/internal/validation"
)

const maxBodyBytes = 1 << 20

// EventPublisher receives a notification after every successful write.
type EventPublisher interface {
	Publish(subject string, props map[string]any)
}

// Deps are shared by every anime handler.
type Deps struct {
	Store  store.AnimeStore
	Log    *zap.Logger
	Events EventPublisher
}

func (d Deps) logger(r *http.Request) *zap.Logger {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	return log.With(zap.String("request_id", httpserver.RequestIDFromContext(r.Context())))
}

func (d Deps) publish(subject string, props map[string]any) {
	if d.Events != nil {
		d.Events.Publish(subject, props)
	}
}

func requestID(r *http.Request) string {
	return httpserver.RequestIDFromContext(r.Context())
}

// targetID validates the id query parameter addressing a single record.
func targetID(r *http.Request) (int64, []string) {
	in := validation.FromQuery(url.Values{domain.FieldID: r.URL.Query()[domain.FieldID]})
	fields, errs := validation.Validate(validation.Target, in)
	if len(errs) > 0 {
		return 0, errs
	}
	id, _ := fields[0].Value.(int64)
	return id, nil
}

func fieldNames(fields []domain.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}
