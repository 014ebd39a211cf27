package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/otakudb/internal/platform/analytics"
	"github.com/example/otakudb/internal/platform/api"
	"github.com/example/otakudb/services/otakudb/internal/domain"
	"github.com/example/otakudb/services/otakudb/internal/query"
	"github.com/example/otakudb/services/otakudb/internal/store"
	"github.com/example/otakudb/services/otakudb/internal/validation"
)

// ListAnime handles GET /api/animes. With id it answers the single record,
// otherwise the list matching title words, genre, or everything.
func ListAnime(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := requestID(r)
		fields, errs := validation.Validate(validation.Lookup, validation.FromQuery(r.URL.Query()))
		if len(errs) > 0 {
			api.ValidationFailed(w, errs, rid)
			return
		}

		plan := query.PlanLookup(fields)
		animes, err := d.Store.Lookup(r.Context(), plan)
		if err != nil {
			d.logger(r).Error("lookup anime", zap.Error(err))
			api.Internal(w, "failed to retrieve anime", "", rid)
			return
		}

		switch plan.Kind {
		case query.ByID:
			if len(animes) == 0 {
				api.NotFound(w, fmt.Sprintf("anime id:%d not found", plan.ID), rid)
				return
			}
			api.WriteJSON(w, http.StatusOK, animes[0])
			return
		case query.ByTitle:
			if len(animes) == 0 {
				api.NotFound(w, "no anime found matching words: "+plan.Title, rid)
				return
			}
		case query.ByGenre:
			if len(animes) == 0 {
				api.NotFound(w, "no anime found with genre: "+plan.Genre, rid)
				return
			}
		}
		api.WriteJSON(w, http.StatusOK, animes)
	}
}

// CreateAnime handles POST /api/animes.
func CreateAnime(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := requestID(r)
		in, err := validation.DecodeObject(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			api.BadRequest(w, "invalid JSON body", rid)
			return
		}
		fields, errs := validation.Validate(validation.Create, in)
		if len(errs) > 0 {
			api.ValidationFailed(w, errs, rid)
			return
		}

		created, err := d.Store.Create(r.Context(), domain.NewAnime(fields))
		if err != nil {
			d.logger(r).Error("create anime", zap.Error(err))
			api.Internal(w, "failed to create anime", err.Error(), rid)
			return
		}
		d.publish(analytics.SubjectAnimeCreated, map[string]any{
			"anime_id": created.ID,
			"uid":      created.UID,
			"title":    created.Title,
		})
		api.WriteJSON(w, http.StatusCreated, created)
	}
}

// UpdateAnime handles PATCH /api/animes?id=N. Fields are written in the order
// the body lists them; uid and id are ignored.
func UpdateAnime(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := requestID(r)
		id, idErrs := targetID(r)

		in, err := validation.DecodeObject(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			api.BadRequest(w, "invalid JSON body", rid)
			return
		}
		fields, errs := validation.Validate(validation.Patch, in)
		if errs = append(idErrs, errs...); len(errs) > 0 {
			api.ValidationFailed(w, errs, rid)
			return
		}

		assignments, err := query.PrepareUpdate(fields)
		switch {
		case errors.Is(err, query.ErrNoFields):
			api.ValidationFailed(w, []string{"no fields provided for update"}, rid)
			return
		case errors.Is(err, query.ErrImmutableOnly):
			api.ValidationFailed(w, []string{`fields "uid" and "id" cannot be updated`}, rid)
			return
		case err != nil:
			api.ValidationFailed(w, []string{err.Error()}, rid)
			return
		}

		if err := d.Store.Update(r.Context(), id, assignments); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, fmt.Sprintf("anime id:%d not found", id), rid)
				return
			}
			d.logger(r).Error("update anime", zap.Int64("anime_id", id), zap.Error(err))
			api.Internal(w, "failed to update anime", err.Error(), rid)
			return
		}
		d.publish(analytics.SubjectAnimeUpdated, map[string]any{
			"anime_id": id,
			"fields":   fieldNames(assignments),
		})
		api.WriteJSON(w, http.StatusOK, api.Message{
			Message: fmt.Sprintf("field(s) updated successfully on anime id:%d", id),
		})
	}
}

// DeleteAnime handles DELETE /api/animes?id=N.
func DeleteAnime(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := requestID(r)
		id, errs := targetID(r)
		if len(errs) > 0 {
			api.ValidationFailed(w, errs, rid)
			return
		}

		if err := d.Store.Delete(r.Context(), id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				api.NotFound(w, fmt.Sprintf("anime id:%d not found", id), rid)
				return
			}
			d.logger(r).Error("delete anime", zap.Int64("anime_id", id), zap.Error(err))
			api.Internal(w, "failed to delete anime", "", rid)
			return
		}
		d.publish(analytics.SubjectAnimeDeleted, map[string]any{"anime_id": id})
		api.WriteJSON(w, http.StatusOK, api.Message{Message: fmt.Sprintf("anime id:%d deleted", id)})
	}
}
