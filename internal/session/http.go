// Copyright (c) 2026 Charboard. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package session

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/charboard/internal/dashboard"
	"github.com/taibuivan/charboard/internal/export"
	"github.com/taibuivan/charboard/internal/platform/apperr"
	"github.com/taibuivan/charboard/internal/platform/constants"
	"github.com/taibuivan/charboard/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/charboard/internal/platform/request"
	"github.com/taibuivan/charboard/internal/platform/respond"
	"github.com/taibuivan/charboard/internal/platform/validate"
	"github.com/taibuivan/charboard/pkg/pagination"
)

// sessionKey carries the resolved session from [Handler.withSession] to the
// route handlers.
type sessionKey struct{}

// Handler implements the HTTP layer for dashboard sessions.
type Handler struct {
	registry *Registry
}

// NewHandler constructs a new session [Handler].
func NewHandler(registry *Registry) *Handler {
	return &Handler{registry: registry}
}

// Routes returns a [chi.Router] configured with the session endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", handler.create)
	router.Get("/", handler.list)

	router.Route("/{id}", func(r chi.Router) {
		r.Use(handler.withSession)

		r.Get("/", handler.get)
		r.Delete("/", handler.delete)

		// Query transitions
		r.Put("/page", handler.setPage)
		r.Put("/page-size", handler.setPageSize)
		r.Put("/sort", handler.setSort)
		r.Put("/search", handler.search)
		r.Put("/filter", handler.filter)
		r.Post("/refresh", handler.refresh)

		// Detail modal
		r.Put("/modal", handler.openModal)
		r.Delete("/modal", handler.closeModal)

		r.Get("/export", handler.export)
	})

	return router
}

// withSession resolves the {id} URL parameter into a live session.
func (handler *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		id := requestutil.Param(request, "id")

		if err := (&validate.Validator{}).UUID("id", id).Err(); err != nil {
			respond.Error(writer, request, err)
			return
		}

		session, err := handler.registry.Get(id)
		if err != nil {
			respond.Error(writer, request, err)
			return
		}

		ctx := ctxutil.WithSessionID(request.Context(), id)
		ctx = ctxutil.WithLogger(ctx, ctxutil.GetLogger(ctx).With(slog.String("session_id", id)))
		ctx = context.WithValue(ctx, sessionKey{}, session)

		next.ServeHTTP(writer, request.WithContext(ctx))
	})
}

// sessionFrom returns the session resolved by [Handler.withSession].
func sessionFrom(request *http.Request) *dashboard.Session {
	return request.Context().Value(sessionKey{}).(*dashboard.Session)
}

// # Session Lifecycle

// sessionResponse is the body returned for a single session.
type sessionResponse struct {
	ID       string             `json:"id"`
	Snapshot dashboard.Snapshot `json:"snapshot"`
}

func snapshotOf(request *http.Request) sessionResponse {
	return sessionResponse{
		ID:       ctxutil.GetSessionID(request.Context()),
		Snapshot: sessionFrom(request).Snapshot(),
	}
}

/*
POST /api/v1/sessions.

Description: Creates a dashboard session and dispatches its first list fetch.

Response:
  - 201: sessionResponse: The new session, usually still loading
*/
func (handler *Handler) create(writer http.ResponseWriter, request *http.Request) {
	id, session := handler.registry.Create()
	respond.Created(writer, sessionResponse{ID: id, Snapshot: session.Snapshot()})
}

/*
GET /api/v1/sessions.

Description: Lists live sessions, oldest first.

Request:
  - page, limit: query parameters

Response:
  - 200: []Info with pagination meta
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	infos, meta := pagination.Page(handler.registry.List(), pagination.FromRequest(request))
	respond.Paginated(writer, infos, meta)
}

/*
GET /api/v1/sessions/{id}.

Description: Returns the current snapshot: query, raw inputs, fetch status,
table, chart, pagination and modal.

Response:
  - 200: sessionResponse
  - 404: ErrNotFound: Unknown or expired session
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, snapshotOf(request))
}

/*
DELETE /api/v1/sessions/{id}.

Description: Closes the session, cancelling its in-flight fetches.

Response:
  - 204: No Content
  - 404: ErrNotFound: Unknown or expired session
*/
func (handler *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	if err := handler.registry.Delete(ctxutil.GetSessionID(request.Context())); err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.NoContent(writer)
}

// # Query Transitions

type pageRequest struct {
	Page int `json:"page"`
}

/*
PUT /api/v1/sessions/{id}/page.

Description: Moves to another page of the current result set.

Request:
  - body: pageRequest

Response:
  - 200: sessionResponse
  - 400: Validation: Page below 1 or beyond the last known page
*/
func (handler *Handler) setPage(writer http.ResponseWriter, request *http.Request) {
	var input pageRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := sessionFrom(request).SetPage(input.Page); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, snapshotOf(request))
}

type pageSizeRequest struct {
	PageSize int `json:"page_size"`
}

/*
PUT /api/v1/sessions/{id}/page-size.

Description: Changes the page size and returns to page 1.

Request:
  - body: pageSizeRequest (one of the offered page sizes)

Response:
  - 200: sessionResponse
  - 400: Validation: Unsupported page size
*/
func (handler *Handler) setPageSize(writer http.ResponseWriter, request *http.Request) {
	var input pageSizeRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).OneOfInt("page_size", input.PageSize, constants.PageSizes).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := sessionFrom(request).SetPageSize(input.PageSize); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, snapshotOf(request))
}

type sortRequest struct {
	Order string `json:"order"`
}

/*
PUT /api/v1/sessions/{id}/sort.

Description: Changes the name sort order of the visible rows. The page is
kept and nothing is fetched.

Request:
  - body: sortRequest ("asc" or "desc")

Response:
  - 200: sessionResponse
  - 400: Validation: Unknown order
*/
func (handler *Handler) setSort(writer http.ResponseWriter, request *http.Request) {
	var input sortRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	allowed := []string{string(dashboard.SortAscending), string(dashboard.SortDescending)}
	if err := (&validate.Validator{}).OneOf("order", input.Order, allowed...).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionFrom(request).SetSortOrder(dashboard.SortOrder(input.Order))
	respond.OK(writer, snapshotOf(request))
}

type textRequest struct {
	Text string `json:"text"`
}

// decodeText reads and validates a raw search or filter payload.
func decodeText(request *http.Request) (string, error) {
	var input textRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		return "", err
	}

	if err := (&validate.Validator{}).MaxLen("text", input.Text, constants.MaxInputLength).Err(); err != nil {
		return "", err
	}

	return input.Text, nil
}

/*
PUT /api/v1/sessions/{id}/search.

Description: Records raw name-search input. The query follows once the input
has been quiet for the debounce period.

Request:
  - body: textRequest

Response:
  - 202: sessionResponse: search_input updated, query possibly not yet
*/
func (handler *Handler) search(writer http.ResponseWriter, request *http.Request) {
	text, err := decodeText(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionFrom(request).SearchInput(text)
	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: snapshotOf(request)})
}

/*
PUT /api/v1/sessions/{id}/filter.

Description: Records raw TV-show filter input, debounced like search.

Request:
  - body: textRequest

Response:
  - 202: sessionResponse
*/
func (handler *Handler) filter(writer http.ResponseWriter, request *http.Request) {
	text, err := decodeText(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionFrom(request).FilterInput(text)
	respond.JSON(writer, http.StatusAccepted, respond.SuccessEnvelope{Data: snapshotOf(request)})
}

/*
POST /api/v1/sessions/{id}/refresh.

Description: Re-dispatches the current query, e.g. after a failure.

Response:
  - 200: sessionResponse (loading)
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	sessionFrom(request).Refresh()
	respond.OK(writer, snapshotOf(request))
}

// # Detail Modal

type modalRequest struct {
	ID int `json:"id"`
}

/*
PUT /api/v1/sessions/{id}/modal.

Description: Opens the detail modal for a character. A cached record is
returned at once; otherwise the modal is a skeleton until the lookup ends.

Request:
  - body: modalRequest

Response:
  - 200: sessionResponse
  - 400: Validation: Non-positive character id
*/
func (handler *Handler) openModal(writer http.ResponseWriter, request *http.Request) {
	var input modalRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := (&validate.Validator{}).Min("id", input.ID, 1).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	sessionFrom(request).OpenModal(input.ID)
	respond.OK(writer, snapshotOf(request))
}

/*
DELETE /api/v1/sessions/{id}/modal.

Description: Closes the detail modal and clears the selection.

Response:
  - 200: sessionResponse
*/
func (handler *Handler) closeModal(writer http.ResponseWriter, request *http.Request) {
	sessionFrom(request).CloseModal()
	respond.OK(writer, snapshotOf(request))
}

// # Export

/*
GET /api/v1/sessions/{id}/export.

Description: Downloads the visible rows, in display order, as an XLSX workbook.

Response:
  - 200: application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
  - 409: Conflict: The current page has not loaded successfully
*/
func (handler *Handler) export(writer http.ResponseWriter, request *http.Request) {
	snap := sessionFrom(request).Snapshot()

	if snap.Status != dashboard.PhaseSucceeded {
		respond.Error(writer, request, apperr.Conflict("Nothing to export until the current page has loaded"))
		return
	}

	var body bytes.Buffer
	if err := export.Write(&body, snap.ExportRows()); err != nil {
		respond.Error(writer, request, apperr.Internal(err))
		return
	}

	ctxutil.GetLogger(request.Context()).Info("export_written",
		slog.Int("rows", len(snap.Visible)),
		slog.Int("bytes", body.Len()),
	)

	respond.File(writer, export.Filename(snap.Query), export.ContentType, body.Bytes())
}
