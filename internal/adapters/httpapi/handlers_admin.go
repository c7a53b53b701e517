package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/rs/zerolog"

	"github.com/aashkara-band/site-api/internal/app/editor"
	"github.com/aashkara-band/site-api/internal/domain"
	"github.com/aashkara-band/site-api/internal/ports/out/kvstore"
)

// Patch DTOs are tri-state: an absent field is left alone, null clears it, and a value
// replaces it.
type profilePatch struct {
	Name    nullable.Nullable[string] `json:"name"`
	Tagline nullable.Nullable[string] `json:"tagline"`
	About   nullable.Nullable[string] `json:"about"`
	Contact *contactPatch             `json:"contact"`
	Social  *socialPatch              `json:"social"`
}

type contactPatch struct {
	Email          nullable.Nullable[openapi_types.Email] `json:"email"`
	Phone          nullable.Nullable[string]              `json:"phone"`
	AlternatePhone nullable.Nullable[string]              `json:"alternatePhone"`
	Address        nullable.Nullable[string]              `json:"address"`
}

type socialPatch struct {
	Instagram nullable.Nullable[string] `json:"instagram"`
	YouTube   nullable.Nullable[string] `json:"youtube"`
	Facebook  nullable.Nullable[string] `json:"facebook"`
	Spotify   nullable.Nullable[string] `json:"spotify"`
}

type memberPatch struct {
	Name nullable.Nullable[string] `json:"name"`
	Role nullable.Nullable[string] `json:"role"`
	Bio  nullable.Nullable[string] `json:"bio"`
}

type projectPatch struct {
	Title       nullable.Nullable[string] `json:"title"`
	Description nullable.Nullable[string] `json:"description"`
	YouTubeID   nullable.Nullable[string] `json:"youtubeId"`
}

type editorState struct {
	Profile domain.BandProfile `json:"profile"`
	Dirty   bool               `json:"dirty"`
}

type addedResponse struct {
	Index int `json:"index"`
	editorState
}

// applyPatch applies one tri-state field through set.
func applyPatch[T ~string](n nullable.Nullable[T], field string, set func(field, value string) error) error {
	if !n.IsSpecified() {
		return nil
	}
	if n.IsNull() {
		return set(field, "")
	}
	v, err := n.Get()
	if err != nil {
		return err
	}
	return set(field, string(v))
}

type fieldPatch func(set func(field, value string) error) error

func patchOf[T ~string](field string, n nullable.Nullable[T]) fieldPatch {
	return func(set func(string, string) error) error {
		return applyPatch(n, field, set)
	}
}

// applyAll stops at the first failing field; fields before it stay applied.
func applyAll(set func(field, value string) error, patches ...fieldPatch) error {
	for _, apply := range patches {
		if err := apply(set); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) editorFor(r *http.Request) *editor.Editor {
	sid, _ := SessionFromContext(r.Context())
	return s.editors.Get(r.Context(), sid)
}

func writeEditorState(w http.ResponseWriter, status int, ed *editor.Editor) {
	writeJSON(w, status, editorState{Profile: ed.Working(), Dirty: ed.Dirty()})
}

func (s *Server) getEditor(w http.ResponseWriter, r *http.Request) {
	writeEditorState(w, http.StatusOK, s.editorFor(r))
}

func (s *Server) patchEditor(w http.ResponseWriter, r *http.Request) {
	var req profilePatch
	if !decodeJSON(w, r, &req, true) {
		return
	}
	ed := s.editorFor(r)

	err := applyAll(ed.UpdateField,
		patchOf("name", req.Name),
		patchOf("tagline", req.Tagline),
		patchOf("about", req.About),
	)
	if err == nil && req.Contact != nil {
		err = applyAll(ed.UpdateContact,
			patchOf("email", req.Contact.Email),
			patchOf("phone", req.Contact.Phone),
			patchOf("alternatePhone", req.Contact.AlternatePhone),
			patchOf("address", req.Contact.Address),
		)
	}
	if err == nil && req.Social != nil {
		err = applyAll(ed.UpdateSocial,
			patchOf("instagram", req.Social.Instagram),
			patchOf("youtube", req.Social.YouTube),
			patchOf("facebook", req.Social.Facebook),
			patchOf("spotify", req.Social.Spotify),
		)
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeEditorState(w, http.StatusOK, ed)
}

func (s *Server) reloadEditor(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(r)
	ed.Reload(r.Context())
	writeEditorState(w, http.StatusOK, ed)
}

func (s *Server) saveEditor(w http.ResponseWriter, r *http.Request) {
	ed := s.editorFor(r)
	if err := ed.Save(r.Context()); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("profile save failed")
		if errors.Is(err, kvstore.ErrUnavailable) {
			writeError(w, r, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Failed to save configuration: storage is unavailable", nil)
			return
		}
		writeError(w, r, http.StatusInternalServerError, "SAVE_FAILED", "Failed to save configuration", nil)
		return
	}
	if id, ok := IdentityFromContext(r.Context()); ok {
		zerolog.Ctx(r.Context()).Info().Str("subject", string(id.Subject)).Msg("profile saved")
	}
	writeEditorState(w, http.StatusOK, ed)
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	var m domain.Member
	if !decodeJSON(w, r, &m, true) {
		return
	}
	ed := s.editorFor(r)
	i := ed.AddMember(m)
	writeJSON(w, http.StatusCreated, addedResponse{Index: i, editorState: editorState{Profile: ed.Working(), Dirty: ed.Dirty()}})
}

func (s *Server) patchMember(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req memberPatch
	if !decodeJSON(w, r, &req, true) {
		return
	}
	ed := s.editorFor(r)
	set := func(field, value string) error { return ed.UpdateMember(i, field, value) }
	if err := applyAll(set, patchOf("name", req.Name), patchOf("role", req.Role), patchOf("bio", req.Bio)); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeEditorState(w, http.StatusOK, ed)
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	ed := s.editorFor(r)
	if err := ed.RemoveMember(i); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeEditorState(w, http.StatusOK, ed)
}

func (s *Server) addProject(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if !decodeJSON(w, r, &p, true) {
		return
	}
	ed := s.editorFor(r)
	i := ed.AddProject(p)
	writeJSON(w, http.StatusCreated, addedResponse{Index: i, editorState: editorState{Profile: ed.Working(), Dirty: ed.Dirty()}})
}

func (s *Server) patchProject(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req projectPatch
	if !decodeJSON(w, r, &req, true) {
		return
	}
	ed := s.editorFor(r)
	set := func(field, value string) error { return ed.UpdateProject(i, field, value) }
	err := applyAll(set,
		patchOf("title", req.Title),
		patchOf("description", req.Description),
		patchOf("youtubeId", req.YouTubeID),
	)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeEditorState(w, http.StatusOK, ed)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	ed := s.editorFor(r)
	if err := ed.RemoveProject(i); err != nil {
		writeAppError(w, r, err)
		return
	}
	writeEditorState(w, http.StatusOK, ed)
}

func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "index must be an integer", nil)
		return 0, false
	}
	return i, true
}
