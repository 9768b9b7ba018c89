package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	persons "github.com/getpup/persons-api"
	"github.com/getpup/persons-api/store"
	"github.com/go-chi/chi/v5"
)

// personRequest is the writable part of a person. Any id in the body is ignored.
type personRequest struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("Person with ID %d not found.", id)
}

func deletedMessage(id int64) string {
	return fmt.Sprintf("Person with ID %d deleted.", id)
}

func personID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", persons.ErrInvalidPerson)
	}
	return id, nil
}

func readPerson(w http.ResponseWriter, r *http.Request) (personRequest, error) {
	var req personRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return req, fmt.Errorf("%w: %v", persons.ErrInvalidPerson, err)
	}
	return req, nil
}

func (s *Server) createPerson(w http.ResponseWriter, r *http.Request) {
	req, err := readPerson(w, r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	p := persons.Person{Name: req.Name, Age: req.Age}
	if err := s.store.Create(r.Context(), &p); err != nil {
		s.writeInternalError(w, r, "create", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/persons/%d", p.ID))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listPersons(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		s.writeInternalError(w, r, "list", err)
		return
	}
	if list == nil {
		list = []persons.Person{}
	}

	writeJSON(w, http.StatusOK, list)
}

func (s *Server) getPerson(w http.ResponseWriter, r *http.Request) {
	id, err := personID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrPersonNotFound) {
		writeMessage(w, http.StatusNotFound, notFoundMessage(id))
		return
	}
	if err != nil {
		s.writeInternalError(w, r, "get", err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) updatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := personID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	req, err := readPerson(w, r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.store.Update(r.Context(), id, req.Name, req.Age)
	if errors.Is(err, store.ErrPersonNotFound) {
		writeMessage(w, http.StatusNotFound, notFoundMessage(id))
		return
	}
	if err != nil {
		s.writeInternalError(w, r, "update", err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := personID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}

	err = s.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrPersonNotFound) {
		writeMessage(w, http.StatusNotFound, notFoundMessage(id))
		return
	}
	if err != nil {
		s.writeInternalError(w, r, "delete", err)
		return
	}

	writeMessage(w, http.StatusOK, deletedMessage(id))
}
