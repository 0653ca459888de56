package adminapi

import (
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/opchan/core/identity"
)

// cellView/postView/identityView are the wire shapes this package
// serves: a deliberately flat JSON projection of the replica's internal
// structs, so adminapi's response format does not change just because
// package replica adds a field.
type cellView struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	TimestampMs int64  `json:"timestamp_ms"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type postView struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	TimestampMs int64  `json:"timestamp_ms"`
	CellID      string `json:"cell_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
}

type identityView struct {
	Address            string `json:"address"`
	DisplayName        string `json:"display_name"`
	EnsName            string `json:"ens_name,omitempty"`
	VerificationStatus string `json:"verification_status"`
}

func (s *Server) listCells(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	cells := s.replica.Cells()
	out := make([]cellView, 0, len(cells))
	for _, c := range cells {
		out = append(out, cellView{ID: c.ID, Author: c.Author, TimestampMs: c.TimestampMs, Name: c.Name, Description: c.Description, Icon: c.Icon})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getCell(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	c := s.replica.Cell(ps.ByName("id"))
	if c == nil {
		writeError(w, http.StatusNotFound, "cell not found")
		return
	}
	writeJSON(w, http.StatusOK, cellView{ID: c.ID, Author: c.Author, TimestampMs: c.TimestampMs, Name: c.Name, Description: c.Description, Icon: c.Icon})
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	posts := s.replica.Posts()
	out := make([]postView, 0, len(posts))
	for _, p := range posts {
		out = append(out, postView{ID: p.ID, Author: p.Author, TimestampMs: p.TimestampMs, CellID: p.CellID, Title: p.Title, Body: p.Body})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	p := s.replica.Post(ps.ByName("id"))
	if p == nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusOK, postView{ID: p.ID, Author: p.Author, TimestampMs: p.TimestampMs, CellID: p.CellID, Title: p.Title, Body: p.Body})
}

// getIdentity resolves through s.ident when configured (merging ENS
// lookups, spec.md §4.5), falling back to the replica's locally-known
// fields otherwise.
func (s *Server) getIdentity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	// spec.md §3/§9: addresses are compared lowercased; the replica's
	// identity map is keyed by the lowercase form delegation.Manager
	// stamps onto every envelope's Author, so normalize the path param
	// even though s.ident.Get also normalizes internally.
	address := strings.ToLower(ps.ByName("address"))
	if s.ident != nil {
		id, err := s.ident.Get(r.Context(), address, identity.GetOptions{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, identityView{Address: id.Address, DisplayName: id.DisplayName, EnsName: id.EnsName, VerificationStatus: string(id.VerificationStatus)})
		return
	}
	id := s.replica.Identity(address)
	if id == nil {
		writeError(w, http.StatusNotFound, "identity not found")
		return
	}
	writeJSON(w, http.StatusOK, identityView{Address: id.Address, DisplayName: id.DisplayName, EnsName: id.EnsName, VerificationStatus: string(id.VerificationStatus)})
}
