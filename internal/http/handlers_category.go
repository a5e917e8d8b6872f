package http

import (
	"net/http"

	"github.com/spanexx/personal-finance-dashboard-sub003/internal/core"
	"github.com/spanexx/personal-finance-dashboard-sub003/internal/services"
)

type categoryRequest struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID string `json:"parent_id"`
	Color    string `json:"color"`
	Icon     string `json:"icon"`
}

type categoryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID string `json:"parent_id,omitempty"`
	Depth    int    `json:"depth"`
	Color    string `json:"color,omitempty"`
	Icon     string `json:"icon,omitempty"`
	Active   bool   `json:"active"`
}

func toCategoryResponse(c core.Category) categoryResponse {
	return categoryResponse{
		ID:       c.ID,
		Name:     c.Name,
		Type:     string(c.Type),
		ParentID: c.ParentID,
		Depth:    c.Depth,
		Color:    c.Color,
		Icon:     c.Icon,
		Active:   c.Active,
	}
}

type categoryTreeNode struct {
	categoryResponse
	Children []categoryTreeNode `json:"children,omitempty"`
}

func toCategoryTree(nodes []*core.CategoryNode) []categoryTreeNode {
	out := make([]categoryTreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = categoryTreeNode{
			categoryResponse: toCategoryResponse(n.Category),
			Children:         toCategoryTree(n.Children),
		}
	}
	return out
}

func (s *Server) handleCategoryCreate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.categories.Create(r.Context(), core.Category{
		UserID:   uid,
		Name:     req.Name,
		Type:     core.TransactionType(req.Type),
		ParentID: req.ParentID,
		Color:    req.Color,
		Icon:     req.Icon,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryResponse(created))
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	typ := core.TransactionType(r.URL.Query().Get("type"))
	activeOnly := r.URL.Query().Get("active") == "true"

	list, err := s.categories.List(r.Context(), uid, typ, activeOnly)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]categoryResponse, len(list))
	for i, c := range list {
		out[i] = toCategoryResponse(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategoryTree(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	roots, err := s.categories.Tree(r.Context(), uid, core.TransactionType(r.URL.Query().Get("type")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryTree(roots))
}

func (s *Server) handleCategoryGet(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.categories.Get(r.Context(), uid, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(c))
}

func (s *Server) handleCategoryUpdate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Name     *string `json:"name"`
		ParentID *string `json:"parent_id"`
		Color    *string `json:"color"`
		Icon     *string `json:"icon"`
		Active   *bool   `json:"active"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.categories.Update(r.Context(), uid, r.PathValue("id"), services.CategoryUpdate{
		Name:     req.Name,
		ParentID: req.ParentID,
		Color:    req.Color,
		Icon:     req.Icon,
		Active:   req.Active,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryResponse(updated))
}

func (s *Server) handleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	reassignTo := r.URL.Query().Get("reassign_to")
	if err := s.categories.Delete(r.Context(), uid, r.PathValue("id"), reassignTo); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCategoryKeywords(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req struct {
		Keywords []string `json:"keywords"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.categories.SetKeywords(r.Context(), uid, r.PathValue("id"), req.Keywords); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
