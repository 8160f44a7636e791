package handler

import (
	"errors"
	"net/http"

	"github.com/kmbui/kmbui-backend/internal/model"
	"github.com/kmbui/kmbui-backend/internal/store"
)

// ContentHandler serves the article and magazine endpoints. Plain CRUD
// with no workflow semantics; it shares the store but never touches the
// credential tables.
type ContentHandler struct {
	store *store.Store
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(st *store.Store) *ContentHandler {
	return &ContentHandler{store: st}
}

// ListArticles returns all articles.
// GET /article
func (h *ContentHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.store.ListArticles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list articles")
		return
	}
	if articles == nil {
		articles = []model.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

// GetArticle returns a single article by ID.
// GET /article/{id}
func (h *ContentHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Article not found")
		return
	}
	article, err := h.store.GetArticle(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Article not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get article")
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// createArticleRequest is the expected payload for CreateArticle.
type createArticleRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Theme    string `json:"theme"`
	Writer   string `json:"writer"`
	Content  string `json:"content"`
}

// CreateArticle publishes a new article.
// POST /make-article
func (h *ContentHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req createArticleRequest
	if err := readJSON(r, &req); err != nil {
		writeValidationError(w, map[string]string{"body": "invalid JSON: " + err.Error()})
		return
	}

	fields := make(map[string]string)
	for name, val := range map[string]string{
		"title":    req.Title,
		"subtitle": req.Subtitle,
		"theme":    req.Theme,
		"writer":   req.Writer,
		"content":  req.Content,
	} {
		if val == "" {
			fields[name] = "Required property"
		}
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	article := &model.Article{
		Title:    req.Title,
		Subtitle: req.Subtitle,
		Theme:    req.Theme,
		Writer:   req.Writer,
		Content:  req.Content,
	}
	if err := h.store.CreateArticle(r.Context(), article); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create article")
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

// ListMagazines returns all magazine issues.
// GET /magazine
func (h *ContentHandler) ListMagazines(w http.ResponseWriter, r *http.Request) {
	magazines, err := h.store.ListMagazines(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list magazines")
		return
	}
	if magazines == nil {
		magazines = []model.Magazine{}
	}
	writeJSON(w, http.StatusOK, magazines)
}

// GetMagazine returns a single magazine by ID.
// GET /magazine/{id}
func (h *ContentHandler) GetMagazine(w http.ResponseWriter, r *http.Request) {
	id, ok := urlParamInt64(r, "id")
	if !ok {
		writeError(w, http.StatusNotFound, "Magazine not found")
		return
	}
	magazine, err := h.store.GetMagazine(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Magazine not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get magazine")
		return
	}
	writeJSON(w, http.StatusOK, magazine)
}

// createMagazineRequest is the expected payload for CreateMagazine.
type createMagazineRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ContentURL   string `json:"contentUrl"`
}

// CreateMagazine publishes a new magazine issue.
// POST /make-magazine
func (h *ContentHandler) CreateMagazine(w http.ResponseWriter, r *http.Request) {
	var req createMagazineRequest
	if err := readJSON(r, &req); err != nil {
		writeValidationError(w, map[string]string{"body": "invalid JSON: " + err.Error()})
		return
	}

	fields := make(map[string]string)
	for name, val := range map[string]string{
		"title":        req.Title,
		"description":  req.Description,
		"thumbnailUrl": req.ThumbnailURL,
		"contentUrl":   req.ContentURL,
	} {
		if val == "" {
			fields[name] = "Required property"
		}
	}
	if len(fields) > 0 {
		writeValidationError(w, fields)
		return
	}

	magazine := &model.Magazine{
		Title:        req.Title,
		Description:  req.Description,
		ThumbnailURL: req.ThumbnailURL,
		ContentURL:   req.ContentURL,
	}
	if err := h.store.CreateMagazine(r.Context(), magazine); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create magazine")
		return
	}
	writeJSON(w, http.StatusCreated, magazine)
}
