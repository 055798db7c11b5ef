package handler

import (
	"math/rand/v2"
	"net/http"

	"github.com/penshort/budgetdesk/internal/catalog"
	"github.com/penshort/budgetdesk/internal/handler/dto"
)

// CatalogHandler serves the read-only project catalog and website dataset.
type CatalogHandler struct {
	projects *catalog.Projects
	websites *catalog.Websites
	rand     *rand.Rand
}

// NewCatalogHandler creates a new CatalogHandler. A nil rng uses the
// global source.
func NewCatalogHandler(projects *catalog.Projects, websites *catalog.Websites, rng *rand.Rand) *CatalogHandler {
	return &CatalogHandler{projects: projects, websites: websites, rand: rng}
}

// Projects handles GET /api/v1/projects?q=&category=&status=.
// category and status may be repeated.
func (h *CatalogHandler) Projects(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	projects := h.projects.Filter(catalog.ProjectFilter{
		Search:     query.Get("q"),
		Categories: query["category"],
		Statuses:   query["status"],
	})

	writeJSON(w, http.StatusOK, dto.ProjectsResponse{
		Response: dto.OK(""),
		Count:    len(projects),
		Projects: projects,
	})
}

// Facets handles GET /api/v1/projects/facets.
func (h *CatalogHandler) Facets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.FacetsResponse{
		Response:   dto.OK(""),
		Categories: h.projects.Categories(),
		Statuses:   h.projects.Statuses(),
	})
}

// Websites handles GET /api/v1/websites?q=.
func (h *CatalogHandler) Websites(w http.ResponseWriter, r *http.Request) {
	items := h.websites.Search(r.URL.Query().Get("q"))

	writeJSON(w, http.StatusOK, dto.WebsitesResponse{
		Response: dto.OK(""),
		Count:    len(items),
		Websites: dto.ToWebsiteSummaries(items),
	})
}

// RandomWebsite handles GET /api/v1/websites/random.
func (h *CatalogHandler) RandomWebsite(w http.ResponseWriter, r *http.Request) {
	site, ok := h.websites.Random(h.rand)
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "No websites available.")
		return
	}
	writeJSON(w, http.StatusOK, dto.WebsiteDetailResponse{Response: dto.OK(""), Website: site.Detail()})
}

// WebsiteDetail handles GET /api/v1/websites/detail?url=.
func (h *CatalogHandler) WebsiteDetail(w http.ResponseWriter, r *http.Request) {
	site, ok := h.websites.Find(r.URL.Query().Get("url"))
	if !ok {
		writeError(w, http.StatusNotFound, CodeNotFound, "Website not found.")
		return
	}
	writeJSON(w, http.StatusOK, dto.WebsiteDetailResponse{Response: dto.OK(""), Website: site.Detail()})
}
