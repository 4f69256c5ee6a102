package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/conformeahq/conformea/pkg/catalog"
	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/maturity"
)

// FrameworkHandler serves the static framework catalog.
type FrameworkHandler struct {
	log *logger.Logger
}

// NewFrameworkHandler creates a new FrameworkHandler.
func NewFrameworkHandler(log *logger.Logger) *FrameworkHandler {
	return &FrameworkHandler{
		log: log.WithComponent("framework-handler"),
	}
}

// FrameworkSummary describes one supported framework.
type FrameworkSummary struct {
	Type     maturity.FrameworkType `json:"type"`
	Name     string                 `json:"name"`
	Version  string                 `json:"version"`
	Levels   []maturity.LevelDef    `json:"levels"`
	Branches int                    `json:"branches"`
	Controls int                    `json:"controls"`
}

// List returns the supported frameworks and their maturity scales.
func (h *FrameworkHandler) List(w http.ResponseWriter, r *http.Request) {
	specs := catalog.Frameworks()

	response := make([]FrameworkSummary, 0, len(specs))
	for _, spec := range specs {
		leaves, _ := spec.Tree.Leaves("")
		response = append(response, FrameworkSummary{
			Type:     spec.Type,
			Name:     spec.Name,
			Version:  spec.Version,
			Levels:   spec.Scale.Levels(),
			Branches: len(spec.Tree.Branches()),
			Controls: len(leaves),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// Controls returns the full control tree of one framework.
func (h *FrameworkHandler) Controls(w http.ResponseWriter, r *http.Request) {
	ft := maturity.FrameworkType(chi.URLParam(r, "framework"))

	spec, err := catalog.Framework(ft)
	if err != nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "unknown framework"})
		return
	}

	response := struct {
		Type     maturity.FrameworkType  `json:"type"`
		Name     string                  `json:"name"`
		Version  string                  `json:"version"`
		Branches []*maturity.ControlNode `json:"branches"`
	}{
		Type:     spec.Type,
		Name:     spec.Name,
		Version:  spec.Version,
		Branches: spec.Tree.Branches(),
	}

	writeJSON(w, http.StatusOK, response)
}
