package proxy

import (
	"net/http"

	"github.com/mandalnilabja/grokway/internal/transport/http/handler/shared"
	"github.com/mandalnilabja/grokway/internal/types"
)

const ownedBy = "grok"

// ListModels handles GET /v1/models.
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	list := types.ModelList{Object: types.ObjectList, Data: []types.ModelObject{}}
	for _, m := range h.Catalog.Models() {
		list.Data = append(list.Data, modelObject(m.ID))
	}
	shared.WriteJSON(w, list, http.StatusOK)
}

// GetModel handles GET /v1/models/{model}.
func (h *Handlers) GetModel(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("model")
	if _, err := h.Catalog.Lookup(id); err != nil {
		types.WriteError(w, http.StatusNotFound, types.ErrNotFound("model '"+id+"' not found"))
		return
	}
	shared.WriteJSON(w, modelObject(id), http.StatusOK)
}

func modelObject(id string) types.ModelObject {
	return types.ModelObject{ID: id, Object: types.ObjectModel, Created: catalogEpoch, OwnedBy: ownedBy}
}

// catalogEpoch is the fixed creation time reported for every model.
const catalogEpoch = 1700000000
