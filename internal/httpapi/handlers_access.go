package httpapi

import "net/http"

func (a *api) handleAccessCheck(w http.ResponseWriter, r *http.Request) {
	status, err := a.accessSvc.CheckAccess(r.Context(), CurrentUID(r.Context()))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}
