package httpapi

import "net/http"

type suspendRequest struct {
	UID    string `json:"uid"`
	Reason string `json:"reason"`
}

type targetRequest struct {
	UID string `json:"uid"`
}

func (a *api) handleAdminSuspend(w http.ResponseWriter, r *http.Request) {
	var req suspendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	res, err := a.lifecycleSvc.Suspend(r.Context(), CurrentUID(r.Context()), req.UID, req.Reason)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (a *api) handleAdminReactivate(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	res, err := a.lifecycleSvc.Reactivate(r.Context(), CurrentUID(r.Context()), req.UID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (a *api) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	res, err := a.lifecycleSvc.DeleteCompletely(r.Context(), CurrentUID(r.Context()), req.UID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

func (a *api) handleAdminSync(w http.ResponseWriter, r *http.Request) {
	res, err := a.syncSvc.Sync(r.Context(), CurrentUID(r.Context()))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
