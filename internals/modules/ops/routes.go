package ops

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetAllChecks)
	r.Get("/{checkID}", h.GetCheck)
	r.Get("/{checkID}/archives", h.GetArchives)
	r.Get("/{checkID}/archives/{archive}", h.GetArchive)

	return r
}

/*
- GET: /checks -> every stored check with its state, invalid ones included
- GET: /checks/{checkID} -> the validated check
- GET: /checks/{checkID}/archives -> archive keys of the check's rotated logs
- GET: /checks/{checkID}/archives/{archive} -> archived log lines (ndjson)
*/
