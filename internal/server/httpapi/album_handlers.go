package httpapi

import "net/http"

const maxAlbumPhotos = 10

func (h *Handler) uploadPhotos(w http.ResponseWriter, r *http.Request) {
	u := caller(r)

	paths, err := h.receiveImages(w, r, u.ID, maxAlbumPhotos)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	album, err := h.albums.Upload(r.Context(), u.ID, paths)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, album)
}

func (h *Handler) listAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albums.List(r.Context(), caller(r).ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeSuccess(w, albums)
}
