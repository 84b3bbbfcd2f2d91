package order

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type createResponse struct {
	OK          bool   `json:"ok"`
	OrderID     string `json:"order_id"`
	CheckoutURL string `json:"checkout_url"`
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	// One extra MB of headroom for the form fields themselves.
	r.Body = http.MaxBytesReader(w, r.Body, MaxFiles*MaxFileBytes+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	var uploads []Upload
	if r.MultipartForm != nil {
		headers := r.MultipartForm.File["pet-file"]
		if len(headers) > MaxFiles {
			http.Error(w, ErrTooManyFiles.Error(), http.StatusBadRequest)
			return
		}
		for _, fh := range headers {
			if fh.Filename == "" {
				continue
			}
			if fh.Size > MaxFileBytes {
				http.Error(w, ErrFileTooLarge.Error()+" ("+fh.Filename+")", http.StatusBadRequest)
				return
			}
			f, err := fh.Open()
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			uploads = append(uploads, Upload{Name: fh.Filename, Data: data})
		}
	}

	orderID, checkoutURL, err := h.svc.CreateOrder(r.Context(),
		r.FormValue("pet-name"), r.FormValue("user-email"), uploads)
	switch {
	case err == nil:
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrTooManyFiles),
		errors.Is(err, ErrFileTooLarge),
		errors.Is(err, ErrCallbackNotPublic):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrCheckoutFailed):
		http.Error(w, "failed to create checkout, try again", http.StatusBadGateway)
		return
	default:
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(createResponse{OK: true, OrderID: orderID, CheckoutURL: checkoutURL})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	o, err := h.svc.GetOrder(r.Context(), orderID)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(o)
}
