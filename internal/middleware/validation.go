package middleware

import (
	"mime"
	"net/http"

	"github.com/go-chi/render"

	apierrors "viewership/internal/errors"
)

// ContentTypeValidator rejects requests with a body whose media type is
// not one of allowed. Parameters such as the multipart boundary are
// ignored. GET, HEAD and DELETE pass through.
func ContentTypeValidator(allowed ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodDelete:
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Content-Type")
			if header == "" {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, apierrors.New(http.StatusBadRequest, "MISSING_CONTENT_TYPE",
					"Content-Type header is required"))
				return
			}

			mediaType, _, err := mime.ParseMediaType(header)
			if err == nil {
				for _, a := range allowed {
					if mediaType == a {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			render.Status(r, http.StatusUnsupportedMediaType)
			render.JSON(w, r, apierrors.NewWithDetails(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type", map[string]interface{}{
					"content_type": header,
					"allowed":      allowed,
				}))
		})
	}
}
